package langstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase   = "repoharvest"
	mongoCollection = "guessed_languages"
)

// MongoStore persists guesses to a MongoDB collection. It mirrors the
// hosted table's schema and unique key for setups that keep the data
// in-house.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

// Upsert writes entries, merging on (repo_name, file_path).
func (s *MongoStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(entries))
	for i, e := range entries {
		filter := bson.M{"repo_name": e.RepoName, "file_path": e.FilePath}
		update := bson.M{"$set": bson.M{
			"repo_name":        e.RepoName,
			"hosting_provider": e.HostingProvider,
			"file_path":        e.FilePath,
			"guessed_language": e.GuessedLanguage,
			"hostname":         e.Hostname,
		}}
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(update).
			SetUpsert(true)
	}
	_, err := s.coll.BulkWrite(ctx, models)
	return err
}

// ProcessedPaths returns the file paths already stored for repoName.
func (s *MongoStore) ProcessedPaths(ctx context.Context, repoName string) (map[string]bool, error) {
	opts := options.Find().SetProjection(bson.M{"file_path": 1})
	cur, err := s.coll.Find(ctx, bson.M{"repo_name": repoName}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	paths := make(map[string]bool)
	for cur.Next(ctx) {
		var doc struct {
			FilePath string `bson:"file_path"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		paths[doc.FilePath] = true
	}
	return paths, cur.Err()
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
