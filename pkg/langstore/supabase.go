package langstore

import (
	"context"

	"github.com/repoharvest/repoharvest/pkg/integrations/supabase"
)

// SupabaseStore persists guesses to the hosted guessed_languages table.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore wraps an authenticated Supabase client.
func NewSupabaseStore(client *supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

// Upsert writes entries, merging on (repo_name, file_path).
func (s *SupabaseStore) Upsert(ctx context.Context, entries []Entry) error {
	rows := make([]supabase.Row, len(entries))
	for i, e := range entries {
		rows[i] = supabase.Row{
			RepoName:        e.RepoName,
			HostingProvider: e.HostingProvider,
			FilePath:        e.FilePath,
			GuessedLanguage: e.GuessedLanguage,
			Hostname:        e.Hostname,
		}
	}
	return s.client.Upsert(ctx, rows)
}

// ProcessedPaths returns the file paths already stored for repoName.
func (s *SupabaseStore) ProcessedPaths(ctx context.Context, repoName string) (map[string]bool, error) {
	return s.client.SelectFilePaths(ctx, repoName)
}

// Close is a no-op; the underlying client is plain HTTP.
func (s *SupabaseStore) Close(ctx context.Context) error { return nil }

var _ Store = (*SupabaseStore)(nil)
