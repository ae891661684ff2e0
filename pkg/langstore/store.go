// Package langstore persists per-file language guesses to a database.
//
// The hosted Supabase table is the primary backend; a MongoDB backend is
// available for self-hosted setups. Both deduplicate on the
// (repo_name, file_path) pair so export runs are safe to repeat.
package langstore

import "context"

// Entry is one guessed source file.
type Entry struct {
	RepoName        string
	HostingProvider string
	FilePath        string
	GuessedLanguage string
	Hostname        string
}

// Store persists language guesses.
type Store interface {
	// Upsert writes entries, updating rows that share (repo_name, file_path).
	Upsert(ctx context.Context, entries []Entry) error

	// ProcessedPaths returns the file paths already stored for repoName.
	ProcessedPaths(ctx context.Context, repoName string) (map[string]bool, error)

	// Close releases the backend connection.
	Close(ctx context.Context) error
}
