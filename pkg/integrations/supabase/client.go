// Package supabase implements the PostgREST client for the hosted table
// the language guesses are exported to.
//
// Credentials come from the SUPABASE_URL and SUPABASE_KEY environment
// variables. Commands that export refuse to start without them.
package supabase

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/integrations"
)

// Environment variables holding the project endpoint and service key.
const (
	EnvURL = "SUPABASE_URL"
	EnvKey = "SUPABASE_KEY"
)

// Table is the hosted table holding one row per guessed source file.
const Table = "guessed_languages"

// Row is one record of the guessed_languages table. ID is assigned by the
// database and left empty on insert.
type Row struct {
	ID              int64  `json:"id,omitempty"`
	RepoName        string `json:"repo_name"`
	HostingProvider string `json:"hosting_provider"`
	FilePath        string `json:"file_path"`
	GuessedLanguage string `json:"guessed_language"`
	DateCreated     string `json:"date_created,omitempty"`
	DateUpdated     string `json:"date_updated,omitempty"`
	Hostname        string `json:"hostname,omitempty"`
}

// Client talks to a Supabase project's PostgREST endpoint.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for the project at baseURL authenticating
// with key. Both are required.
func NewClient(baseURL, key string) (*Client, error) {
	if baseURL == "" || key == "" {
		return nil, errors.New(errors.ErrCodeMissingCredentials,
			"%s and %s must be set", EnvURL, EnvKey)
	}
	headers := map[string]string{
		"apikey":        key,
		"Authorization": "Bearer " + key,
	}
	return &Client{
		Client:  integrations.NewClient(nil, 0, headers),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// NewClientFromEnv creates a client from SUPABASE_URL and SUPABASE_KEY.
func NewClientFromEnv() (*Client, error) {
	return NewClient(os.Getenv(EnvURL), os.Getenv(EnvKey))
}

// Insert appends rows to the table. Duplicate key conflicts are errors.
func (c *Client) Insert(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	headers := map[string]string{"Prefer": "return=minimal"}
	return c.Post(ctx, c.tableURL(nil), headers, rows, nil)
}

// Upsert inserts rows, merging into existing rows that share the same
// (repo_name, file_path) pair. Used by resumed export runs so a file seen
// twice updates its guess instead of failing on the unique constraint.
func (c *Client) Upsert(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	q := url.Values{"on_conflict": {"repo_name,file_path"}}
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"}
	return c.Post(ctx, c.tableURL(q), headers, rows, nil)
}

// SelectFilePaths returns the (repo_name, file_path) pairs already present
// for repoName, letting a resumed export skip files it has pushed before.
func (c *Client) SelectFilePaths(ctx context.Context, repoName string) (map[string]bool, error) {
	q := url.Values{
		"select":    {"file_path"},
		"repo_name": {"eq." + repoName},
	}
	var rows []Row
	if err := c.Get(ctx, c.tableURL(q), &rows); err != nil {
		return nil, err
	}
	paths := make(map[string]bool, len(rows))
	for _, r := range rows {
		paths[r.FilePath] = true
	}
	return paths, nil
}

func (c *Client) tableURL(q url.Values) string {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, Table)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
