// Package github implements the GitHub REST API client used by the API
// crawler. It measures repositories without cloning them: the code search
// endpoint counts test files and the commits endpoint reads the latest
// commit.
package github

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/repoharvest/repoharvest/pkg/cache"
	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/integrations"
)

const defaultBaseURL = "https://api.github.com"

// Code search caps results at 1000 items regardless of pagination, so path
// listing stops there even when the total count is higher.
const searchResultCap = 1000

var repoURLPattern = regexp.MustCompile(`https?://(?:www\.)?github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// OwnerRepo extracts the owner and repository name from a GitHub URL.
// Returns ok=false when the URL does not point at a GitHub repository.
func OwnerRepo(rawURL string) (owner, repo string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(rawURL)
	if len(m) < 3 {
		return "", "", false
	}
	return m[1], m[2], true
}

// Extensions excluded from the test file search by default. Documentation
// and data files living under test directories would otherwise inflate the
// count.
var defaultExcludes = []string{".txt", ".md", ".html", ".xml", ".json"}

// Client provides access to the GitHub API with caching and rate-limit
// aware retries.
type Client struct {
	*integrations.Client
	baseURL  string
	excludes []string
}

// NewClient creates a GitHub API client. Pass an empty token to use
// unauthenticated requests, which get a far smaller search quota.
// Responses are cached in c so a resumed crawl does not respend quota on
// rows it already measured.
func NewClient(token string, c cache.Cache, ttl time.Duration) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:   integrations.NewClient(c, ttl, headers),
		baseURL:  defaultBaseURL,
		excludes: defaultExcludes,
	}
}

// WithBaseURL points the client at a different API root. Used in tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// WithExcludes replaces the extensions excluded from the test file search.
func (c *Client) WithExcludes(exts []string) *Client {
	c.excludes = exts
	return c
}

// Commit identifies the most recent commit on the default branch.
type Commit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
}

// CountTestFiles returns the number of files in owner/repo whose path
// contains "test", as reported by the code search API.
func (c *Client) CountTestFiles(ctx context.Context, owner, repo string, refresh bool) (int, error) {
	key := fmt.Sprintf("github:testcount:%s/%s", owner, repo)

	var result searchResponse
	err := c.Cached(ctx, key, refresh, &result, func() error {
		return c.Get(ctx, c.searchURL(owner, repo, 1, 1), &result)
	})
	if err != nil {
		return 0, err
	}
	return result.TotalCount, nil
}

// TestFilePaths lists the paths of the test files found by the code search
// API, paging through results until the search result cap.
func (c *Client) TestFilePaths(ctx context.Context, owner, repo string, refresh bool) ([]string, error) {
	key := fmt.Sprintf("github:testpaths:%s/%s", owner, repo)

	var paths []string
	err := c.Cached(ctx, key, refresh, &paths, func() error {
		paths = paths[:0]
		for page := 1; len(paths) < searchResultCap; page++ {
			var result searchResponse
			if err := c.Get(ctx, c.searchURL(owner, repo, page, 100), &result); err != nil {
				return err
			}
			for _, item := range result.Items {
				paths = append(paths, item.Path)
			}
			if len(result.Items) == 0 || len(paths) >= result.TotalCount {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// LatestCommit returns the most recent commit of the default branch.
func (c *Client) LatestCommit(ctx context.Context, owner, repo string, refresh bool) (*Commit, error) {
	key := fmt.Sprintf("github:commit:%s/%s", owner, repo)

	var commits []Commit
	err := c.Cached(ctx, key, refresh, &commits, func() error {
		url := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=1", c.baseURL, owner, repo)
		return c.Get(ctx, url, &commits)
	})
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, errors.New(errors.ErrCodeCommitFailed, "repository %s/%s has no commits", owner, repo)
	}
	return &commits[0], nil
}

func (c *Client) searchURL(owner, repo string, page, perPage int) string {
	query := "test in:path"
	for _, ext := range c.excludes {
		query += " -filename:" + ext
	}
	query += fmt.Sprintf(" repo:%s/%s", owner, repo)
	return fmt.Sprintf("%s/search/code?q=%s&page=%d&per_page=%d",
		c.baseURL, url.QueryEscape(query), page, perPage)
}

type searchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Path string `json:"path"`
	} `json:"items"`
}
