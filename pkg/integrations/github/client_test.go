package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/repoharvest/repoharvest/pkg/cache"
	"github.com/repoharvest/repoharvest/pkg/errors"
)

func TestOwnerRepo(t *testing.T) {
	tests := []struct {
		url         string
		owner, repo string
		ok          bool
	}{
		{"https://github.com/org/project", "org", "project", true},
		{"https://github.com/org/project.git", "org", "project", true},
		{"https://www.github.com/org/project/tree/main", "org", "project", true},
		{"http://github.com/org/project?tab=readme", "org", "project", true},
		{"https://gitlab.com/org/project", "", "", false},
		{"not a url", "", "", false},
	}
	for _, tt := range tests {
		owner, repo, ok := OwnerRepo(tt.url)
		if owner != tt.owner || repo != tt.repo || ok != tt.ok {
			t.Errorf("OwnerRepo(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.url, owner, repo, ok, tt.owner, tt.repo, tt.ok)
		}
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("", cache.NewNullCache(), 0).WithBaseURL(srv.URL), srv
}

func TestCountTestFiles(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/code" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query().Get("q")
		want := "test in:path -filename:.txt -filename:.md -filename:.html" +
			" -filename:.xml -filename:.json repo:org/project"
		if q != want {
			t.Errorf("query = %q, want %q", q, want)
		}
		fmt.Fprint(w, `{"total_count": 42, "items": []}`)
	}))

	n, err := c.CountTestFiles(context.Background(), "org", "project", false)
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
}

func TestTestFilePathsPagination(t *testing.T) {
	pages := map[string]string{
		"1": `{"total_count": 3, "items": [{"path": "tests/a_test.go"}, {"path": "tests/b_test.go"}]}`,
		"2": `{"total_count": 3, "items": [{"path": "internal/c_test.go"}]}`,
	}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Query().Get("page")]
		if !ok {
			body = `{"total_count": 3, "items": []}`
		}
		fmt.Fprint(w, body)
	}))

	paths, err := c.TestFilePaths(context.Background(), "org", "project", false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"tests/a_test.go", "tests/b_test.go", "internal/c_test.go"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestLatestCommit(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/org/project/commits" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[{"sha": "abc123", "html_url": "https://github.com/org/project/commit/abc123"}]`)
	}))

	commit, err := c.LatestCommit(context.Background(), "org", "project", false)
	if err != nil {
		t.Fatal(err)
	}
	if commit.SHA != "abc123" {
		t.Errorf("SHA = %q", commit.SHA)
	}
}

func TestLatestCommitEmptyRepo(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	_, err := c.LatestCommit(context.Background(), "org", "empty", false)
	if errors.GetCode(err) != errors.ErrCodeCommitFailed {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeCommitFailed)
	}
}

func TestAuthHeaderSet(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"total_count": 0, "items": []}`)
	}))
	defer srv.Close()

	c := NewClient("ghp_token", cache.NewNullCache(), 0).WithBaseURL(srv.URL)
	if _, err := c.CountTestFiles(context.Background(), "o", "r", false); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer ghp_token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}
