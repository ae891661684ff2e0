package langstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type memStore struct {
	entries []Entry
	seen    map[string]map[string]bool // repo -> paths
	upserts int
}

func newMemStore() *memStore {
	return &memStore{seen: map[string]map[string]bool{}}
}

func (m *memStore) Upsert(ctx context.Context, entries []Entry) error {
	m.upserts++
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memStore) ProcessedPaths(ctx context.Context, repoName string) (map[string]bool, error) {
	paths := m.seen[repoName]
	if paths == nil {
		paths = map[string]bool{}
	}
	return paths, nil
}

func (m *memStore) Close(ctx context.Context) error { return nil }

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExporterGuessesAndStores(t *testing.T) {
	cloneDir := t.TempDir()
	writeFiles(t, cloneDir, map[string]string{
		"github_com/alpha/src/main.go":    "package main",
		"github_com/alpha/lib.rs":         "fn main() {}",
		"github_com/alpha/.git/config":    "[core]",
		"gitlab_com/beta/script.py":       "print(1)",
		"gitlab_com/beta/data.unknownext": "???",
	})

	store := newMemStore()
	e := &Exporter{Store: store, CloneDir: cloneDir, Hostname: "worker-1"}
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	byPath := map[string]Entry{}
	for _, en := range store.entries {
		byPath[en.HostingProvider+"/"+en.RepoName+"/"+en.FilePath] = en
	}

	if en := byPath["github_com/alpha/src/main.go"]; en.GuessedLanguage != "Go" {
		t.Errorf("main.go guess = %q", en.GuessedLanguage)
	}
	if en := byPath["gitlab_com/beta/script.py"]; en.GuessedLanguage != "Python" {
		t.Errorf("script.py guess = %q", en.GuessedLanguage)
	}
	if en := byPath["gitlab_com/beta/data.unknownext"]; en.GuessedLanguage != "Unknown" {
		t.Errorf("unplaceable file guess = %q, want Unknown", en.GuessedLanguage)
	}
	if _, ok := byPath["github_com/alpha/.git/config"]; ok {
		t.Error(".git contents should not be exported")
	}
	for _, en := range store.entries {
		if en.Hostname != "worker-1" {
			t.Errorf("hostname = %q", en.Hostname)
		}
	}
}

func TestExporterSkipsProcessedPaths(t *testing.T) {
	cloneDir := t.TempDir()
	writeFiles(t, cloneDir, map[string]string{
		"github_com/alpha/done.py": "x",
		"github_com/alpha/new.py":  "y",
	})

	store := newMemStore()
	store.seen["alpha"] = map[string]bool{"done.py": true}

	e := &Exporter{Store: store, CloneDir: cloneDir, Hostname: "h"}
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(store.entries) != 1 || store.entries[0].FilePath != "new.py" {
		t.Errorf("entries = %+v", store.entries)
	}
}

func TestExporterBatching(t *testing.T) {
	cloneDir := t.TempDir()
	files := map[string]string{}
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		files["github_com/alpha/"+n+".go"] = "package x"
	}
	writeFiles(t, cloneDir, files)

	store := newMemStore()
	e := &Exporter{Store: store, CloneDir: cloneDir, BatchSize: 2, Hostname: "h"}
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(store.entries) != 5 {
		t.Errorf("entries = %d, want 5", len(store.entries))
	}
	if store.upserts != 3 {
		t.Errorf("upserts = %d, want 3 (2+2+1)", store.upserts)
	}
}
