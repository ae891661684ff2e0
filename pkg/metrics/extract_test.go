package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/repoharvest/repoharvest/pkg/crawl"
	"github.com/repoharvest/repoharvest/pkg/table"
)

func crawledRow(repoURL, domain, base string, paths ...string) crawl.Result {
	return crawl.Result{
		Record: table.Record{
			RepoURL:       repoURL,
			Domain:        domain,
			BaseRepoURL:   base,
			BaseRepoURLOK: true,
		},
		CloneStatus:   crawl.CloneSuccessful,
		TestFileCount: len(paths),
		TestFilePaths: paths,
	}
}

func TestExtractorMeasuresAndResumes(t *testing.T) {
	dir := t.TempDir()
	cloneDir := filepath.Join(dir, "clones")
	out := filepath.Join(dir, "test_metrics.csv")

	src := filepath.Join(cloneDir, "github_com", "b", "tests", "test_add.py")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("def test_add():\n    assert 1 + 1 == 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := &crawl.Results{Rows: []crawl.Result{
		crawledRow("https://github.com/a/b", "github.com", "https://github.com/a/b.git",
			"tests/test_add.py", "tests/test_add.py", "tests/fixtures.json"),
	}}

	ex := &Extractor{Results: res, CloneDir: cloneDir, OutPath: out}
	n, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 1 {
		t.Fatalf("analyzed %d files, want 1 (duplicates and non-python paths skipped)", n)
	}

	rows, err := ReadRowsFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("output has %d rows, want 1", len(rows))
	}
	got := rows[0]
	if got.RepoURL != "https://github.com/a/b" || got.FilePath != "tests/test_add.py" {
		t.Errorf("row = %q %q", got.RepoURL, got.FilePath)
	}
	if got.NumTestCases != 1 || got.NumAssertions != 1 {
		t.Errorf("NumTestCases = %d, NumAssertions = %d, want 1 and 1", got.NumTestCases, got.NumAssertions)
	}
	if got.LinesOfCode != 2 {
		t.Errorf("LinesOfCode = %d, want 2", got.LinesOfCode)
	}

	// A rerun finds everything measured and appends nothing.
	n, err = ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run (resume): %v", err)
	}
	if n != 0 {
		t.Errorf("resumed run analyzed %d files, want 0", n)
	}
	rows, err = ReadRowsFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("output has %d rows after resume, want 1", len(rows))
	}
}

func TestExtractorMissingCloneYieldsZeroRow(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "test_metrics.csv")

	res := &crawl.Results{Rows: []crawl.Result{
		crawledRow("https://github.com/a/gone", "github.com", "https://github.com/a/gone.git",
			"tests/test_gone.py"),
	}}

	ex := &Extractor{Results: res, CloneDir: filepath.Join(dir, "clones"), OutPath: out}
	n, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 1 {
		t.Fatalf("analyzed %d files, want 1", n)
	}

	rows, err := ReadRowsFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("output has %d rows, want 1", len(rows))
	}
	if rows[0].Analysis != (Analysis{}) {
		t.Errorf("missing clone measured as %+v, want zero", rows[0].Analysis)
	}
}

func TestExtractorSkipsFlaggedRows(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "test_metrics.csv")

	flagged := crawledRow("https://github.com/a/dup", "github.com", "https://github.com/a/dup.git",
		"tests/test_dup.py")
	flagged.Duplicate = true

	ex := &Extractor{
		Results:  &crawl.Results{Rows: []crawl.Result{flagged}},
		CloneDir: filepath.Join(dir, "clones"),
		OutPath:  out,
	}
	n, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 0 {
		t.Errorf("analyzed %d files from a flagged row, want 0", n)
	}
}
