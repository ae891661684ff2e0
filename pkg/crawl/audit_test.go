package crawl

import (
	"bytes"
	"strings"
	"testing"
)

func TestAuditWriteAndParse(t *testing.T) {
	var buf bytes.Buffer
	w := NewAuditWriter(&buf)

	if err := w.WriteEntry("https://github.com/a/b", []string{"tests/x.py", "tests/y.py"}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteEntry("https://github.com/a/c", nil); err != nil {
		t.Fatal(err)
	}

	want := "Repository URL: https://github.com/a/b\ntests/x.py\ntests/y.py\n\n" +
		"Repository URL: https://github.com/a/c\n\n"
	if buf.String() != want {
		t.Errorf("audit log = %q, want %q", buf.String(), want)
	}

	repos, err := ParseAudit(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := repos["https://github.com/a/b"]; len(got) != 2 || got[0] != "tests/x.py" {
		t.Errorf("parsed paths = %v", got)
	}
	if paths, ok := repos["https://github.com/a/c"]; !ok || len(paths) != 0 {
		t.Errorf("zero-test repo should parse with empty paths, got %v ok=%v", paths, ok)
	}
}

func TestParseAuditAccumulatesReruns(t *testing.T) {
	log := "Repository URL: u\na.py\n\nRepository URL: u\nb.py\n\n"
	repos, err := ParseAudit(strings.NewReader(log))
	if err != nil {
		t.Fatal(err)
	}
	if got := repos["u"]; len(got) != 2 || got[1] != "b.py" {
		t.Errorf("paths = %v", got)
	}
}

func TestMergeTestFilePaths(t *testing.T) {
	res := &Results{Rows: []Result{
		{Record: cleanRecord("r1", "https://github.com/a/b"), TestFileCount: 1},
		{Record: cleanRecord("r2", "https://github.com/a/c"), TestFileCount: Uncounted},
	}}
	res.MergeTestFilePaths(map[string][]string{
		"https://github.com/a/b": {"tests/x.py"},
	})

	if got := res.Rows[0].TestFilePaths; len(got) != 1 || got[0] != "tests/x.py" {
		t.Errorf("row 0 paths = %v", got)
	}
	if res.Rows[1].TestFilePaths != nil {
		t.Errorf("row without audit block should stay nil, got %v", res.Rows[1].TestFilePaths)
	}
}
