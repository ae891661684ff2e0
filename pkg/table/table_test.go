package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/repoharvest/repoharvest/pkg/errors"
)

func TestReadTSVCarryForward(t *testing.T) {
	input := "2021-04-001\thttps://nlnet.nl/project/alpha\thttps://github.com/org/alpha\n" +
		"https://github.com/org/alpha-docs\n" +
		"2021-04-002\thttps://nlnet.nl/project/beta\thttps://gitlab.com/org/beta\n"

	tbl, err := ReadTSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tbl.Len())
	}

	second := tbl.Records[1]
	if second.ProjectRef != "2021-04-001" {
		t.Errorf("continuation projectref = %q, want inherited 2021-04-001", second.ProjectRef)
	}
	if second.GrantPage != "https://nlnet.nl/project/alpha" {
		t.Errorf("continuation page = %q, want inherited page", second.GrantPage)
	}
	if second.RepoURL != "https://github.com/org/alpha-docs" {
		t.Errorf("continuation repourl = %q", second.RepoURL)
	}
	if tbl.Records[2].ProjectRef != "2021-04-002" {
		t.Errorf("third row projectref = %q", tbl.Records[2].ProjectRef)
	}
}

func TestReadTSVMalformedLine(t *testing.T) {
	input := "ref\tpage\turl\n" +
		"only\ttwo\n"

	_, err := ReadTSV(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for a two-column line")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidFormat)
	}
}

func TestReadTSVSkipsBlankLines(t *testing.T) {
	input := "ref\tpage\thttps://github.com/a/b\n\n\nhttps://github.com/a/c\n"
	tbl, err := ReadTSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len = %d, want 2", tbl.Len())
	}
}

func TestCSVRoundTrip(t *testing.T) {
	tbl := &Table{Records: []Record{
		{
			ProjectRef: "ref-1", GrantPage: "page", RepoURL: "https://github.com/a/b",
			Domain: "github.com", BaseRepoURL: "https://github.com/a/b", BaseRepoURLOK: true,
		},
		{
			ProjectRef: "ref-2", RepoURL: "ftp://example.org/repo",
			NullValue: false, DomainFailed: true, IncompleteURL: true,
		},
	}}

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 {
		t.Fatalf("Len = %d, want 2", got.Len())
	}
	if got.Records[0] != tbl.Records[0] {
		t.Errorf("row 0 = %+v, want %+v", got.Records[0], tbl.Records[0])
	}
	if !got.Records[1].DomainFailed || !got.Records[1].IncompleteURL {
		t.Errorf("row 1 flags lost: %+v", got.Records[1])
	}
}

func TestReadCSVMissingRepoURLColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("projectref,nlnetpage\nref,page\n"))
	if err == nil {
		t.Fatal("expected error for missing repourl column")
	}
	if errors.GetCode(err) != errors.ErrCodeMissingColumn {
		t.Errorf("error code = %v", errors.GetCode(err))
	}
}

func TestReadCSVRawThreeColumns(t *testing.T) {
	input := "projectref,nlnetpage,repourl\nref,page,https://github.com/a/b\n"
	tbl, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	rec := tbl.Records[0]
	if rec.RepoURL != "https://github.com/a/b" {
		t.Errorf("repourl = %q", rec.RepoURL)
	}
	if rec.Duplicate || rec.DomainFailed {
		t.Error("absent flag columns should read as false")
	}
}
