// Package table implements the row-oriented project table the toolkit is
// built around: reading the grant program's TSV export, cleaning it with
// additive flags, and partitioning it by hosting domain.
//
// Cleaning never drops a row. Problems are recorded as boolean flag columns
// so that every input row is still visible, and accountable, in every
// downstream output.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/repoharvest/repoharvest/pkg/errors"
)

// Column names of the source table. The input TSV has the first three; the
// cleaner appends the rest.
const (
	ColProjectRef    = "projectref"
	ColGrantPage     = "nlnetpage"
	ColRepoURL       = "repourl"
	ColDuplicate     = "duplicate_flag"
	ColNullValue     = "null_value_flag"
	ColDomain        = "repodomain"
	ColDomainFailed  = "domain_extraction_flag"
	ColIncompleteURL = "incomplete_url_flag"
	ColBaseRepoURL   = "base_repo_url"
	ColBaseRepoURLOK = "base_repo_url_flag"
)

// Record is one row of the project table.
//
// The three source columns are followed by the cleaning annotations. Flags
// are additive: a flagged record stays in the table and is skipped (not
// deleted) by the crawlers.
type Record struct {
	ProjectRef string
	GrantPage  string
	RepoURL    string

	Duplicate     bool // identical to an earlier row
	NullValue     bool // a required column is empty
	DomainFailed  bool // URL scheme unsupported or unparseable; Domain is empty
	IncompleteURL bool // URL lacks host or repository path components

	Domain        string // host component of RepoURL, www-stripped
	BaseRepoURL   string // canonical repository root URL
	BaseRepoURLOK bool   // true when base URL derivation succeeded
}

// Table is an ordered collection of records. Row order is the input order
// and is preserved by every operation.
type Table struct {
	Records []Record
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Records) }

// ReadTSV reads the raw grant export. The file is not a regular TSV: most
// lines carry three tab-separated columns, but continuation lines carry a
// single column (an additional repository URL for the preceding project)
// and inherit the project reference and page of the last full row. Any
// other shape aborts the run.
func ReadTSV(r io.Reader) (*Table, error) {
	tbl := &Table{}
	var lastRef, lastPage string

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read input")
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		switch len(cols) {
		case 3:
			lastRef, lastPage = cols[0], cols[1]
			tbl.Records = append(tbl.Records, Record{ProjectRef: cols[0], GrantPage: cols[1], RepoURL: cols[2]})
		case 1:
			tbl.Records = append(tbl.Records, Record{ProjectRef: lastRef, GrantPage: lastPage, RepoURL: cols[0]})
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: expected 1 or 3 columns, got %d", i+1, len(cols))
		}
	}
	return tbl, nil
}

// ReadTSVFile reads the raw grant export from path.
func ReadTSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadTSV(f)
}

// ReadCSV reads a table previously written by WriteCSV. Flag columns are
// optional so that a raw three-column CSV loads too; unknown columns are
// ignored. A missing repourl column is a fatal input error.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse csv")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty input: no header row")
	}

	idx := map[string]int{}
	for i, name := range rows[0] {
		idx[strings.TrimSpace(name)] = i
	}
	if _, ok := idx[ColRepoURL]; !ok {
		return nil, errors.New(errors.ErrCodeMissingColumn, "input has no %q column", ColRepoURL)
	}

	field := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	flag := func(row []string, col string) bool {
		v, _ := strconv.ParseBool(strings.ToLower(field(row, col)))
		return v
	}

	tbl := &Table{}
	for _, row := range rows[1:] {
		tbl.Records = append(tbl.Records, Record{
			ProjectRef:    field(row, ColProjectRef),
			GrantPage:     field(row, ColGrantPage),
			RepoURL:       field(row, ColRepoURL),
			Duplicate:     flag(row, ColDuplicate),
			NullValue:     flag(row, ColNullValue),
			DomainFailed:  flag(row, ColDomainFailed),
			IncompleteURL: flag(row, ColIncompleteURL),
			Domain:        field(row, ColDomain),
			BaseRepoURL:   field(row, ColBaseRepoURL),
			BaseRepoURLOK: flag(row, ColBaseRepoURLOK),
		})
	}
	return tbl, nil
}

// ReadCSVFile reads a cleaned table from path.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes the table with all annotation columns.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		ColProjectRef, ColGrantPage, ColRepoURL,
		ColDuplicate, ColNullValue, ColDomain, ColDomainFailed,
		ColIncompleteURL, ColBaseRepoURL, ColBaseRepoURLOK,
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range t.Records {
		row := []string{
			rec.ProjectRef, rec.GrantPage, rec.RepoURL,
			formatBool(rec.Duplicate), formatBool(rec.NullValue),
			rec.Domain, formatBool(rec.DomainFailed),
			formatBool(rec.IncompleteURL), rec.BaseRepoURL, formatBool(rec.BaseRepoURLOK),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path, creating parent directories.
func (t *Table) WriteCSVFile(path string) error {
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatBool(b bool) string { return strconv.FormatBool(b) }

func dirOf(path string) string {
	if i := strings.LastIndexByte(path, os.PathSeparator); i > 0 {
		return path[:i]
	}
	return "."
}

// String summarizes the table for logging.
func (t *Table) String() string {
	return fmt.Sprintf("table with %d rows", len(t.Records))
}
