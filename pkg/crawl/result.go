package crawl

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/table"
)

// CloneStatus records how acquiring the repository ended, whether by
// clone or through the API.
type CloneStatus string

const (
	CloneUnknown    CloneStatus = ""
	CloneSuccessful CloneStatus = "successful"
	CloneFailed     CloneStatus = "failed"
	// MeasureFailed marks rows the API crawler gave up on after its
	// bounded retries.
	MeasureFailed CloneStatus = "api_failed"
)

// Uncounted marks a row whose test files have not been counted yet. The
// sentinel survives checkpoint round trips, which is how a resumed run
// tells pending rows from rows that genuinely have zero test files.
const Uncounted = -1

// Result columns appended to the table columns.
const (
	ColCloneStatus    = "clone_status"
	ColTestFileCount  = "testfilecountlocal"
	ColLastCommitHash = "last_commit_hash"
	ColLastCommitURL  = "last_commit_url"
	ColExplanation    = "explanation"
	ColTestFilePaths  = "test_file_paths"
)

// Result is one row of the crawl output: the cleaned record plus the
// measurements taken for it.
type Result struct {
	table.Record

	CloneStatus    CloneStatus
	TestFileCount  int
	LastCommitHash string
	LastCommitURL  string // set by the API crawler only
	Explanation    string

	// TestFilePaths is populated by merging the audit log back in and is
	// only written when non-empty somewhere in the table.
	TestFilePaths []string
}

// Skip reports whether the row should not be crawled at all: cleaning
// flagged it or the base URL could not be derived. Flagged rows stay in the
// output with their flags intact.
func (r *Result) Skip() bool {
	return r.Duplicate || r.DomainFailed || r.IncompleteURL || !r.BaseRepoURLOK
}

// Done reports whether the row reached a terminal state, meaning a
// resumed run can pass over it. Failures are terminal: a row that could
// not be cloned or measured keeps its failure as data rather than being
// retried forever.
func (r *Result) Done() bool {
	if r.Skip() {
		return true
	}
	if r.CloneStatus == CloneFailed || r.CloneStatus == MeasureFailed {
		return true
	}
	if r.CloneStatus == CloneSuccessful && r.TestFileCount != Uncounted {
		// Counted clone, complete even when the commit hash could not be
		// read.
		return true
	}
	return r.TestFileCount != Uncounted && r.LastCommitHash != ""
}

// Results is the crawl output table. Row order matches the input table.
type Results struct {
	Rows []Result
}

// FromTable initializes a result table from a cleaned project table, with
// every row pending.
func FromTable(t *table.Table) *Results {
	res := &Results{Rows: make([]Result, len(t.Records))}
	for i, rec := range t.Records {
		res.Rows[i] = Result{Record: rec, TestFileCount: Uncounted}
	}
	return res
}

// ReadResults reads a checkpointed result table.
func ReadResults(r io.Reader) (*Results, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse results csv")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty results file")
	}

	idx := map[string]int{}
	for i, name := range rows[0] {
		idx[strings.TrimSpace(name)] = i
	}
	if _, ok := idx[table.ColRepoURL]; !ok {
		return nil, errors.New(errors.ErrCodeMissingColumn, "results file has no %q column", table.ColRepoURL)
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

	res := &Results{}
	for _, row := range rows[1:] {
		count := Uncounted
		if v, err := strconv.Atoi(field(row, ColTestFileCount)); err == nil {
			count = v
		}
		var paths []string
		if joined := field(row, ColTestFilePaths); joined != "" {
			paths = strings.Split(joined, ";")
		}
		res.Rows = append(res.Rows, Result{
			Record: table.Record{
				ProjectRef:    field(row, table.ColProjectRef),
				GrantPage:     field(row, table.ColGrantPage),
				RepoURL:       field(row, table.ColRepoURL),
				Duplicate:     flag(row, table.ColDuplicate),
				NullValue:     flag(row, table.ColNullValue),
				DomainFailed:  flag(row, table.ColDomainFailed),
				IncompleteURL: flag(row, table.ColIncompleteURL),
				Domain:        field(row, table.ColDomain),
				BaseRepoURL:   field(row, table.ColBaseRepoURL),
				BaseRepoURLOK: flag(row, table.ColBaseRepoURLOK),
			},
			CloneStatus:    CloneStatus(field(row, ColCloneStatus)),
			TestFileCount:  count,
			LastCommitHash: field(row, ColLastCommitHash),
			LastCommitURL:  field(row, ColLastCommitURL),
			Explanation:    field(row, ColExplanation),
			TestFilePaths:  paths,
		})
	}
	return res, nil
}

// ReadResultsFile reads a checkpointed result table from path.
func ReadResultsFile(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadResults(f)
}

// WriteResults writes the full result table.
func (res *Results) WriteResults(w io.Writer) error {
	withPaths := false
	for _, r := range res.Rows {
		if len(r.TestFilePaths) > 0 {
			withPaths = true
			break
		}
	}

	header := []string{
		table.ColProjectRef, table.ColGrantPage, table.ColRepoURL,
		table.ColDuplicate, table.ColNullValue, table.ColDomain, table.ColDomainFailed,
		table.ColIncompleteURL, table.ColBaseRepoURL, table.ColBaseRepoURLOK,
		ColCloneStatus, ColTestFileCount, ColLastCommitHash, ColLastCommitURL, ColExplanation,
	}
	if withPaths {
		header = append(header, ColTestFilePaths)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range res.Rows {
		row := []string{
			r.ProjectRef, r.GrantPage, r.RepoURL,
			strconv.FormatBool(r.Duplicate), strconv.FormatBool(r.NullValue),
			r.Domain, strconv.FormatBool(r.DomainFailed),
			strconv.FormatBool(r.IncompleteURL), r.BaseRepoURL, strconv.FormatBool(r.BaseRepoURLOK),
			string(r.CloneStatus), strconv.Itoa(r.TestFileCount),
			r.LastCommitHash, r.LastCommitURL, r.Explanation,
		}
		if withPaths {
			row = append(row, strings.Join(r.TestFilePaths, ";"))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsFile writes the result table to path, creating parent
// directories.
func (res *Results) WriteResultsFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.WriteResults(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Pending counts the rows still waiting for measurements.
func (res *Results) Pending() int {
	n := 0
	for i := range res.Rows {
		if !res.Rows[i].Done() {
			n++
		}
	}
	return n
}
