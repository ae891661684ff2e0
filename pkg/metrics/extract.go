package metrics

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/repoharvest/repoharvest/pkg/crawl"
	"github.com/repoharvest/repoharvest/pkg/errors"
)

// DefaultBatchSize is how many file rows are flushed to the output CSV
// at a time.
const DefaultBatchSize = 100

// Output columns.
var header = []string{
	"repo_url", "file_path",
	"num_test_cases", "num_assertions", "has_setup", "has_teardown", "complexity",
	"cyclomatic_complexity", "lines_of_code", "num_functions",
}

// Row is one measured file in the output table.
type Row struct {
	RepoURL  string
	FilePath string
	Analysis
}

// Extractor measures the Python test files of every crawled repository.
// Input rows come from a merged crawl result table; the files themselves
// are read from the retained clone trees. Output is appended in batches,
// so an interrupted run resumes where it left off.
type Extractor struct {
	Results *crawl.Results

	// CloneDir is the clone base directory of the local crawl. Rows whose
	// clone tree is gone yield zero measurements.
	CloneDir string

	// OutPath is the metrics CSV, created if missing and appended to when
	// resuming.
	OutPath string

	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int
}

// Run measures every not-yet-measured test file and returns how many
// files were analyzed this run.
func (e *Extractor) Run(ctx context.Context) (int, error) {
	logger := log.FromContext(ctx)

	done, err := readDone(e.OutPath)
	if err != nil {
		return 0, err
	}
	if len(done) > 0 {
		logger.Info("resuming metrics extraction", "measured", len(done))
	}

	f, err := os.OpenFile(e.OutPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return 0, err
		}
	}

	analyzed := 0
	pending := 0
	flush := func() error {
		w.Flush()
		return w.Error()
	}

	for i := range e.Results.Rows {
		if err := ctx.Err(); err != nil {
			return analyzed, err
		}
		row := &e.Results.Rows[i]
		if row.Skip() || len(row.TestFilePaths) == 0 {
			continue
		}

		root := crawl.ClonePath(e.CloneDir, row)
		seen := map[string]bool{}
		for _, p := range row.TestFilePaths {
			if seen[p] || !strings.HasSuffix(p, ".py") {
				continue
			}
			seen[p] = true
			key := row.RepoURL + "\x00" + p
			if done[key] {
				continue
			}

			a := AnalyzeFile(ctx, filepath.Join(root, filepath.FromSlash(p)))
			if err := w.Write(record(Row{RepoURL: row.RepoURL, FilePath: p, Analysis: a})); err != nil {
				return analyzed, err
			}
			analyzed++
			pending++
			if pending >= e.batchSize() {
				if err := flush(); err != nil {
					return analyzed, err
				}
				logger.Info("saved metrics batch", "analyzed", analyzed)
				pending = 0
			}
		}
	}

	if err := flush(); err != nil {
		return analyzed, err
	}
	logger.Info("metrics extraction finished", "analyzed", analyzed, "skipped", len(done))
	return analyzed, nil
}

func (e *Extractor) batchSize() int {
	if e.BatchSize > 0 {
		return e.BatchSize
	}
	return DefaultBatchSize
}

func record(r Row) []string {
	return []string{
		r.RepoURL, r.FilePath,
		strconv.Itoa(r.NumTestCases), strconv.Itoa(r.NumAssertions),
		strconv.FormatBool(r.HasSetup), strconv.FormatBool(r.HasTeardown),
		strconv.Itoa(r.Complexity),
		strconv.Itoa(r.CyclomaticComplexity), strconv.Itoa(r.LinesOfCode), strconv.Itoa(r.NumFunctions),
	}
}

// readDone loads the repo and path keys already present in the output
// CSV. A missing file means a fresh run.
func readDone(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(rows))
	for _, r := range rows {
		done[r.RepoURL+"\x00"+r.FilePath] = true
	}
	return done, nil
}

// ReadRows parses a metrics CSV.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse metrics csv")
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rows []Row
	for _, rec := range records[1:] {
		if len(rec) < len(header) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "metrics row has %d fields, want %d", len(rec), len(header))
		}
		atoi := func(s string) int {
			v, _ := strconv.Atoi(s)
			return v
		}
		parseBool := func(s string) bool {
			v, _ := strconv.ParseBool(s)
			return v
		}
		rows = append(rows, Row{
			RepoURL:  rec[0],
			FilePath: rec[1],
			Analysis: Analysis{
				NumTestCases:         atoi(rec[2]),
				NumAssertions:        atoi(rec[3]),
				HasSetup:             parseBool(rec[4]),
				HasTeardown:          parseBool(rec[5]),
				Complexity:           atoi(rec[6]),
				CyclomaticComplexity: atoi(rec[7]),
				LinesOfCode:          atoi(rec[8]),
				NumFunctions:         atoi(rec[9]),
			},
		})
	}
	return rows, nil
}

// ReadRowsFile parses a metrics CSV from path.
func ReadRowsFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadRows(f)
}
