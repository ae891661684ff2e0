package crawl

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/table"
)

// Checkpoint persists the result table after every processed row. Saves go
// through a temp file and rename so an interrupt mid-write never corrupts
// the previous checkpoint.
type Checkpoint struct {
	// RunID tags log lines and events of one crawl run. Resuming starts a
	// new run over the same checkpoint file.
	RunID string

	// Path of the checkpoint CSV.
	Path string

	// Resumed is true when the checkpoint file existed and was loaded.
	Resumed bool

	Results *Results
}

// LoadCheckpoint opens the checkpoint at outputPath, falling back to
// initializing a fresh result table from the cleaned input at inputPath
// when no checkpoint exists yet.
func LoadCheckpoint(inputPath, outputPath string) (*Checkpoint, error) {
	cp := &Checkpoint{
		RunID: uuid.NewString(),
		Path:  outputPath,
	}

	if _, err := os.Stat(outputPath); err == nil {
		res, err := ReadResultsFile(outputPath)
		if err != nil {
			return nil, err
		}
		cp.Results = res
		cp.Resumed = true
		return cp, nil
	}

	tbl, err := table.ReadCSVFile(inputPath)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "no checkpoint at %s and no input", outputPath)
	}
	cp.Results = FromTable(tbl)
	return cp, nil
}

// Save writes the full result table atomically.
func (cp *Checkpoint) Save() error {
	dir := filepath.Dir(cp.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(cp.Path)+".tmp")
	if err != nil {
		return err
	}
	if err := cp.Results.WriteResults(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), cp.Path)
}
