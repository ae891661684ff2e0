package crawl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/repoharvest/repoharvest/pkg/gitutil"
	"github.com/repoharvest/repoharvest/pkg/table"
)

// LocalCrawler clones every crawlable repository and measures it on disk.
type LocalCrawler struct {
	// CloneDir is the base directory clones land in, organized into
	// per-domain subdirectories.
	CloneDir string

	// KeepClones retains working trees after a row is measured. By default
	// each clone is deleted as soon as its row is checkpointed.
	KeepClones bool

	// Excludes are file extensions not counted as test files. Nil means
	// DefaultExcludes.
	Excludes []string

	// ErrorLog receives one block per failed clone. Optional.
	ErrorLog io.Writer

	// Audit receives the test file paths of each counted repository.
	Audit *AuditWriter

	// Events receives progress events. Optional.
	Events chan<- Event

	Checkpoint *Checkpoint
}

// Run processes every pending row, checkpointing after each one. A row
// failure is recorded on the row; only checkpoint write failures and
// context cancellation abort the run.
func (c *LocalCrawler) Run(ctx context.Context) error {
	logger := log.FromContext(ctx).With("run", c.Checkpoint.RunID)
	res := c.Checkpoint.Results
	total := len(res.Rows)
	logger.Info("starting local crawl", "rows", total, "pending", res.Pending(), "resumed", c.Checkpoint.Resumed)

	for i := range res.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := &res.Rows[i]
		if row.Skip() || row.Done() {
			notify(c.Events, Event{Kind: EventRowSkipped, Row: i, Total: total, RepoURL: row.RepoURL})
			continue
		}

		notify(c.Events, Event{Kind: EventRowStarted, Row: i, Total: total, RepoURL: row.RepoURL})
		err := c.processRow(ctx, logger, row)
		if err != nil {
			logger.Error("row failed", "repo", row.RepoURL, "err", err)
		}
		if err := c.Checkpoint.Save(); err != nil {
			return err
		}
		notify(c.Events, Event{Kind: EventRowFinished, Row: i, Total: total, RepoURL: row.RepoURL, Err: err})
	}

	res.Explain()
	if err := c.Checkpoint.Save(); err != nil {
		return err
	}
	logger.Info("local crawl finished", "rows", total, "pending", res.Pending())
	return nil
}

func (c *LocalCrawler) processRow(ctx context.Context, logger *log.Logger, row *Result) error {
	dest := c.clonePath(row)

	if !reusableClone(row, dest) {
		// Whatever is at dest is a remnant of an interrupted clone, not a
		// tree safe to measure.
		if err := os.RemoveAll(dest); err != nil {
			return err
		}
		logger.Info("cloning", "repo", row.BaseRepoURL, "dest", dest)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := gitutil.Clone(ctx, row.BaseRepoURL, dest); err != nil {
			row.CloneStatus = CloneFailed
			row.TestFileCount = Uncounted
			c.logCloneError(row.RepoURL, err)
			return err
		}
	}
	row.CloneStatus = CloneSuccessful

	if !c.KeepClones {
		defer os.RemoveAll(dest)
	}

	if row.LastCommitHash == "" {
		hash, err := gitutil.HeadCommit(ctx, dest)
		if err != nil {
			logger.Warn("could not read HEAD", "repo", row.RepoURL, "err", err)
		} else {
			row.LastCommitHash = hash
		}
	}

	if row.TestFileCount == Uncounted {
		paths, err := ListTestFiles(dest, c.excludes())
		if err != nil {
			return err
		}
		row.TestFileCount = len(paths)
		if c.Audit != nil {
			if err := c.Audit.WriteEntry(row.RepoURL, paths); err != nil {
				return err
			}
		}
		logger.Info("counted test files", "repo", row.RepoURL, "count", len(paths))
	}
	return nil
}

// reusableClone reports whether dest holds a finished clone from an
// earlier run: the checkpoint must say the row cloned successfully and
// the tree must still carry its .git directory.
func reusableClone(row *Result, dest string) bool {
	if row.CloneStatus != CloneSuccessful {
		return false
	}
	_, err := os.Stat(filepath.Join(dest, ".git"))
	return err == nil
}

// ClonePath is where a row's repository is cloned: the base directory,
// the sanitized hosting domain, then the repository name.
func ClonePath(cloneDir string, row *Result) string {
	name := strings.TrimSuffix(path.Base(row.BaseRepoURL), ".git")
	return filepath.Join(cloneDir, table.SanitizeName(row.Domain), name)
}

func (c *LocalCrawler) clonePath(row *Result) string {
	return ClonePath(c.CloneDir, row)
}

func (c *LocalCrawler) excludes() []string {
	if c.Excludes == nil {
		return DefaultExcludes
	}
	return c.Excludes
}

func (c *LocalCrawler) logCloneError(repoURL string, err error) {
	if c.ErrorLog == nil {
		return
	}
	fmt.Fprintf(c.ErrorLog, "Repository URL: %s\nError Message: %v\n\n", repoURL, err)
}
