package crawl

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/integrations/github"
)

// defaultFailureBound is how many rows may fail back to back before the
// crawler warns about the streak. A single bad repository is normal; a
// long unbroken streak usually means a broken token or network, worth
// flagging while the run keeps going.
const defaultFailureBound = 5

// RepoMeasurer is the slice of the GitHub client the API crawler needs.
type RepoMeasurer interface {
	CountTestFiles(ctx context.Context, owner, repo string, refresh bool) (int, error)
	LatestCommit(ctx context.Context, owner, repo string, refresh bool) (*github.Commit, error)
}

// APICrawler measures GitHub-hosted repositories through the REST API
// without cloning them. Rows hosted elsewhere are left untouched.
type APICrawler struct {
	GitHub RepoMeasurer

	// MaxConsecutiveFailures is the streak length at which an unbroken
	// run of row failures is called out in the log. Zero means the
	// default bound.
	MaxConsecutiveFailures int

	// Events receives progress events. Optional.
	Events chan<- Event

	Checkpoint *Checkpoint
}

// Run processes every pending GitHub row, checkpointing after each one.
func (c *APICrawler) Run(ctx context.Context) error {
	logger := log.FromContext(ctx).With("run", c.Checkpoint.RunID)
	bound := c.MaxConsecutiveFailures
	if bound <= 0 {
		bound = defaultFailureBound
	}

	res := c.Checkpoint.Results
	total := len(res.Rows)
	logger.Info("starting api crawl", "rows", total, "pending", res.Pending(), "resumed", c.Checkpoint.Resumed)

	failures := 0
	for i := range res.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := &res.Rows[i]

		owner, repo, ok := github.OwnerRepo(row.BaseRepoURL)
		if row.Skip() || row.Done() || !ok {
			notify(c.Events, Event{Kind: EventRowSkipped, Row: i, Total: total, RepoURL: row.RepoURL})
			continue
		}

		notify(c.Events, Event{Kind: EventRowStarted, Row: i, Total: total, RepoURL: row.RepoURL})
		err := c.processRow(ctx, row, owner, repo)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if rl, ok := errors.IsRateLimited(err); ok {
				notify(c.Events, Event{Kind: EventRateLimited, Row: i, Total: total, RepoURL: row.RepoURL,
					Message: "GitHub rate limit hit, resets at " + rl.ResetAt.Format("15:04:05")})
			}
			// The row's retries are exhausted; the failure becomes data
			// and the run moves on.
			row.CloneStatus = MeasureFailed
			failures++
			logger.Error("row failed", "repo", row.RepoURL, "err", err)
			if failures == bound {
				logger.Warn("unbroken failure streak, check token and network", "failures", failures)
			}
		} else {
			failures = 0
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
	logger.Info("api crawl finished", "rows", total, "pending", res.Pending())
	return nil
}

func (c *APICrawler) processRow(ctx context.Context, row *Result, owner, repo string) error {
	if row.LastCommitHash == "" {
		commit, err := c.GitHub.LatestCommit(ctx, owner, repo, false)
		if err != nil {
			return err
		}
		row.LastCommitHash = commit.SHA
		row.LastCommitURL = commit.HTMLURL
	}

	if row.TestFileCount == Uncounted {
		count, err := c.GitHub.CountTestFiles(ctx, owner, repo, false)
		if err != nil {
			return err
		}
		row.TestFileCount = count
	}
	return nil
}
