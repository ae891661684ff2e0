package langstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/repoharvest/repoharvest/pkg/lang"
)

// defaultBatchSize bounds how many guesses accumulate before an upsert.
const defaultBatchSize = 50

// Exporter walks a clone directory laid out as
// <clone dir>/<hosting provider>/<repository>/... and pushes a language
// guess for every file to the store. Files already present in the store are
// skipped, so an interrupted export resumes where it stopped.
type Exporter struct {
	Store Store

	// CloneDir is the clone base directory written by the local crawler.
	CloneDir string

	// BatchSize bounds upsert batches. Zero means the default.
	BatchSize int

	// Hostname recorded on every entry. Empty means os.Hostname.
	Hostname string
}

// Run exports every unprocessed file under CloneDir.
func (e *Exporter) Run(ctx context.Context) error {
	logger := log.FromContext(ctx)

	hostname := e.Hostname
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	providers, err := os.ReadDir(e.CloneDir)
	if err != nil {
		return err
	}

	for _, provider := range providers {
		if !provider.IsDir() {
			continue
		}
		providerDir := filepath.Join(e.CloneDir, provider.Name())
		repos, err := os.ReadDir(providerDir)
		if err != nil {
			return err
		}

		for _, repo := range repos {
			if !repo.IsDir() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			err := e.exportRepo(ctx, logger, provider.Name(), repo.Name(),
				filepath.Join(providerDir, repo.Name()), hostname, batchSize)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Exporter) exportRepo(ctx context.Context, logger *log.Logger, provider, repo, dir, hostname string, batchSize int) error {
	processed, err := e.Store.ProcessedPaths(ctx, repo)
	if err != nil {
		return err
	}

	var batch []Entry
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.Store.Upsert(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	total := 0
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if processed[rel] {
			return nil
		}

		batch = append(batch, Entry{
			RepoName:        repo,
			HostingProvider: provider,
			FilePath:        rel,
			GuessedLanguage: lang.DetectFile(path),
			Hostname:        hostname,
		})
		total++
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("exported language guesses",
		"provider", provider, "repo", repo, "files", total, "primary", lang.DetectPrimary(dir))
	return nil
}
