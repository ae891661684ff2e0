package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/repoharvest/repoharvest/internal/config"
	"github.com/repoharvest/repoharvest/pkg/cache"
	"github.com/repoharvest/repoharvest/pkg/crawl"
	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/integrations/github"
	"github.com/repoharvest/repoharvest/pkg/rdf"
)

// envGitHubToken names the environment variable carrying the GitHub API
// token for the api crawler.
const envGitHubToken = "GITHUB_TOKEN"

// newCrawlCmd creates the crawl command group. Both variants resume from
// the output CSV when it already exists and checkpoint after every row, so
// an interrupted crawl can be restarted with the same invocation.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Measure testing practices per repository",
		Long: `Crawl walks every crawlable row of a cleaned project CSV, counts test
files, and records the latest commit. Rows flagged during cleaning are
skipped; no row is ever removed.

Two variants exist. "local" clones each repository and measures the
working tree on disk; it works for any hosting domain. "api" measures
GitHub-hosted repositories through the REST API without cloning.

Both write the result table after every row, so an interrupted run can
be resumed by rerunning the same command.`,
	}

	cmd.AddCommand(newCrawlLocalCmd())
	cmd.AddCommand(newCrawlAPICmd())
	return cmd
}

func newCrawlLocalCmd() *cobra.Command {
	var (
		inputFile    string
		outputFile   string
		cloneDir     string
		keepClones   bool
		excludes     []string
		testFileList string
		errorLog     string
		ttlFile      string
		useTUI       bool
	)

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Clone each repository and count test files on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			prog := newProgress(logger)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("clone-dir") {
				cloneDir = cfg.Crawl.CloneDir
			}
			if !cmd.Flags().Changed("keep-clones") {
				keepClones = cfg.Crawl.KeepClones
			}
			if !cmd.Flags().Changed("exclude") {
				excludes = cfg.Crawl.Excludes
			}

			cp, err := crawl.LoadCheckpoint(inputFile, outputFile)
			if err != nil {
				return err
			}
			if cp.Resumed {
				printInfo("Resuming from %s (%d rows pending)", outputFile, cp.Results.Pending())
			}

			auditFile, err := os.OpenFile(testFileList, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			defer auditFile.Close()

			errFile, err := os.OpenFile(errorLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			defer errFile.Close()

			crawler := &crawl.LocalCrawler{
				CloneDir:   cloneDir,
				KeepClones: keepClones,
				Excludes:   excludes,
				ErrorLog:   errFile,
				Audit:      crawl.NewAuditWriter(auditFile),
				Checkpoint: cp,
			}

			if err := runCrawler(ctx, useTUI, cp, func(events chan<- crawl.Event) crawlRunner {
				crawler.Events = events
				return crawler
			}); err != nil {
				return err
			}

			printSuccess("Crawled %d rows", len(cp.Results.Rows))
			printRowStats(len(cp.Results.Rows), 0, cp.Results.Pending())
			printFile(outputFile)
			printFile(testFileList)

			if ttlFile != "" {
				if err := rdf.WriteTTLFile(ttlFile, cp.Results); err != nil {
					return err
				}
				printFile(ttlFile)
			}

			prog.done("Local crawl finished")
			printNextStep("Attach audited test file paths", "repoharvest merge --input-file "+outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "cleaned project CSV (required unless resuming)")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "crawl_results.csv", "result and checkpoint CSV")
	cmd.Flags().StringVar(&cloneDir, "clone-dir", "", "base directory for clones")
	cmd.Flags().BoolVar(&keepClones, "keep-clones", false, "keep working trees after measuring")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "file extensions not counted as test files")
	cmd.Flags().StringVar(&testFileList, "test-file-list", "test_file_paths.txt", "audit log of counted test file paths")
	cmd.Flags().StringVar(&errorLog, "error-log", "error_log.txt", "log of failed clones")
	cmd.Flags().StringVar(&ttlFile, "ttl-file", "", "also export the results as Turtle to this path")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show live progress")

	return cmd
}

func newCrawlAPICmd() *cobra.Command {
	var (
		inputFile   string
		outputFile  string
		ttlFile     string
		noCache     bool
		maxFailures int
		useTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Measure GitHub-hosted repositories through the REST API",
		Long: `The api variant measures GitHub-hosted rows without cloning: the code
search API counts test files and the commits API records the latest
commit. Rows hosted elsewhere are skipped.

Set ` + envGitHubToken + ` (environment or .env file) to raise the API rate
limits. Responses are cached so resumed runs do not respend quota.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			prog := newProgress(logger)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-failures") {
				maxFailures = cfg.Crawl.MaxConsecutiveFailures
			}

			token := os.Getenv(envGitHubToken)
			if token == "" {
				printWarning("%s is not set, unauthenticated rate limits apply", envGitHubToken)
			}

			store, ttl, err := openCache(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer store.Close()

			cp, err := crawl.LoadCheckpoint(inputFile, outputFile)
			if err != nil {
				return err
			}
			if cp.Resumed {
				printInfo("Resuming from %s (%d rows pending)", outputFile, cp.Results.Pending())
			}

			crawler := &crawl.APICrawler{
				GitHub:                 github.NewClient(token, store, ttl),
				MaxConsecutiveFailures: maxFailures,
				Checkpoint:             cp,
			}

			if err := runCrawler(ctx, useTUI, cp, func(events chan<- crawl.Event) crawlRunner {
				crawler.Events = events
				return crawler
			}); err != nil {
				return err
			}

			printSuccess("Crawled %d rows", len(cp.Results.Rows))
			printRowStats(len(cp.Results.Rows), 0, cp.Results.Pending())
			printFile(outputFile)

			if ttlFile != "" {
				if err := rdf.WriteTTLFile(ttlFile, cp.Results); err != nil {
					return err
				}
				printFile(ttlFile)
			}

			prog.done("API crawl finished")
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "cleaned project CSV (required unless resuming)")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "crawl_results.csv", "result and checkpoint CSV")
	cmd.Flags().StringVar(&ttlFile, "ttl-file", "", "also export the results as Turtle to this path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the API response cache")
	cmd.Flags().IntVar(&maxFailures, "max-failures", 0, "warn after this many consecutive row failures")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show live progress")

	return cmd
}

// crawlRunner is what both crawler variants expose to the command layer.
type crawlRunner interface {
	Run(ctx context.Context) error
}

// runCrawler runs a crawler either plainly or behind the live progress
// view. The attach callback receives the event channel (nil without the
// TUI) and returns the configured crawler.
func runCrawler(ctx context.Context, useTUI bool, cp *crawl.Checkpoint, attach func(chan<- crawl.Event) crawlRunner) error {
	if !useTUI {
		return attach(nil).Run(ctx)
	}

	events := make(chan crawl.Event, 64)
	runner := attach(events)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- runner.Run(runCtx)
		close(events)
	}()

	if err := runCrawlTUI(len(cp.Results.Rows), events, cancel); err != nil {
		cancel()
		<-errCh
		return err
	}
	return <-errCh
}

// openCache builds the configured cache backend. The file backend lives
// under the user cache directory unless overridden.
func openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, time.Duration, error) {
	if noCache {
		return cache.NewNullCache(), 0, nil
	}

	switch cfg.Cache.Backend {
	case "", "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, 0, err
			}
			dir = filepath.Join(base, "repoharvest")
		}
		c, err := cache.NewFileCache(dir)
		return c, cfg.CacheTTL(), err
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		return c, cfg.CacheTTL(), err
	case "none":
		return cache.NewNullCache(), 0, nil
	default:
		return nil, 0, errors.New(errors.ErrCodeConfig, "unknown cache backend %q", cfg.Cache.Backend)
	}
}
