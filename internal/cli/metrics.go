package cli

import (
	"github.com/spf13/cobra"

	"github.com/repoharvest/repoharvest/pkg/crawl"
	"github.com/repoharvest/repoharvest/pkg/metrics"
)

// newMetricsCmd creates the metrics command. It measures every audited
// Python test file against the retained clone trees.
func newMetricsCmd() *cobra.Command {
	var (
		inputFile  string
		cloneDir   string
		outputFile string
		batchSize  int
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Measure test case counts and complexity per test file",
		Long: `Metrics reads the crawl result table after "merge" has attached the
test file paths and measures each Python test file found in the retained
clone trees: test case and assertion counts, setup and teardown presence,
and code measurements such as cyclomatic complexity and lines of code.

Run "crawl local" with --keep-clones first so the working trees are still
on disk. Results are appended in batches; rerunning the command skips
files already measured.`,
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

			res, err := crawl.ReadResultsFile(inputFile)
			if err != nil {
				printError("Failed to load %s", inputFile)
				return err
			}

			ex := &metrics.Extractor{
				Results:   res,
				CloneDir:  cloneDir,
				OutPath:   outputFile,
				BatchSize: batchSize,
			}
			n, err := ex.Run(ctx)
			if err != nil {
				return err
			}

			printSuccess("Measured %d test files", n)
			printFile(outputFile)
			prog.done("Metrics extraction finished")
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "crawl_results.csv", "crawl result CSV with merged test file paths")
	cmd.Flags().StringVar(&cloneDir, "clone-dir", "", "clone base directory of the local crawl")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "test_metrics.csv", "metrics CSV, appended to when resuming")
	cmd.Flags().IntVar(&batchSize, "batch-size", metrics.DefaultBatchSize, "rows flushed to disk per batch")

	return cmd
}
