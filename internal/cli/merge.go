package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/repoharvest/repoharvest/pkg/crawl"
)

// newMergeCmd creates the merge command. It attaches the test file paths
// recorded in the crawl audit log to the matching result rows.
func newMergeCmd() *cobra.Command {
	var (
		inputFile    string
		testFileList string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Attach audited test file paths to crawl results",
		Long: `Merge reads the audit log written by "crawl local" and joins each
repository's test file paths onto the crawl result table by repository
URL. Rows without an audit block are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			res, err := crawl.ReadResultsFile(inputFile)
			if err != nil {
				printError("Failed to load %s", inputFile)
				return err
			}

			auditFile, err := os.Open(testFileList)
			if err != nil {
				printError("Failed to open %s", testFileList)
				return err
			}
			audit, err := crawl.ParseAudit(auditFile)
			auditFile.Close()
			if err != nil {
				return err
			}
			logger.Debug("parsed audit log", "repos", len(audit))

			res.MergeTestFilePaths(audit)

			if outputFile == "" {
				outputFile = inputFile
			}
			if err := res.WriteResultsFile(outputFile); err != nil {
				return err
			}

			printSuccess("Merged paths for %d repositories", len(audit))
			printFile(outputFile)
			prog.done("Merge finished")
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "crawl_results.csv", "crawl result CSV")
	cmd.Flags().StringVar(&testFileList, "test-file-list", "test_file_paths.txt", "audit log written by crawl local")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output CSV (defaults to rewriting the input)")

	return cmd
}
