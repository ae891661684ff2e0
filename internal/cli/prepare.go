package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/repoharvest/repoharvest/pkg/table"
)

// newPrepareCmd creates the prepare command. It loads the raw grant project
// TSV, flags problem rows without dropping any, writes the cleaned CSV, and
// partitions the rows by repository domain.
func newPrepareCmd() *cobra.Command {
	var (
		outputFile      string
		partitionDir    string
		domainThreshold int
		skipPartition   bool
	)

	cmd := &cobra.Command{
		Use:   "prepare <input.tsv>",
		Short: "Load, clean, and partition the grant project table",
		Long: `Prepare loads the raw project export (TSV with carried-forward project
references), marks duplicates, null values, incomplete URLs, and failed
domain extractions, derives a cloneable base URL per repository, and
writes the cleaned table as CSV.

No rows are ever dropped: every check only adds a flag column, so later
stages decide for themselves what to skip.

Rows are then grouped by repository domain. Domains with more rows than
the threshold get their own CSV; the rest land in other_domains.csv
together with a domain_counts.txt summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			prog := newProgress(logger)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				domainThreshold = cfg.Prepare.DomainThreshold
			}

			t, err := table.ReadTSVFile(args[0])
			if err != nil {
				printError("Failed to load %s", args[0])
				return err
			}
			logger.Debug("loaded table", "rows", len(t.Records))

			t.Clean()

			flagged := 0
			for _, rec := range t.Records {
				if rec.Duplicate || rec.NullValue || rec.IncompleteURL || rec.DomainFailed || !rec.BaseRepoURLOK {
					flagged++
				}
			}

			if err := t.WriteCSVFile(outputFile); err != nil {
				printError("Failed to write %s", outputFile)
				return err
			}

			printSuccess("Cleaned %d rows", len(t.Records))
			printRowStats(len(t.Records), flagged, -1)
			printFile(outputFile)

			if !skipPartition {
				counts, err := t.WritePartitions(partitionDir, domainThreshold)
				if err != nil {
					printError("Failed to partition into %s", partitionDir)
					return err
				}
				printSuccess("Partitioned %d domains (threshold %d)", len(counts), domainThreshold)
				printFile(filepath.Join(partitionDir, table.DomainCountsFile))
			}

			prog.done("Prepare finished")
			printNextStep("Crawl the cleaned table", "repoharvest crawl local --input-file "+outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "cleaned_projects.csv", "cleaned CSV output path")
	cmd.Flags().StringVar(&partitionDir, "partition-dir", "domains", "directory for per-domain CSV files")
	cmd.Flags().IntVar(&domainThreshold, "threshold", table.DefaultDomainThreshold, "minimum row count for a per-domain CSV")
	cmd.Flags().BoolVar(&skipPartition, "skip-partition", false, "only clean, do not partition by domain")

	return cmd
}
