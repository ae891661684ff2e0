package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/repoharvest/repoharvest/internal/config"
	"github.com/repoharvest/repoharvest/pkg/buildinfo"
)

// Execute runs the repoharvest CLI with ctx governing cancellation.
//
// The root command wires the --verbose flag into the logger, loads the
// optional .env file so credential-dependent commands find their
// environment, and attaches the logger to the context for all commands.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:   "repoharvest",
		Short: "Repoharvest measures testing practices across grant-funded repositories",
		Long: `Repoharvest collects metadata about grant-funded open-source repositories
and characterizes their testing practices: it cleans the grant program's
project table, crawls every listed repository (by cloning or through the
GitHub API), counts test files, records commit provenance, guesses per-file
languages for database export, and visualizes the cleaning pipeline.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			config.LoadEnv()
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newPrepareCmd())
	root.AddCommand(newCrawlCmd())
	root.AddCommand(newMergeCmd())
	root.AddCommand(newMetricsCmd())
	root.AddCommand(newDetectCmd())
	root.AddCommand(newSankeyCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}

// loadConfig reads repoharvest.toml from the working root.
func loadConfig() (*config.Config, error) {
	return config.LoadDefault()
}
