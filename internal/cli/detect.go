package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoharvest/repoharvest/internal/config"
	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/integrations/supabase"
	"github.com/repoharvest/repoharvest/pkg/langstore"
)

// newDetectCmd creates the detect command. It walks the clone directory
// left by "crawl local --keep-clones", guesses a language for every file,
// and upserts the guesses into the configured database.
func newDetectCmd() *cobra.Command {
	var (
		cloneDir  string
		store     string
		batchSize int
		hostname  string
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Guess file languages and export them to the database",
		Long: `Detect guesses the programming language of every file under the clone
directory from its name, extension, or shebang line and upserts the
guesses into the guessed_languages table.

The Supabase backend reads SUPABASE_URL and SUPABASE_KEY from the
environment or the .env file and fails immediately when either is
missing. Already exported files are skipped, so an interrupted export
resumes where it stopped.`,
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
			if !cmd.Flags().Changed("batch-size") {
				batchSize = cfg.Export.BatchSize
			}
			if store != "" {
				cfg.Export.Backend = store
			}

			db, err := openStore(ctx, cfg)
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			defer db.Close(ctx)

			exporter := &langstore.Exporter{
				Store:     db,
				CloneDir:  cloneDir,
				BatchSize: batchSize,
				Hostname:  hostname,
			}
			if err := exporter.Run(ctx); err != nil {
				return err
			}

			printSuccess("Exported language guesses from %s", cloneDir)
			prog.done("Detect finished")
			return nil
		},
	}

	cmd.Flags().StringVar(&cloneDir, "clone-dir", "", "clone directory to walk")
	cmd.Flags().StringVar(&store, "store", "", "store backend, supabase or mongo (overrides config)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per upsert batch")
	cmd.Flags().StringVar(&hostname, "hostname", "", "hostname recorded on each row (defaults to os.Hostname)")

	return cmd
}

// openStore builds the configured language guess store.
func openStore(ctx context.Context, cfg *config.Config) (langstore.Store, error) {
	switch cfg.Export.Backend {
	case "", "supabase":
		client, err := supabase.NewClientFromEnv()
		if err != nil {
			return nil, err
		}
		return langstore.NewSupabaseStore(client), nil
	case "mongo":
		return langstore.NewMongoStore(ctx, cfg.Export.MongoURI)
	default:
		return nil, errors.New(errors.ErrCodeConfig, "unknown export backend %q", cfg.Export.Backend)
	}
}
