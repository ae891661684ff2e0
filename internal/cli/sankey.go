package cli

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/sankey"
	"github.com/repoharvest/repoharvest/pkg/table"
)

// newSankeyCmd creates the sankey command. It visualizes how the cleaning
// pipeline splits the project table: source rows flow into hosting domains
// and from there into duplicate, incomplete-URL, and null-value buckets.
func newSankeyCmd() *cobra.Command {
	var (
		outputFile string
		threshold  int
		title      string
		serveAddr  string
	)

	cmd := &cobra.Command{
		Use:   "sankey <cleaned.csv>",
		Short: "Visualize the cleaning pipeline",
		Long: `Sankey builds a flow diagram from a cleaned project CSV. The output
format follows the file extension: .html embeds an interactive Plotly
diagram, .svg and .png are rendered through graphviz.

With --serve the diagram is served over HTTP instead of written to a
file, rebuilt from the CSV on every request.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			t, err := table.ReadCSVFile(args[0])
			if err != nil {
				printError("Failed to load %s", args[0])
				return err
			}

			if serveAddr != "" {
				return serveSankey(serveAddr, args[0], threshold, title)
			}

			d := sankey.Build(t, threshold)
			logger.Debug("built diagram", "labels", len(d.Labels), "links", len(d.Links))

			f, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			defer f.Close()

			sp := newSpinner(ctx, "Rendering diagram")
			sp.Start()
			switch sankey.FormatFromName(outputFile) {
			case "html":
				err = sankey.WriteHTML(f, d, title)
			case "svg":
				err = sankey.RenderSVG(ctx, d, f)
			case "png":
				err = sankey.RenderPNG(ctx, d, f)
			default:
				err = errors.New(errors.ErrCodeInvalidInput, "unsupported output format for %s", outputFile)
			}
			if err != nil {
				sp.Stop()
				return err
			}

			sp.StopWithSuccess("Wrote diagram")
			printFile(outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "sankey.html", "output path (.html, .svg, or .png)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "only show domains with more rows than this (0 shows all)")
	cmd.Flags().StringVar(&title, "title", "Project table cleaning", "diagram title")
	cmd.Flags().StringVar(&serveAddr, "serve", "", "serve the diagram over HTTP on this address (e.g. :8080)")

	return cmd
}

// serveSankey serves the HTML diagram, reloading the CSV per request so a
// rerun of prepare shows up on refresh.
func serveSankey(addr, csvPath string, threshold int, title string) error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		t, err := table.ReadCSVFile(csvPath)
		if err != nil {
			http.Error(w, errors.UserMessage(err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := sankey.WriteHTML(w, sankey.Build(t, threshold), title); err != nil {
			http.Error(w, errors.UserMessage(err), http.StatusInternalServerError)
		}
	})

	printInfo("Serving diagram on http://%s", addr)
	return http.ListenAndServe(addr, r)
}
