package sankey

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts the diagram to Graphviz DOT. Edge weight is carried in
// both the label and the pen width so the static rendering keeps the
// proportional feel of the interactive one.
func ToDOT(d *Diagram) string {
	maxValue := 1
	for _, l := range d.Links {
		if l.Value > maxValue {
			maxValue = l.Value
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph sankey {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=lightblue];\n")
	buf.WriteString("\n")

	for i, label := range d.Labels {
		fmt.Fprintf(&buf, "  n%d [label=%q];\n", i, label)
	}
	buf.WriteString("\n")

	for _, l := range d.Links {
		if l.Value == 0 {
			continue
		}
		width := 1.0 + 4.0*float64(l.Value)/float64(maxValue)
		fmt.Fprintf(&buf, "  n%d -> n%d [label=\"%d\", penwidth=%.2f];\n",
			l.Source, l.Target, l.Value, width)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders the diagram to SVG through Graphviz.
func RenderSVG(ctx context.Context, d *Diagram, w io.Writer) error {
	return render(ctx, d, graphviz.SVG, w)
}

// RenderPNG renders the diagram to PNG through Graphviz.
func RenderPNG(ctx context.Context, d *Diagram, w io.Writer) error {
	return render(ctx, d, graphviz.PNG, w)
}

func render(ctx context.Context, d *Diagram, format graphviz.Format, w io.Writer) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(ToDOT(d)))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// FormatFromName maps a file name or format flag to a Graphviz-or-HTML
// output kind.
func FormatFromName(name string) string {
	switch {
	case strings.HasSuffix(name, ".svg"), name == "svg":
		return "svg"
	case strings.HasSuffix(name, ".png"), name == "png":
		return "png"
	default:
		return "html"
	}
}
