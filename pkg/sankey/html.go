package sankey

import (
	"encoding/json"
	"html/template"
	"io"
)

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.plot.ly/plotly-2.32.0.min.js"></script>
</head>
<body>
<div id="sankey" style="width:100%;height:100vh;"></div>
<script>
var spec = {{.Spec}};
Plotly.newPlot("sankey", [{
    type: "sankey",
    node: {
        pad: 15,
        thickness: 20,
        line: {color: "black", width: 0.5},
        label: spec.labels
    },
    link: {
        source: spec.sources,
        target: spec.targets,
        value: spec.values
    }
}], {title: {{.Title}}, font: {size: 12}});
</script>
</body>
</html>
`

var htmlTmpl = template.Must(template.New("sankey").Parse(htmlTemplate))

type htmlSpec struct {
	Labels  []string `json:"labels"`
	Sources []int    `json:"sources"`
	Targets []int    `json:"targets"`
	Values  []int    `json:"values"`
}

// WriteHTML renders the diagram as a self-contained HTML page using the
// Plotly CDN build.
func WriteHTML(w io.Writer, d *Diagram, title string) error {
	spec := htmlSpec{Labels: d.Labels}
	for _, l := range d.Links {
		spec.Sources = append(spec.Sources, l.Source)
		spec.Targets = append(spec.Targets, l.Target)
		spec.Values = append(spec.Values, l.Value)
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	return htmlTmpl.Execute(w, map[string]any{
		"Title": title,
		"Spec":  template.JS(data),
	})
}
