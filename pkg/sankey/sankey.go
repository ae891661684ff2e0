// Package sankey visualizes the data cleaning pipeline as a Sankey
// diagram: all input rows flow from the source node into the major hosting
// domains, and from each domain into the outcome nodes for the problems
// cleaning found there.
package sankey

import (
	"sort"

	"github.com/repoharvest/repoharvest/pkg/table"
)

// Node labels for the fixed endpoints of the diagram.
const (
	LabelSource        = "Original Data"
	LabelDuplicates    = "Duplicates"
	LabelIncompleteURL = "Incomplete URLs"
	LabelNullValues    = "Null values"
)

// Link is one weighted flow between two nodes, indexed into Labels.
type Link struct {
	Source int
	Target int
	Value  int
}

// Diagram is a node-link Sankey description, renderable as interactive
// HTML or through Graphviz.
type Diagram struct {
	Labels []string
	Links  []Link
}

type domainStats struct {
	domain     string
	rows       int
	duplicates int
	incomplete int
	nulls      int
}

// Build derives a diagram from a cleaned table. Only domains with more than
// threshold rows appear; zero means every domain. Domains are ordered by
// row count, largest first.
func Build(t *table.Table, threshold int) *Diagram {
	byDomain := map[string]*domainStats{}
	for _, rec := range t.Records {
		if rec.Domain == "" {
			continue
		}
		s, ok := byDomain[rec.Domain]
		if !ok {
			s = &domainStats{domain: rec.Domain}
			byDomain[rec.Domain] = s
		}
		s.rows++
		if rec.Duplicate {
			s.duplicates++
		}
		if rec.IncompleteURL {
			s.incomplete++
		}
		if rec.NullValue {
			s.nulls++
		}
	}

	var stats []*domainStats
	for _, s := range byDomain {
		if s.rows > threshold {
			stats = append(stats, s)
		}
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].rows != stats[j].rows {
			return stats[i].rows > stats[j].rows
		}
		return stats[i].domain < stats[j].domain
	})

	d := &Diagram{Labels: []string{LabelSource}}
	for _, s := range stats {
		d.Labels = append(d.Labels, s.domain)
	}
	dupIdx := len(d.Labels)
	incIdx := dupIdx + 1
	nullIdx := incIdx + 1
	d.Labels = append(d.Labels, LabelDuplicates, LabelIncompleteURL, LabelNullValues)

	for i, s := range stats {
		domainIdx := i + 1
		d.Links = append(d.Links, Link{Source: 0, Target: domainIdx, Value: s.rows})
		d.Links = append(d.Links,
			Link{Source: domainIdx, Target: dupIdx, Value: s.duplicates},
			Link{Source: domainIdx, Target: incIdx, Value: s.incomplete},
			Link{Source: domainIdx, Target: nullIdx, Value: s.nulls},
		)
	}
	return d
}
