package table

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDomainThreshold is the minimum number of rows a hosting domain
// needs before it earns its own output file.
const DefaultDomainThreshold = 10

// OtherDomainsFile collects the rows of every domain below the threshold,
// plus the rows whose domain could not be extracted.
const OtherDomainsFile = "other_domains.csv"

// DomainCountsFile lists every domain with its row count, largest first.
const DomainCountsFile = "domain_counts.txt"

// Partition groups records by hosting domain. Records with an empty domain
// are grouped under the empty string. Insertion order within each group is
// the table's row order.
func (t *Table) Partition() map[string]*Table {
	groups := make(map[string]*Table)
	for _, rec := range t.Records {
		g, ok := groups[rec.Domain]
		if !ok {
			g = &Table{}
			groups[rec.Domain] = g
		}
		g.Records = append(g.Records, rec)
	}
	return groups
}

// WritePartitions splits the table into per-domain CSV files under dir.
// Domains with more than threshold rows get "<sanitized-domain>.csv";
// everything else lands in other_domains.csv. A domain_counts.txt summary
// is written alongside. Returns the per-domain row counts.
func (t *Table) WritePartitions(dir string, threshold int) (map[string]int, error) {
	if threshold <= 0 {
		threshold = DefaultDomainThreshold
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	groups := t.Partition()
	counts := make(map[string]int, len(groups))
	other := &Table{}

	// Deterministic file output regardless of map iteration order.
	domains := make([]string, 0, len(groups))
	for d := range groups {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	for _, domain := range domains {
		g := groups[domain]
		counts[domain] = g.Len()
		if domain == "" || g.Len() <= threshold {
			other.Records = append(other.Records, g.Records...)
			continue
		}
		path := filepath.Join(dir, SanitizeName(domain)+".csv")
		if err := g.WriteCSVFile(path); err != nil {
			return nil, err
		}
	}

	if other.Len() > 0 {
		if err := other.WriteCSVFile(filepath.Join(dir, OtherDomainsFile)); err != nil {
			return nil, err
		}
	}
	if err := writeDomainCounts(filepath.Join(dir, DomainCountsFile), counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// SanitizeName turns a domain into a safe file stem by replacing dots and
// path separators with underscores.
func SanitizeName(domain string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '/', '\\', ':':
			return '_'
		}
		return r
	}, domain)
}

// writeDomainCounts writes "domain: count" lines sorted by count descending,
// with name order breaking ties. The empty domain is labelled explicitly.
func writeDomainCounts(path string, counts map[string]int) error {
	type dc struct {
		domain string
		count  int
	}
	list := make([]dc, 0, len(counts))
	for d, n := range counts {
		if d == "" {
			d = "(no domain)"
		}
		list = append(list, dc{d, n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].domain < list[j].domain
	})

	var sb strings.Builder
	for _, e := range list {
		fmt.Fprintf(&sb, "%s: %d\n", e.domain, e.count)
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
