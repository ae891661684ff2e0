// Package rdf serializes crawl results to Turtle for RDF-compliant
// archiving. Each project row becomes one subject in the project namespace
// with its table columns as predicates.
package rdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/repoharvest/repoharvest/pkg/crawl"
	"github.com/repoharvest/repoharvest/pkg/table"
)

// BaseURI is the namespace of project subjects and predicates.
const BaseURI = "https://nlnet.nl/project/"

const header = "@prefix ns1: <" + BaseURI + "> .\n" +
	"@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n\n"

// WriteTTL serializes the result table to Turtle. Unset values are dropped:
// empty strings, the uncounted sentinel, and false-valued flags produce no
// triple. Values that are themselves URLs are written as IRIs rather than
// string literals.
func WriteTTL(w io.Writer, res *crawl.Results) error {
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	for i := range res.Rows {
		if err := writeRow(w, &res.Rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteTTLFile serializes the result table to path.
func WriteTTLFile(path string, res *crawl.Results) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTTL(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRow(w io.Writer, r *crawl.Result) error {
	if r.ProjectRef == "" {
		return nil
	}

	type pair struct{ pred, obj string }
	var pairs []pair
	add := func(pred, value string) {
		if value == "" {
			return
		}
		pairs = append(pairs, pair{pred, object(value)})
	}
	addFlag := func(pred string, set bool) {
		if set {
			pairs = append(pairs, pair{pred, literal("true")})
		}
	}

	add(table.ColProjectRef, r.ProjectRef)
	add(table.ColGrantPage, r.GrantPage)
	add(table.ColRepoURL, r.RepoURL)
	addFlag(table.ColDuplicate, r.Duplicate)
	addFlag(table.ColNullValue, r.NullValue)
	add(table.ColDomain, r.Domain)
	addFlag(table.ColDomainFailed, r.DomainFailed)
	addFlag(table.ColIncompleteURL, r.IncompleteURL)
	add(table.ColBaseRepoURL, r.BaseRepoURL)
	addFlag(table.ColBaseRepoURLOK, r.BaseRepoURLOK)
	add(crawl.ColCloneStatus, string(r.CloneStatus))
	if r.TestFileCount != crawl.Uncounted {
		pairs = append(pairs, pair{crawl.ColTestFileCount, literal(strconv.Itoa(r.TestFileCount))})
	}
	add(crawl.ColLastCommitHash, r.LastCommitHash)
	add(crawl.ColLastCommitURL, r.LastCommitURL)
	add(crawl.ColExplanation, r.Explanation)

	subject := "<" + BaseURI + escapeIRI(r.ProjectRef) + ">"
	for i, p := range pairs {
		var line string
		switch {
		case i == 0:
			line = fmt.Sprintf("%s ns1:%s %s", subject, p.pred, p.obj)
		default:
			line = fmt.Sprintf("    ns1:%s %s", p.pred, p.obj)
		}
		sep := " ;\n"
		if i == len(pairs)-1 {
			sep = " .\n\n"
		}
		if _, err := io.WriteString(w, line+sep); err != nil {
			return err
		}
	}
	return nil
}

// object renders a value as an IRI when it is a URL, a typed literal
// otherwise.
func object(value string) string {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return "<" + escapeIRI(value) + ">"
	}
	return literal(value)
}

func literal(value string) string {
	return `"` + escapeLiteral(value) + `"^^xsd:string`
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

var iriEscaper = strings.NewReplacer(
	" ", "%20",
	"<", "%3C",
	">", "%3E",
	`"`, "%22",
	"{", "%7B",
	"}", "%7D",
	"|", "%7C",
	"^", "%5E",
	"`", "%60",
)

func escapeIRI(s string) string {
	return iriEscaper.Replace(s)
}
