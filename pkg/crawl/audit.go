package crawl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// auditPrefix introduces each repository block in the audit log.
const auditPrefix = "Repository URL: "

// AuditWriter appends repository blocks to the test file audit log. Each
// block is the repository URL line followed by one test file path per line
// and a blank separator line. The log is append-only so resumed runs keep
// earlier blocks.
type AuditWriter struct {
	w io.Writer
}

// NewAuditWriter creates an AuditWriter over w.
func NewAuditWriter(w io.Writer) *AuditWriter {
	return &AuditWriter{w: w}
}

// WriteEntry appends one repository block.
func (a *AuditWriter) WriteEntry(repoURL string, paths []string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s\n", auditPrefix, repoURL)
	for _, p := range paths {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(a.w, sb.String())
	return err
}

// ParseAudit reads an audit log back into per-repository path lists. When a
// repository appears in several blocks (a rerun after a partial crawl) the
// paths accumulate in order.
func ParseAudit(r io.Reader) (map[string][]string, error) {
	repos := make(map[string][]string)
	var current string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if after, found := strings.CutPrefix(line, auditPrefix); found {
			current = after
			if _, ok := repos[current]; !ok {
				repos[current] = nil
			}
			continue
		}
		if line == "" || current == "" {
			continue
		}
		repos[current] = append(repos[current], line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return repos, nil
}

// MergeTestFilePaths attaches audit log paths to the matching result rows
// by repository URL. Rows without an audit block are left untouched.
func (res *Results) MergeTestFilePaths(audit map[string][]string) {
	for i := range res.Rows {
		if paths, ok := audit[res.Rows[i].RepoURL]; ok {
			res.Rows[i].TestFilePaths = paths
		}
	}
}
