package table

import (
	"net/url"
	"strings"
)

// URL schemes the cleaner accepts for domain extraction. Anything else
// (ftp, scp-style git addresses, bare hostnames) gets the domain failure
// flag instead of an error.
var supportedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"git":   true,
	"ssh":   true,
}

// Clean annotates every record in place. Each check sets its flag and moves
// on; a row can carry several flags at once and no row is ever removed.
//
// The checks, in order:
//   - duplicate: the (projectref, repourl) pair appeared on an earlier row
//   - null value: projectref or repourl is empty
//   - domain extraction: host of the URL, www-stripped; unsupported schemes fail
//   - incomplete URL: the URL lacks host or owner/repository path segments
//   - base repository URL: canonical clone root, derived per hosting domain
func (t *Table) Clean() {
	seen := make(map[string]bool, len(t.Records))

	for i := range t.Records {
		rec := &t.Records[i]
		rec.RepoURL = strings.TrimSpace(rec.RepoURL)
		rec.ProjectRef = strings.TrimSpace(rec.ProjectRef)

		key := rec.ProjectRef + "\x00" + rec.RepoURL
		if seen[key] {
			rec.Duplicate = true
		}
		seen[key] = true

		if rec.ProjectRef == "" || rec.RepoURL == "" {
			rec.NullValue = true
		}

		rec.Domain, rec.DomainFailed = extractDomain(rec.RepoURL)
		rec.IncompleteURL = isIncomplete(rec.RepoURL)
		rec.BaseRepoURL, rec.BaseRepoURLOK = DeriveBaseURL(rec.RepoURL)
	}
}

// extractDomain returns the www-stripped host of rawURL, or ("", true) when
// the URL cannot be parsed or uses an unsupported scheme.
func extractDomain(rawURL string) (domain string, failed bool) {
	if rawURL == "" {
		return "", true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || !supportedSchemes[u.Scheme] {
		return "", true
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), false
}

// isIncomplete reports whether rawURL is missing the host or the
// owner/repository path. A full repository URL splits into at least five
// slash-separated parts ("https:", "", host, owner, repo).
func isIncomplete(rawURL string) bool {
	if rawURL == "" {
		return true
	}
	parts := strings.Split(strings.TrimRight(rawURL, "/"), "/")
	return len(parts) < 5
}
