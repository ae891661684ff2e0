package table

import (
	"net/url"
	"strings"
)

// hostRule derives the canonical repository root for one family of hosting
// providers. match receives the www-stripped lowercase host; derive receives
// the parsed URL and returns the path of the repository root.
type hostRule struct {
	match  func(host string) bool
	derive func(u *url.URL) (path string, ok bool)
}

// hostRules is consulted in order; the first matching rule wins and the last
// rule is a catch-all for self-hosted forges. Adding support for a new
// provider means adding a rule here, nothing else.
var hostRules = []hostRule{
	{
		// GitHub deep links keep /tree/, /blob/ and friends after owner/repo.
		match:  hostIs("github.com", "gist.github.com"),
		derive: firstSegments(2),
	},
	{
		// GitLab (hosted and self-hosted) separates the repo path from deep
		// links with "/-/", which also handles subgroup repositories.
		match: func(host string) bool {
			return host == "gitlab.com" || strings.Contains(host, "gitlab.")
		},
		derive: func(u *url.URL) (string, bool) {
			p := strings.Trim(u.EscapedPath(), "/")
			if before, _, found := strings.Cut(p, "/-/"); found {
				p = before
			} else {
				return takeSegments(p, 2)
			}
			if p == "" {
				return "", false
			}
			return p, true
		},
	},
	{
		// Bitbucket deep links use /src/<branch>/... after the repo slug.
		match: hostIs("bitbucket.org"),
		derive: func(u *url.URL) (string, bool) {
			p := strings.Trim(u.EscapedPath(), "/")
			if before, _, found := strings.Cut(p, "/src/"); found {
				p = before
			}
			return takeSegments(p, 2)
		},
	},
	{
		// SourceHut repositories live at ~owner/repo.
		match: func(host string) bool {
			return host == "sr.ht" || strings.HasSuffix(host, ".sr.ht")
		},
		derive: firstSegments(2),
	},
	{
		// Codeberg and other Gitea instances use plain owner/repo.
		match:  hostIs("codeberg.org", "gitea.com"),
		derive: firstSegments(2),
	},
	{
		// Fallback for unrecognized forges: assume owner/repo.
		match:  func(string) bool { return true },
		derive: firstSegments(2),
	},
}

// DeriveBaseURL reduces a repository URL to its canonical clone root:
// https scheme, www-stripped host, owner/repository path with any deep-link
// suffix and .git extension removed. ok is false when no root can be
// derived, in which case the URL is returned unchanged.
func DeriveBaseURL(rawURL string) (base string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || !supportedSchemes[u.Scheme] {
		return rawURL, false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, rule := range hostRules {
		if !rule.match(host) {
			continue
		}
		path, ok := rule.derive(u)
		if !ok {
			return rawURL, false
		}
		path = strings.TrimSuffix(path, ".git")
		return "https://" + host + "/" + path, true
	}
	return rawURL, false
}

func hostIs(hosts ...string) func(string) bool {
	set := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		set[h] = true
	}
	return func(host string) bool { return set[host] }
}

// firstSegments derives the root from the first n path segments.
func firstSegments(n int) func(*url.URL) (string, bool) {
	return func(u *url.URL) (string, bool) {
		return takeSegments(strings.Trim(u.EscapedPath(), "/"), n)
	}
}

func takeSegments(path string, n int) (string, bool) {
	if path == "" {
		return "", false
	}
	segs := strings.Split(path, "/")
	if len(segs) < n {
		return "", false
	}
	return strings.Join(segs[:n], "/"), true
}
