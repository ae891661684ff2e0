package table

import "testing"

func TestDeriveBaseURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"github plain", "https://github.com/org/repo", "https://github.com/org/repo", true},
		{"github deep link", "https://github.com/org/repo/tree/main/sub/dir", "https://github.com/org/repo", true},
		{"github blob", "http://www.github.com/org/repo/blob/main/README.md", "https://github.com/org/repo", true},
		{"github dot git", "https://github.com/org/repo.git", "https://github.com/org/repo", true},
		{"github trailing slash", "https://github.com/org/repo/", "https://github.com/org/repo", true},
		{"gitlab deep link", "https://gitlab.com/org/repo/-/tree/main", "https://gitlab.com/org/repo", true},
		{"gitlab subgroup", "https://gitlab.com/group/sub/repo/-/blob/main/x", "https://gitlab.com/group/sub/repo", true},
		{"self-hosted gitlab", "https://gitlab.gnome.org/GNOME/glib/-/merge_requests", "https://gitlab.gnome.org/GNOME/glib", true},
		{"bitbucket src link", "https://bitbucket.org/org/repo/src/master/file.c", "https://bitbucket.org/org/repo", true},
		{"sourcehut", "https://git.sr.ht/~user/repo/tree", "https://git.sr.ht/~user/repo", true},
		{"codeberg", "https://codeberg.org/org/repo/issues", "https://codeberg.org/org/repo", true},
		{"unknown forge fallback", "https://git.example.org/org/repo/extra", "https://git.example.org/org/repo", true},
		{"owner only", "https://github.com/onlyowner", "https://github.com/onlyowner", false},
		{"no host", "not a url", "not a url", false},
		{"unsupported scheme", "ftp://example.org/a/b", "ftp://example.org/a/b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeriveBaseURL(tt.url)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DeriveBaseURL(%q) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDeriveBaseURLFailureKeepsOriginal(t *testing.T) {
	raw := "https://github.com/"
	got, ok := DeriveBaseURL(raw)
	if ok {
		t.Fatal("expected derivation failure for a bare host")
	}
	if got != raw {
		t.Errorf("failed derivation should return the input unchanged, got %q", got)
	}
}
