package lang

import (
	"bufio"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const linguistKey = "linguist-language="

// ParseGitAttributes reads linguist-language overrides from the
// .gitattributes file at the repository root. The returned map goes from
// path pattern to language name. A missing file yields an empty map.
func ParseGitAttributes(dir string) map[string]string {
	overrides := make(map[string]string)

	f, err := os.Open(filepath.Join(dir, ".gitattributes"))
	if err != nil {
		return overrides
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		for _, attr := range fields[1:] {
			if v, found := strings.CutPrefix(attr, linguistKey); found && v != "" {
				overrides[fields[0]] = v
			}
		}
	}
	return overrides
}

// matchOverride checks relPath against the override patterns. Patterns
// match the full relative path or, for bare file patterns, the base name.
func matchOverride(overrides map[string]string, relPath string) (string, bool) {
	for pattern, language := range overrides {
		pattern = strings.TrimPrefix(pattern, "/")
		if ok, _ := path.Match(pattern, relPath); ok {
			return language, true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := path.Match(pattern, path.Base(relPath)); ok {
				return language, true
			}
		}
		if strings.HasSuffix(pattern, "/**") {
			if strings.HasPrefix(relPath, strings.TrimSuffix(pattern, "**")) {
				return language, true
			}
		}
	}
	return "", false
}

// DetectPrimary walks a repository working tree and returns the language
// with the most lines of code, honoring .gitattributes linguist-language
// overrides. Unknown files do not vote. An empty or unreadable tree
// reports Unknown.
func DetectPrimary(dir string) string {
	overrides := ParseGitAttributes(dir)
	lines := make(map[string]int)

	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		language, ok := matchOverride(overrides, rel)
		if !ok {
			language = DetectFile(p)
		}
		if language == Unknown {
			return nil
		}
		lines[language] += countLines(p)
		return nil
	})

	primary, best := Unknown, 0
	for language, n := range lines {
		if n > best || (n == best && language < primary) {
			primary, best = language, n
		}
	}
	return primary
}

func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		n++
	}
	return n
}
