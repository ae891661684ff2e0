package crawl

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultExcludes lists file extensions never counted as test files.
// Documentation, markup and image files show up under test directories
// without being tests.
var DefaultExcludes = []string{".txt", ".md", ".h", ".xml", ".html", ".json", ".png", ".jpg"}

// ListTestFiles walks a cloned working tree and returns the paths of its
// test files, relative to dir. A file counts as a test file when "test"
// appears in its name or anywhere in its directory path. The .git directory
// is never entered.
func ListTestFiles(dir string, excludes []string) ([]string, error) {
	skip := make(map[string]bool, len(excludes))
	for _, ext := range excludes {
		skip[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if !isTestPath(rel) {
			return nil
		}
		if skip[strings.ToLower(filepath.Ext(rel))] {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// isTestPath reports whether "test" appears in the file name or in its
// directory path.
func isTestPath(rel string) bool {
	lower := strings.ToLower(filepath.ToSlash(rel))
	name := lower
	parent := ""
	if i := strings.LastIndexByte(lower, '/'); i >= 0 {
		name = lower[i+1:]
		parent = lower[:i]
	}
	return strings.Contains(name, "test") || strings.Contains(parent, "test")
}
