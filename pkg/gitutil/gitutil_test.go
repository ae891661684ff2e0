package gitutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRootInsideRepo(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got := FindRoot(nested)
	want, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("FindRoot(%q) = %q, want %q", nested, got, root)
	}
}

func TestFindRootOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	got := FindRoot(dir)
	want, _ := filepath.EvalSymlinks(dir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("FindRoot(%q) = %q, want the directory itself", dir, got)
	}
}

func TestFindRootIgnoresGitFile(t *testing.T) {
	// A .git file (as in worktrees/submodules) does not count as a root here;
	// only a .git directory does.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: elsewhere"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := FindRoot(dir)
	want, _ := filepath.EvalSymlinks(dir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("FindRoot(%q) = %q, want fallback to the directory", dir, got)
	}
}

func TestFirstLine(t *testing.T) {
	cases := []struct{ in, want string }{
		{"fatal: repository not found\nsome detail", "fatal: repository not found"},
		{"single line", "single line"},
		{"  padded  \nrest", "padded"},
	}
	for _, c := range cases {
		if got := firstLine(c.in); got != c.want {
			t.Errorf("firstLine(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
