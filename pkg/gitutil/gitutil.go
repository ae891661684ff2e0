// Package gitutil wraps the git binary for the few operations the harvester
// needs: locating the enclosing repository root, cloning, and reading the
// HEAD commit of a clone.
//
// All operations shell out to git rather than reimplementing the object
// model; the toolkit already assumes git is installed for cloning.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FindRoot returns the nearest directory at or above dir that contains a
// .git directory. If no repository encloses dir, dir itself is returned.
// Absence of a repository is the fallback case, never an error.
func FindRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for d := abs; ; {
		if info, err := os.Stat(filepath.Join(d, ".git")); err == nil && info.IsDir() {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			return abs
		}
		d = parent
	}
}

// WorkingRoot returns the repository root enclosing the current working
// directory, or the working directory itself when outside a repository.
// Every command uses this to anchor relative default paths.
func WorkingRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return FindRoot(wd)
}

// Clone clones url into dest. The parent directory is created if needed.
// On failure the captured stderr is folded into the returned error so the
// caller can persist a useful reason.
func Clone(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "clone", url, dest)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("git clone %s: %w", url, err)
		}
		return fmt.Errorf("git clone %s: %s", url, firstLine(msg))
	}
	return nil
}

// HeadCommit returns the commit hash of HEAD for the repository at dir.
func HeadCommit(ctx context.Context, dir string) (string, error) {
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git rev-parse HEAD in %s: %s", dir, firstLine(stderr.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
