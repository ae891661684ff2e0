package lang

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"main.go", "Go"},
		{"src/lib.rs", "Rust"},
		{"app/models/user.rb", "Ruby"},
		{"Dockerfile", "Dockerfile"},
		{"sub/dir/Makefile", "Makefile"},
		{"CMakeLists.txt", "CMake"},
		{".gitlab-ci.yml", "GitLab CI"},
		{".github/workflows/ci.yml", "GitHub Actions"},
		{"config.yml", "YAML"},
		{"mystery.xyz", Unknown},
		{"LICENSE", Unknown},
	}
	for _, tt := range tests {
		if got := DetectName(tt.name); got != tt.want {
			t.Errorf("DetectName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDetectFileShebang(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		content string
		want    string
	}{
		{"#!/bin/sh\necho hi\n", "Shell Script"},
		{"#!/usr/bin/env python3\nprint('hi')\n", "Python"},
		{"#!/usr/bin/env node\nconsole.log('hi')\n", "JavaScript"},
		{"plain text, no shebang\n", Unknown},
	}
	for i, tt := range tests {
		path := filepath.Join(dir, "script"+string(rune('a'+i)))
		if err := os.WriteFile(path, []byte(tt.content), 0o755); err != nil {
			t.Fatal(err)
		}
		if got := DetectFile(path); got != tt.want {
			t.Errorf("DetectFile(%q content) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestDetectFileMissingIsUnknown(t *testing.T) {
	if got := DetectFile(filepath.Join(t.TempDir(), "absent")); got != Unknown {
		t.Errorf("DetectFile(absent) = %q, want %q", got, Unknown)
	}
}

func TestDetectFileBinaryIsUnknown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47}, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := DetectFile(path); got != Unknown {
		t.Errorf("DetectFile(png) = %q, want %q", got, Unknown)
	}
}
