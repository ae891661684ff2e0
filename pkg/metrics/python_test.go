package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sample = `import unittest

def helper():
    return 1

class TestThing(unittest.TestCase):
    def setUp(self):
        self.x = 1

    def tearDown(self):
        pass

    def test_one(self):
        assert self.x == 1

    def test_two(self):
        if self.x:
            assert True
        assert helper() == 1
`

func TestAnalyzeMeasuresTestFile(t *testing.T) {
	a := Analyze(context.Background(), []byte(sample))

	if a.NumTestCases != 2 {
		t.Errorf("NumTestCases = %d, want 2", a.NumTestCases)
	}
	if a.NumAssertions != 3 {
		t.Errorf("NumAssertions = %d, want 3", a.NumAssertions)
	}
	if !a.HasSetup || !a.HasTeardown {
		t.Errorf("HasSetup = %v, HasTeardown = %v, want both true", a.HasSetup, a.HasTeardown)
	}
	if a.Complexity != 3 {
		t.Errorf("Complexity = %d, want 3 (two test cases plus one branch)", a.Complexity)
	}
	if a.NumFunctions != 5 {
		t.Errorf("NumFunctions = %d, want 5", a.NumFunctions)
	}
	if a.CyclomaticComplexity != 6 {
		t.Errorf("CyclomaticComplexity = %d, want 6", a.CyclomaticComplexity)
	}
	if a.LinesOfCode != 19 {
		t.Errorf("LinesOfCode = %d, want 19", a.LinesOfCode)
	}
}

func TestAnalyzeEmptySource(t *testing.T) {
	if a := Analyze(context.Background(), nil); a != (Analysis{}) {
		t.Errorf("Analyze(empty) = %+v, want zero", a)
	}
}

func TestAnalyzeFileNonPython(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("def test_x():\n    assert True\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if a := AnalyzeFile(context.Background(), path); a != (Analysis{}) {
		t.Errorf("AnalyzeFile(non-python) = %+v, want zero", a)
	}
}

func TestAnalyzeFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.py")
	if a := AnalyzeFile(context.Background(), path); a != (Analysis{}) {
		t.Errorf("AnalyzeFile(missing) = %+v, want zero", a)
	}
}
