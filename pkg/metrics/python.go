// Package metrics measures Python test files found by the crawl. Each
// file yields test-oriented counts (test cases, assertions, setup and
// teardown presence) and general code measurements (cyclomatic
// complexity, lines of code, function count), extracted from the
// tree-sitter parse of the source.
package metrics

import (
	"bytes"
	"context"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Analysis holds the measurements of one Python file.
type Analysis struct {
	NumTestCases  int
	NumAssertions int
	HasSetup      bool
	HasTeardown   bool
	// Complexity is a coarse test-file score: one per test case plus one
	// per branch directly inside a test case body.
	Complexity int

	CyclomaticComplexity int
	LinesOfCode          int
	NumFunctions         int
}

// branchKinds are the node types that open an extra path through a
// function.
var branchKinds = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
	"conditional_expression": true,
	"boolean_operator":       true,
	"case_clause":            true,
}

// AnalyzeFile parses one Python source file and measures it. Non-Python
// files, unreadable files, and sources the parser rejects all yield a
// zero Analysis rather than an error, so one bad file never stops a run.
func AnalyzeFile(ctx context.Context, path string) Analysis {
	if !strings.HasSuffix(path, ".py") {
		return Analysis{}
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return Analysis{}
	}
	return Analyze(ctx, source)
}

// Analyze measures Python source held in memory.
func Analyze(ctx context.Context, source []byte) Analysis {
	var a Analysis

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return a
	}
	defer tree.Close()

	a.LinesOfCode = countLines(source)

	walk(tree.RootNode(), func(n *sitter.Node) {
		if n.Type() != "function_definition" {
			return
		}
		a.NumFunctions++
		a.CyclomaticComplexity += 1 + countInFunction(n, branchKinds)

		switch name := functionName(n, source); {
		case strings.HasPrefix(name, "test_"):
			a.NumTestCases++
			a.Complexity += 1 + directIfs(n)
			a.NumAssertions += countInFunction(n, map[string]bool{"assert_statement": true})
		case name == "setUp":
			a.HasSetup = true
		case name == "tearDown":
			a.HasTeardown = true
		}
	})
	return a
}

// walk visits every named node of the tree.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// functionName returns the identifier of a function_definition node.
func functionName(fn *sitter.Node, source []byte) string {
	for i := 0; i < int(fn.ChildCount()); i++ {
		child := fn.Child(i)
		if child.Type() == "identifier" {
			return string(source[child.StartByte():child.EndByte()])
		}
	}
	return ""
}

// countInFunction counts nodes of the given kinds inside a function body
// without descending into nested function definitions, so nested helpers
// are scored on their own.
func countInFunction(fn *sitter.Node, kinds map[string]bool) int {
	count := 0
	var descend func(n *sitter.Node)
	descend = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "function_definition" {
				continue
			}
			if kinds[child.Type()] {
				count++
			}
			descend(child)
		}
	}
	descend(fn)
	return count
}

// directIfs counts if statements sitting directly in the function body.
func directIfs(fn *sitter.Node) int {
	count := 0
	for i := 0; i < int(fn.NamedChildCount()); i++ {
		child := fn.NamedChild(i)
		if child.Type() != "block" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if child.NamedChild(j).Type() == "if_statement" {
				count++
			}
		}
	}
	return count
}

// countLines counts source lines the way splitting on line breaks does:
// a trailing newline does not open an extra empty line.
func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := bytes.Count(source, []byte("\n"))
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}
