// Package lang guesses the programming language of source files in cloned
// repositories. Guesses are deliberately cheap: file name and extension
// first, shebang line as a fallback for extensionless scripts. Files the
// guesser cannot place are reported as Unknown rather than skipped, so the
// exported data accounts for every file visited.
package lang

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Unknown is recorded for files no rule matches.
const Unknown = "Unknown"

// Extensions not worth guessing: binaries, archives, media.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".jar": true,
	".so": true, ".dylib": true, ".dll": true, ".exe": true, ".bin": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
}

// Special file names checked before extensions.
var fileNames = map[string]string{
	"dockerfile":     "Dockerfile",
	"makefile":       "Makefile",
	"gnumakefile":    "Makefile",
	"jenkinsfile":    "Jenkins",
	"rakefile":       "Ruby",
	"gemfile":        "Ruby",
	".gitlab-ci.yml": "GitLab CI",
	"cmakelists.txt": "CMake",
}

var extensions = map[string]string{
	".py":     "Python",
	".java":   "Java",
	".c":      "C",
	".cpp":    "C++",
	".cc":     "C++",
	".cxx":    "C++",
	".cs":     "C#",
	".js":     "JavaScript",
	".mjs":    "JavaScript",
	".jsx":    "JavaScript",
	".ts":     "TypeScript",
	".tsx":    "TypeScript",
	".rb":     "Ruby",
	".php":    "PHP",
	".go":     "Go",
	".rs":     "Rust",
	".swift":  "Swift",
	".m":      "Objective-C",
	".h":      "C/C++ Header",
	".hpp":    "C/C++ Header",
	".sh":     "Shell Script",
	".bash":   "Shell Script",
	".zsh":    "Shell Script",
	".ksh":    "Shell Script",
	".css":    "CSS",
	".scss":   "Sass",
	".json":   "JSON",
	".xml":    "XML",
	".yml":    "YAML",
	".yaml":   "YAML",
	".md":     "Markdown",
	".rst":    "reStructuredText",
	".hs":     "Haskell",
	".ml":     "OCaml",
	".mli":    "OCaml",
	".pl":     "Perl",
	".groovy": "Groovy",
	".tf":     "Terraform",
	".kt":     "Kotlin",
	".kts":    "Kotlin",
	".scala":  "Scala",
	".dart":   "Dart",
	".ex":     "Elixir",
	".exs":    "Elixir",
	".erl":    "Erlang",
	".clj":    "Clojure",
	".cljs":   "ClojureScript",
	".cljc":   "Clojure",
	".lua":    "Lua",
	".r":      "R",
	".jl":     "Julia",
	".f90":    "Fortran",
	".f95":    "Fortran",
	".f03":    "Fortran",
	".vhdl":   "VHDL",
	".vhd":    "VHDL",
	".v":      "Verilog",
	".vh":     "Verilog",
	".sv":     "SystemVerilog",
	".adb":    "Ada",
	".ads":    "Ada",
	".toml":   "TOML",
	".ini":    "INI",
	".html":   "HTML",
	".htm":    "HTML",
	".sql":    "SQL",
	".proto":  "Protocol Buffers",
	".zig":    "Zig",
	".nim":    "Nim",
	".vue":    "Vue",
	".svelte": "Svelte",
	".nix":    "Nix",
	".el":     "Emacs Lisp",
	".scm":    "Scheme",
	".rkt":    "Racket",
	".d":      "D",
	".pas":    "Pascal",
	".asm":    "Assembly",
	".s":      "Assembly",
}

// Interpreter names mapped from shebang lines.
var interpreters = map[string]string{
	"sh": "Shell Script", "bash": "Shell Script", "zsh": "Shell Script",
	"ksh": "Shell Script", "dash": "Shell Script",
	"python": "Python", "python2": "Python", "python3": "Python",
	"perl": "Perl", "ruby": "Ruby", "node": "JavaScript", "deno": "JavaScript",
	"lua": "Lua", "php": "PHP", "Rscript": "R",
}

// DetectName guesses a language from the file name alone.
func DetectName(name string) string {
	base := strings.ToLower(filepath.Base(name))
	if l, ok := fileNames[base]; ok {
		return l
	}
	ext := strings.ToLower(filepath.Ext(base))
	if strings.HasSuffix(base, ".yml") && strings.Contains(filepath.ToSlash(name), ".github/workflows/") {
		return "GitHub Actions"
	}
	if l, ok := extensions[ext]; ok {
		return l
	}
	return Unknown
}

// DetectFile guesses the language of the file at path. Name rules come
// first; extensionless files get a shebang check. Unreadable or binary
// files are Unknown, never an error: one odd file must not stop a
// repository scan.
func DetectFile(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if binaryExtensions[strings.ToLower(filepath.Ext(base))] {
		return Unknown
	}
	if l := DetectName(path); l != Unknown {
		return l
	}
	if filepath.Ext(base) != "" {
		return Unknown
	}
	return detectShebang(path)
}

func detectShebang(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return Unknown
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return Unknown
	}
	line := sc.Text()
	if !strings.HasPrefix(line, "#!") {
		return Unknown
	}

	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return Unknown
	}
	interp := filepath.Base(fields[0])
	// "#!/usr/bin/env python3" carries the interpreter in the argument.
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}
	// Strip trailing version digits: python3.11, php8.
	interp = strings.TrimRight(interp, "0123456789.")
	if l, ok := interpreters[interp]; ok {
		return l
	}
	return Unknown
}
