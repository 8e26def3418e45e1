// Package pipeline composes the four core passes spec.md §2 names
// leaves-first (lexer -> parser -> semantic analyzer -> generator)
// into the single driver sequence every cmd/ferrite subcommand needs,
// so the CLI layer never re-implements "read a file, run the whole
// pipeline, report the first error" more than once. Grounded on the
// teacher's root cmd_*.go files, which each inlined this same
// lex-then-parse-then-compile sequence directly; Ferrite factors it
// out once since five subcommands (lex/parse/check/build/run) each
// need a different prefix of it.
package pipeline

import (
	"fmt"
	"os"

	"ferrite/ast"
	"ferrite/bytecode"
	"ferrite/generator"
	"ferrite/lexer"
	"ferrite/parser"
	"ferrite/semantic"
	"ferrite/token"
)

// ReadSource loads a source file from disk. Kept as its own function
// (rather than inlined at every call site) so every subcommand reports
// a missing/unreadable file the same way.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Lex runs spec.md §4.1 over source, tagging every token with file.
func Lex(source, file string) ([]token.Token, error) {
	lex := lexer.New(source, file)
	return lex.Scan()
}

// Parse runs spec.md §4.2 over a token stream already produced by Lex.
func Parse(tokens []token.Token, file string) (*ast.Module, error) {
	p := parser.Make(tokens, file)
	return p.Parse()
}

// Analyze runs spec.md §4.3 over a parsed Module.
func Analyze(mod *ast.Module, file string) (*semantic.Program, error) {
	return semantic.Analyze(mod, file)
}

// Lower runs spec.md §4.4 over an analyzed Program.
func Lower(prog *semantic.Program) (*bytecode.Program, error) {
	return generator.Generate(prog)
}

// ParseFile lexes and parses a source file in one step, for subcommands
// (lex, parse) that stop short of semantic analysis.
func ParseFile(path string) (*ast.Module, error) {
	source, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	tokens, err := Lex(source, path)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, path)
}

// AnalyzeFile runs the pipeline through semantic analysis, for the
// `check` subcommand.
func AnalyzeFile(path string) (*semantic.Program, error) {
	mod, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Analyze(mod, path)
}

// CompileFile runs the complete core pipeline (spec.md §2, passes 1-5),
// for the `build`/`run` subcommands, which need the resulting
// bytecode.Program to execute or serialize.
func CompileFile(path string) (*semantic.Program, *bytecode.Program, error) {
	sem, err := AnalyzeFile(path)
	if err != nil {
		return nil, nil, err
	}
	prog, err := Lower(sem)
	if err != nil {
		return nil, nil, err
	}
	return sem, prog, nil
}

// CompileSource is CompileFile's in-memory counterpart, used by `ferrite
// repl`, which has no source file backing a REPL line.
func CompileSource(source, file string) (*semantic.Program, *bytecode.Program, error) {
	tokens, err := Lex(source, file)
	if err != nil {
		return nil, nil, err
	}
	mod, err := Parse(tokens, file)
	if err != nil {
		return nil, nil, err
	}
	sem, err := Analyze(mod, file)
	if err != nil {
		return nil, nil, err
	}
	prog, err := Lower(sem)
	if err != nil {
		return nil, nil, err
	}
	return sem, prog, nil
}
