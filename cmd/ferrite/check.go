package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"ferrite/internal/pipeline"
)

// checkCmd runs lexing, parsing and semantic analysis and reports the
// first error, without lowering to bytecode (spec.md §4.3).
type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "Run the semantic analyzer and report errors" }
func (*checkCmd) Usage() string {
	return `ferrite check <file>:
  Lex, parse, and semantically analyze a Ferrite source file.
`
}
func (*checkCmd) SetFlags(f *flag.FlagSet) {}

func (*checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	prog, err := pipeline.AnalyzeFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("ok: %s application, %d function(s)\n", prog.Kind, len(prog.Functions))
	return subcommands.ExitSuccess
}
