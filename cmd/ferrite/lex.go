package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"ferrite/internal/pipeline"
)

// lexCmd dumps the raw token stream for a source file (spec.md §4.1),
// mirroring the teacher's cmd_emit_bytecode.go shape one pass earlier
// in the pipeline.
type lexCmd struct{}

func (*lexCmd) Name() string     { return "lex" }
func (*lexCmd) Synopsis() string { return "Dump the token stream for a source file" }
func (*lexCmd) Usage() string {
	return `ferrite lex <file>:
  Lex a Ferrite source file and print its token stream, one token per line.
`
}
func (*lexCmd) SetFlags(f *flag.FlagSet) {}

func (*lexCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	source, err := pipeline.ReadSource(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}
	tokens, err := pipeline.Lex(source, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	for _, tok := range tokens {
		fmt.Printf("%4d:%-3d %s\n", tok.Line, tok.Column, tok.String())
	}
	return subcommands.ExitSuccess
}
