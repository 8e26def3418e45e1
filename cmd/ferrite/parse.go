package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"ferrite/internal/pipeline"
	"ferrite/parser"
)

// parseCmd dumps the parsed AST as JSON (spec.md §4.2), reusing the
// teacher's astPrinter JSON-tree technique kept in parser/printer.go.
type parseCmd struct {
	out string
}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "Parse a source file and print its AST as JSON" }
func (*parseCmd) Usage() string {
	return `ferrite parse <file>:
  Lex and parse a Ferrite source file and print its AST as JSON.
`
}

func (cmd *parseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.out, "o", "", "write the AST JSON to this file instead of stdout")
}

func (cmd *parseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	mod, err := pipeline.ParseFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	if cmd.out != "" {
		if err := parser.WriteASTJSONToFile(mod, cmd.out); err != nil {
			fmt.Fprintf(os.Stderr, "💥 writing AST JSON: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	s, err := parser.PrintASTJSON(mod)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 printing AST JSON: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(s)
	return subcommands.ExitSuccess
}
