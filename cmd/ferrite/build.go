package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"ferrite/bytecode"
	"ferrite/internal/pipeline"
	"ferrite/semantic"
)

// buildCmd lexes, parses, analyzes and lowers a source file, emitting
// a bytecode file plus (for a Circuit application) a witness template
// and a public-data template (spec.md §6 "Compiler outputs"), the
// minimal slice of the out-of-scope project-manager CLI's `build`
// needed to exercise the core end-to-end (SPEC_FULL.md AMBIENT STACK).
type buildCmd struct {
	out string
}

func (*buildCmd) Name() string { return "build" }
func (*buildCmd) Synopsis() string {
	return "Compile a source file to bytecode plus witness/public-data templates"
}
func (*buildCmd) Usage() string {
	return `ferrite build <file>:
  Lex, parse, analyze and lower a Ferrite source file, writing <file>.fec
  (bytecode), and for a Circuit application <file>.witness.json and
  <file>.public.json templates.
`
}

func (cmd *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.out, "o", "", "base output path (defaults to the input file's path without extension)")
}

func stem(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

func (cmd *buildCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	sem, prog, err := pipeline.CompileFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	base := cmd.out
	if base == "" {
		base = stem(args[0])
	}

	bytecodePath := base + ".fec"
	if err := os.WriteFile(bytecodePath, bytecode.EncodeProgram(*prog), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 writing bytecode file: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("wrote %s (%s, %d instruction(s))\n", bytecodePath, prog.Kind, len(prog.Instructions))

	if sem.Kind == semantic.Circuit && sem.EntryIndex >= 0 {
		entry := sem.Functions[sem.EntryIndex]
		if err := writeTemplateFile(base+".witness.json", witnessTemplate(entry)); err != nil {
			fmt.Fprintf(os.Stderr, "💥 writing witness template: %v\n", err)
			return subcommands.ExitFailure
		}
		if err := writeTemplateFile(base+".public.json", publicDataTemplate(entry)); err != nil {
			fmt.Fprintf(os.Stderr, "💥 writing public-data template: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("wrote %s.witness.json, %s.public.json\n", base, base)
	}

	return subcommands.ExitSuccess
}

func writeTemplateFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
