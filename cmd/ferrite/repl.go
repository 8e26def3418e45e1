package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"ferrite/generator"
	"ferrite/internal/pipeline"
	"ferrite/semantic"
	"ferrite/token"
	"ferrite/vm"
)

// replCmd is a chzyer/readline-backed interactive loop over the
// lex->parse->analyze->lower->run pipeline for circuit-less scratch
// programs (SPEC_FULL.md AMBIENT STACK: "in the manner of the
// teacher's cmd_repl_compiled.go"). Each accepted buffer is recompiled
// and run from scratch, exactly as the teacher's replCompiledCmd does
// ("previous compiled code is going to be recompiled again in the
// REPL, but for now its fine"); there is no persistent variable
// environment across lines, since every program must still be a
// complete module (at minimum a `fn main`), not a single statement.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive lex/parse/analyze/run session" }
func (*replCmd) Usage() string {
	return `ferrite repl:
  Start an interactive session. Type a complete module (at least a
  'fn main() -> T { ... }') and it is compiled and run immediately.
  Type 'exit' to quit.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to Ferrite!")
	fmt.Println("Type a complete module ('fn main() -> T { ... }'); 'exit' to quit.")

	rl, err := readline.New("ferrite> ")
	if err != nil {
		fmt.Printf("💥 readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	var buffer strings.Builder
	for {
		prompt := "ferrite> "
		if buffer.Len() > 0 {
			prompt = "      .. "
		}
		rl.SetPrompt(prompt)

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Printf("💥 %v\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, lexErr := pipeline.Lex(source, "repl")
		if lexErr != nil {
			fmt.Println(lexErr)
			buffer.Reset()
			continue
		}
		if !bracesBalanced(tokens) {
			continue
		}

		runRepl(source)
		buffer.Reset()
	}
}

func bracesBalanced(tokens []token.Token) bool {
	depth := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
	}
	return depth <= 0
}

func runRepl(source string) {
	sem, prog, err := pipeline.CompileSource(source, "repl")
	if err != nil {
		fmt.Println(err)
		return
	}
	if sem.Kind != semantic.Circuit || sem.EntryIndex < 0 {
		fmt.Printf("ok: %s application, %d function(s)\n", sem.Kind, len(sem.Functions))
		return
	}
	entry := sem.Functions[sem.EntryIndex]
	if len(entry.Params) > 0 {
		fmt.Println("note: main takes parameters; use 'ferrite run -witness' to supply them")
		return
	}

	machine := vm.New(prog, false)
	outputs, err := machine.RunCircuit(nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	result, _, err := generator.ValuesToJSON(entry.Return, outputs)
	if err != nil {
		fmt.Printf("💥 %v\n", err)
		return
	}
	data, _ := json.Marshal(result)
	fmt.Println(string(data))
}
