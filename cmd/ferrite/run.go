package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"ferrite/generator"
	"ferrite/internal/pipeline"
	"ferrite/semantic"
	"ferrite/vm"
)

// runCmd builds a source file and immediately executes its Circuit
// entry on the VM against a witness JSON file (spec.md §6 "VM inputs:
// ... for a circuit, a witness value matching the input type"),
// printing the public-data result (spec.md §6 "VM outputs").
type runCmd struct {
	witness string
	proving bool
	debug   bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Build a source file and execute it on the VM" }
func (*runCmd) Usage() string {
	return `ferrite run -witness <witness.json> <file>:
  Build a Circuit source file and run its entry function on the VM.
`
}

func (cmd *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.witness, "witness", "", "path to a JSON witness file matching the entry's input type")
	f.BoolVar(&cmd.proving, "proving", false, "run in proving mode, building an arithmetic constraint system")
	f.BoolVar(&cmd.debug, "debug", false, "enable Dbg instruction output")
}

func (cmd *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if sem.Kind != semantic.Circuit || sem.EntryIndex < 0 {
		fmt.Fprintf(os.Stderr, "💥 %s applications are not runnable directly; use the method name via RunMethod\n", sem.Kind)
		return subcommands.ExitFailure
	}
	entry := sem.Functions[sem.EntryIndex]

	var witnessData []byte
	if cmd.witness != "" {
		witnessData, err = os.ReadFile(cmd.witness)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 reading witness file: %v\n", err)
			return subcommands.ExitFailure
		}
	} else {
		witnessData, _ = json.Marshal(witnessTemplate(entry))
	}
	inputs, err := parseWitness(entry, witnessData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	machine := vm.New(prog, cmd.proving)
	machine.SetDebug(cmd.debug)
	outputs, err := machine.RunCircuit(inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	result, _, err := generator.ValuesToJSON(entry.Return, outputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 encoding output: %v\n", err)
		return subcommands.ExitFailure
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))

	if cmd.proving {
		fmt.Fprintf(os.Stderr, "constraint system: %d equalit(ies)\n", machine.Constraints().Len())
	}
	return subcommands.ExitSuccess
}
