// Command ferrite is the project-manager CLI slice spec.md §6 and
// SPEC_FULL.md's AMBIENT STACK section call for: enough of a driver to
// hand a single source file to the compiler and a witness to the VM,
// without the full out-of-scope project manager (no prove/verify/
// publish, no wallet, no manifest-driven multi-file project loading).
//
// Grounded on the teacher's root cmd_run.go / cmd_run_compiled.go /
// cmd_emit_bytecode.go / cmd_repl_compiled.go files and their shared
// google/subcommands dispatch shape; unlike the teacher's own main.go
// (which never actually registered those cmd_*.go commands), every
// subcommand here is wired into subcommands.Register so it is
// reachable from the command line.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&lexCmd{}, "")
	subcommands.Register(&parseCmd{}, "")
	subcommands.Register(&checkCmd{}, "")
	subcommands.Register(&buildCmd{}, "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
