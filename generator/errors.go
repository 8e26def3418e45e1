// Package generator implements spec.md §4.4's lowering pass: turning a
// semantic.Program (a type-checked AST plus its Annotations) into a
// bytecode.Program ready for the VM or bytecode file writer.
//
// Grounded on the teacher's compiler/ast_compiler.go (a visitor-based
// ASTCompiler over the same kind of AST, using a panic/recover-driven
// error path like semantic.Analyzer), generalized from the teacher's
// untyped constant-pool bytecode to spec.md's typed, addressed
// instruction set.
package generator

import (
	"fmt"

	"ferrite/token"
)

// Error is the generator's single closed error type, in the same shape
// as parser.SyntaxError and semantic.SemanticError.
type Error struct {
	Position token.Position
	Message  string
}

func (e Error) Error() string {
	return fmt.Sprintf("💥 Ferrite generator error: %s:%d:%d: %s", e.Position.File, e.Position.Line, e.Position.Column, e.Message)
}

func newError(pos token.Position, format string, args ...any) Error {
	return Error{Position: pos, Message: fmt.Sprintf(format, args...)}
}

func panicError(pos token.Position, format string, args ...any) {
	panic(newError(pos, format, args...))
}
