package vm

import (
	"fmt"

	"ferrite/token"
)

// ErrorKind tags which member of the closed RuntimeError taxonomy
// (spec.md §7 "RuntimeError") a RuntimeError carries.
type ErrorKind string

const (
	TypeError             ErrorKind = "TypeError"
	Overflow              ErrorKind = "Overflow"
	DivisionByZero        ErrorKind = "DivisionByZero"
	AssertionFailed       ErrorKind = "AssertionFailed"
	StackUnderflow        ErrorKind = "StackUnderflow"
	UnreachableCode       ErrorKind = "UnreachableCode"
	IndexOutOfBounds      ErrorKind = "IndexOutOfBounds"
	ConstraintUnsatisfied ErrorKind = "ConstraintUnsatisfied"
)

// RuntimeError is the VM's single closed error type (spec.md §7),
// carrying the source location active when it was raised (the most
// recent FileMarker/FunctionMarker/LineMarker/ColumnMarker the VM
// processed), in the same shape as parser.SyntaxError and
// semantic.SemanticError (SPEC_FULL.md "Errors").
type RuntimeError struct {
	Kind     ErrorKind
	Position token.Position
	Message  string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 Ferrite runtime error: %s at %s:%d:%d: %s",
		e.Kind, e.Position.File, e.Position.Line, e.Position.Column, e.Message)
}

func newRuntimeError(kind ErrorKind, pos token.Position, format string, args ...any) RuntimeError {
	return RuntimeError{Kind: kind, Position: pos, Message: fmt.Sprintf(format, args...)}
}
