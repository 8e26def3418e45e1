package semantic

import (
	"fmt"

	"ferrite/token"
)

// ErrorKind tags which member of the closed SemanticError taxonomy
// (spec.md §4.3 "Errors") a given SemanticError carries.
type ErrorKind string

const (
	FunctionMainMissing                           ErrorKind = "FunctionMainMissing"
	OperatorRangeFirstOperandExpectedConstant     ErrorKind = "OperatorRangeFirstOperandExpectedConstant"
	OperatorEqualsSecondOperandExpectedUnit       ErrorKind = "OperatorEqualsSecondOperandExpectedUnit"
	OperatorIndexSecondOperandExpectedIntegerOrRange ErrorKind = "OperatorIndexSecondOperandExpectedIntegerOrRange"
	TypeMismatch                                  ErrorKind = "TypeMismatch"
	UndeclaredName                                ErrorKind = "UndeclaredName"
	NotCallable                                   ErrorKind = "NotCallable"
	ArgumentCountMismatch                         ErrorKind = "ArgumentCountMismatch"
	FunctionArgumentTypeMismatch                  ErrorKind = "FunctionArgumentTypeMismatch"
	NonExhaustiveMatch                            ErrorKind = "NonExhaustiveMatch"
	ConstantOutOfRange                            ErrorKind = "ConstantOutOfRange"
	DivisionByZero                                ErrorKind = "DivisionByZero"
	InvalidBitLength                              ErrorKind = "InvalidBitLength"
	CyclicTypeDefinition                          ErrorKind = "CyclicTypeDefinition"
	AssignmentToImmutable                         ErrorKind = "AssignmentToImmutable"
	DuplicateBinding                              ErrorKind = "DuplicateBinding"
)

// SemanticError is the single closed error type the analyzer returns;
// Kind discriminates the taxonomy member, and the remaining fields are
// populated as that member requires (spec.md §4.3, §7).
type SemanticError struct {
	Kind     ErrorKind
	Position token.Position
	Message  string

	// FunctionArgumentTypeMismatch fields.
	FunctionName string
	ArgName      string
	Expected     string
	Found        string
}

func (e SemanticError) Error() string {
	switch e.Kind {
	case FunctionArgumentTypeMismatch:
		return fmt.Sprintf("💥 Ferrite semantic error: %s at %s:%d:%d: function %q, argument %q expected %s, found %s",
			e.Kind, e.Position.File, e.Position.Line, e.Position.Column, e.FunctionName, e.ArgName, e.Expected, e.Found)
	case TypeMismatch:
		return fmt.Sprintf("💥 Ferrite semantic error: %s at %s:%d:%d: expected %s, found %s",
			e.Kind, e.Position.File, e.Position.Line, e.Position.Column, e.Expected, e.Found)
	default:
		return fmt.Sprintf("💥 Ferrite semantic error: %s at %s:%d:%d: %s",
			e.Kind, e.Position.File, e.Position.Line, e.Position.Column, e.Message)
	}
}

func newError(kind ErrorKind, pos token.Position, format string, args ...any) SemanticError {
	return SemanticError{Kind: kind, Position: pos, Message: fmt.Sprintf(format, args...)}
}
