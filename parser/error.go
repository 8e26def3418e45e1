package parser

import "fmt"

// SyntaxError is the closed error type raised by the parser. It always
// carries the offending token's position plus a human message that
// names what was expected, in the "expected one of ..." style
// SPEC_FULL.md's error-handling section calls for.
type SyntaxError struct {
	Line    int32
	Column  int
	Message string
}

func CreateSyntaxError(line int32, column int, message string) SyntaxError {
	return SyntaxError{Line: line, Column: column, Message: message}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 Ferrite syntax error:\nline:%d, column:%d - %s", e.Line, e.Column, e.Message)
}
