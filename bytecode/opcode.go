// Package bytecode implements spec.md §4.5's bytecode model: the
// instruction set, its little-endian binary encoding, and the program
// container (application-kind header, function table, instruction
// stream) that the generator, VM, and CLI all share.
//
// Generalized from the teacher's compiler/code.go (Opcode byte,
// OpCodeDefinition{Name,OperandWidths}, a definitions table, and
// Assemble/Diassemble functions), kept naming style (OP_-prefixed
// SCREAMING_SNAKE constants) and all, but little-endian per spec.md
// §4.5 rather than the teacher's big-endian, and extended from the
// teacher's single uint16-operand OP_CONSTANT to the full instruction
// set spec.md §3 names.
package bytecode

import "fmt"

// Opcode is the one-byte tag leading every encoded instruction.
type Opcode byte

const (
	OP_NO_OP Opcode = iota
	OP_PUSH
	OP_COPY
	OP_SLICE
	OP_LOAD
	OP_LOAD_BY_INDEX
	OP_STORE
	OP_STORE_BY_INDEX
	OP_STORAGE_LOAD
	OP_STORAGE_STORE
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_REM
	OP_NEG
	OP_NOT
	OP_AND
	OP_OR
	OP_XOR
	OP_LT
	OP_LE
	OP_EQ
	OP_NE
	OP_GE
	OP_GT
	OP_SHL
	OP_SHR
	OP_BIT_AND
	OP_BIT_OR
	OP_BIT_XOR
	OP_BIT_NOT
	OP_CAST
	OP_IF
	OP_ELSE
	OP_END_IF
	OP_LOOP_BEGIN
	OP_LOOP_END
	OP_CALL
	OP_RETURN
	OP_EXIT
	OP_CALL_STD
	OP_ASSERT
	OP_DBG
	OP_SET_UNCONSTRAINED
	OP_UNSET_UNCONSTRAINED
	OP_FILE_MARKER
	OP_FUNCTION_MARKER
	OP_LINE_MARKER
	OP_COLUMN_MARKER
)

var opcodeNames = map[Opcode]string{
	OP_NO_OP:               "OP_NO_OP",
	OP_PUSH:                "OP_PUSH",
	OP_COPY:                "OP_COPY",
	OP_SLICE:               "OP_SLICE",
	OP_LOAD:                "OP_LOAD",
	OP_LOAD_BY_INDEX:       "OP_LOAD_BY_INDEX",
	OP_STORE:               "OP_STORE",
	OP_STORE_BY_INDEX:      "OP_STORE_BY_INDEX",
	OP_STORAGE_LOAD:        "OP_STORAGE_LOAD",
	OP_STORAGE_STORE:       "OP_STORAGE_STORE",
	OP_ADD:                 "OP_ADD",
	OP_SUB:                 "OP_SUB",
	OP_MUL:                 "OP_MUL",
	OP_DIV:                 "OP_DIV",
	OP_REM:                 "OP_REM",
	OP_NEG:                 "OP_NEG",
	OP_NOT:                 "OP_NOT",
	OP_AND:                 "OP_AND",
	OP_OR:                  "OP_OR",
	OP_XOR:                 "OP_XOR",
	OP_LT:                  "OP_LT",
	OP_LE:                  "OP_LE",
	OP_EQ:                  "OP_EQ",
	OP_NE:                  "OP_NE",
	OP_GE:                  "OP_GE",
	OP_GT:                  "OP_GT",
	OP_SHL:                 "OP_SHL",
	OP_SHR:                 "OP_SHR",
	OP_BIT_AND:             "OP_BIT_AND",
	OP_BIT_OR:              "OP_BIT_OR",
	OP_BIT_XOR:             "OP_BIT_XOR",
	OP_BIT_NOT:             "OP_BIT_NOT",
	OP_CAST:                "OP_CAST",
	OP_IF:                  "OP_IF",
	OP_ELSE:                "OP_ELSE",
	OP_END_IF:              "OP_END_IF",
	OP_LOOP_BEGIN:          "OP_LOOP_BEGIN",
	OP_LOOP_END:            "OP_LOOP_END",
	OP_CALL:                "OP_CALL",
	OP_RETURN:              "OP_RETURN",
	OP_EXIT:                "OP_EXIT",
	OP_CALL_STD:            "OP_CALL_STD",
	OP_ASSERT:              "OP_ASSERT",
	OP_DBG:                 "OP_DBG",
	OP_SET_UNCONSTRAINED:   "OP_SET_UNCONSTRAINED",
	OP_UNSET_UNCONSTRAINED: "OP_UNSET_UNCONSTRAINED",
	OP_FILE_MARKER:         "OP_FILE_MARKER",
	OP_FUNCTION_MARKER:     "OP_FUNCTION_MARKER",
	OP_LINE_MARKER:         "OP_LINE_MARKER",
	OP_COLUMN_MARKER:       "OP_COLUMN_MARKER",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", byte(op))
}

// ScalarKind tags the runtime representation of a Push/Cast scalar
// operand (spec.md §4.5 "Typed push": "Boolean, Field, Integer{signed,
// bitlength}").
type ScalarKind byte

const (
	ScalarBool ScalarKind = iota
	ScalarField
	ScalarInteger
)

// ScalarType is the fixed-width type tag carried by Push and Cast
// operands so the VM can range-check at execution time.
type ScalarType struct {
	Kind   ScalarKind
	Signed bool
	Bits   uint16 // meaningful only when Kind == ScalarInteger
}

func (t ScalarType) String() string {
	switch t.Kind {
	case ScalarBool:
		return "bool"
	case ScalarField:
		return "field"
	default:
		if t.Signed {
			return fmt.Sprintf("i%d", t.Bits)
		}
		return fmt.Sprintf("u%d", t.Bits)
	}
}
