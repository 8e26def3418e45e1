package bytecode

import (
	"fmt"
	"math/big"

	"ferrite/vm/stdlib"
)

// Instruction is one decoded bytecode instruction. It is a tagged
// union over every shape spec.md §3 "Instructions" names: only the
// fields relevant to Op are populated, mirroring the teacher's
// Token{Literal any} pattern of one struct covering every variant
// rather than a Go interface per opcode (instructions are a closed,
// exhaustively-switched set — spec.md §9 "Dynamic dispatch").
type Instruction struct {
	Op Opcode

	// Load/Store/StoreByIndex/LoadByIndex/Slice
	Addr      uint32
	Size      uint32
	ElemSize  uint32
	TotalSize uint32

	// LoopBegin
	Iters uint32

	// Call
	TypeID    uint32
	InputSize uint32

	// Return/Exit/StorageLoad/StorageStore share Size above.

	// CallStd
	Identifier stdlib.Identifier
	OutputSize uint32

	// Push/Cast
	ScalarType ScalarType
	Value      *big.Int // Push only; little-endian two's-complement over 32 bytes

	// Assert
	HasMessage bool
	Message    string

	// Dbg
	Format   string
	ArgTypes []ScalarType

	// FileMarker/FunctionMarker
	Name string

	// LineMarker/ColumnMarker
	Position uint32
}

// String renders a disassembled line in the teacher's
// DiassembleInstruction style ("opcode: X, operand: Y, ...").
func (ins Instruction) String() string {
	switch ins.Op {
	case OP_PUSH:
		return fmt.Sprintf("opcode: %s, type: %s, value: %s", ins.Op, ins.ScalarType, ins.Value)
	case OP_LOAD, OP_STORE:
		return fmt.Sprintf("opcode: %s, addr: %d, size: %d", ins.Op, ins.Addr, ins.Size)
	case OP_LOAD_BY_INDEX, OP_STORE_BY_INDEX:
		return fmt.Sprintf("opcode: %s, addr: %d, elem_size: %d, total_size: %d", ins.Op, ins.Addr, ins.ElemSize, ins.TotalSize)
	case OP_SLICE:
		return fmt.Sprintf("opcode: %s, elem_size: %d, total_size: %d", ins.Op, ins.ElemSize, ins.TotalSize)
	case OP_STORAGE_LOAD, OP_STORAGE_STORE, OP_RETURN, OP_EXIT:
		return fmt.Sprintf("opcode: %s, size: %d", ins.Op, ins.Size)
	case OP_LOOP_BEGIN:
		return fmt.Sprintf("opcode: %s, iters: %d", ins.Op, ins.Iters)
	case OP_CALL:
		return fmt.Sprintf("opcode: %s, type_id: %d, input_size: %d", ins.Op, ins.TypeID, ins.InputSize)
	case OP_CALL_STD:
		return fmt.Sprintf("opcode: %s, identifier: %s, input_size: %d, output_size: %d", ins.Op, ins.Identifier, ins.InputSize, ins.OutputSize)
	case OP_CAST:
		return fmt.Sprintf("opcode: %s, type: %s", ins.Op, ins.ScalarType)
	case OP_ASSERT:
		if ins.HasMessage {
			return fmt.Sprintf("opcode: %s, message: %q", ins.Op, ins.Message)
		}
		return fmt.Sprintf("opcode: %s, message: none", ins.Op)
	case OP_DBG:
		return fmt.Sprintf("opcode: %s, format: %q, args: %d", ins.Op, ins.Format, len(ins.ArgTypes))
	case OP_FILE_MARKER, OP_FUNCTION_MARKER:
		return fmt.Sprintf("opcode: %s, name: %q", ins.Op, ins.Name)
	case OP_LINE_MARKER, OP_COLUMN_MARKER:
		return fmt.Sprintf("opcode: %s, position: %d", ins.Op, ins.Position)
	default:
		return fmt.Sprintf("opcode: %s, operand: none", ins.Op)
	}
}
