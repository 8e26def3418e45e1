package bytecode

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"ferrite/vm/stdlib"
)

// Decode is Encode's total inverse (spec.md §8 "Bytecode codec:
// decode(encode(i)) = (i, len(encode(i)))"): it reads one instruction
// from the front of b and reports how many bytes it consumed.
func Decode(b []byte) (Instruction, int, error) {
	if len(b) < 1 {
		return Instruction{}, 0, fmt.Errorf("bytecode: empty input")
	}
	op := Opcode(b[0])
	pos := 1
	ins := Instruction{Op: op}

	need := func(n int) error {
		if len(b) < pos+n {
			return fmt.Errorf("bytecode: truncated %s: need %d more bytes, have %d", op, n, len(b)-pos)
		}
		return nil
	}
	readU32 := func() (uint32, error) {
		if err := need(4); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint32(b[pos : pos+4])
		pos += 4
		return v, nil
	}
	readByte := func() (byte, error) {
		if err := need(1); err != nil {
			return 0, err
		}
		v := b[pos]
		pos++
		return v, nil
	}
	readScalarType := func() (ScalarType, error) {
		if err := need(4); err != nil {
			return ScalarType{}, err
		}
		t := ScalarType{
			Kind:   ScalarKind(b[pos]),
			Signed: b[pos+1] != 0,
			Bits:   binary.LittleEndian.Uint16(b[pos+2 : pos+4]),
		}
		pos += 4
		return t, nil
	}
	readString := func() (string, error) {
		n, err := readU32()
		if err != nil {
			return "", err
		}
		if err := need(int(n)); err != nil {
			return "", err
		}
		s := string(b[pos : pos+int(n)])
		pos += int(n)
		return s, nil
	}
	readValue := func() (*big.Int, error) {
		if err := need(scalarValueWidth); err != nil {
			return nil, err
		}
		raw := b[pos : pos+scalarValueWidth]
		pos += scalarValueWidth
		be := make([]byte, scalarValueWidth)
		for i, c := range raw {
			be[scalarValueWidth-1-i] = c
		}
		return new(big.Int).SetBytes(be), nil
	}

	var err error
	switch op {
	case OP_NO_OP, OP_COPY, OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_REM, OP_NEG,
		OP_NOT, OP_AND, OP_OR, OP_XOR, OP_LT, OP_LE, OP_EQ, OP_NE, OP_GE, OP_GT,
		OP_SHL, OP_SHR, OP_BIT_AND, OP_BIT_OR, OP_BIT_XOR, OP_BIT_NOT,
		OP_IF, OP_ELSE, OP_END_IF, OP_LOOP_END,
		OP_SET_UNCONSTRAINED, OP_UNSET_UNCONSTRAINED:
		// no operands

	case OP_PUSH:
		if ins.ScalarType, err = readScalarType(); err != nil {
			return Instruction{}, 0, err
		}
		if ins.Value, err = readValue(); err != nil {
			return Instruction{}, 0, err
		}
		// Signed integers are stored in 256-bit two's complement.
		if ins.ScalarType.Kind == ScalarInteger && ins.ScalarType.Signed && ins.Value.Bit(scalarValueWidth*8-1) == 1 {
			ins.Value.Sub(ins.Value, new(big.Int).Lsh(big.NewInt(1), scalarValueWidth*8))
		}

	case OP_SLICE:
		if ins.ElemSize, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}
		if ins.TotalSize, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_LOAD, OP_STORE:
		if ins.Addr, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}
		if ins.Size, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_LOAD_BY_INDEX, OP_STORE_BY_INDEX:
		if ins.Addr, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}
		if ins.ElemSize, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}
		if ins.TotalSize, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_STORAGE_LOAD, OP_STORAGE_STORE, OP_RETURN, OP_EXIT:
		if ins.Size, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_CAST:
		if ins.ScalarType, err = readScalarType(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_LOOP_BEGIN:
		if ins.Iters, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_CALL:
		if ins.TypeID, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}
		if ins.InputSize, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_CALL_STD:
		idByte, e := readByte()
		if e != nil {
			return Instruction{}, 0, e
		}
		ins.Identifier = stdlib.Identifier(idByte)
		if ins.InputSize, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}
		if ins.OutputSize, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_ASSERT:
		has, e := readByte()
		if e != nil {
			return Instruction{}, 0, e
		}
		ins.HasMessage = has != 0
		if ins.HasMessage {
			if ins.Message, err = readString(); err != nil {
				return Instruction{}, 0, err
			}
		}

	case OP_DBG:
		if ins.Format, err = readString(); err != nil {
			return Instruction{}, 0, err
		}
		n, e := readByte()
		if e != nil {
			return Instruction{}, 0, e
		}
		ins.ArgTypes = make([]ScalarType, n)
		for i := range ins.ArgTypes {
			if ins.ArgTypes[i], err = readScalarType(); err != nil {
				return Instruction{}, 0, err
			}
		}

	case OP_FILE_MARKER, OP_FUNCTION_MARKER:
		if ins.Name, err = readString(); err != nil {
			return Instruction{}, 0, err
		}

	case OP_LINE_MARKER, OP_COLUMN_MARKER:
		if ins.Position, err = readU32(); err != nil {
			return Instruction{}, 0, err
		}

	default:
		return Instruction{}, 0, fmt.Errorf("bytecode: unknown opcode %d", op)
	}
	return ins, pos, nil
}
