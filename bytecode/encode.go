package bytecode

import (
	"encoding/binary"
	"math/big"
)

// scalarValueWidth is the fixed byte width of an encoded Push value:
// wide enough for the full BN254 scalar field (spec.md §3 "field
// (native prime field element)"; gnark-crypto's fr.Element is 32
// bytes) and for any declared integer bitlength up to MaxIntegerBits.
const scalarValueWidth = 32

// Encode serializes a single instruction as a leading opcode byte
// followed by its operand bytes in little-endian order (spec.md §4.5:
// "a leading opcode byte plus operand bytes in a fixed little-endian
// layout"). Generalizes the teacher's MakeInstruction, which only
// handled one Opcode + one uint16 operand in big-endian order.
func Encode(ins Instruction) []byte {
	buf := []byte{byte(ins.Op)}
	switch ins.Op {
	case OP_NO_OP, OP_COPY, OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_REM, OP_NEG,
		OP_NOT, OP_AND, OP_OR, OP_XOR, OP_LT, OP_LE, OP_EQ, OP_NE, OP_GE, OP_GT,
		OP_SHL, OP_SHR, OP_BIT_AND, OP_BIT_OR, OP_BIT_XOR, OP_BIT_NOT,
		OP_IF, OP_ELSE, OP_END_IF, OP_LOOP_END,
		OP_SET_UNCONSTRAINED, OP_UNSET_UNCONSTRAINED:
		// no operands

	case OP_PUSH:
		buf = append(buf, encodeScalarType(ins.ScalarType)...)
		buf = append(buf, encodeScalarValue(ins.Value)...)

	case OP_SLICE:
		buf = append(buf, encodeU32(ins.ElemSize)...)
		buf = append(buf, encodeU32(ins.TotalSize)...)

	case OP_LOAD, OP_STORE:
		buf = append(buf, encodeU32(ins.Addr)...)
		buf = append(buf, encodeU32(ins.Size)...)

	case OP_LOAD_BY_INDEX, OP_STORE_BY_INDEX:
		buf = append(buf, encodeU32(ins.Addr)...)
		buf = append(buf, encodeU32(ins.ElemSize)...)
		buf = append(buf, encodeU32(ins.TotalSize)...)

	case OP_STORAGE_LOAD, OP_STORAGE_STORE, OP_RETURN, OP_EXIT:
		buf = append(buf, encodeU32(ins.Size)...)

	case OP_CAST:
		buf = append(buf, encodeScalarType(ins.ScalarType)...)

	case OP_LOOP_BEGIN:
		buf = append(buf, encodeU32(ins.Iters)...)

	case OP_CALL:
		buf = append(buf, encodeU32(ins.TypeID)...)
		buf = append(buf, encodeU32(ins.InputSize)...)

	case OP_CALL_STD:
		buf = append(buf, byte(ins.Identifier))
		buf = append(buf, encodeU32(ins.InputSize)...)
		buf = append(buf, encodeU32(ins.OutputSize)...)

	case OP_ASSERT:
		if ins.HasMessage {
			buf = append(buf, 1)
			buf = append(buf, encodeString(ins.Message)...)
		} else {
			buf = append(buf, 0)
		}

	case OP_DBG:
		buf = append(buf, encodeString(ins.Format)...)
		buf = append(buf, byte(len(ins.ArgTypes)))
		for _, at := range ins.ArgTypes {
			buf = append(buf, encodeScalarType(at)...)
		}

	case OP_FILE_MARKER, OP_FUNCTION_MARKER:
		buf = append(buf, encodeString(ins.Name)...)

	case OP_LINE_MARKER, OP_COLUMN_MARKER:
		buf = append(buf, encodeU32(ins.Position)...)
	}
	return buf
}

func encodeU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func encodeString(s string) []byte {
	b := encodeU32(uint32(len(s)))
	return append(b, []byte(s)...)
}

func encodeScalarType(t ScalarType) []byte {
	b := make([]byte, 4)
	b[0] = byte(t.Kind)
	if t.Signed {
		b[1] = 1
	}
	binary.LittleEndian.PutUint16(b[2:], t.Bits)
	return b
}

// encodeScalarValue serializes v as scalarValueWidth little-endian
// bytes, two's-complement for negative values (spec.md §4.6 "signed
// values use two's-complement inside the n-bit window").
func encodeScalarValue(v *big.Int) []byte {
	b := make([]byte, scalarValueWidth)
	if v == nil {
		return b
	}
	var mag *big.Int
	if v.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), scalarValueWidth*8)
		mag = new(big.Int).Add(mod, v)
	} else {
		mag = v
	}
	be := mag.Bytes()
	for i := 0; i < len(be) && i < scalarValueWidth; i++ {
		b[i] = be[len(be)-1-i]
	}
	return b
}
