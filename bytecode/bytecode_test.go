package bytecode

import (
	"math/big"
	"testing"

	"ferrite/vm/stdlib"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	u8 := ScalarType{Kind: ScalarInteger, Bits: 8}
	tests := []Instruction{
		{Op: OP_NO_OP},
		{Op: OP_ADD},
		{Op: OP_PUSH, ScalarType: u8, Value: big.NewInt(42)},
		{Op: OP_PUSH, ScalarType: ScalarType{Kind: ScalarInteger, Signed: true, Bits: 16}, Value: big.NewInt(-7)},
		{Op: OP_LOAD, Addr: 3, Size: 2},
		{Op: OP_STORE, Addr: 3, Size: 2},
		{Op: OP_LOAD_BY_INDEX, Addr: 1, ElemSize: 1, TotalSize: 4},
		{Op: OP_SLICE, ElemSize: 1, TotalSize: 4},
		{Op: OP_STORAGE_LOAD, Size: 1},
		{Op: OP_CAST, ScalarType: u8},
		{Op: OP_LOOP_BEGIN, Iters: 10},
		{Op: OP_LOOP_END},
		{Op: OP_CALL, TypeID: 2, InputSize: 1},
		{Op: OP_RETURN, Size: 1},
		{Op: OP_CALL_STD, Identifier: stdlib.CryptoSha256, InputSize: 1, OutputSize: 32},
		{Op: OP_ASSERT, HasMessage: false},
		{Op: OP_ASSERT, HasMessage: true, Message: "overflow"},
		{Op: OP_DBG, Format: "acc={}", ArgTypes: []ScalarType{u8}},
		{Op: OP_FILE_MARKER, Name: "main.fe"},
		{Op: OP_FUNCTION_MARKER, Name: "main"},
		{Op: OP_LINE_MARKER, Position: 4},
		{Op: OP_COLUMN_MARKER, Position: 7},
	}

	for _, want := range tests {
		encoded := Encode(want)
		got, n, err := Decode(encoded)
		if err != nil {
			t.Fatalf("%s: decode error: %v", want.Op, err)
		}
		if n != len(encoded) {
			t.Fatalf("%s: consumed %d bytes, want %d", want.Op, n, len(encoded))
		}
		if got.Op != want.Op {
			t.Fatalf("opcode mismatch: got %s, want %s", got.Op, want.Op)
		}
		if got.String() != want.String() {
			t.Errorf("%s: roundtrip mismatch: got %q, want %q", want.Op, got.String(), want.String())
		}
	}
}

func TestDecodeTruncatedInstructionErrors(t *testing.T) {
	full := Encode(Instruction{Op: OP_LOAD, Addr: 1, Size: 1})
	if _, _, err := Decode(full[:len(full)-1]); err == nil {
		t.Fatalf("expected a truncation error")
	}
}

func TestEncodeDecodeProgramRoundTrip(t *testing.T) {
	prog := Program{
		Kind: Circuit,
		Functions: []FunctionTableEntry{
			{Name: "main", InputSize: 0, ReturnSize: 1},
		},
		EntryIndex: 0,
		Instructions: []Instruction{
			{Op: OP_PUSH, ScalarType: ScalarType{Kind: ScalarInteger, Bits: 8}, Value: big.NewInt(6)},
			{Op: OP_RETURN, Size: 1},
		},
	}
	encoded := EncodeProgram(prog)
	got, err := DecodeProgram(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != Circuit || len(got.Functions) != 1 || got.Functions[0].Name != "main" {
		t.Fatalf("unexpected decoded program: %+v", got)
	}
	if len(got.Instructions) != 2 || got.Instructions[0].Value.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("unexpected decoded instructions: %+v", got.Instructions)
	}
}

func TestPushValueTwosComplementRoundTrips(t *testing.T) {
	it := ScalarType{Kind: ScalarInteger, Signed: true, Bits: 8}
	ins := Instruction{Op: OP_PUSH, ScalarType: it, Value: big.NewInt(-1)}
	encoded := Encode(ins)
	got, _, err := Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// encodeScalarValue stores the full 256-bit two's-complement
	// representation, and Decode reads a signed integer back as the
	// negative value it encodes.
	want := big.NewInt(-1)
	if got.Value.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", got.Value, want)
	}
}
