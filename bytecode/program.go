package bytecode

import (
	"encoding/binary"
	"fmt"
)

// ApplicationKind tags the bytecode file header (spec.md §6 "Compiler
// outputs": "header containing application kind tag (Circuit |
// Contract | Library)").
type ApplicationKind byte

const (
	Circuit ApplicationKind = iota
	Contract
	Library
)

func (k ApplicationKind) String() string {
	switch k {
	case Circuit:
		return "Circuit"
	case Contract:
		return "Contract"
	default:
		return "Library"
	}
}

// FunctionTableEntry is one row of the generator's function table
// (spec.md §4.4 "a function table (type_id -> (name, input_size,
// return_size))").
type FunctionTableEntry struct {
	Name       string
	InputSize  uint32
	ReturnSize uint32

	// Address is the offset into Program.Instructions of this
	// function's first instruction. The generator lowers every
	// function into the same flat stream (spec.md §3 "Instructions are
	// owned by a state object"); Address is how Call resolves a
	// type_id to somewhere to jump.
	Address uint32
}

// Program is the bytecode file's in-memory form: application kind,
// function table, and flat instruction stream (spec.md §6 "Bytecode
// file"). EntryIndex names the Circuit entry function ("main") in
// Functions, or -1 for Contract/Library applications.
type Program struct {
	Kind         ApplicationKind
	Functions    []FunctionTableEntry
	EntryIndex   int32
	Instructions []Instruction
}

// EncodeProgram serializes a Program as: kind byte, function count
// (uint32 LE), each function table entry (name, input_size,
// return_size, address), entry index (int32 LE), instruction count (uint32 LE),
// then each encoded instruction back to back.
func EncodeProgram(p Program) []byte {
	buf := []byte{byte(p.Kind)}
	buf = append(buf, encodeU32(uint32(len(p.Functions)))...)
	for _, fn := range p.Functions {
		buf = append(buf, encodeString(fn.Name)...)
		buf = append(buf, encodeU32(fn.InputSize)...)
		buf = append(buf, encodeU32(fn.ReturnSize)...)
		buf = append(buf, encodeU32(fn.Address)...)
	}
	entryBits := make([]byte, 4)
	binary.LittleEndian.PutUint32(entryBits, uint32(p.EntryIndex))
	buf = append(buf, entryBits...)
	buf = append(buf, encodeU32(uint32(len(p.Instructions)))...)
	for _, ins := range p.Instructions {
		buf = append(buf, Encode(ins)...)
	}
	return buf
}

// DecodeProgram is EncodeProgram's inverse.
func DecodeProgram(b []byte) (Program, error) {
	if len(b) < 1 {
		return Program{}, fmt.Errorf("bytecode: empty program")
	}
	p := Program{Kind: ApplicationKind(b[0])}
	pos := 1

	readU32 := func() (uint32, error) {
		if len(b) < pos+4 {
			return 0, fmt.Errorf("bytecode: truncated program header")
		}
		v := binary.LittleEndian.Uint32(b[pos : pos+4])
		pos += 4
		return v, nil
	}
	readString := func() (string, error) {
		n, err := readU32()
		if err != nil {
			return "", err
		}
		if len(b) < pos+int(n) {
			return "", fmt.Errorf("bytecode: truncated program string")
		}
		s := string(b[pos : pos+int(n)])
		pos += int(n)
		return s, nil
	}

	fnCount, err := readU32()
	if err != nil {
		return Program{}, err
	}
	p.Functions = make([]FunctionTableEntry, fnCount)
	for i := range p.Functions {
		name, err := readString()
		if err != nil {
			return Program{}, err
		}
		inputSize, err := readU32()
		if err != nil {
			return Program{}, err
		}
		returnSize, err := readU32()
		if err != nil {
			return Program{}, err
		}
		address, err := readU32()
		if err != nil {
			return Program{}, err
		}
		p.Functions[i] = FunctionTableEntry{Name: name, InputSize: inputSize, ReturnSize: returnSize, Address: address}
	}

	if len(b) < pos+4 {
		return Program{}, fmt.Errorf("bytecode: truncated entry index")
	}
	p.EntryIndex = int32(binary.LittleEndian.Uint32(b[pos : pos+4]))
	pos += 4

	insCount, err := readU32()
	if err != nil {
		return Program{}, err
	}
	p.Instructions = make([]Instruction, insCount)
	for i := range p.Instructions {
		ins, n, err := Decode(b[pos:])
		if err != nil {
			return Program{}, err
		}
		p.Instructions[i] = ins
		pos += n
	}
	return p, nil
}
