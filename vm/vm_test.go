package vm

import (
	"math/big"
	"testing"

	"ferrite/bytecode"
	"ferrite/vm/scalar"
)

func u32Type(bits uint16) bytecode.ScalarType {
	return bytecode.ScalarType{Kind: bytecode.ScalarInteger, Signed: false, Bits: bits}
}

func intVal(bits uint16, n int64) scalar.Value {
	return scalar.FromBigInt(u32Type(bits), big.NewInt(n))
}

func TestRunCircuitAdd(t *testing.T) {
	prog := &bytecode.Program{
		Kind:       bytecode.Circuit,
		EntryIndex: 0,
		Functions: []bytecode.FunctionTableEntry{
			{Name: "main", InputSize: 2, ReturnSize: 1, Address: 0},
		},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OP_LOAD, Addr: 0, Size: 1},
			{Op: bytecode.OP_LOAD, Addr: 1, Size: 1},
			{Op: bytecode.OP_ADD},
			{Op: bytecode.OP_EXIT, Size: 1},
		},
	}

	machine := New(prog, false)
	out, err := machine.RunCircuit([]scalar.Value{intVal(32, 2), intVal(32, 40)})
	if err != nil {
		t.Fatalf("RunCircuit: %v", err)
	}
	if len(out) != 1 || out[0].Int().Int64() != 42 {
		t.Fatalf("got %v, want [42]", out)
	}
}

func TestIfElseSkipsUntakenBranch(t *testing.T) {
	// if true { 1 } else { 2 }
	prog := &bytecode.Program{
		Kind:       bytecode.Circuit,
		EntryIndex: 0,
		Functions: []bytecode.FunctionTableEntry{
			{Name: "main", InputSize: 0, ReturnSize: 1, Address: 0},
		},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OP_PUSH, ScalarType: bytecode.ScalarType{Kind: bytecode.ScalarBool}, Value: big.NewInt(1)},
			{Op: bytecode.OP_IF},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(1)},
			{Op: bytecode.OP_ELSE},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(2)},
			{Op: bytecode.OP_END_IF},
			{Op: bytecode.OP_EXIT, Size: 1},
		},
	}

	machine := New(prog, false)
	out, err := machine.RunCircuit(nil)
	if err != nil {
		t.Fatalf("RunCircuit: %v", err)
	}
	if len(out) != 1 || out[0].Int().Int64() != 1 {
		t.Fatalf("got %v, want [1]", out)
	}
}

func TestIfElseTakesElseBranch(t *testing.T) {
	prog := &bytecode.Program{
		Kind:       bytecode.Circuit,
		EntryIndex: 0,
		Functions: []bytecode.FunctionTableEntry{
			{Name: "main", InputSize: 0, ReturnSize: 1, Address: 0},
		},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OP_PUSH, ScalarType: bytecode.ScalarType{Kind: bytecode.ScalarBool}, Value: big.NewInt(0)},
			{Op: bytecode.OP_IF},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(1)},
			{Op: bytecode.OP_ELSE},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(2)},
			{Op: bytecode.OP_END_IF},
			{Op: bytecode.OP_EXIT, Size: 1},
		},
	}

	machine := New(prog, false)
	out, err := machine.RunCircuit(nil)
	if err != nil {
		t.Fatalf("RunCircuit: %v", err)
	}
	if len(out) != 1 || out[0].Int().Int64() != 2 {
		t.Fatalf("got %v, want [2]", out)
	}
}

func TestProvingIfElseSelectsTakenBranchAndDropsUntakenBookkeeping(t *testing.T) {
	// if false { 1+1 } else { 2+0 } under proving=true: both arithmetic
	// ops run and record a bookkeeping equality (spec.md §4.6 "both
	// branches are evaluated"), but only the selected (else) branch's
	// equality survives — the unselected (then) branch's is rolled back.
	prog := &bytecode.Program{
		Kind:       bytecode.Circuit,
		EntryIndex: 0,
		Functions: []bytecode.FunctionTableEntry{
			{Name: "main", InputSize: 0, ReturnSize: 1, Address: 0},
		},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OP_PUSH, ScalarType: bytecode.ScalarType{Kind: bytecode.ScalarBool}, Value: big.NewInt(0)},
			{Op: bytecode.OP_IF},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(1)},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(1)},
			{Op: bytecode.OP_ADD},
			{Op: bytecode.OP_ELSE},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(2)},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(0)},
			{Op: bytecode.OP_ADD},
			{Op: bytecode.OP_END_IF},
			{Op: bytecode.OP_EXIT, Size: 1},
		},
	}

	machine := New(prog, true)
	out, err := machine.RunCircuit(nil)
	if err != nil {
		t.Fatalf("RunCircuit: %v", err)
	}
	if len(out) != 1 || out[0].Int().Int64() != 2 {
		t.Fatalf("got %v, want [2]", out)
	}
	if got := machine.Constraints().Len(); got != 1 {
		t.Fatalf("expected the untaken branch's bookkeeping to be rolled back, got %d equalities", got)
	}
}

func TestProvingIfElseKeepsSuppressedAssertConstraint(t *testing.T) {
	// if false { assert(false) } -- the then-branch is not taken, so the
	// assertion must not fail the run, but its equality (Predicate=false)
	// must still appear in the constraint system (spec.md §4.6: "the
	// constraint still encodes the falsehood").
	prog := &bytecode.Program{
		Kind:       bytecode.Circuit,
		EntryIndex: 0,
		Functions: []bytecode.FunctionTableEntry{
			{Name: "main", InputSize: 0, ReturnSize: 1, Address: 0},
		},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OP_PUSH, ScalarType: bytecode.ScalarType{Kind: bytecode.ScalarBool}, Value: big.NewInt(0)},
			{Op: bytecode.OP_IF},
			{Op: bytecode.OP_PUSH, ScalarType: bytecode.ScalarType{Kind: bytecode.ScalarBool}, Value: big.NewInt(0)},
			{Op: bytecode.OP_ASSERT, HasMessage: true, Message: "should be suppressed"},
			{Op: bytecode.OP_ELSE},
			{Op: bytecode.OP_END_IF},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(7)},
			{Op: bytecode.OP_EXIT, Size: 1},
		},
	}

	machine := New(prog, true)
	out, err := machine.RunCircuit(nil)
	if err != nil {
		t.Fatalf("RunCircuit: %v", err)
	}
	if len(out) != 1 || out[0].Int().Int64() != 7 {
		t.Fatalf("got %v, want [7]", out)
	}

	var sawSuppressedAssert bool
	for _, eq := range machine.Constraints().Equalities() {
		if eq.Label == "assert" && !eq.Predicate {
			sawSuppressedAssert = true
		}
	}
	if !sawSuppressedAssert {
		t.Fatalf("expected the untaken branch's suppressed assertion to still be recorded")
	}
	if _, unsatisfied := machine.Constraints().Unsatisfied(); unsatisfied {
		t.Fatalf("a false-predicate assertion must not count as an unsatisfied constraint")
	}
}

func TestCallReturnsToCaller(t *testing.T) {
	// main() calls double(3), returns the result.
	prog := &bytecode.Program{
		Kind:       bytecode.Circuit,
		EntryIndex: 0,
		Functions: []bytecode.FunctionTableEntry{
			{Name: "main", InputSize: 0, ReturnSize: 1, Address: 0},
			{Name: "double", InputSize: 1, ReturnSize: 1, Address: 4},
		},
		Instructions: []bytecode.Instruction{
			// main: push 3, call double(1), exit(1)
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(3)},
			{Op: bytecode.OP_CALL, TypeID: 1, InputSize: 1},
			{Op: bytecode.OP_EXIT, Size: 1},
			{Op: bytecode.OP_NO_OP},
			// double: load arg, load arg, add, return(1)
			{Op: bytecode.OP_LOAD, Addr: 0, Size: 1},
			{Op: bytecode.OP_LOAD, Addr: 0, Size: 1},
			{Op: bytecode.OP_ADD},
			{Op: bytecode.OP_RETURN, Size: 1},
		},
	}

	machine := New(prog, false)
	out, err := machine.RunCircuit(nil)
	if err != nil {
		t.Fatalf("RunCircuit: %v", err)
	}
	if len(out) != 1 || out[0].Int().Int64() != 6 {
		t.Fatalf("got %v, want [6]", out)
	}
}

func TestAssertFailureIsRuntimeError(t *testing.T) {
	prog := &bytecode.Program{
		Kind:       bytecode.Circuit,
		EntryIndex: 0,
		Functions: []bytecode.FunctionTableEntry{
			{Name: "main", InputSize: 0, ReturnSize: 0, Address: 0},
		},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OP_PUSH, ScalarType: bytecode.ScalarType{Kind: bytecode.ScalarBool}, Value: big.NewInt(0)},
			{Op: bytecode.OP_ASSERT, HasMessage: true, Message: "expected true"},
			{Op: bytecode.OP_EXIT, Size: 0},
		},
	}

	machine := New(prog, false)
	_, err := machine.RunCircuit(nil)
	rerr, ok := err.(RuntimeError)
	if !ok {
		t.Fatalf("expected RuntimeError, got %v (%T)", err, err)
	}
	if rerr.Kind != AssertionFailed {
		t.Fatalf("got kind %v, want AssertionFailed", rerr.Kind)
	}
}

func TestStorageLoadStoreRoundTrip(t *testing.T) {
	prog := &bytecode.Program{
		Kind: bytecode.Contract,
		Functions: []bytecode.FunctionTableEntry{
			{Name: "set", InputSize: 1, ReturnSize: 0, Address: 0},
		},
		Instructions: []bytecode.Instruction{
			// push value (arg), push storage addr 0, StorageStore(1)
			{Op: bytecode.OP_LOAD, Addr: 0, Size: 1},
			{Op: bytecode.OP_PUSH, ScalarType: u32Type(32), Value: big.NewInt(0)},
			{Op: bytecode.OP_STORAGE_STORE, Size: 1},
			{Op: bytecode.OP_EXIT, Size: 0},
		},
	}

	machine := New(prog, false)
	_, storageOut, err := machine.RunMethod("set", []scalar.Value{intVal(32, 99)}, nil)
	if err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if len(storageOut) != 1 || storageOut[0].Int().Int64() != 99 {
		t.Fatalf("got storage %v, want [99]", storageOut)
	}
}
