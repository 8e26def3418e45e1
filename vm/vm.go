// Package vm implements spec.md §4.6's bytecode interpreter: a
// stack machine that executes a bytecode.Program either as a plain
// evaluator (proving=false, for `ferrite run`/`ferrite repl`) or
// alongside an append-only arithmetic constraint system (proving=true,
// for `ferrite run -proving`).
//
// Grounded on the teacher's vm/vm.go (VM{constants, stack, sp, globals}
// dispatch-loop shape, one case per Opcode) and vm/frame.go (a call
// stack of frames), generalized to spec.md's typed scalar stack
// (vm/scalar.Value), contract storage vector, and branch/loop
// predicate bookkeeping that the teacher's language never needed.
package vm

import (
	"fmt"
	"strings"

	"ferrite/bytecode"
	"ferrite/token"
	"ferrite/vm/constraint"
	"ferrite/vm/scalar"
)

const stackLimit = 1 << 16

// VM is one execution of a bytecode.Program.
type VM struct {
	prog    *bytecode.Program
	proving bool

	eval    []scalar.Value
	frames  []*frame
	storage []scalar.Value

	conditions    []bool // active If/Else predicates, outermost first
	unconstrained int    // SetUnconstrained/UnsetUnconstrained nesting depth

	cs    *constraint.System
	debug bool

	pos      token.Position
	funcName string
}

// New prepares a VM to execute prog. When proving is true, every
// Assert and every two-operand operator additionally records an
// equality into the returned VM's constraint system (Constraints);
// unary operators record none.
func New(prog *bytecode.Program, proving bool) *VM {
	return &VM{
		prog:    prog,
		proving: proving,
		cs:      constraint.New(),
	}
}

// SetDebug toggles whether Dbg instructions print (spec.md §4.6 "Dbg:
// ... debug mode only").
func (vm *VM) SetDebug(on bool) { vm.debug = on }

// Constraints returns the constraint system accumulated by the most
// recent run. Empty (but non-nil) when proving is false.
func (vm *VM) Constraints() *constraint.System { return vm.cs }

// Storage returns the current contract storage vector.
func (vm *VM) Storage() []scalar.Value { return vm.storage }

// RunCircuit executes a Circuit application's entry function
// (Program.EntryIndex) with args as its flattened input scalars and
// returns its flattened output scalars.
func (vm *VM) RunCircuit(args []scalar.Value) ([]scalar.Value, error) {
	if vm.prog.Kind != bytecode.Circuit {
		return nil, fmt.Errorf("vm: RunCircuit called on a %s program", vm.prog.Kind)
	}
	if vm.prog.EntryIndex < 0 || int(vm.prog.EntryIndex) >= len(vm.prog.Functions) {
		return nil, fmt.Errorf("vm: program has no entry function")
	}
	entry := vm.prog.Functions[vm.prog.EntryIndex]
	return vm.call(entry, uint32(vm.prog.EntryIndex), args)
}

// RunMethod executes a Contract application's constructor or a named
// method directly (never via an internal Call), seeding vm.storage
// first and returning both the method's outputs and the resulting
// storage vector (spec.md §4.1 "Contract").
func (vm *VM) RunMethod(name string, args []scalar.Value, storageIn []scalar.Value) ([]scalar.Value, []scalar.Value, error) {
	if vm.prog.Kind != bytecode.Contract {
		return nil, nil, fmt.Errorf("vm: RunMethod called on a %s program", vm.prog.Kind)
	}
	for i, fn := range vm.prog.Functions {
		if fn.Name == name {
			vm.storage = append([]scalar.Value(nil), storageIn...)
			outputs, err := vm.call(fn, uint32(i), args)
			if err != nil {
				return nil, nil, err
			}
			return outputs, vm.storage, nil
		}
	}
	return nil, nil, fmt.Errorf("vm: no method named %q", name)
}

// call sets up a fresh top-level frame at fn's address, runs the
// dispatch loop until the matching Exit, and returns its output
// scalars. It is used for every entry point the VM is handed directly
// (Circuit main, Contract constructor/methods) — none of which are
// reached via an internal OP_CALL, so none leave a caller frame behind
// (spec.md §4.4 "Return ... Exit").
func (vm *VM) call(fn bytecode.FunctionTableEntry, typeID uint32, args []scalar.Value) ([]scalar.Value, error) {
	if uint32(len(args)) != fn.InputSize {
		return nil, newRuntimeError(TypeError, vm.pos, "%s expects %d input scalars, got %d", fn.Name, fn.InputSize, len(args))
	}
	f := newFrame(typeID, -1)
	f.store(0, args)
	vm.frames = append(vm.frames, f)
	vm.funcName = fn.Name

	outputs, err := vm.run(int(fn.Address))
	vm.frames = vm.frames[:len(vm.frames)-1]
	if err != nil {
		return nil, err
	}
	if uint32(len(outputs)) != fn.ReturnSize {
		return nil, newRuntimeError(TypeError, vm.pos, "%s returned %d scalars, expected %d", fn.Name, len(outputs), fn.ReturnSize)
	}
	return outputs, nil
}

// run executes instructions starting at ip until an OP_EXIT belonging
// to the outermost frame fires, returning its exit scalars.
func (vm *VM) run(ip int) ([]scalar.Value, error) {
	baseDepth := len(vm.frames) - 1
	for {
		if ip < 0 || ip >= len(vm.prog.Instructions) {
			return nil, newRuntimeError(UnreachableCode, vm.pos, "instruction pointer ran off the end of the program")
		}
		ins := vm.prog.Instructions[ip]
		next, outputs, err := vm.step(ip, ins, baseDepth)
		if err != nil {
			return nil, err
		}
		if outputs != nil {
			return outputs, nil
		}
		ip = next
	}
}

// step executes one instruction and returns the next instruction
// pointer, or (for the OP_EXIT that unwinds the frame this run call
// owns) the function's output scalars.
func (vm *VM) step(ip int, ins bytecode.Instruction, baseDepth int) (int, []scalar.Value, error) {
	switch ins.Op {
	case bytecode.OP_NO_OP:
		return ip + 1, nil, nil

	case bytecode.OP_FILE_MARKER:
		vm.pos.File = ins.Name
		return ip + 1, nil, nil
	case bytecode.OP_FUNCTION_MARKER:
		vm.funcName = ins.Name
		return ip + 1, nil, nil
	case bytecode.OP_LINE_MARKER:
		vm.pos.Line = int(ins.Position)
		return ip + 1, nil, nil
	case bytecode.OP_COLUMN_MARKER:
		vm.pos.Column = int(ins.Position)
		return ip + 1, nil, nil

	case bytecode.OP_PUSH:
		vm.push(scalar.FromBigInt(ins.ScalarType, ins.Value))
		return ip + 1, nil, nil

	case bytecode.OP_COPY:
		v, err := vm.peek()
		if err != nil {
			return 0, nil, err
		}
		vm.push(v)
		return ip + 1, nil, nil

	case bytecode.OP_SLICE:
		return vm.execSlice(ip, ins)

	case bytecode.OP_LOAD:
		f, err := vm.topFrame()
		if err != nil {
			return 0, nil, err
		}
		vm.pushAll(f.load(ins.Addr, ins.Size))
		return ip + 1, nil, nil
	case bytecode.OP_STORE:
		f, err := vm.topFrame()
		if err != nil {
			return 0, nil, err
		}
		values, err := vm.popN(ins.Size)
		if err != nil {
			return 0, nil, err
		}
		if vm.predicate() {
			f.store(ins.Addr, values)
		}
		return ip + 1, nil, nil

	case bytecode.OP_LOAD_BY_INDEX:
		return vm.execLoadByIndex(ip, ins)
	case bytecode.OP_STORE_BY_INDEX:
		return vm.execStoreByIndex(ip, ins)

	case bytecode.OP_STORAGE_LOAD:
		return vm.execStorageLoad(ip, ins)
	case bytecode.OP_STORAGE_STORE:
		return vm.execStorageStore(ip, ins)

	case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV, bytecode.OP_REM,
		bytecode.OP_AND, bytecode.OP_OR, bytecode.OP_XOR,
		bytecode.OP_LT, bytecode.OP_LE, bytecode.OP_EQ, bytecode.OP_NE, bytecode.OP_GE, bytecode.OP_GT,
		bytecode.OP_SHL, bytecode.OP_SHR, bytecode.OP_BIT_AND, bytecode.OP_BIT_OR, bytecode.OP_BIT_XOR:
		return vm.execBinary(ip, ins)

	case bytecode.OP_NEG, bytecode.OP_NOT, bytecode.OP_BIT_NOT:
		return vm.execUnary(ip, ins)

	case bytecode.OP_CAST:
		a, err := vm.pop()
		if err != nil {
			return 0, nil, err
		}
		out, err := scalar.Cast(a, ins.ScalarType)
		if err != nil {
			return 0, nil, vm.wrap(err)
		}
		vm.push(out)
		return ip + 1, nil, nil

	case bytecode.OP_IF:
		return vm.execIf(ip, baseDepth)
	case bytecode.OP_ELSE:
		return vm.matchEndIf(ip + 1), nil, nil
	case bytecode.OP_END_IF:
		if len(vm.conditions) == 0 {
			return 0, nil, newRuntimeError(UnreachableCode, vm.pos, "EndIf with no matching If")
		}
		vm.conditions = vm.conditions[:len(vm.conditions)-1]
		return ip + 1, nil, nil

	case bytecode.OP_LOOP_BEGIN, bytecode.OP_LOOP_END:
		// Loops are statically unrolled by the generator (spec.md §4.4 "a
		// static unroll"): the body already appears Iters times in the
		// instruction stream between these two markers, so the VM only
		// needs to treat them as structural brackets.
		return ip + 1, nil, nil

	case bytecode.OP_CALL:
		return vm.execCall(ip, ins)
	case bytecode.OP_RETURN:
		return vm.execReturn(ip, ins, baseDepth)
	case bytecode.OP_EXIT:
		return vm.execExit(ip, ins, baseDepth)

	case bytecode.OP_CALL_STD:
		return vm.execCallStd(ip, ins)

	case bytecode.OP_ASSERT:
		return vm.execAssert(ip, ins)

	case bytecode.OP_DBG:
		return vm.execDbg(ip, ins)

	case bytecode.OP_SET_UNCONSTRAINED:
		vm.unconstrained++
		return ip + 1, nil, nil
	case bytecode.OP_UNSET_UNCONSTRAINED:
		if vm.unconstrained > 0 {
			vm.unconstrained--
		}
		return ip + 1, nil, nil

	default:
		return 0, nil, newRuntimeError(UnreachableCode, vm.pos, "unhandled opcode %s", ins.Op)
	}
}

func (vm *VM) wrap(err error) error {
	switch e := err.(type) {
	case scalar.TypeError:
		return newRuntimeError(TypeError, vm.pos, "%s", e.Error())
	case scalar.Overflow:
		return newRuntimeError(Overflow, vm.pos, "%s", e.Error())
	case scalar.DivisionByZero:
		return newRuntimeError(DivisionByZero, vm.pos, "%s", e.Error())
	default:
		return err
	}
}

// predicate reports the conjunction of every active If/Else branch
// condition (true when vacuous, i.e. not inside any conditional).
func (vm *VM) predicate() bool {
	for _, c := range vm.conditions {
		if !c {
			return false
		}
	}
	return true
}

func (vm *VM) topFrame() (*frame, error) {
	if len(vm.frames) == 0 {
		return nil, newRuntimeError(UnreachableCode, vm.pos, "no active call frame")
	}
	return vm.frames[len(vm.frames)-1], nil
}

func (vm *VM) push(v scalar.Value) {
	vm.eval = append(vm.eval, v)
}

func (vm *VM) pushAll(vs []scalar.Value) {
	vm.eval = append(vm.eval, vs...)
}

func (vm *VM) pop() (scalar.Value, error) {
	if len(vm.eval) == 0 {
		return scalar.Value{}, newRuntimeError(StackUnderflow, vm.pos, "pop from empty evaluation stack")
	}
	v := vm.eval[len(vm.eval)-1]
	vm.eval = vm.eval[:len(vm.eval)-1]
	return v, nil
}

func (vm *VM) peek() (scalar.Value, error) {
	if len(vm.eval) == 0 {
		return scalar.Value{}, newRuntimeError(StackUnderflow, vm.pos, "peek on empty evaluation stack")
	}
	return vm.eval[len(vm.eval)-1], nil
}

// popN pops n scalars and returns them in original push order
// (index 0 is the one pushed first / deepest of the n).
func (vm *VM) popN(n uint32) ([]scalar.Value, error) {
	if uint32(len(vm.eval)) < n {
		return nil, newRuntimeError(StackUnderflow, vm.pos, "need %d scalars, have %d", n, len(vm.eval))
	}
	start := len(vm.eval) - int(n)
	out := append([]scalar.Value(nil), vm.eval[start:]...)
	vm.eval = vm.eval[:start]
	return out, nil
}

func (vm *VM) execBinary(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	b, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	a, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	var out scalar.Value
	switch ins.Op {
	case bytecode.OP_ADD:
		out, err = scalar.Add(a, b)
	case bytecode.OP_SUB:
		out, err = scalar.Sub(a, b)
	case bytecode.OP_MUL:
		out, err = scalar.Mul(a, b)
	case bytecode.OP_DIV:
		out, err = scalar.Div(a, b)
	case bytecode.OP_REM:
		out, err = scalar.Rem(a, b)
	case bytecode.OP_AND:
		out, err = scalar.And(a, b)
	case bytecode.OP_OR:
		out, err = scalar.Or(a, b)
	case bytecode.OP_XOR:
		out, err = scalar.Xor(a, b)
	case bytecode.OP_LT:
		out, err = scalar.Lt(a, b)
	case bytecode.OP_LE:
		out, err = scalar.Le(a, b)
	case bytecode.OP_EQ:
		out, err = scalar.Eq(a, b)
	case bytecode.OP_NE:
		out, err = scalar.Ne(a, b)
	case bytecode.OP_GE:
		out, err = scalar.Ge(a, b)
	case bytecode.OP_GT:
		out, err = scalar.Gt(a, b)
	case bytecode.OP_SHL:
		out, err = scalar.Shl(a, b)
	case bytecode.OP_SHR:
		out, err = scalar.Shr(a, b)
	case bytecode.OP_BIT_AND:
		out, err = scalar.BitAnd(a, b)
	case bytecode.OP_BIT_OR:
		out, err = scalar.BitOr(a, b)
	case bytecode.OP_BIT_XOR:
		out, err = scalar.BitXor(a, b)
	}
	if err != nil {
		if _, ok := err.(scalar.Overflow); ok && vm.unconstrained > 0 {
			// Unconstrained blocks compute witness-only hints; their
			// range checks are not enforced (spec.md §4.6 "SetUnconstrained").
			err = nil
		} else {
			return 0, nil, vm.wrap(err)
		}
	}
	if vm.proving {
		vm.cs.Assert(ins.Op.String(), out.Elem, out.Elem, vm.predicate())
	}
	vm.push(out)
	return ip + 1, nil, nil
}

func (vm *VM) execUnary(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	a, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	var out scalar.Value
	switch ins.Op {
	case bytecode.OP_NEG:
		out, err = scalar.Neg(a)
	case bytecode.OP_NOT:
		out, err = scalar.Not(a)
	case bytecode.OP_BIT_NOT:
		out, err = scalar.BitNot(a)
	}
	if err != nil {
		return 0, nil, vm.wrap(err)
	}
	vm.push(out)
	return ip + 1, nil, nil
}

func (vm *VM) execSlice(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	idx, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	composite, err := vm.popN(ins.TotalSize)
	if err != nil {
		return 0, nil, err
	}
	i := idx.Int().Uint64()
	offset := i * uint64(ins.ElemSize)
	if offset+uint64(ins.ElemSize) > uint64(len(composite)) {
		return 0, nil, newRuntimeError(IndexOutOfBounds, vm.pos, "index %d out of bounds for %d-element slice", i, len(composite)/int(ins.ElemSize))
	}
	vm.pushAll(composite[offset : offset+uint64(ins.ElemSize)])
	return ip + 1, nil, nil
}

func (vm *VM) execLoadByIndex(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	f, err := vm.topFrame()
	if err != nil {
		return 0, nil, err
	}
	idx, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	i := idx.Int().Uint64()
	if i*uint64(ins.ElemSize)+uint64(ins.ElemSize) > uint64(ins.TotalSize) {
		return 0, nil, newRuntimeError(IndexOutOfBounds, vm.pos, "index %d out of bounds", i)
	}
	offset := uint64(ins.Addr) + i*uint64(ins.ElemSize)
	vm.pushAll(f.load(uint32(offset), ins.ElemSize))
	return ip + 1, nil, nil
}

func (vm *VM) execStoreByIndex(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	f, err := vm.topFrame()
	if err != nil {
		return 0, nil, err
	}
	idx, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	values, err := vm.popN(ins.ElemSize)
	if err != nil {
		return 0, nil, err
	}
	i := idx.Int().Uint64()
	if i*uint64(ins.ElemSize)+uint64(ins.ElemSize) > uint64(ins.TotalSize) {
		return 0, nil, newRuntimeError(IndexOutOfBounds, vm.pos, "index %d out of bounds", i)
	}
	if vm.predicate() {
		offset := uint64(ins.Addr) + i*uint64(ins.ElemSize)
		f.store(uint32(offset), values)
	}
	return ip + 1, nil, nil
}

func (vm *VM) storageSlot(addr, size uint32) {
	need := int(addr + size)
	if need > len(vm.storage) {
		grown := make([]scalar.Value, need)
		copy(grown, vm.storage)
		vm.storage = grown
	}
}

func (vm *VM) execStorageLoad(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	idx, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	addr := uint32(idx.Int().Uint64())
	vm.storageSlot(addr, ins.Size)
	vm.pushAll(append([]scalar.Value(nil), vm.storage[addr:addr+ins.Size]...))
	return ip + 1, nil, nil
}

func (vm *VM) execStorageStore(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	idx, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	values, err := vm.popN(ins.Size)
	if err != nil {
		return 0, nil, err
	}
	addr := uint32(idx.Int().Uint64())
	if vm.predicate() {
		vm.storageSlot(addr, ins.Size)
		copy(vm.storage[addr:addr+ins.Size], values)
	}
	return ip + 1, nil, nil
}

// matchEndIf scans forward from ip (the instruction right after an
// OP_ELSE) for the OP_END_IF that closes it, skipping fully nested
// If/Else/EndIf triples along the way.
func (vm *VM) matchEndIf(ip int) int {
	depth := 0
	for i := ip; i < len(vm.prog.Instructions); i++ {
		switch vm.prog.Instructions[i].Op {
		case bytecode.OP_IF:
			depth++
		case bytecode.OP_END_IF:
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return len(vm.prog.Instructions)
}

// matchElse scans forward from ip (the instruction right after an
// OP_IF) for its OP_ELSE, skipping nested If/Else/EndIf triples.
func (vm *VM) matchElse(ip int) int {
	depth := 0
	for i := ip; i < len(vm.prog.Instructions); i++ {
		switch vm.prog.Instructions[i].Op {
		case bytecode.OP_IF:
			depth++
		case bytecode.OP_END_IF:
			depth--
		case bytecode.OP_ELSE:
			if depth == 0 {
				return i
			}
		}
	}
	return len(vm.prog.Instructions)
}

func (vm *VM) execIf(ip int, baseDepth int) (int, []scalar.Value, error) {
	cond, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	if cond.Type.Kind != bytecode.ScalarBool {
		return 0, nil, newRuntimeError(TypeError, vm.pos, "If condition must be bool, got %s", cond.Type)
	}
	taken := cond.IsTrue()
	vm.conditions = append(vm.conditions, taken)

	if !vm.proving {
		// Outside proving mode nothing reads the constraint system, so
		// there is no reason to pay for the untaken branch: jump straight
		// to it being unwound.
		if taken {
			return ip + 1, nil, nil
		}
		return vm.matchElse(ip+1) + 1, nil, nil
	}

	next, err := vm.execBothBranches(ip, taken, baseDepth)
	if err != nil {
		return 0, nil, err
	}
	return next, nil, nil
}

// runRange executes instructions starting at start (an If branch's own
// body), stopping once ip reaches end back at the same call-frame
// depth the range started at. The depth check matters because a Call
// inside the range jumps ip into a callee's instructions — which may
// sit anywhere in the program relative to end — until its matching
// Return lands ip back inside the range; If/Else bodies never contain
// a Return or Exit of their own (spec.md's grammar has no early return
// or break/continue), so the range is never left any other way.
func (vm *VM) runRange(start, end, baseDepth int) error {
	depth := len(vm.frames)
	ip := start
	for {
		if ip >= end && len(vm.frames) == depth {
			return nil
		}
		ins := vm.prog.Instructions[ip]
		next, outputs, err := vm.step(ip, ins, baseDepth)
		if err != nil {
			return err
		}
		if outputs != nil {
			return newRuntimeError(UnreachableCode, vm.pos, "Exit reached inside a conditional branch")
		}
		ip = next
	}
}

// execBothBranches runs an If's then- and else-ranges in turn, against
// the same shared frame/storage state, gating every Store/StoreByIndex/
// StorageStore along the way by the active predicate conjunction so
// only the branch the condition actually selects ends up committed
// (spec.md §4.6: "under the proving constraint system, both branches
// are evaluated and selected by the predicate"). The evaluation
// stack's net result is handled the same way: each branch's pushed
// value is popped off and stashed, then the selected one is pushed
// back once both have run.
//
// Every equality either branch records is kept, except the unselected
// branch's ordinary per-operation bookkeeping, which is rolled back
// once the predicate resolves: its Assert-sourced equalities still
// survive the rollback, since spec.md §4.6 requires a suppressed
// assertion's constraint to keep encoding the falsehood regardless of
// which branch produced it.
func (vm *VM) execBothBranches(ifIP int, taken bool, baseDepth int) (int, error) {
	elseIP := vm.matchElse(ifIP + 1)
	endIP := vm.matchEndIf(ifIP + 1)

	evalMark := len(vm.eval)
	csMark := vm.cs.Len()

	if err := vm.runRange(ifIP+1, elseIP, baseDepth); err != nil {
		return 0, err
	}
	thenVals := append([]scalar.Value(nil), vm.eval[evalMark:]...)
	vm.eval = vm.eval[:evalMark]
	csAfterThen := vm.cs.Len()

	vm.conditions[len(vm.conditions)-1] = !taken
	if err := vm.runRange(elseIP+1, endIP, baseDepth); err != nil {
		return 0, err
	}
	elseVals := append([]scalar.Value(nil), vm.eval[evalMark:]...)
	vm.eval = vm.eval[:evalMark]
	csAfterElse := vm.cs.Len()

	thenEqs := append([]constraint.Equality(nil), vm.cs.Equalities()[csMark:csAfterThen]...)
	elseEqs := append([]constraint.Equality(nil), vm.cs.Equalities()[csAfterThen:csAfterElse]...)
	vm.cs.Rollback(csMark)

	selected, discarded := thenEqs, elseEqs
	selectedVals := thenVals
	if !taken {
		selected, discarded = elseEqs, thenEqs
		selectedVals = elseVals
	}
	for _, eq := range selected {
		vm.cs.Keep(eq)
	}
	for _, eq := range discarded {
		if eq.Label == "assert" {
			vm.cs.Keep(eq)
		}
	}
	vm.eval = append(vm.eval, selectedVals...)

	return endIP, nil
}

func (vm *VM) execCall(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	if int(ins.TypeID) >= len(vm.prog.Functions) {
		return 0, nil, newRuntimeError(UnreachableCode, vm.pos, "call to unknown type_id %d", ins.TypeID)
	}
	if len(vm.frames) >= stackLimit {
		return 0, nil, newRuntimeError(StackUnderflow, vm.pos, "call stack overflow")
	}
	fn := vm.prog.Functions[ins.TypeID]
	args, err := vm.popN(ins.InputSize)
	if err != nil {
		return 0, nil, err
	}
	f := newFrame(ins.TypeID, ip+1)
	f.store(0, args)
	vm.frames = append(vm.frames, f)
	return int(fn.Address), nil, nil
}

func (vm *VM) execReturn(ip int, ins bytecode.Instruction, baseDepth int) (int, []scalar.Value, error) {
	if uint32(len(vm.eval)) < ins.Size {
		return 0, nil, newRuntimeError(StackUnderflow, vm.pos, "Return(%d) with only %d scalars on the stack", ins.Size, len(vm.eval))
	}
	if len(vm.frames) <= baseDepth+1 {
		return 0, nil, newRuntimeError(UnreachableCode, vm.pos, "Return with no caller frame")
	}
	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	return f.returnAddr, nil, nil
}

func (vm *VM) execExit(ip int, ins bytecode.Instruction, baseDepth int) (int, []scalar.Value, error) {
	outputs, err := vm.popN(ins.Size)
	if err != nil {
		return 0, nil, err
	}
	if len(vm.frames) != baseDepth+1 {
		return 0, nil, newRuntimeError(UnreachableCode, vm.pos, "Exit reached with a non-empty nested call stack")
	}
	return 0, outputs, nil
}

func (vm *VM) execAssert(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	cond, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	if cond.Type.Kind != bytecode.ScalarBool {
		return 0, nil, newRuntimeError(TypeError, vm.pos, "Assert condition must be bool, got %s", cond.Type)
	}
	pred := vm.predicate()
	if vm.proving {
		vm.cs.Assert("assert", cond.Elem, scalar.Bool(true).Elem, pred)
	}
	if pred && !cond.IsTrue() {
		msg := "assertion failed"
		if ins.HasMessage {
			msg = ins.Message
		}
		return 0, nil, newRuntimeError(AssertionFailed, vm.pos, "%s", msg)
	}
	return ip + 1, nil, nil
}

func (vm *VM) execDbg(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	args, err := vm.popN(uint32(len(ins.ArgTypes)))
	if err != nil {
		return 0, nil, err
	}
	if vm.debug {
		msg := ins.Format
		for _, a := range args {
			msg = strings.Replace(msg, "{}", a.Int().String(), 1)
		}
		fmt.Println(msg)
	}
	return ip + 1, nil, nil
}

func (vm *VM) execCallStd(ip int, ins bytecode.Instruction) (int, []scalar.Value, error) {
	args, err := vm.popN(ins.InputSize)
	if err != nil {
		return 0, nil, err
	}
	out, err := dispatchStd(ins.Identifier, args)
	if err != nil {
		return 0, nil, vm.wrap(err)
	}
	if uint32(len(out)) != ins.OutputSize {
		return 0, nil, newRuntimeError(TypeError, vm.pos, "%s returned %d scalars, expected %d", ins.Identifier, len(out), ins.OutputSize)
	}
	vm.pushAll(out)
	return ip + 1, nil, nil
}
