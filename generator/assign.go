package generator

import (
	"ferrite/ast"
	"ferrite/bytecode"
	"ferrite/types"
)

// assign.go lowers plain and compound assignment to a target place.
// Three shapes exist (spec.md §4.4 "Assignment"):
//
//   - a statically-resolvable place (a name, or a Member/constant-Index
//     chain off one): storePlace handles local vs storage uniformly.
//   - a dynamic (non-constant) index into a local array: StoreByIndex,
//     value pushed before the index per vm.execStoreByIndex's pop order.
//   - a dynamic index into a storage-rooted array: there is no
//     StorageStoreByIndex opcode, so the whole array is materialized to
//     a scratch local, patched there with StoreByIndex, then written
//     back whole with StorageStore.
func (fg *funcGen) lowerAssign(target, value ast.Expression) {
	if p, ok := fg.resolvePlace(target); ok {
		fg.lower(value)
		fg.storePlace(p)
		return
	}
	fg.lowerDynamicIndexAssign(target, func() { fg.lower(value) })
}

// lowerCompoundAssign lowers "target op= value" by reading the current
// place, applying op, and writing the result back. A dynamic index is
// evaluated once into a scratch scalar slot and Loaded from there twice
// — once to feed LoadByIndex, once to feed StoreByIndex — since
// StoreByIndex pops the index off the very top of the stack and Copy
// cannot reorder it past the read-and-combine sequence that has to run
// in between.
func (fg *funcGen) lowerCompoundAssign(e *ast.CompoundAssign) {
	op := compoundTargetOp(e.Operator.TokenType)
	if p, ok := fg.resolvePlace(e.Target); ok {
		fg.loadPlace(p)
		fg.lower(e.Value)
		fg.emit(bytecode.Instruction{Op: binOpcode(op)})
		fg.storePlace(p)
		return
	}

	idx, ok := e.Target.(*ast.Index)
	if !ok {
		panicError(e.Position, "internal: unsupported compound-assign target")
	}
	arr, ok := fg.typeOf(idx.Collection).(*types.Array)
	if !ok {
		panicError(e.Position, "internal: compound-assign index base is not an array")
	}
	elemSize := uint32(arr.Elem.Size())
	totalSize := uint32(arr.Size())

	base, ok := fg.resolvePlace(idx.Collection)
	if !ok {
		panicError(e.Position, "internal: compound-assign index base has no resolvable place")
	}

	arrAddr := base.addr
	if base.kind == placeStorage {
		arrAddr = fg.allocScratch(totalSize)
		fg.pushU32(base.addr)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORAGE_LOAD, Size: totalSize})
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: arrAddr, Size: totalSize})
	}

	idxAddr := fg.allocScratch(1)
	fg.lower(idx.Subscript)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: idxAddr, Size: 1})

	fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD, Addr: idxAddr, Size: 1})
	fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD_BY_INDEX, Addr: arrAddr, ElemSize: elemSize, TotalSize: totalSize})
	fg.lower(e.Value)
	fg.emit(bytecode.Instruction{Op: binOpcode(op)})
	fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD, Addr: idxAddr, Size: 1})
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE_BY_INDEX, Addr: arrAddr, ElemSize: elemSize, TotalSize: totalSize})

	if base.kind == placeStorage {
		fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD, Addr: arrAddr, Size: totalSize})
		fg.pushU32(base.addr)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORAGE_STORE, Size: totalSize})
	}
}

// lowerDynamicIndexAssign handles a plain (non-compound) assignment
// through a dynamic index, where pushValue emits the new element value.
func (fg *funcGen) lowerDynamicIndexAssign(target ast.Expression, pushValue func()) {
	idx, ok := target.(*ast.Index)
	if !ok {
		panicError(target.Pos(), "internal: unsupported assignment target")
	}
	arr, ok := fg.typeOf(idx.Collection).(*types.Array)
	if !ok {
		panicError(target.Pos(), "internal: assignment index base is not an array")
	}
	elemSize := uint32(arr.Elem.Size())
	totalSize := uint32(arr.Size())

	base, ok := fg.resolvePlace(idx.Collection)
	if !ok {
		panicError(target.Pos(), "internal: assignment index base has no resolvable place")
	}

	if base.kind == placeLocal {
		pushValue()
		fg.lower(idx.Subscript)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE_BY_INDEX, Addr: base.addr, ElemSize: elemSize, TotalSize: totalSize})
		return
	}

	scratch := fg.allocScratch(totalSize)
	fg.pushU32(base.addr)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORAGE_LOAD, Size: totalSize})
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: scratch, Size: totalSize})

	pushValue()
	fg.lower(idx.Subscript)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE_BY_INDEX, Addr: scratch, ElemSize: elemSize, TotalSize: totalSize})

	fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD, Addr: scratch, Size: totalSize})
	fg.pushU32(base.addr)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORAGE_STORE, Size: totalSize})
}
