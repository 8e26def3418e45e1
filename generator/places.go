package generator

import (
	"ferrite/ast"
	"ferrite/bytecode"
	"ferrite/types"
)

// resolvePlace computes e's address and size if e denotes an
// addressable location known entirely at compile time: a local/param
// (or contract storage field) name, a constant-offset Member chain off
// one, or a constant-index Index off one. Any Member/Index nesting
// collapses to one absolute offset, so a storage-rooted place is
// written with a single StorageStore regardless of how deep the field
// access is (spec.md §4.4 "Assignment").
//
// resolvePlace returns ok=false for anything that isn't statically
// addressable (a dynamic-index Index, or an expression that produces a
// transient value with no address at all) — callers fall back to
// Slice/LoadByIndex or materialize-then-Load.
func (fg *funcGen) resolvePlace(e ast.Expression) (place, bool) {
	switch v := e.(type) {
	case *ast.Identifier:
		if slot, ok := fg.locals[v.Name]; ok {
			return place{kind: placeLocal, addr: slot.addr, size: slot.size}, true
		}
		if c := fg.g.prog.Contract; c != nil {
			if off, size, ok := c.Type.StorageOffset(v.Name); ok {
				return place{kind: placeStorage, addr: uint32(off), size: uint32(size)}, true
			}
		}
		return place{}, false

	case *ast.Member:
		base, ok := fg.resolvePlace(v.Receiver)
		if !ok {
			return place{}, false
		}
		st, ok := fg.typeOf(v.Receiver).(*types.Struct)
		if !ok {
			return place{}, false
		}
		off, size, ok := st.FieldOffset(v.Field)
		if !ok {
			panicError(v.Position, "internal: unknown field %q on %s", v.Field, st.Name)
		}
		return place{kind: base.kind, addr: base.addr + uint32(off), size: uint32(size)}, true

	case *ast.Index:
		cv, ok := fg.g.ann.Consts[v.Subscript]
		if !ok {
			return place{}, false
		}
		base, ok := fg.resolvePlace(v.Collection)
		if !ok {
			return place{}, false
		}
		arr, ok := fg.typeOf(v.Collection).(*types.Array)
		if !ok {
			return place{}, false
		}
		idx := cv.Int.Int64()
		elemSize := uint32(arr.Elem.Size())
		return place{kind: base.kind, addr: base.addr + uint32(idx)*elemSize, size: elemSize}, true

	default:
		return place{}, false
	}
}

func (fg *funcGen) loadPlace(p place) {
	if p.kind == placeLocal {
		fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD, Addr: p.addr, Size: p.size})
		return
	}
	fg.pushU32(p.addr)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORAGE_LOAD, Size: p.size})
}

// storePlace consumes p.size scalars already on top of the stack and
// writes them to p.
func (fg *funcGen) storePlace(p place) {
	if p.kind == placeLocal {
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: p.addr, Size: p.size})
		return
	}
	fg.pushU32(p.addr)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORAGE_STORE, Size: p.size})
}

func (fg *funcGen) pushU32(n uint32) {
	fg.emit(bytecode.Instruction{
		Op:         bytecode.OP_PUSH,
		ScalarType: bytecode.ScalarType{Kind: bytecode.ScalarInteger, Signed: false, Bits: 32},
		Value:      bigFromU32(n),
	})
}
