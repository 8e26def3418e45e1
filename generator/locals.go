package generator

import "ferrite/types"

// localSlot is one addressable frame-local variable: its flattened
// scalar address and size (spec.md §4.4 "addresses assigned in order
// of variable definition").
type localSlot struct {
	addr uint32
	size uint32
	typ  types.Type
}

// shadow remembers what fg.locals[name] held before a nested binding
// (a block-scoped let, a for-loop variable, a match binding) replaced
// it, so leaving the scope can restore it exactly.
type shadow struct {
	name string
	prev localSlot
	had  bool
}

// declareLocal allocates a fresh address for name and records enough to
// undo the binding with popShadows.
func (fg *funcGen) declareLocal(name string, t types.Type) localSlot {
	fg.shadow(name)
	slot := localSlot{addr: fg.nextAddr, size: uint32(t.Size()), typ: t}
	fg.nextAddr += slot.size
	fg.locals[name] = slot
	return slot
}

// aliasLocal binds name directly to an existing address (used for match
// bindings, which read out of the scrutinee's own scratch slot rather
// than a fresh one).
func (fg *funcGen) aliasLocal(name string, addr, size uint32, t types.Type) {
	fg.shadow(name)
	fg.locals[name] = localSlot{addr: addr, size: size, typ: t}
}

func (fg *funcGen) shadow(name string) {
	prev, had := fg.locals[name]
	fg.shadows = append(fg.shadows, shadow{name: name, prev: prev, had: had})
}

// scopeMark returns a checkpoint for popShadows to unwind to.
func (fg *funcGen) scopeMark() int { return len(fg.shadows) }

func (fg *funcGen) popShadows(mark int) {
	for i := len(fg.shadows) - 1; i >= mark; i-- {
		sh := fg.shadows[i]
		if sh.had {
			fg.locals[sh.name] = sh.prev
		} else {
			delete(fg.locals, sh.name)
		}
	}
	fg.shadows = fg.shadows[:mark]
}

// allocScratch reserves size fresh scalar addresses that no source name
// ever binds to, for materializing a transient composite value (a
// struct/array that isn't itself a place) so its fields/elements can be
// read with an ordinary Load.
func (fg *funcGen) allocScratch(size uint32) uint32 {
	addr := fg.nextAddr
	fg.nextAddr += size
	return addr
}
