package generator

import (
	"math/big"

	"ferrite/ast"
	"ferrite/bytecode"
	"ferrite/types"
)

// lower_stmt.go implements ast.StmtVisitor on funcGen. Statements never
// leave a net value on the stack; any expression-statement result that
// isn't zero-sized is discarded by storing it to a scratch address,
// since the instruction set has no dedicated Pop (spec.md §3's
// instruction list; grounded on the same "no operand-stack cleanup
// opcode" shape the teacher's compiler/ast_compiler.go shows for its own
// ExpressionStmt, which simply leaves the value for the REPL to print).
func (fg *funcGen) lowerStmt(s ast.Stmt) { s.Accept(fg) }

func (fg *funcGen) VisitExpressionStmt(s *ast.ExpressionStmt) any {
	fg.lower(s.Expression)
	if n := uint32(fg.typeOf(s.Expression).Size()); n > 0 {
		scratch := fg.allocScratch(n)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: scratch, Size: n})
	}
	return nil
}

func (fg *funcGen) VisitLetStmt(s *ast.LetStmt) any {
	if s.Initializer != nil {
		fg.lower(s.Initializer)
		slot := fg.declareLocal(s.Name, fg.typeOf(s.Initializer))
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: slot.addr, Size: slot.size})
		return nil
	}
	t, err := types.ParseTypeName(s.TypeName, fg.lookupNamedType)
	if err != nil {
		panicError(s.Position, "internal: %s", err)
	}
	fg.declareLocal(s.Name, t)
	return nil
}

// lookupNamedType resolves a bare type name against the program's
// struct and enum tables; the generator has no access to the
// analyzer's local type-alias bindings, so an uninitialized "let"
// declared with an alias name that isn't itself a struct/enum is
// outside what ParseTypeName can resolve here.
func (fg *funcGen) lookupNamedType(name string) (types.Type, bool) {
	if st, ok := fg.g.prog.Structs[name]; ok {
		return st, true
	}
	if en, ok := fg.g.prog.Enums[name]; ok {
		return en, true
	}
	return nil, false
}

// ConstStmt never reaches the runtime: every reference to a local
// const is folded away by semantic.foldConst before the generator ever
// sees an Identifier naming it (semantic/constfold.go), so no stack
// slot is ever materialized for one.
func (fg *funcGen) VisitConstStmt(s *ast.ConstStmt) any { return nil }

// VisitForStmt statically unrolls a range loop whose bounds are both
// compile-time constants (the only kind the analyzer admits; spec.md
// §9 "loops are always statically unrolled at generation time"). The
// induction variable gets one address, reused and overwritten on every
// iteration rather than redeclared. The body is lowered once per
// iteration, and locals it declares get fresh addresses each time.
func (fg *funcGen) VisitForStmt(s *ast.ForStmt) any {
	lowCV, ok := fg.g.ann.Consts[s.Iterable.Low]
	if !ok {
		panicError(s.Position, "internal: for-loop lower bound is not a folded constant")
	}
	highCV, ok := fg.g.ann.Consts[s.Iterable.High]
	if !ok {
		panicError(s.Position, "internal: for-loop upper bound is not a folded constant")
	}

	low := lowCV.Int
	high := highCV.Int
	count := new(big.Int).Sub(high, low)
	if s.Iterable.Inclusive {
		count.Add(count, big.NewInt(1))
	}
	if count.Sign() < 0 {
		count.SetInt64(0)
	}
	iters := uint32(count.Int64())

	fg.emit(bytecode.Instruction{Op: bytecode.OP_LOOP_BEGIN, Iters: iters})

	mark := fg.scopeMark()
	elemType := fg.typeOf(s.Iterable.Low)
	slot := fg.declareLocal(s.Variable, elemType)

	cur := new(big.Int).Set(low)
	one := big.NewInt(1)
	for i := uint32(0); i < iters; i++ {
		fg.emit(bytecode.Instruction{Op: bytecode.OP_PUSH, ScalarType: scalarTypeOf(elemType), Value: new(big.Int).Set(cur)})
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: slot.addr, Size: slot.size})
		fg.lower(s.Body)
		if n := uint32(fg.typeOf(s.Body).Size()); n > 0 {
			scratch := fg.allocScratch(n)
			fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: scratch, Size: n})
		}
		cur.Add(cur, one)
	}

	fg.popShadows(mark)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_LOOP_END})
	return nil
}

func (fg *funcGen) VisitReturnStmt(s *ast.ReturnStmt) any {
	if s.Value == nil {
		fg.emitTerminator(0)
		return nil
	}
	fg.lower(s.Value)
	fg.emitTerminator(uint32(fg.typeOf(s.Value).Size()))
	return nil
}
