package generator

import (
	"math/big"

	"ferrite/ast"
	"ferrite/bytecode"
	"ferrite/token"
	"ferrite/types"
)

// lower_expr.go implements ast.ExpressionVisitor on funcGen: every
// method appends instructions that leave exactly the expression's
// flattened value on the VM's evaluation stack (spec.md §8 "the stack
// depth before and after lowering a complete expression differs by
// exactly the output arity of that expression"), grounded on the
// teacher's compiler/ast_compiler.go's one-visit-method-per-node-kind
// shape.

func (fg *funcGen) VisitBinary(e *ast.Binary) any {
	switch e.Operator.TokenType {
	case token.EQUAL_EQUAL, token.NOT_EQUAL:
		fg.lowerEquality(e)
	default:
		fg.lower(e.Left)
		fg.lower(e.Right)
		fg.emit(bytecode.Instruction{Op: binOpcode(e.Operator.TokenType)})
	}
	return nil
}

// lowerEquality implements structural equality (spec.md §4.3 "==,!=
// also on booleans, structs, arrays, tuples (structural)") by pairwise
// comparing every flattened scalar and conjoining with And (vm/scalar's
// Eq only ever compares one scalar at a time; see vm/scalar.Eq's own
// comment).
func (fg *funcGen) lowerEquality(e *ast.Binary) {
	n := uint32(fg.typeOf(e.Left).Size())
	fg.lower(e.Left)
	fg.lower(e.Right)
	switch {
	case n == 0:
		fg.pushBool(true)
	case n == 1:
		fg.emit(bytecode.Instruction{Op: bytecode.OP_EQ})
	default:
		addrL := fg.allocScratch(n)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: addrL, Size: n})
		addrR := fg.allocScratch(n)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: addrR, Size: n})
		for i := uint32(0); i < n; i++ {
			fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD, Addr: addrL + i, Size: 1})
			fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD, Addr: addrR + i, Size: 1})
			fg.emit(bytecode.Instruction{Op: bytecode.OP_EQ})
			if i > 0 {
				fg.emit(bytecode.Instruction{Op: bytecode.OP_AND})
			}
		}
	}
	if e.Operator.TokenType == token.NOT_EQUAL {
		fg.emit(bytecode.Instruction{Op: bytecode.OP_NOT})
	}
}

func (fg *funcGen) VisitUnary(e *ast.Unary) any {
	fg.lower(e.Right)
	switch e.Operator.TokenType {
	case token.BANG:
		fg.emit(bytecode.Instruction{Op: bytecode.OP_NOT})
	case token.MINUS:
		fg.emit(bytecode.Instruction{Op: bytecode.OP_NEG})
	case token.TILDE:
		fg.emit(bytecode.Instruction{Op: bytecode.OP_BIT_NOT})
	default:
		panicError(e.Position, "internal: unknown unary operator %s", e.Operator.Lexeme)
	}
	return nil
}

// IntegerLiteral/BoolLiteral/StringLiteral always fold to an
// ann.Consts entry (semantic's foldConst never fails on a bare
// literal), so fg.lower's shortcut handles them before Accept is ever
// reached; these exist only to satisfy ExpressionVisitor.
func (fg *funcGen) VisitIntegerLiteral(e *ast.IntegerLiteral) any {
	panicError(e.Position, "internal: integer literal reached the generator unfolded")
	return nil
}

func (fg *funcGen) VisitBoolLiteral(e *ast.BoolLiteral) any {
	panicError(e.Position, "internal: bool literal reached the generator unfolded")
	return nil
}

func (fg *funcGen) VisitStringLiteral(e *ast.StringLiteral) any {
	panicError(e.Position, "internal: string literal has no runtime representation")
	return nil
}

func (fg *funcGen) VisitGrouping(e *ast.Grouping) any {
	fg.lower(e.Expression)
	return nil
}

func (fg *funcGen) VisitIdentifier(e *ast.Identifier) any {
	p, ok := fg.resolvePlace(e)
	if !ok {
		panicError(e.Position, "internal: unresolved identifier %q", e.Name)
	}
	fg.loadPlace(p)
	return nil
}

// Path only ever appears as a standalone value expression when it names
// an enum variant, which semantic.checkPathValue always folds to a
// constant (so fg.lower's shortcut intercepts it); anywhere else a Path
// is a CallStd/Call callee, handled directly by VisitCall.
func (fg *funcGen) VisitPath(e *ast.Path) any {
	panicError(e.Position, "internal: unresolved path expression")
	return nil
}

func (fg *funcGen) VisitAssign(e *ast.Assign) any {
	fg.lowerAssign(e.Target, e.Value)
	return nil
}

func (fg *funcGen) VisitCompoundAssign(e *ast.CompoundAssign) any {
	fg.lowerCompoundAssign(e)
	return nil
}

// VisitLogical lowers "&&"/"||" to If/Else rather than Binary's Bitwise
// And/Or. Outside proving mode this short-circuits: the right operand's
// instructions execute only when the left operand does not decide the
// result. In proving mode the VM runs both branches and keeps the
// selected one's value, so the right operand always executes.
func (fg *funcGen) VisitLogical(e *ast.Logical) any {
	fg.lower(e.Left)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_IF})
	if e.Operator.TokenType == token.AND {
		fg.lower(e.Right)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_ELSE})
		fg.pushBool(false)
	} else {
		fg.pushBool(true)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_ELSE})
		fg.lower(e.Right)
	}
	fg.emit(bytecode.Instruction{Op: bytecode.OP_END_IF})
	return nil
}

// A Range is lowered only as a ForStmt's Iterable, which lowerForStmt
// reads directly off the AST node rather than through Accept. Any other
// Range reaching the generator, including a range index subscript the
// analyzer accepts, fails here with an internal error.
func (fg *funcGen) VisitRange(e *ast.Range) any {
	panicError(e.Position, "internal: range expression outside a for-loop")
	return nil
}

func (fg *funcGen) VisitIndex(e *ast.Index) any {
	if p, ok := fg.resolvePlace(e); ok {
		fg.loadPlace(p)
		return nil
	}
	arr, ok := fg.typeOf(e.Collection).(*types.Array)
	if !ok {
		panicError(e.Position, "internal: index base is not an array")
	}
	elemSize := uint32(arr.Elem.Size())
	totalSize := uint32(arr.Size())

	if base, ok := fg.resolvePlace(e.Collection); ok {
		if base.kind == placeLocal {
			fg.lower(e.Subscript)
			fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD_BY_INDEX, Addr: base.addr, ElemSize: elemSize, TotalSize: totalSize})
			return nil
		}
		fg.pushU32(base.addr)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_STORAGE_LOAD, Size: totalSize})
		fg.lower(e.Subscript)
		fg.emit(bytecode.Instruction{Op: bytecode.OP_SLICE, ElemSize: elemSize, TotalSize: totalSize})
		return nil
	}

	// Collection is a transient value with no address (e.g. a call
	// result indexed directly): materialize it fully, then Slice.
	fg.lower(e.Collection)
	fg.lower(e.Subscript)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_SLICE, ElemSize: elemSize, TotalSize: totalSize})
	return nil
}

// VisitMember lowers field access on a transient (non-addressable)
// struct value by materializing it to a scratch frame address and
// reading the field back out with a constant-offset Load (DESIGN.md
// "vm" section: Slice is reserved for array-element access, never a
// heterogeneous-field byte offset).
func (fg *funcGen) VisitMember(e *ast.Member) any {
	if p, ok := fg.resolvePlace(e); ok {
		fg.loadPlace(p)
		return nil
	}
	st, ok := fg.typeOf(e.Receiver).(*types.Struct)
	if !ok {
		panicError(e.Position, "internal: member access base is not a struct")
	}
	off, size, ok := st.FieldOffset(e.Field)
	if !ok {
		panicError(e.Position, "internal: unknown field %q on %s", e.Field, st.Name)
	}
	total := uint32(st.Size())
	fg.lower(e.Receiver)
	scratch := fg.allocScratch(total)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_STORE, Addr: scratch, Size: total})
	fg.emit(bytecode.Instruction{Op: bytecode.OP_LOAD, Addr: scratch + uint32(off), Size: uint32(size)})
	return nil
}

func (fg *funcGen) VisitCall(e *ast.Call) any {
	if id, ok := fg.g.ann.StdCalls[e]; ok {
		var total uint32
		for _, a := range e.Args {
			fg.lower(a)
			total += uint32(fg.typeOf(a).Size())
		}
		fg.emit(bytecode.Instruction{
			Op:         bytecode.OP_CALL_STD,
			Identifier: id,
			InputSize:  total,
			OutputSize: uint32(fg.typeOf(e).Size()),
		})
		return nil
	}

	fi, ok := fg.g.ann.Calls[e]
	if !ok {
		panicError(e.Position, "internal: call has no resolved callee")
	}
	typeID, ok := fg.g.typeIDOf(fi)
	if !ok {
		panicError(e.Position, "internal: callee %q has no assigned type_id", fi.Name)
	}

	var total uint32
	if member, isMember := e.Callee.(*ast.Member); isMember && len(fi.Params) > 0 && fi.Params[0].Name == "self" {
		fg.lower(member.Receiver)
		total += uint32(fg.typeOf(member.Receiver).Size())
	}
	for _, a := range e.Args {
		fg.lower(a)
		total += uint32(fg.typeOf(a).Size())
	}
	fg.emit(bytecode.Instruction{Op: bytecode.OP_CALL, TypeID: typeID, InputSize: total})
	return nil
}

func (fg *funcGen) VisitCast(e *ast.Cast) any {
	fg.lower(e.Operand)
	target, ok := fg.g.ann.CastTo[e]
	if !ok {
		panicError(e.Position, "internal: cast has no resolved target type")
	}
	fg.emit(bytecode.Instruction{Op: bytecode.OP_CAST, ScalarType: scalarTypeOf(target)})
	return nil
}

func (fg *funcGen) VisitArrayLiteral(e *ast.ArrayLiteral) any {
	for _, el := range e.Elements {
		fg.lower(el)
	}
	return nil
}

func (fg *funcGen) VisitTupleLiteral(e *ast.TupleLiteral) any {
	for _, el := range e.Elements {
		fg.lower(el)
	}
	return nil
}

// VisitStructInit pushes fields in the struct's declared order, not the
// literal's written order, so the flattened layout matches
// types.Struct.FieldOffset everywhere else a struct value is addressed.
func (fg *funcGen) VisitStructInit(e *ast.StructInit) any {
	st, ok := fg.g.prog.Structs[e.TypeName]
	if !ok {
		panicError(e.Position, "internal: unknown struct %q", e.TypeName)
	}
	for _, f := range st.Fields {
		found := false
		for _, given := range e.Fields {
			if given.Name == f.Name {
				fg.lower(given.Value)
				found = true
				break
			}
		}
		if !found {
			panicError(e.Position, "internal: struct init %q missing field %q", e.TypeName, f.Name)
		}
	}
	return nil
}

func (fg *funcGen) VisitBlockExpr(e *ast.BlockExpr) any {
	mark := fg.scopeMark()
	for _, s := range e.Statements {
		fg.lowerStmt(s)
	}
	if e.Trailing != nil {
		fg.lower(e.Trailing)
	}
	fg.popShadows(mark)
	return nil
}

func (fg *funcGen) VisitIfExpr(e *ast.IfExpr) any {
	fg.lower(e.Condition)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_IF})
	fg.lower(e.Then)
	fg.emit(bytecode.Instruction{Op: bytecode.OP_ELSE})
	switch el := e.Else.(type) {
	case nil:
	case *ast.BlockExpr:
		fg.lower(el)
	case *ast.IfExpr:
		fg.lower(el)
	default:
		panicError(e.Position, "internal: unsupported else form %T", el)
	}
	fg.emit(bytecode.Instruction{Op: bytecode.OP_END_IF})
	return nil
}

func (fg *funcGen) VisitMatchExpr(e *ast.MatchExpr) any {
	fg.lowerMatch(e)
	return nil
}

func (fg *funcGen) VisitDbgExpr(e *ast.DbgExpr) any {
	argTypes := make([]bytecode.ScalarType, 0, len(e.Args))
	for _, a := range e.Args {
		fg.lower(a)
		argTypes = append(argTypes, scalarTypeOf(fg.typeOf(a)))
	}
	fg.emit(bytecode.Instruction{Op: bytecode.OP_DBG, Format: e.Format, ArgTypes: argTypes})
	return nil
}

func (fg *funcGen) VisitAssertExpr(e *ast.AssertExpr) any {
	fg.lower(e.Condition)
	ins := bytecode.Instruction{Op: bytecode.OP_ASSERT}
	if e.Message != "" {
		ins.HasMessage = true
		ins.Message = e.Message
	}
	fg.emit(ins)
	return nil
}

func (fg *funcGen) pushBool(b bool) {
	v := big.NewInt(0)
	if b {
		v = big.NewInt(1)
	}
	fg.emit(bytecode.Instruction{Op: bytecode.OP_PUSH, ScalarType: bytecode.ScalarType{Kind: bytecode.ScalarBool}, Value: v})
}
