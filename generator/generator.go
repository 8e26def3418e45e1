package generator

import (
	"math/big"
	"sort"

	"ferrite/ast"
	"ferrite/bytecode"
	"ferrite/semantic"
	"ferrite/token"
	"ferrite/types"
)

// callable is one function-shaped thing the generator assigns a
// type_id to: a top-level function, a contract constructor/method, or
// an impl method.
type callable struct {
	info    *semantic.FunctionInfo
	name    string
	isEntry bool // terminates with Exit rather than Return (spec.md §4.4)
}

// Generate lowers a fully analyzed semantic.Program into a
// bytecode.Program, per spec.md §4.4's two-pass scheme: first assign
// every function a stable type_id (so Call sites never need a forward
// reference), then lower each body independently and concatenate the
// results, recording where each one starts.
//
// Grounded on the teacher's compiler/ast_compiler.go (a single-pass
// visitor over the same kind of AST emitting into a flat instruction
// slice), generalized to the two-pass address scheme spec.md's Call/
// type_id design requires.
func Generate(prog *semantic.Program) (out *bytecode.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if gerr, ok := r.(Error); ok {
				err = gerr
				return
			}
			panic(r)
		}
	}()

	g := &gen{prog: prog, ann: prog.Annotations}
	callables := g.collectCallables()

	bodies := make([][]bytecode.Instruction, len(callables))
	entries := make([]bytecode.FunctionTableEntry, len(callables))
	for i, c := range callables {
		fg := newFuncGen(g, c)
		fg.lowerFunction()
		bodies[i] = fg.instr
		entries[i] = bytecode.FunctionTableEntry{
			Name:       c.name,
			InputSize:  sumParamSize(c.info.Params),
			ReturnSize: uint32(c.info.Return.Size()),
		}
	}

	var instructions []bytecode.Instruction
	for i := range callables {
		entries[i].Address = uint32(len(instructions))
		instructions = append(instructions, bodies[i]...)
	}

	kind := bytecode.Circuit
	switch prog.Kind {
	case semantic.ContractKind:
		kind = bytecode.Contract
	case semantic.Library:
		kind = bytecode.Library
	}

	entryIndex := int32(-1)
	if prog.Kind == semantic.Circuit && prog.EntryIndex >= 0 && prog.EntryIndex < len(prog.Functions) {
		entryIndex = int32(prog.EntryIndex)
	}

	return &bytecode.Program{
		Kind:         kind,
		Functions:    entries,
		EntryIndex:   entryIndex,
		Instructions: instructions,
	}, nil
}

func sumParamSize(params []types.StructField) uint32 {
	var n uint32
	for _, p := range params {
		n += uint32(p.Type.Size())
	}
	return n
}

// gen holds the whole-program context shared by every funcGen: the
// annotated tree and the type_id each FunctionInfo was assigned.
type gen struct {
	prog    *semantic.Program
	ann     *semantic.Annotations
	typeIDs map[*semantic.FunctionInfo]uint32
}

// collectCallables fixes the order spec.md §4.4 requires type_ids be
// assigned in: top-level functions in declaration order, then the
// contract's constructor and methods, then impl methods sorted by their
// "Type::method" key (the only one of the three groups without a
// natural declaration order already captured by a slice, since
// ImplMethods is a map).
func (g *gen) collectCallables() []callable {
	var callables []callable

	for i, fn := range g.prog.Functions {
		callables = append(callables, callable{
			info:    fn,
			name:    fn.Name,
			isEntry: g.prog.Kind == semantic.Circuit && i == g.prog.EntryIndex,
		})
	}

	if c := g.prog.Contract; c != nil {
		if c.Constructor != nil {
			callables = append(callables, callable{info: c.Constructor, name: c.Constructor.Name, isEntry: true})
		}
		for _, m := range c.Methods {
			callables = append(callables, callable{info: m, name: m.Name, isEntry: true})
		}
	}

	keys := make([]string, 0, len(g.prog.ImplMethods))
	for k := range g.prog.ImplMethods {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn := g.prog.ImplMethods[k]
		callables = append(callables, callable{info: fn, name: k, isEntry: false})
	}

	g.typeIDs = map[*semantic.FunctionInfo]uint32{}
	for i, c := range callables {
		g.typeIDs[c.info] = uint32(i)
	}
	return callables
}

func (g *gen) typeIDOf(fn *semantic.FunctionInfo) (uint32, bool) {
	id, ok := g.typeIDs[fn]
	return id, ok
}

// placeKind distinguishes a frame-local address from a contract storage
// offset; both are reached through the same resolvePlace recursion
// since Member/Index offsetting is identical either way (spec.md §4.4
// "Assignment").
type placeKind int

const (
	placeLocal placeKind = iota
	placeStorage
)

type place struct {
	kind placeKind
	addr uint32
	size uint32
}

// funcGen lowers a single function body. It implements
// ast.ExpressionVisitor and ast.StmtVisitor; every Visit method's job is
// to append instructions leaving exactly its expression's flattened
// value on the VM's evaluation stack (or, for statements, no net stack
// effect).
type funcGen struct {
	g       *gen
	call    callable
	locals  map[string]localSlot
	nextAddr uint32
	shadows []shadow
	instr   []bytecode.Instruction
	pos     token.Position
	file    string
}

func newFuncGen(g *gen, c callable) *funcGen {
	fg := &funcGen{g: g, call: c, locals: map[string]localSlot{}, pos: c.info.Position, file: c.info.Position.File}
	for _, p := range c.info.Params {
		fg.declareLocal(p.Name, p.Type)
	}
	return fg
}

func (fg *funcGen) emit(ins bytecode.Instruction) { fg.instr = append(fg.instr, ins) }

func (fg *funcGen) markPos(pos token.Position) {
	if pos.File != "" && pos.File != fg.file {
		fg.file = pos.File
		fg.emit(bytecode.Instruction{Op: bytecode.OP_FILE_MARKER, Name: pos.File})
	}
	fg.emit(bytecode.Instruction{Op: bytecode.OP_LINE_MARKER, Position: uint32(pos.Line)})
	fg.emit(bytecode.Instruction{Op: bytecode.OP_COLUMN_MARKER, Position: uint32(pos.Column)})
}

func (fg *funcGen) typeOf(e ast.Expression) types.Type {
	t, ok := fg.g.ann.Types[e]
	if !ok {
		panicError(e.Pos(), "internal: no type recorded for expression")
	}
	return t
}

// lowerFunction emits the prologue marker and the body, terminating
// with Exit (entry points) or Return (everything reached via Call).
func (fg *funcGen) lowerFunction() {
	fg.emit(bytecode.Instruction{Op: bytecode.OP_FUNCTION_MARKER, Name: fg.call.name})
	body := fg.call.info.Body
	for _, s := range body.Statements {
		fg.lowerStmt(s)
	}
	if body.Trailing != nil {
		fg.lower(body.Trailing)
		fg.emitTerminator(uint32(fg.typeOf(body.Trailing).Size()))
	} else {
		fg.emitTerminator(0)
	}
}

func (fg *funcGen) emitTerminator(size uint32) {
	if fg.call.isEntry {
		fg.emit(bytecode.Instruction{Op: bytecode.OP_EXIT, Size: size})
	} else {
		fg.emit(bytecode.Instruction{Op: bytecode.OP_RETURN, Size: size})
	}
}

// lower is the single choke point every expression passes through: it
// shortcuts to a Push when the analyzer already folded the expression
// to a constant (spec.md §4.3 "Constant evaluation"), and otherwise
// dispatches through the visitor.
func (fg *funcGen) lower(e ast.Expression) {
	if cv, ok := fg.g.ann.Consts[e]; ok {
		fg.pushConst(cv)
		return
	}
	e.Accept(fg)
}

func (fg *funcGen) pushConst(cv *semantic.ConstValue) {
	v := cv.Int
	if cv.Type.Kind() == types.KindBool {
		v = big.NewInt(0)
		if cv.Bool {
			v = big.NewInt(1)
		}
	}
	fg.emit(bytecode.Instruction{Op: bytecode.OP_PUSH, ScalarType: scalarTypeOf(cv.Type), Value: v})
}

func bigFromU32(n uint32) *big.Int { return big.NewInt(int64(n)) }

func scalarTypeOf(t types.Type) bytecode.ScalarType {
	st, ok := leafScalarType(t)
	if !ok {
		panicError(token.Position{}, "internal: %s has no scalar representation", t)
	}
	return st
}

func binOpcode(tt token.TokenType) bytecode.Opcode {
	switch tt {
	case token.PLUS:
		return bytecode.OP_ADD
	case token.MINUS:
		return bytecode.OP_SUB
	case token.STAR:
		return bytecode.OP_MUL
	case token.SLASH:
		return bytecode.OP_DIV
	case token.PERCENT:
		return bytecode.OP_REM
	case token.AMP:
		return bytecode.OP_BIT_AND
	case token.PIPE:
		return bytecode.OP_BIT_OR
	case token.CARET:
		return bytecode.OP_BIT_XOR
	case token.SHL:
		return bytecode.OP_SHL
	case token.SHR:
		return bytecode.OP_SHR
	case token.LESS:
		return bytecode.OP_LT
	case token.LESS_EQUAL:
		return bytecode.OP_LE
	case token.LARGER:
		return bytecode.OP_GT
	case token.LARGER_EQUAL:
		return bytecode.OP_GE
	case token.EQUAL_EQUAL:
		return bytecode.OP_EQ
	case token.NOT_EQUAL:
		return bytecode.OP_NE
	default:
		panicError(token.Position{}, "internal: %s is not a binary operator", tt)
		panic("unreachable")
	}
}

// compoundTargetOp strips the trailing "=" off a compound-assignment
// operator token to get the underlying binary operator, matching how
// the parser records CompoundAssign.Operator (spec.md token list keeps
// the full PLUS_ASSIGN etc token, so this maps it back).
func compoundTargetOp(tt token.TokenType) token.TokenType {
	switch tt {
	case token.PLUS_ASSIGN:
		return token.PLUS
	case token.MINUS_ASSIGN:
		return token.MINUS
	case token.STAR_ASSIGN:
		return token.STAR
	case token.SLASH_ASSIGN:
		return token.SLASH
	case token.PERCENT_ASSIGN:
		return token.PERCENT
	case token.AMP_ASSIGN:
		return token.AMP
	case token.PIPE_ASSIGN:
		return token.PIPE
	case token.CARET_ASSIGN:
		return token.CARET
	case token.SHL_ASSIGN:
		return token.SHL
	case token.SHR_ASSIGN:
		return token.SHR
	default:
		return tt
	}
}
