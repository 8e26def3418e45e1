// Package semantic implements Ferrite's semantic analyzer (spec.md
// §4.3): it walks a parsed ast.Module, resolves scopes, infers and
// checks types, folds constants, resolves operators and function
// calls, and produces an annotated Program the generator lowers to
// bytecode. It is grounded on the teacher's interpreter.TreeWalkInterpreter
// (a tree-walking evaluator over the same ast.Expression/ast.Stmt
// shape), generalized from runtime evaluation to static analysis: both
// recurse over the AST node-by-node and use a panic/recover idiom to
// unwind to the first error, matching the teacher's
// "recover to print runtime errors without crashing" pattern turned
// into "recover to return the first semantic error".
package semantic

import (
	"math/big"

	"ferrite/ast"
	"ferrite/token"
	"ferrite/types"
	"ferrite/vm/stdlib"
)

func bigFromInt64(v int64) *big.Int { return big.NewInt(v) }

// Analyzer holds all state accumulated while analyzing a single Module.
type Analyzer struct {
	file   string
	scopes *scopeArena
	root   scopeHandle

	structs   map[string]*types.Struct
	enums     map[string]*types.Enum
	aliases   map[string]types.Type
	functions []*FunctionInfo
	funcIndex map[string]int

	// implMethods maps "TypeName::methodName" to its FunctionInfo, for
	// impl blocks (spec.md §4.2 "impl T { items }"); see DESIGN.md for
	// why method calls are resolved by explicit path rather than "."
	// receiver syntax.
	implMethods map[string]*FunctionInfo

	contract *ContractInfo

	ann *Annotations
}

// New constructs an Analyzer over a fresh root scope; file tags every
// diagnostic with the source file name.
func New(file string) *Analyzer {
	arena := newScopeArena()
	root := arena.push(noParent)
	return &Analyzer{
		file:        file,
		scopes:      arena,
		root:        root,
		structs:     map[string]*types.Struct{},
		enums:       map[string]*types.Enum{},
		aliases:     map[string]types.Type{},
		funcIndex:   map[string]int{},
		implMethods: map[string]*FunctionInfo{},
		ann:         newAnnotations(),
	}
}

// Analyze runs the full semantic analysis pipeline over mod and returns
// an annotated Program, or the first SemanticError encountered.
func Analyze(mod *ast.Module, file string) (prog *Program, err error) {
	an := New(file)
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(SemanticError); ok {
				prog, err = nil, se
				return
			}
			panic(r)
		}
	}()
	an.collectTypes(mod.Items)
	an.collectFunctions(mod.Items)
	an.checkAllBodies()
	return an.finish(), nil
}

func (an *Analyzer) pos(n ast.Node) token.Position {
	p := n.Pos()
	if p.File == "" {
		p.File = an.file
	}
	return p
}

func (an *Analyzer) fail(kind ErrorKind, pos token.Position, format string, args ...any) {
	panic(newError(kind, pos, format, args...))
}

// --- phase 1: register struct/enum/alias type definitions ---

func (an *Analyzer) collectTypes(items []ast.Item) {
	// Pre-register empty placeholders so mutually-referencing structs
	// can resolve each other's names before fields are filled in.
	for _, item := range items {
		switch it := item.(type) {
		case *ast.StructItem:
			an.structs[it.Name] = &types.Struct{Name: it.Name}
		case *ast.EnumItem:
			an.enums[it.Name] = &types.Enum{Name: it.Name}
		}
	}
	for _, item := range items {
		switch it := item.(type) {
		case *ast.StructItem:
			an.fillStruct(it)
		case *ast.EnumItem:
			an.fillEnum(it)
		case *ast.TypeAliasItem:
			t, err := an.resolveTypeName(it.Underlying, an.root)
			if err != nil {
				an.fail(TypeMismatch, an.pos(it), "%s", err.Error())
			}
			an.aliases[it.Name] = t
		case *ast.ModItem:
			an.collectTypes(it.Items)
		}
	}
}

func (an *Analyzer) fillStruct(it *ast.StructItem) {
	s := an.structs[it.Name]
	fields := make([]types.StructField, 0, len(it.Fields))
	for _, f := range it.Fields {
		t, err := an.resolveTypeName(f.TypeName, an.root)
		if err != nil {
			an.fail(CyclicTypeDefinition, an.pos(it), "field %q of struct %q: %s", f.Name, it.Name, err.Error())
		}
		fields = append(fields, types.StructField{Name: f.Name, Type: t})
	}
	s.Fields = fields
}

func (an *Analyzer) fillEnum(it *ast.EnumItem) {
	e := an.enums[it.Name]
	underlying, _ := types.NewInteger(false, 32)
	e.Underlying = underlying
	next := int64(0)
	variants := make([]types.EnumVariant, 0, len(it.Variants))
	for _, v := range it.Variants {
		val := next
		if v.Discriminant != nil {
			cv, ok, err := an.foldConst(v.Discriminant, an.root)
			if err != nil {
				panic(err)
			}
			if !ok || cv.Int == nil {
				an.fail(ConstantOutOfRange, an.pos(it), "enum variant %q requires a constant integer discriminant", v.Name)
			}
			val = cv.Int.Int64()
		}
		variants = append(variants, types.EnumVariant{Name: v.Name, Value: val})
		next = val + 1
	}
	e.Variants = variants
}

// resolveTypeName resolves a flat type-name string (as produced by the
// parser) against primitives plus the analyzer's struct/enum/alias
// tables.
func (an *Analyzer) resolveTypeName(name string, sc scopeHandle) (types.Type, error) {
	return types.ParseTypeName(name, func(n string) (types.Type, bool) {
		if s, ok := an.structs[n]; ok {
			return s, true
		}
		if e, ok := an.enums[n]; ok {
			return e, true
		}
		if a, ok := an.aliases[n]; ok {
			return a, true
		}
		if an.contract != nil && an.contract.Type.Name == n {
			return an.contract.Type, true
		}
		return nil, false
	})
}

// --- phase 2: register function/impl/contract signatures ---

func (an *Analyzer) collectFunctions(items []ast.Item) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.FunctionItem:
			an.registerFunction(it, "")
		case *ast.ImplItem:
			for _, fn := range it.Functions {
				an.registerFunction(fn, it.TypeName)
			}
		case *ast.ContractItem:
			an.registerContract(it)
		case *ast.ModItem:
			an.collectFunctions(it.Items)
		}
	}
}

func (an *Analyzer) registerFunction(it *ast.FunctionItem, implType string) *FunctionInfo {
	params := make([]types.StructField, 0, len(it.Params))
	for _, p := range it.Params {
		t, err := an.resolveTypeName(p.TypeName, an.root)
		if err != nil {
			an.fail(UndeclaredName, an.pos(it), "parameter %q of %q: %s", p.Name, it.Name, err.Error())
		}
		params = append(params, types.StructField{Name: p.Name, Type: t})
	}
	ret := types.Type(types.Unit{})
	if it.ReturnType != "" {
		t, err := an.resolveTypeName(it.ReturnType, an.root)
		if err != nil {
			an.fail(UndeclaredName, an.pos(it), "return type of %q: %s", it.Name, err.Error())
		}
		ret = t
	}
	info := &FunctionInfo{Name: it.Name, Params: params, Return: ret, Body: it.Body, Position: an.pos(it)}
	if implType != "" {
		an.implMethods[implType+"::"+it.Name] = info
		return info
	}
	an.funcIndex[it.Name] = len(an.functions)
	an.functions = append(an.functions, info)
	return info
}

func (an *Analyzer) registerContract(it *ast.ContractItem) {
	storage := make([]types.StructField, 0, len(it.Storage))
	for _, f := range it.Storage {
		t, err := an.resolveTypeName(f.TypeName, an.root)
		if err != nil {
			an.fail(UndeclaredName, an.pos(it), "storage field %q: %s", f.Name, err.Error())
		}
		storage = append(storage, types.StructField{Name: f.Name, Type: t})
	}
	ct := &types.Contract{Name: it.Name, Storage: storage, Methods: map[string]*types.Function{}}
	ci := &ContractInfo{Type: ct}
	an.contract = ci

	if it.Constructor != nil {
		ci.Constructor = an.registerFunction(it.Constructor, "")
	}
	for _, m := range it.Methods {
		fi := an.registerFunction(m, "")
		ci.Methods = append(ci.Methods, fi)
		paramTypes := make([]types.StructField, len(fi.Params))
		copy(paramTypes, fi.Params)
		ct.Methods[fi.Name] = &types.Function{Name: fi.Name, Params: paramTypes, Return: fi.Return}
	}
}

// contractScope returns a scope with every storage field pre-declared
// as a mutable ItemValue binding, so contract method bodies can read
// and assign them as bare identifiers (spec.md §4.4 "Assignment" /
// §4.6 "Storage": storage is addressed by field position, not via a
// receiver expression the grammar doesn't have).
func (an *Analyzer) contractScope() scopeHandle {
	sc := an.scopes.push(an.root)
	for _, f := range an.contract.Type.Storage {
		an.scopes.declare(sc, f.Name, Binding{Kind: ItemValue, Type: f.Type, Mutable: true})
	}
	return sc
}

// --- phase 3: check every function body ---

func (an *Analyzer) checkAllBodies() {
	parentScope := func() scopeHandle {
		if an.contract != nil {
			return an.contractScope()
		}
		return an.root
	}

	for _, fi := range an.functions {
		an.checkFunctionBody(fi, an.root)
	}
	if an.contract != nil {
		if an.contract.Constructor != nil {
			an.checkFunctionBody(an.contract.Constructor, parentScope())
		}
		for _, m := range an.contract.Methods {
			an.checkFunctionBody(m, parentScope())
		}
	}
	for _, fi := range an.implMethods {
		an.checkFunctionBody(fi, an.root)
	}
}

func (an *Analyzer) checkFunctionBody(fi *FunctionInfo, parent scopeHandle) {
	sc := an.scopes.push(parent)
	for _, p := range fi.Params {
		an.scopes.declare(sc, p.Name, Binding{Kind: ItemValue, Type: p.Type, Mutable: false})
	}
	bodyType := an.checkBlockIn(fi.Body, sc)
	if !types.Equal(bodyType, fi.Return) {
		an.fail(TypeMismatch, an.pos(fi.Body), "function %q: expected return type %s, found %s", fi.Name, fi.Return, bodyType)
	}
}

func (an *Analyzer) finish() *Program {
	kind := Library
	entry := -1
	if an.contract != nil {
		kind = ContractKind
	} else if idx, ok := an.funcIndex["main"]; ok {
		kind = Circuit
		entry = idx
	} else if len(an.functions) == 0 {
		kind = Library
	}
	if kind == Circuit && entry < 0 {
		an.fail(FunctionMainMissing, token.Position{File: an.file, Line: 1, Column: 1}, "circuit application requires a 'main' function")
	}
	return &Program{
		Kind:        kind,
		Functions:   an.functions,
		EntryIndex:  entry,
		Contract:    an.contract,
		Structs:     an.structs,
		Enums:       an.enums,
		Annotations: an.ann,
		ImplMethods: an.implMethods,
	}
}

// --- statements ---

func (an *Analyzer) checkBlockIn(b *ast.BlockExpr, sc scopeHandle) types.Type {
	inner := an.scopes.push(sc)
	for _, s := range b.Statements {
		an.checkStmt(s, inner)
	}
	if b.Trailing != nil {
		t, c := an.checkExpr(b.Trailing, inner)
		an.record(b.Trailing, t, c)
		return t
	}
	return types.Unit{}
}

func (an *Analyzer) checkStmt(s ast.Stmt, sc scopeHandle) {
	switch stmt := s.(type) {
	case *ast.LetStmt:
		an.checkLetStmt(stmt, sc)
	case *ast.ConstStmt:
		an.checkConstStmt(stmt, sc)
	case *ast.ForStmt:
		an.checkForStmt(stmt, sc)
	case *ast.ReturnStmt:
		// Return type checking against the enclosing function happens
		// in checkFunctionBody via the block's overall type; a bare
		// "return expr;" mid-body is accepted without re-verification
		// here (spec.md does not require early-return type agreement
		// beyond the function's declared type, checked at call sites).
		if stmt.Value != nil {
			t, c := an.checkExpr(stmt.Value, sc)
			an.record(stmt.Value, t, c)
		}
	case *ast.ExpressionStmt:
		t, c := an.checkExpr(stmt.Expression, sc)
		an.record(stmt.Expression, t, c)
	}
}

func (an *Analyzer) checkLetStmt(s *ast.LetStmt, sc scopeHandle) {
	var declared types.Type
	if s.TypeName != "" {
		t, err := an.resolveTypeName(s.TypeName, sc)
		if err != nil {
			an.fail(UndeclaredName, an.pos(s), "%s", err.Error())
		}
		declared = t
	}
	var initType types.Type
	var initConst *ConstValue
	if s.Initializer != nil {
		initType, initConst = an.checkExpr(s.Initializer, sc)
		if declared != nil && !types.Equal(initType, declared) {
			coerced, ok := an.coerceInteger(initConst, declared)
			if !ok {
				an.fail(TypeMismatch, an.pos(s), "let %q: expected %s, found %s", s.Name, declared, initType)
			}
			initType, initConst = declared, coerced
			an.record(s.Initializer, initType, initConst)
		} else {
			an.record(s.Initializer, initType, initConst)
		}
	} else if declared == nil {
		an.fail(TypeMismatch, an.pos(s), "let %q: cannot infer type without an initializer", s.Name)
	}
	finalType := declared
	if finalType == nil {
		finalType = initType
	}
	if !an.scopes.declare(sc, s.Name, Binding{Kind: ItemValue, Type: finalType, Mutable: s.Mutable}) {
		an.fail(DuplicateBinding, an.pos(s), "%q already declared in this scope", s.Name)
	}
}

func (an *Analyzer) checkConstStmt(s *ast.ConstStmt, sc scopeHandle) {
	cv, ok, err := an.foldConst(s.Initializer, sc)
	if err != nil {
		panic(err)
	}
	if !ok {
		an.fail(TypeMismatch, an.pos(s), "const %q: initializer is not a compile-time constant", s.Name)
	}
	if s.TypeName != "" {
		declared, derr := an.resolveTypeName(s.TypeName, sc)
		if derr != nil {
			an.fail(UndeclaredName, an.pos(s), "%s", derr.Error())
		}
		if !types.Equal(cv.Type, declared) {
			coerced, ok := an.coerceInteger(cv, declared)
			if !ok {
				an.fail(TypeMismatch, an.pos(s), "const %q: expected %s, found %s", s.Name, declared, cv.Type)
			}
			cv = coerced
		}
	}
	an.record(s.Initializer, cv.Type, cv)
	if !an.scopes.declare(sc, s.Name, Binding{Kind: ItemConstant, Type: cv.Type, Constant: cv}) {
		an.fail(DuplicateBinding, an.pos(s), "%q already declared in this scope", s.Name)
	}
}

func (an *Analyzer) checkForStmt(s *ast.ForStmt, sc scopeHandle) {
	lowConst, lowOk, lowErr := an.foldConst(s.Iterable.Low, sc)
	if lowErr != nil {
		panic(lowErr)
	}
	if !lowOk {
		an.fail(OperatorRangeFirstOperandExpectedConstant, an.pos(s.Iterable), "for-loop range bound must be a compile-time constant")
	}
	highType, highConst := an.checkExpr(s.Iterable.High, sc)
	elemType := an.unifyRangeBounds(lowConst, highType, highConst, an.pos(s.Iterable))
	an.record(s.Iterable.Low, elemType, lowConst)
	an.record(s.Iterable.High, elemType, highConst)
	an.record(s.Iterable, &types.Range{Elem: elemType}, nil)

	inner := an.scopes.push(sc)
	an.scopes.declare(inner, s.Variable, Binding{Kind: ItemValue, Type: elemType, Mutable: false})
	bodyType := an.checkBlockIn(s.Body, inner)
	if _, ok := bodyType.(types.Unit); !ok {
		an.fail(TypeMismatch, an.pos(s.Body), "for-loop body must have unit type, found %s", bodyType)
	}
}

// coerceInteger implements spec.md §4.3's literal-coercion rule:
// "Integer literals with no context get the smallest unsigned integer
// that fits; in a context with a target type they are coerced if in
// range, else error." Only a folded integer constant can be coerced;
// a non-constant value of the wrong type is always a hard mismatch.
func (an *Analyzer) coerceInteger(cv *ConstValue, target types.Type) (*ConstValue, bool) {
	if cv == nil || cv.Int == nil {
		return nil, false
	}
	it, ok := target.(*types.Integer)
	if !ok {
		return nil, false
	}
	fits := fitsUnsigned(cv.Int, it.Bits)
	if it.Signed {
		fits = fitsSigned(cv.Int, it.Bits)
	}
	if !fits {
		return nil, false
	}
	return constInt(it, cv.Int), true
}

// reconcileOperands resolves the same literal-width mismatch as
// unifyRangeBounds, but for a generic two-operand expression: if one
// side is a folded integer constant and the other side's type differs,
// try coercing the constant side into the other side's type rather
// than failing outright. Leaves both sides untouched if no coercion
// applies, so the caller's own mismatch diagnostic still fires.
func (an *Analyzer) reconcileOperands(lt, rt types.Type, lc, rc *ConstValue) (types.Type, types.Type, *ConstValue, *ConstValue) {
	if lt == nil || rt == nil || types.Equal(lt, rt) {
		return lt, rt, lc, rc
	}
	if rc != nil && rc.Int != nil {
		if coerced, ok := an.coerceInteger(rc, lt); ok {
			return lt, lt, lc, coerced
		}
	}
	if lc != nil && lc.Int != nil {
		if coerced, ok := an.coerceInteger(lc, rt); ok {
			return rt, rt, coerced, rc
		}
	}
	return lt, rt, lc, rc
}

// --- expressions ---

func (an *Analyzer) record(e ast.Expression, t types.Type, c *ConstValue) {
	an.ann.Types[e] = t
	if c != nil {
		an.ann.Consts[e] = c
	}
}

func (an *Analyzer) checkExpr(expr ast.Expression, sc scopeHandle) (types.Type, *ConstValue) {
	if cv, ok, err := an.foldConst(expr, sc); err != nil {
		panic(err)
	} else if ok {
		return cv.Type, cv
	}

	switch e := expr.(type) {
	case *ast.IntegerLiteral, *ast.BoolLiteral:
		panic("unreachable: literals always fold")
	case *ast.StringLiteral:
		return types.String{}, nil
	case *ast.Grouping:
		t, c := an.checkExpr(e.Expression, sc)
		an.record(e.Expression, t, c)
		return t, c
	case *ast.Identifier:
		return an.checkIdentifier(e, sc)
	case *ast.Path:
		return an.checkPathValue(e, sc)
	case *ast.Unary:
		return an.checkUnary(e, sc)
	case *ast.Binary:
		return an.checkBinary(e, sc)
	case *ast.Logical:
		return an.checkLogical(e, sc)
	case *ast.Cast:
		return an.checkCast(e, sc)
	case *ast.Range:
		return an.checkRangeExpr(e, sc)
	case *ast.Index:
		return an.checkIndex(e, sc)
	case *ast.Member:
		return an.checkMember(e, sc)
	case *ast.Call:
		return an.checkCall(e, sc)
	case *ast.ArrayLiteral:
		return an.checkArrayLiteral(e, sc)
	case *ast.TupleLiteral:
		return an.checkTupleLiteral(e, sc)
	case *ast.StructInit:
		return an.checkStructInit(e, sc)
	case *ast.BlockExpr:
		return an.checkBlockIn(e, sc), nil
	case *ast.IfExpr:
		return an.checkIfExpr(e, sc)
	case *ast.MatchExpr:
		return an.checkMatchExpr(e, sc)
	case *ast.Assign:
		return an.checkAssign(e, sc)
	case *ast.CompoundAssign:
		return an.checkCompoundAssign(e, sc)
	case *ast.DbgExpr:
		for _, a := range e.Args {
			t, c := an.checkExpr(a, sc)
			an.record(a, t, c)
		}
		return types.Unit{}, nil
	case *ast.AssertExpr:
		t, c := an.checkExpr(e.Condition, sc)
		an.record(e.Condition, t, c)
		if _, ok := t.(types.Bool); !ok {
			an.fail(TypeMismatch, an.pos(e), "assert condition must be bool, found %s", t)
		}
		return types.Unit{}, nil
	}
	an.fail(TypeMismatch, an.pos(expr), "unsupported expression kind %T", expr)
	return nil, nil
}

func (an *Analyzer) checkIdentifier(e *ast.Identifier, sc scopeHandle) (types.Type, *ConstValue) {
	b, ok := an.scopes.lookup(sc, e.Name)
	if !ok {
		an.fail(UndeclaredName, an.pos(e), "undeclared name %q", e.Name)
	}
	if b.Kind == ItemConstant {
		return b.Type, b.Constant
	}
	return b.Type, nil
}

func (an *Analyzer) checkPathValue(e *ast.Path, sc scopeHandle) (types.Type, *ConstValue) {
	if len(e.Segments) == 2 {
		if enum, ok := an.enums[e.Segments[0]]; ok {
			if v, ok := enum.Variant(e.Segments[1]); ok {
				return enum, constInt(enum.Underlying, bigFromInt64(v.Value))
			}
		}
	}
	an.fail(UndeclaredName, an.pos(e), "undeclared path %q", joinPath(e.Segments))
	return nil, nil
}

func (an *Analyzer) checkUnary(e *ast.Unary, sc scopeHandle) (types.Type, *ConstValue) {
	t, c := an.checkExpr(e.Right, sc)
	an.record(e.Right, t, c)
	switch e.Operator.TokenType {
	case token.BANG:
		if _, ok := t.(types.Bool); !ok {
			an.fail(TypeMismatch, an.pos(e), "'!' requires bool, found %s", t)
		}
		return types.Bool{}, nil
	case token.MINUS:
		it, ok := t.(*types.Integer)
		if !ok || !it.Signed {
			if _, isField := t.(types.Field); !isField {
				an.fail(TypeMismatch, an.pos(e), "unary '-' requires a signed integer or field, found %s", t)
			}
		}
		return t, nil
	case token.TILDE:
		if _, ok := t.(*types.Integer); !ok {
			an.fail(TypeMismatch, an.pos(e), "'~' requires an integer, found %s", t)
		}
		return t, nil
	}
	an.fail(TypeMismatch, an.pos(e), "unknown unary operator %s", e.Operator.Lexeme)
	return nil, nil
}

func (an *Analyzer) checkBinary(e *ast.Binary, sc scopeHandle) (types.Type, *ConstValue) {
	lt, lc := an.checkExpr(e.Left, sc)
	rt, rc := an.checkExpr(e.Right, sc)
	if e.Operator.TokenType != token.SHL && e.Operator.TokenType != token.SHR {
		lt, rt, lc, rc = an.reconcileOperands(lt, rt, lc, rc)
	}
	an.record(e.Left, lt, lc)
	an.record(e.Right, rt, rc)

	switch e.Operator.TokenType {
	case token.SLASH, token.PERCENT:
		if rc != nil && rc.Int != nil && rc.Int.Sign() == 0 {
			an.fail(DivisionByZero, an.pos(e), "division by constant zero")
		}
	}

	switch e.Operator.TokenType {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		if !types.IsNumeric(lt) || !types.Equal(lt, rt) {
			an.fail(TypeMismatch, an.pos(e), "arithmetic requires matching numeric types, found %s and %s", lt, rt)
		}
		return lt, nil
	case token.LESS, token.LESS_EQUAL, token.LARGER, token.LARGER_EQUAL:
		if !types.IsInteger(lt) || !types.Equal(lt, rt) {
			an.fail(TypeMismatch, an.pos(e), "comparison requires matching integer types, found %s and %s", lt, rt)
		}
		return types.Bool{}, nil
	case token.EQUAL_EQUAL, token.NOT_EQUAL:
		if isUnit(lt) && !isUnit(rt) {
			an.fail(OperatorEqualsSecondOperandExpectedUnit, an.pos(e), "comparison with unit requires the other operand to also be unit, found %s", rt)
		}
		if !types.Equal(lt, rt) {
			an.fail(TypeMismatch, an.pos(e), "'==' requires matching types, found %s and %s", lt, rt)
		}
		return types.Bool{}, nil
	case token.AMP, token.PIPE, token.CARET:
		if !types.IsInteger(lt) || !types.Equal(lt, rt) {
			an.fail(TypeMismatch, an.pos(e), "bitwise operator requires matching integer types, found %s and %s", lt, rt)
		}
		return lt, nil
	case token.SHL, token.SHR:
		if !types.IsInteger(lt) {
			an.fail(TypeMismatch, an.pos(e), "shift requires an integer left operand, found %s", lt)
		}
		rit, ok := rt.(*types.Integer)
		if !ok || rit.Signed {
			an.fail(TypeMismatch, an.pos(e), "shift count must be an unsigned integer, found %s", rt)
		}
		return lt, nil
	}
	an.fail(TypeMismatch, an.pos(e), "unknown binary operator %s", e.Operator.Lexeme)
	return nil, nil
}

func (an *Analyzer) checkLogical(e *ast.Logical, sc scopeHandle) (types.Type, *ConstValue) {
	lt, lc := an.checkExpr(e.Left, sc)
	rt, rc := an.checkExpr(e.Right, sc)
	an.record(e.Left, lt, lc)
	an.record(e.Right, rt, rc)
	if _, ok := lt.(types.Bool); !ok {
		an.fail(TypeMismatch, an.pos(e), "logical operator requires bool operands, found %s", lt)
	}
	if _, ok := rt.(types.Bool); !ok {
		an.fail(TypeMismatch, an.pos(e), "logical operator requires bool operands, found %s", rt)
	}
	return types.Bool{}, nil
}

func (an *Analyzer) checkCast(e *ast.Cast, sc scopeHandle) (types.Type, *ConstValue) {
	t, c := an.checkExpr(e.Operand, sc)
	an.record(e.Operand, t, c)
	target, err := an.resolveTypeName(e.Target, sc)
	if err != nil {
		an.fail(UndeclaredName, an.pos(e), "%s", err.Error())
	}
	switch target.(type) {
	case *types.Integer:
		if !types.IsInteger(t) {
			if _, ok := t.(types.Bool); !ok {
				an.fail(TypeMismatch, an.pos(e), "cannot cast %s to %s", t, target)
			}
		}
	case types.Field:
		if !types.IsInteger(t) {
			an.fail(TypeMismatch, an.pos(e), "cannot cast %s to field", t)
		}
	default:
		an.fail(TypeMismatch, an.pos(e), "unsupported cast target %s", target)
	}
	an.ann.CastTo[e] = target
	return target, nil
}

func (an *Analyzer) checkRangeExpr(e *ast.Range, sc scopeHandle) (types.Type, *ConstValue) {
	lowConst, lowOk, lowErr := an.foldConst(e.Low, sc)
	if lowErr != nil {
		panic(lowErr)
	}
	if !lowOk {
		an.fail(OperatorRangeFirstOperandExpectedConstant, an.pos(e), "range's first operand must be a compile-time constant")
	}
	highType, highConst := an.checkExpr(e.High, sc)
	elemType := an.unifyRangeBounds(lowConst, highType, highConst, an.pos(e))
	an.record(e.Low, elemType, lowConst)
	an.record(e.High, elemType, highConst)
	return &types.Range{Elem: elemType}, nil
}

// unifyRangeBounds resolves the shared element type of a range's two
// bounds. Integer literals fold independently to the smallest unsigned
// width that fits their own value (spec.md §4.3), which can leave two
// bounds of a single range, e.g. "0..4", with different inferred
// widths; when both sides are unsigned integer constants, they are
// rejoined to the narrowest width that fits both values rather than
// rejected as a hard mismatch. A non-constant high bound, or a signed
// one, must already agree with the low bound's type.
func (an *Analyzer) unifyRangeBounds(lowConst *ConstValue, highType types.Type, highConst *ConstValue, pos token.Position) types.Type {
	if types.Equal(lowConst.Type, highType) {
		return lowConst.Type
	}
	if highConst != nil && highConst.Int != nil && lowConst.Int != nil {
		lit, lok := lowConst.Type.(*types.Integer)
		hit, hok := highType.(*types.Integer)
		if lok && hok && !lit.Signed && !hit.Signed {
			it, err := types.SmallestUnsigned(func(bits int) bool {
				return fitsUnsigned(lowConst.Int, bits) && fitsUnsigned(highConst.Int, bits)
			})
			if err == nil {
				lowConst.Type = it
				highConst.Type = it
				return it
			}
		}
	}
	an.fail(TypeMismatch, pos, "range bounds must share a type: %s vs %s", lowConst.Type, highType)
	return nil
}

func (an *Analyzer) checkIndex(e *ast.Index, sc scopeHandle) (types.Type, *ConstValue) {
	ct, cc := an.checkExpr(e.Collection, sc)
	an.record(e.Collection, ct, cc)
	arr, ok := ct.(*types.Array)
	if !ok {
		an.fail(TypeMismatch, an.pos(e), "index requires an array, found %s", ct)
	}
	st, sconst := an.checkExpr(e.Subscript, sc)
	an.record(e.Subscript, st, sconst)
	switch st.(type) {
	case *types.Integer:
		return arr.Elem, nil
	case *types.Range:
		if sconst != nil {
			return arr, nil
		}
		return arr, nil
	default:
		an.fail(OperatorIndexSecondOperandExpectedIntegerOrRange, an.pos(e), "index operand must be an integer or a range, found %s", st)
	}
	return nil, nil
}

func (an *Analyzer) checkMember(e *ast.Member, sc scopeHandle) (types.Type, *ConstValue) {
	rt, rc := an.checkExpr(e.Receiver, sc)
	an.record(e.Receiver, rt, rc)
	st, ok := rt.(*types.Struct)
	if !ok {
		an.fail(TypeMismatch, an.pos(e), "member access requires a struct, found %s", rt)
	}
	for _, f := range st.Fields {
		if f.Name == e.Field {
			return f.Type, nil
		}
	}
	an.fail(UndeclaredName, an.pos(e), "struct %q has no field %q", st.Name, e.Field)
	return nil, nil
}

func (an *Analyzer) checkCall(e *ast.Call, sc scopeHandle) (types.Type, *ConstValue) {
	switch callee := e.Callee.(type) {
	case *ast.Identifier:
		idx, ok := an.funcIndex[callee.Name]
		if !ok {
			an.fail(NotCallable, an.pos(e), "%q is not a known function", callee.Name)
		}
		fi := an.functions[idx]
		an.checkArgs(e, fi.Name, fi.Params, sc)
		an.ann.Calls[e] = fi
		return fi.Return, nil
	case *ast.Path:
		if id, ok := stdlib.Lookup(callee.Segments); ok {
			argTypes := make([]types.Type, 0, len(e.Args))
			for _, a := range e.Args {
				t, c := an.checkExpr(a, sc)
				an.record(a, t, c)
				argTypes = append(argTypes, t)
			}
			_, _, ret, err := stdlibSignature(id, argTypes)
			if err != nil {
				panic(err)
			}
			an.ann.StdCalls[e] = id
			return ret, nil
		}
		an.fail(NotCallable, an.pos(e), "%q is not a known standard-library function", joinPath(callee.Segments))
	case *ast.Member:
		rt, rc := an.checkExpr(callee.Receiver, sc)
		an.record(callee.Receiver, rt, rc)
		st, ok := rt.(*types.Struct)
		if !ok {
			an.fail(NotCallable, an.pos(e), "method call requires a struct receiver, found %s", rt)
		}
		fi, ok := an.implMethods[st.Name+"::"+callee.Field]
		if !ok {
			an.fail(NotCallable, an.pos(e), "%q has no method %q", st.Name, callee.Field)
		}
		params := fi.Params
		if len(params) > 0 && params[0].Name == "self" {
			if !types.Equal(params[0].Type, rt) {
				an.fail(TypeMismatch, an.pos(callee.Receiver), "method %q: expected receiver %s, found %s", fi.Name, params[0].Type, rt)
			}
			params = params[1:]
		}
		an.checkArgs(e, fi.Name, params, sc)
		an.ann.Calls[e] = fi
		return fi.Return, nil
	}
	an.fail(NotCallable, an.pos(e), "expression is not callable")
	return nil, nil
}

func (an *Analyzer) checkArgs(e *ast.Call, fnName string, params []types.StructField, sc scopeHandle) {
	if len(e.Args) != len(params) {
		an.fail(ArgumentCountMismatch, an.pos(e), "%q expects %d argument(s), found %d", fnName, len(params), len(e.Args))
	}
	for i, arg := range e.Args {
		t, c := an.checkExpr(arg, sc)
		param := params[i]
		if !types.Equal(t, param.Type) {
			if coerced, ok := an.coerceInteger(c, param.Type); ok {
				an.record(arg, coerced.Type, coerced)
				continue
			}
			panic(SemanticError{
				Kind:         FunctionArgumentTypeMismatch,
				Position:     an.pos(arg),
				FunctionName: fnName,
				ArgName:      param.Name,
				Expected:     param.Type.String(),
				Found:        t.String(),
			})
		}
		an.record(arg, t, c)
	}
}

func (an *Analyzer) checkArrayLiteral(e *ast.ArrayLiteral, sc scopeHandle) (types.Type, *ConstValue) {
	if len(e.Elements) == 0 {
		an.fail(TypeMismatch, an.pos(e), "cannot infer the type of an empty array literal")
	}
	first, firstConst := an.checkExpr(e.Elements[0], sc)
	an.record(e.Elements[0], first, firstConst)
	for _, el := range e.Elements[1:] {
		t, c := an.checkExpr(el, sc)
		an.record(el, t, c)
		if !types.Equal(t, first) {
			an.fail(TypeMismatch, an.pos(el), "array elements must share a type: expected %s, found %s", first, t)
		}
	}
	return &types.Array{Elem: first, Len: len(e.Elements)}, nil
}

func (an *Analyzer) checkTupleLiteral(e *ast.TupleLiteral, sc scopeHandle) (types.Type, *ConstValue) {
	if len(e.Elements) == 0 {
		return types.Unit{}, nil
	}
	elems := make([]types.Type, 0, len(e.Elements))
	for _, el := range e.Elements {
		t, c := an.checkExpr(el, sc)
		an.record(el, t, c)
		elems = append(elems, t)
	}
	return &types.Tuple{Elems: elems}, nil
}

func (an *Analyzer) checkStructInit(e *ast.StructInit, sc scopeHandle) (types.Type, *ConstValue) {
	st, ok := an.structs[e.TypeName]
	if !ok {
		an.fail(UndeclaredName, an.pos(e), "undeclared struct %q", e.TypeName)
	}
	if len(e.Fields) != len(st.Fields) {
		an.fail(ArgumentCountMismatch, an.pos(e), "struct %q expects %d field(s), found %d", e.TypeName, len(st.Fields), len(e.Fields))
	}
	for _, given := range e.Fields {
		var expected types.Type
		found := false
		for _, f := range st.Fields {
			if f.Name == given.Name {
				expected, found = f.Type, true
				break
			}
		}
		if !found {
			an.fail(UndeclaredName, an.pos(e), "struct %q has no field %q", e.TypeName, given.Name)
		}
		t, c := an.checkExpr(given.Value, sc)
		if !types.Equal(t, expected) {
			if coerced, ok := an.coerceInteger(c, expected); ok {
				an.record(given.Value, coerced.Type, coerced)
				continue
			}
			an.fail(TypeMismatch, an.pos(given.Value), "field %q: expected %s, found %s", given.Name, expected, t)
		}
		an.record(given.Value, t, c)
	}
	return st, nil
}

func (an *Analyzer) checkIfExpr(e *ast.IfExpr, sc scopeHandle) (types.Type, *ConstValue) {
	ct, cc := an.checkExpr(e.Condition, sc)
	an.record(e.Condition, ct, cc)
	if _, ok := ct.(types.Bool); !ok {
		an.fail(TypeMismatch, an.pos(e), "if condition must be bool, found %s", ct)
	}
	thenType := an.checkBlockIn(e.Then, sc)
	if e.Else == nil {
		if !isUnit(thenType) {
			an.fail(TypeMismatch, an.pos(e.Then), "if without else must have unit type, found %s", thenType)
		}
		return types.Unit{}, nil
	}
	var elseType types.Type
	switch el := e.Else.(type) {
	case *ast.BlockExpr:
		elseType = an.checkBlockIn(el, sc)
	case *ast.IfExpr:
		elseType, _ = an.checkIfExpr(el, sc)
	}
	if !types.Equal(thenType, elseType) {
		an.fail(TypeMismatch, an.pos(e), "if/else branches must share a type: %s vs %s", thenType, elseType)
	}
	return thenType, nil
}

func (an *Analyzer) checkMatchExpr(e *ast.MatchExpr, sc scopeHandle) (types.Type, *ConstValue) {
	scrutType, _ := an.checkExpr(e.Scrutinee, sc)
	an.record(e.Scrutinee, scrutType, nil)

	var resultType types.Type
	exhaustive := false
	for i, arm := range e.Arms {
		armScope := an.scopes.push(sc)
		an.bindPattern(arm.Pattern, scrutType, armScope)
		bodyType, bodyConst := an.checkExpr(arm.Body, armScope)
		if i == 0 {
			resultType = bodyType
		} else if !types.Equal(resultType, bodyType) {
			if coerced, ok := an.coerceInteger(bodyConst, resultType); ok {
				bodyType, bodyConst = coerced.Type, coerced
			} else {
				an.fail(TypeMismatch, an.pos(arm.Body), "match arms must share a type: %s vs %s", resultType, bodyType)
			}
		}
		an.record(arm.Body, bodyType, bodyConst)
		if i == len(e.Arms)-1 {
			switch arm.Pattern.(type) {
			case *ast.WildcardPattern, *ast.BindingPattern:
				exhaustive = true
			}
		}
	}
	if !exhaustive {
		an.fail(NonExhaustiveMatch, an.pos(e), "match is not exhaustive: add a trailing '_' or binding arm")
	}
	if resultType == nil {
		resultType = types.Unit{}
	}
	return resultType, nil
}

func (an *Analyzer) bindPattern(p ast.Pattern, scrutType types.Type, sc scopeHandle) {
	switch pat := p.(type) {
	case *ast.WildcardPattern:
	case *ast.BindingPattern:
		an.scopes.declare(sc, pat.Name, Binding{Kind: ItemValue, Type: scrutType, Mutable: false})
	case *ast.LiteralPattern:
		cv, ok, err := an.foldConst(pat.Literal, sc)
		if err != nil {
			panic(err)
		}
		if !ok {
			an.fail(TypeMismatch, an.pos(pat), "pattern literal must be a compile-time constant")
		}
		if !types.Equal(cv.Type, scrutType) {
			if coerced, ok2 := an.coerceInteger(cv, scrutType); ok2 {
				cv = coerced
			} else {
				an.fail(TypeMismatch, an.pos(pat), "pattern type %s does not match scrutinee type %s", cv.Type, scrutType)
			}
		}
		an.record(pat.Literal, cv.Type, cv)
	case *ast.PathPattern:
		an.checkPathValue(&ast.Path{Segments: pat.Segments, Position: pat.Position}, sc)
	case *ast.TuplePattern:
		tup, ok := scrutType.(*types.Tuple)
		if !ok || len(tup.Elems) != len(pat.Elements) {
			an.fail(TypeMismatch, an.pos(pat), "tuple pattern arity mismatch for %s", scrutType)
		}
		for i, sub := range pat.Elements {
			an.bindPattern(sub, tup.Elems[i], sc)
		}
	}
}

func (an *Analyzer) checkAssign(e *ast.Assign, sc scopeHandle) (types.Type, *ConstValue) {
	targetType := an.checkPlace(e.Target, sc)
	vt, vc := an.checkExpr(e.Value, sc)
	if !types.Equal(targetType, vt) {
		if coerced, ok := an.coerceInteger(vc, targetType); ok {
			an.record(e.Value, coerced.Type, coerced)
			return types.Unit{}, nil
		}
		an.fail(TypeMismatch, an.pos(e), "assignment: expected %s, found %s", targetType, vt)
	}
	an.record(e.Value, vt, vc)
	return types.Unit{}, nil
}

func (an *Analyzer) checkCompoundAssign(e *ast.CompoundAssign, sc scopeHandle) (types.Type, *ConstValue) {
	targetType := an.checkPlace(e.Target, sc)
	synthetic := &ast.Binary{Left: e.Target, Operator: e.Operator, Right: e.Value, Position: e.Position}
	resultType, _ := an.checkBinary(synthetic, sc)
	if !types.Equal(resultType, targetType) {
		an.fail(TypeMismatch, an.pos(e), "compound assignment result %s does not match target %s", resultType, targetType)
	}
	return types.Unit{}, nil
}

// checkPlace resolves an lvalue expression's type and verifies it is
// mutable (spec.md §4.3 "AssignmentToImmutable").
func (an *Analyzer) checkPlace(expr ast.Expression, sc scopeHandle) types.Type {
	switch e := expr.(type) {
	case *ast.Identifier:
		b, ok := an.scopes.lookup(sc, e.Name)
		if !ok {
			an.fail(UndeclaredName, an.pos(e), "undeclared name %q", e.Name)
		}
		if !b.Mutable {
			an.fail(AssignmentToImmutable, an.pos(e), "%q is not declared 'mut'", e.Name)
		}
		return b.Type
	case *ast.Index:
		ct := an.checkPlace(e.Collection, sc)
		arr, ok := ct.(*types.Array)
		if !ok {
			an.fail(TypeMismatch, an.pos(e), "index target must be an array, found %s", ct)
		}
		st, subConst := an.checkExpr(e.Subscript, sc)
		an.record(e.Subscript, st, subConst)
		if !types.IsInteger(st) {
			if _, ok := st.(*types.Range); !ok {
				an.fail(OperatorIndexSecondOperandExpectedIntegerOrRange, an.pos(e), "index operand must be an integer or a range, found %s", st)
			}
		}
		return arr.Elem
	case *ast.Member:
		rt := an.checkPlace(e.Receiver, sc)
		st, ok := rt.(*types.Struct)
		if !ok {
			an.fail(TypeMismatch, an.pos(e), "member target must be a struct, found %s", rt)
		}
		for _, f := range st.Fields {
			if f.Name == e.Field {
				return f.Type
			}
		}
		an.fail(UndeclaredName, an.pos(e), "struct %q has no field %q", st.Name, e.Field)
	}
	an.fail(TypeMismatch, an.pos(expr), "expression is not assignable")
	return nil
}

func isUnit(t types.Type) bool {
	_, ok := t.(types.Unit)
	return ok
}

func joinPath(segments []string) string {
	s := ""
	for i, seg := range segments {
		if i > 0 {
			s += "::"
		}
		s += seg
	}
	return s
}
