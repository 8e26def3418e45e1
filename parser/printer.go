package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"ferrite/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements every visitor interface in ast and builds a
// JSON-friendly representation of the tree using maps and slices. Each
// Visit method returns a value that can be marshaled directly.
type astPrinter struct{}

func nilOrAcceptExpr(e ast.Expression, p astPrinter) any {
	if e == nil {
		return nil
	}
	return e.Accept(p)
}

func (p astPrinter) exprList(exprs []ast.Expression) []any {
	out := make([]any, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, e.Accept(p))
	}
	return out
}

func (p astPrinter) VisitBinary(e *ast.Binary) any {
	return map[string]any{"type": "Binary", "operator": e.Operator.Lexeme, "left": e.Left.Accept(p), "right": e.Right.Accept(p)}
}

func (p astPrinter) VisitUnary(e *ast.Unary) any {
	return map[string]any{"type": "Unary", "operator": e.Operator.Lexeme, "right": e.Right.Accept(p)}
}

func (p astPrinter) VisitIntegerLiteral(e *ast.IntegerLiteral) any {
	return map[string]any{"type": "IntegerLiteral", "digits": e.Digits, "base": int(e.Base)}
}

func (p astPrinter) VisitBoolLiteral(e *ast.BoolLiteral) any {
	return map[string]any{"type": "BoolLiteral", "value": e.Value}
}

func (p astPrinter) VisitStringLiteral(e *ast.StringLiteral) any {
	return map[string]any{"type": "StringLiteral", "value": e.Value}
}

func (p astPrinter) VisitGrouping(e *ast.Grouping) any {
	return map[string]any{"type": "Grouping", "expression": e.Expression.Accept(p)}
}

func (p astPrinter) VisitIdentifier(e *ast.Identifier) any {
	return map[string]any{"type": "Identifier", "name": e.Name}
}

func (p astPrinter) VisitPath(e *ast.Path) any {
	return map[string]any{"type": "Path", "segments": e.Segments}
}

func (p astPrinter) VisitAssign(e *ast.Assign) any {
	return map[string]any{"type": "Assign", "target": e.Target.Accept(p), "value": e.Value.Accept(p)}
}

func (p astPrinter) VisitCompoundAssign(e *ast.CompoundAssign) any {
	return map[string]any{
		"type": "CompoundAssign", "operator": e.Operator.Lexeme,
		"target": e.Target.Accept(p), "value": e.Value.Accept(p),
	}
}

func (p astPrinter) VisitLogical(e *ast.Logical) any {
	return map[string]any{"type": "Logical", "operator": e.Operator.Lexeme, "left": e.Left.Accept(p), "right": e.Right.Accept(p)}
}

func (p astPrinter) VisitRange(e *ast.Range) any {
	return map[string]any{"type": "Range", "low": e.Low.Accept(p), "high": e.High.Accept(p), "inclusive": e.Inclusive}
}

func (p astPrinter) VisitIndex(e *ast.Index) any {
	return map[string]any{"type": "Index", "collection": e.Collection.Accept(p), "subscript": e.Subscript.Accept(p)}
}

func (p astPrinter) VisitMember(e *ast.Member) any {
	return map[string]any{"type": "Member", "receiver": e.Receiver.Accept(p), "field": e.Field}
}

func (p astPrinter) VisitCall(e *ast.Call) any {
	return map[string]any{"type": "Call", "callee": e.Callee.Accept(p), "args": p.exprList(e.Args)}
}

func (p astPrinter) VisitCast(e *ast.Cast) any {
	return map[string]any{"type": "Cast", "operand": e.Operand.Accept(p), "target": e.Target}
}

func (p astPrinter) VisitArrayLiteral(e *ast.ArrayLiteral) any {
	return map[string]any{"type": "ArrayLiteral", "elements": p.exprList(e.Elements)}
}

func (p astPrinter) VisitTupleLiteral(e *ast.TupleLiteral) any {
	return map[string]any{"type": "TupleLiteral", "elements": p.exprList(e.Elements)}
}

func (p astPrinter) VisitStructInit(e *ast.StructInit) any {
	fields := make(map[string]any, len(e.Fields))
	for _, f := range e.Fields {
		fields[f.Name] = f.Value.Accept(p)
	}
	return map[string]any{"type": "StructInit", "typeName": e.TypeName, "fields": fields}
}

func (p astPrinter) VisitBlockExpr(e *ast.BlockExpr) any {
	stmts := make([]any, 0, len(e.Statements))
	for _, s := range e.Statements {
		stmts = append(stmts, s.Accept(p))
	}
	return map[string]any{"type": "BlockExpr", "statements": stmts, "trailing": nilOrAcceptExpr(e.Trailing, p)}
}

func (p astPrinter) VisitIfExpr(e *ast.IfExpr) any {
	return map[string]any{
		"type": "IfExpr", "condition": e.Condition.Accept(p),
		"then": e.Then.Accept(p), "else": nilOrAcceptExpr(e.Else, p),
	}
}

func (p astPrinter) VisitMatchExpr(e *ast.MatchExpr) any {
	arms := make([]any, 0, len(e.Arms))
	for _, arm := range e.Arms {
		arms = append(arms, map[string]any{"pattern": arm.Pattern.Accept(p), "body": arm.Body.Accept(p)})
	}
	return map[string]any{"type": "MatchExpr", "scrutinee": e.Scrutinee.Accept(p), "arms": arms}
}

func (p astPrinter) VisitDbgExpr(e *ast.DbgExpr) any {
	return map[string]any{"type": "DbgExpr", "format": e.Format, "args": p.exprList(e.Args)}
}

func (p astPrinter) VisitAssertExpr(e *ast.AssertExpr) any {
	return map[string]any{"type": "AssertExpr", "condition": e.Condition.Accept(p), "message": e.Message}
}

func (p astPrinter) VisitExpressionStmt(s *ast.ExpressionStmt) any {
	return map[string]any{"type": "ExpressionStmt", "expression": s.Expression.Accept(p)}
}

func (p astPrinter) VisitLetStmt(s *ast.LetStmt) any {
	return map[string]any{
		"type": "LetStmt", "name": s.Name, "mutable": s.Mutable,
		"typeName": s.TypeName, "initializer": nilOrAcceptExpr(s.Initializer, p),
	}
}

func (p astPrinter) VisitConstStmt(s *ast.ConstStmt) any {
	return map[string]any{
		"type": "ConstStmt", "name": s.Name, "typeName": s.TypeName,
		"initializer": s.Initializer.Accept(p),
	}
}

func (p astPrinter) VisitForStmt(s *ast.ForStmt) any {
	return map[string]any{
		"type": "ForStmt", "variable": s.Variable,
		"iterable": s.Iterable.Accept(p), "body": s.Body.Accept(p),
	}
}

func (p astPrinter) VisitReturnStmt(s *ast.ReturnStmt) any {
	return map[string]any{"type": "ReturnStmt", "value": nilOrAcceptExpr(s.Value, p)}
}

func (p astPrinter) paramList(params []ast.Param) []any {
	out := make([]any, 0, len(params))
	for _, param := range params {
		out = append(out, map[string]any{"name": param.Name, "typeName": param.TypeName})
	}
	return out
}

func (p astPrinter) VisitFunctionItem(i *ast.FunctionItem) any {
	return map[string]any{
		"type": "FunctionItem", "name": i.Name, "public": i.Public,
		"params": p.paramList(i.Params), "returnType": i.ReturnType,
		"body": i.Body.Accept(p),
	}
}

func (p astPrinter) fieldList(fields []ast.FieldDecl) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, map[string]any{"name": f.Name, "typeName": f.TypeName})
	}
	return out
}

func (p astPrinter) VisitStructItem(i *ast.StructItem) any {
	return map[string]any{"type": "StructItem", "name": i.Name, "public": i.Public, "fields": p.fieldList(i.Fields)}
}

func (p astPrinter) VisitEnumItem(i *ast.EnumItem) any {
	variants := make([]any, 0, len(i.Variants))
	for _, v := range i.Variants {
		variants = append(variants, map[string]any{"name": v.Name, "discriminant": nilOrAcceptExpr(v.Discriminant, p)})
	}
	return map[string]any{"type": "EnumItem", "name": i.Name, "public": i.Public, "variants": variants}
}

func (p astPrinter) VisitTypeAliasItem(i *ast.TypeAliasItem) any {
	return map[string]any{"type": "TypeAliasItem", "name": i.Name, "underlying": i.Underlying}
}

func (p astPrinter) VisitImplItem(i *ast.ImplItem) any {
	fns := make([]any, 0, len(i.Functions))
	for _, fn := range i.Functions {
		fns = append(fns, fn.Accept(p))
	}
	return map[string]any{"type": "ImplItem", "typeName": i.TypeName, "functions": fns}
}

func (p astPrinter) VisitUseItem(i *ast.UseItem) any {
	return map[string]any{"type": "UseItem", "path": i.Path}
}

func (p astPrinter) VisitModItem(i *ast.ModItem) any {
	items := make([]any, 0, len(i.Items))
	for _, it := range i.Items {
		items = append(items, it.Accept(p))
	}
	return map[string]any{"type": "ModItem", "name": i.Name, "items": items}
}

func (p astPrinter) VisitContractItem(i *ast.ContractItem) any {
	var constructor any
	if i.Constructor != nil {
		constructor = i.Constructor.Accept(p)
	}
	methods := make([]any, 0, len(i.Methods))
	for _, m := range i.Methods {
		methods = append(methods, m.Accept(p))
	}
	return map[string]any{
		"type": "ContractItem", "name": i.Name, "storage": p.fieldList(i.Storage),
		"constructor": constructor, "methods": methods,
	}
}

func (p astPrinter) VisitBindingPattern(pat *ast.BindingPattern) any {
	return map[string]any{"type": "BindingPattern", "name": pat.Name}
}

func (p astPrinter) VisitWildcardPattern(pat *ast.WildcardPattern) any {
	return map[string]any{"type": "WildcardPattern"}
}

func (p astPrinter) VisitLiteralPattern(pat *ast.LiteralPattern) any {
	return map[string]any{"type": "LiteralPattern", "literal": pat.Literal.Accept(p)}
}

func (p astPrinter) VisitPathPattern(pat *ast.PathPattern) any {
	return map[string]any{"type": "PathPattern", "segments": pat.Segments}
}

func (p astPrinter) VisitTuplePattern(pat *ast.TuplePattern) any {
	elems := make([]any, 0, len(pat.Elements))
	for _, el := range pat.Elements {
		elems = append(elems, el.Accept(p))
	}
	return map[string]any{"type": "TuplePattern", "elements": elems}
}

// PrintASTJSON converts a parsed module into a prettified JSON string.
func PrintASTJSON(module *ast.Module) (string, error) {
	printer := astPrinter{}
	items := make([]any, 0, len(module.Items))
	for _, item := range module.Items {
		items = append(items, item.Accept(printer))
	}
	bytes, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(module *ast.Module, path string) error {
	s, err := PrintASTJSON(module)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}

	_, err = fDescriptor.Write([]byte(s))
	if err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	defer fDescriptor.Close()
	return nil
}
