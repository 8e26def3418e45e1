package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ferrite/ast"
	"ferrite/token"
)

func TestPrintASTJSON_IntegerLiteral(t *testing.T) {
	module := &ast.Module{Items: []ast.Item{
		&ast.FunctionItem{
			Name: "answer",
			Body: &ast.BlockExpr{Trailing: &ast.IntegerLiteral{Digits: "42", Base: token.Decimal}},
		},
	}}

	jsonString, err := PrintASTJSON(module)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonString), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "FunctionItem" {
		t.Fatalf("expected type FunctionItem, got %v", node["type"])
	}
	body := node["body"].(map[string]any)
	trailing := body["trailing"].(map[string]any)
	if digits, ok := trailing["digits"].(string); !ok || digits != "42" {
		t.Fatalf("expected digits '42', got %v", trailing["digits"])
	}
}

func TestPrintASTJSON_LetStmt_NilInitializer(t *testing.T) {
	module := &ast.Module{Items: []ast.Item{
		&ast.FunctionItem{
			Name: "f",
			Body: &ast.BlockExpr{Statements: []ast.Stmt{
				&ast.LetStmt{Name: "x", Initializer: nil},
			}},
		},
	}}

	jsonStr, err := PrintASTJSON(module)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	body := out[0]["body"].(map[string]any)
	stmts := body["statements"].([]any)
	node := stmts[0].(map[string]any)
	if typ, ok := node["type"].(string); !ok || typ != "LetStmt" {
		t.Fatalf("expected type LetStmt, got %v", node["type"])
	}
	if nameVal, ok := node["name"].(string); !ok || nameVal != "x" {
		t.Fatalf("expected name 'x', got %v", node["name"])
	}
	if initVal, exists := node["initializer"]; !exists || initVal != nil {
		t.Fatalf("expected initializer to be nil, got %v", initVal)
	}
}

func TestPrintASTJSON_BinaryExpression(t *testing.T) {
	module := &ast.Module{Items: []ast.Item{
		&ast.FunctionItem{
			Name: "f",
			Body: &ast.BlockExpr{Statements: []ast.Stmt{
				&ast.ExpressionStmt{Expression: &ast.Binary{
					Left:     &ast.IntegerLiteral{Digits: "1", Base: token.Decimal},
					Operator: token.CreateToken(token.PLUS, 0, 0),
					Right:    &ast.IntegerLiteral{Digits: "2", Base: token.Decimal},
				}},
			}},
		},
	}}

	jsonStr, err := PrintASTJSON(module)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	body := out[0]["body"].(map[string]any)
	stmts := body["statements"].([]any)
	node := stmts[0].(map[string]any)
	if typ, ok := node["type"].(string); !ok || typ != "ExpressionStmt" {
		t.Fatalf("expected type ExpressionStmt, got %v", node["type"])
	}

	expr, ok := node["expression"].(map[string]any)
	if !ok {
		t.Fatalf("expected expression object, got %v", node["expression"])
	}

	if typ, ok := expr["type"].(string); !ok || typ != "Binary" {
		t.Fatalf("expected Binary expression, got %v", expr["type"])
	}

	if op, ok := expr["operator"].(string); !ok || op != "+" {
		t.Fatalf("expected operator '+', got %v", expr["operator"])
	}

	left := expr["left"].(map[string]any)
	right := expr["right"].(map[string]any)
	if digits, ok := left["digits"].(string); !ok || digits != "1" {
		t.Fatalf("expected left digits '1', got %v", left["digits"])
	}
	if digits, ok := right["digits"].(string); !ok || digits != "2" {
		t.Fatalf("expected right digits '2', got %v", right["digits"])
	}
}

func TestWriteASTJSONToFile(t *testing.T) {
	module := &ast.Module{Items: []ast.Item{
		&ast.FunctionItem{
			Name: "greet",
			Body: &ast.BlockExpr{Trailing: &ast.StringLiteral{Value: "hello ferrite!"}},
		},
	}}

	filePath := filepath.Join(os.TempDir(), "ferrite_ast_printer_test.json")
	defer os.Remove(filePath)

	if err := WriteASTJSONToFile(module, filePath); err != nil {
		t.Fatalf("WriteASTJSONToFile error: %v", err)
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal(bytes, &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "FunctionItem" {
		t.Fatalf("expected type FunctionItem, got %v", node["type"])
	}
	body := node["body"].(map[string]any)
	trailing := body["trailing"].(map[string]any)
	if val, ok := trailing["value"].(string); !ok || val != "hello ferrite!" {
		t.Fatalf("expected trailing value 'hello ferrite!', got %v", trailing["value"])
	}
}
