package parser_test

import (
	"strings"
	"testing"

	"github.com/cwbudde/go-rating/internal/ast"
	"github.com/cwbudde/go-rating/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Block {
	t.Helper()
	block, err := parser.Parse("test", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return block
}

func TestParseReturnArithmetic(t *testing.T) {
	block := mustParse(t, "return 1 + 2 * 3")
	ret, ok := block.Stmt.(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected ReturnStmt, got %T", block.Stmt)
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", ret.Value)
	}
	if bin.Op != ast.BinAdd {
		t.Fatalf("expected top-level operator to be '+' (lowest precedence binds loosest), got %v", bin.Op)
	}
	rhs, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || rhs.Op != ast.BinMul {
		t.Fatalf("expected right side to be a '*' expression, got %#v", bin.Right)
	}
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	block := mustParse(t, "return 2 ^ 3 ^ 2")
	ret := block.Stmt.(*ast.ReturnStmt)
	top, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || top.Op != ast.BinPow {
		t.Fatalf("expected top-level '^', got %#v", ret.Value)
	}
	right, ok := top.Right.(*ast.BinaryExpr)
	if !ok || right.Op != ast.BinPow {
		t.Fatalf("expected right-associative nesting, got %#v", top.Right)
	}
}

func TestParseIfElseIfElseEnd(t *testing.T) {
	src := `if (a == 1) then
  return 'one'
else if (a == 2) then
  return 'two'
else
  return 'other'
end`
	block := mustParse(t, src)
	ifStmt, ok := block.Stmt.(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", block.Stmt)
	}
	if len(ifStmt.Branches) != 2 {
		t.Fatalf("expected 2 branches (if + else if), got %d", len(ifStmt.Branches))
	}
	if ifStmt.Else == nil {
		t.Fatalf("expected a trailing else block")
	}
}

func TestParseFunctionCall(t *testing.T) {
	block := mustParse(t, "return max(1, substr('abc', 1, 2))")
	ret := block.Stmt.(*ast.ReturnStmt)
	call, ok := ret.Value.(*ast.CallExpr)
	if !ok || call.Name != "max" {
		t.Fatalf("expected call to max, got %#v", ret.Value)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}
	inner, ok := call.Args[1].(*ast.CallExpr)
	if !ok || inner.Name != "substr" {
		t.Fatalf("expected nested call to substr, got %#v", call.Args[1])
	}
}

func TestParseErrorCallStatement(t *testing.T) {
	block := mustParse(t, "error(42)")
	stmt, ok := block.Stmt.(*ast.ErrorCallStmt)
	if !ok {
		t.Fatalf("expected ErrorCallStmt, got %T", block.Stmt)
	}
	if len(stmt.Call.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(stmt.Call.Args))
	}
}

func TestParseUnaryOperators(t *testing.T) {
	block := mustParse(t, "return -1 + !true")
	ret := block.Stmt.(*ast.ReturnStmt)
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", ret.Value)
	}
	if _, ok := bin.Left.(*ast.UnaryExpr); !ok {
		t.Fatalf("expected left side to be unary negation, got %#v", bin.Left)
	}
	if _, ok := bin.Right.(*ast.UnaryExpr); !ok {
		t.Fatalf("expected right side to be unary not, got %#v", bin.Right)
	}
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	block := mustParse(t, "return (1 + 2) * 3")
	ret := block.Stmt.(*ast.ReturnStmt)
	top, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || top.Op != ast.BinMul {
		t.Fatalf("expected top-level '*', got %#v", ret.Value)
	}
	if _, ok := top.Left.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected left side to be the parenthesized addition, got %#v", top.Left)
	}
}

func TestParseCollectsMultipleErrors(t *testing.T) {
	_, err := parser.Parse("broken", "if (1 + ) then return 1 end")
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	if !strings.Contains(err.Error(), "more error") {
		t.Fatalf("expected the error to report further collected errors, got %v", err)
	}
}

func TestParseMissingEndIsAnError(t *testing.T) {
	_, err := parser.Parse("broken", "if (true) then return 1")
	if err == nil {
		t.Fatalf("expected a parse error for a missing 'end'")
	}
}

func TestParseTrailingCommentHonored(t *testing.T) {
	block := mustParse(t, "return 1 // trailing comment, no newline")
	if _, ok := block.Stmt.(*ast.ReturnStmt); !ok {
		t.Fatalf("expected ReturnStmt, got %T", block.Stmt)
	}
}
