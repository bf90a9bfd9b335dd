// Package ast defines the parse tree produced by internal/parser and
// walked by internal/eval. Nodes are immutable once built, so a single
// parsed formula can be cached and evaluated many times (once per
// instance id) without copying.
package ast

import "github.com/cwbudde/go-rating/internal/lexer"

// Node is implemented by every parse tree node; Pos reports where in the
// source text the node begins, for error reporting.
type Node interface {
	Pos() lexer.Position
}

// Stmt is implemented by the three forms a Block may take.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Block is the root of a parsed formula: exactly one of an IfStmt, a
// ReturnStmt, or an ErrorCallStmt, per the grammar's
// `block := ifStatement | ('return' expression) | errorCall`.
type Block struct {
	Stmt Stmt
}

func (b *Block) Pos() lexer.Position { return b.Stmt.Pos() }

// IfStmt represents `if (cond) then block (else if (cond) then block)* (else block)? end`.
type IfStmt struct {
	Branches []IfBranch // first entry is the `if`, rest are `else if`
	Else     *Block     // nil if there is no trailing `else`
	StmtPos  lexer.Position
}

// IfBranch is one `(cond) then block` clause of an IfStmt.
type IfBranch struct {
	Cond Expr
	Body *Block
}

func (s *IfStmt) Pos() lexer.Position { return s.StmtPos }
func (*IfStmt) stmtNode()             {}

// ReturnStmt represents `return expression`.
type ReturnStmt struct {
	Value   Expr
	StmtPos lexer.Position
}

func (s *ReturnStmt) Pos() lexer.Position { return s.StmtPos }
func (*ReturnStmt) stmtNode()             {}

// ErrorCallStmt represents a bare `error(code)` call used as a block's
// entire body, aborting the calculation.
type ErrorCallStmt struct {
	Call    *CallExpr
	StmtPos lexer.Position
}

func (s *ErrorCallStmt) Pos() lexer.Position { return s.StmtPos }
func (*ErrorCallStmt) stmtNode()             {}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value   float64
	ExprPos lexer.Position
}

func (n *NumberLit) Pos() lexer.Position { return n.ExprPos }
func (*NumberLit) exprNode()             {}

// StringLit is a single-quoted string literal, with escapes resolved.
type StringLit struct {
	Value   string
	ExprPos lexer.Position
}

func (n *StringLit) Pos() lexer.Position { return n.ExprPos }
func (*StringLit) exprNode()             {}

// BoolLit is the `true`/`false` keyword literal.
type BoolLit struct {
	Value   bool
	ExprPos lexer.Position
}

func (n *BoolLit) Pos() lexer.Position { return n.ExprPos }
func (*BoolLit) exprNode()             {}

// Identifier is a variable reference, resolved case-insensitively at
// evaluation time via eval.Context.
type Identifier struct {
	Name    string
	ExprPos lexer.Position
}

func (n *Identifier) Pos() lexer.Position { return n.ExprPos }
func (*Identifier) exprNode()             {}

// UnaryOp identifies the operator of a UnaryExpr.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota // -
	UnaryNot                // !
)

// UnaryExpr is a prefix operator applied to a single operand.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
	ExprPos lexer.Position
}

func (n *UnaryExpr) Pos() lexer.Position { return n.ExprPos }
func (*UnaryExpr) exprNode()             {}

// BinaryOp identifies the operator of a BinaryExpr.
type BinaryOp int

const (
	BinOr BinaryOp = iota
	BinAnd
	BinEq
	BinNeq
	BinLt
	BinLte
	BinGt
	BinGte
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinMod
	BinPow
)

// BinaryExpr is an infix operator applied to two operands.
type BinaryExpr struct {
	Op      BinaryOp
	Left    Expr
	Right   Expr
	ExprPos lexer.Position
}

func (n *BinaryExpr) Pos() lexer.Position { return n.ExprPos }
func (*BinaryExpr) exprNode()             {}

// CallExpr is a call to a built-in, host-registered, or formula-defined
// function; Name is matched case-insensitively.
type CallExpr struct {
	Name    string
	Args    []Expr
	ExprPos lexer.Position
}

func (n *CallExpr) Pos() lexer.Position { return n.ExprPos }
func (*CallExpr) exprNode()             {}
