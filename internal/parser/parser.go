// Package parser implements a hand-written recursive-descent / Pratt
// parser for the rating formula grammar: statements, if/else-if/else
// chains, and expressions with the usual precedence climb. It collects
// syntax errors across the whole input rather than aborting on the
// first one.
package parser

import (
	"strconv"
	"strings"

	"github.com/cwbudde/go-rating/internal/ast"
	"github.com/cwbudde/go-rating/internal/lexer"
)

// Parser consumes a token stream from a lexer.Lexer and builds an
// *ast.Block. Construct one with New and call Parse once.
type Parser struct {
	l    *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token

	errors []error
}

// New creates a Parser over src. Callers normally go through Parse(name,
// src), which appends a trailing newline first.
func New(src string) *Parser {
	p := &Parser{l: lexer.New(src)}
	p.next()
	p.next()
	return p
}

// Parse tokenizes and parses src as a complete formula body, returning the
// resulting Block or a *rterr.ParsingError-compatible error describing
// everything that went wrong. name identifies the formula in diagnostics.
func Parse(name, src string) (*ast.Block, error) {
	normalized := src
	if !strings.HasSuffix(normalized, "\n") {
		normalized += "\n"
	}
	p := New(normalized)
	block := p.parseBlock()

	for _, e := range p.l.Errors() {
		p.errors = append(p.errors, &lexErrorAdapter{e})
	}

	if len(p.errors) > 0 {
		return nil, newParsingError(name, normalized, p.errors)
	}
	return block, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
	// The grammar has no statement separators; blank lines and trailing
	// newlines are insignificant once tokenized, so the parser simply
	// skips NEWLINE tokens everywhere rather than threading them through
	// every production.
	for p.peek.Type == lexer.NEWLINE {
		p.peek = p.l.NextToken()
	}
}

func (p *Parser) addErrorf(pos lexer.Position, format string, args ...interface{}) {
	p.errors = append(p.errors, &syntaxError{pos: pos, msg: sprintf(format, args...)})
}

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	tok := p.cur
	if p.cur.Type != tt {
		p.addErrorf(p.cur.Pos, "expected %s, got %s %q", tt, p.cur.Type, p.cur.Literal)
	}
	p.next()
	return tok
}

// parseBlock parses `block := ifStatement | ('return' expression) | errorCall`.
func (p *Parser) parseBlock() *ast.Block {
	for p.cur.Type == lexer.NEWLINE {
		p.next()
	}
	switch p.cur.Type {
	case lexer.IF:
		return &ast.Block{Stmt: p.parseIfStmt()}
	case lexer.RETURN:
		return &ast.Block{Stmt: p.parseReturnStmt()}
	case lexer.IDENT:
		if strings.EqualFold(p.cur.Literal, "error") && p.peek.Type == lexer.LPAREN {
			return &ast.Block{Stmt: p.parseErrorCallStmt()}
		}
		p.addErrorf(p.cur.Pos, "expected 'if', 'return', or an error(...) call, got identifier %q", p.cur.Literal)
		return &ast.Block{Stmt: &ast.ReturnStmt{Value: &ast.NumberLit{ExprPos: p.cur.Pos}, StmtPos: p.cur.Pos}}
	default:
		pos := p.cur.Pos
		p.addErrorf(pos, "expected 'if', 'return', or an error(...) call, got %s %q", p.cur.Type, p.cur.Literal)
		return &ast.Block{Stmt: &ast.ReturnStmt{Value: &ast.NumberLit{ExprPos: pos}, StmtPos: pos}}
	}
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	pos := p.cur.Pos
	p.next() // consume 'return'
	value := p.parseExpression(precLowest)
	return &ast.ReturnStmt{Value: value, StmtPos: pos}
}

func (p *Parser) parseErrorCallStmt() *ast.ErrorCallStmt {
	pos := p.cur.Pos
	name := p.cur.Literal
	p.next() // consume 'error'
	call := p.parseCallExpr(name, pos)
	return &ast.ErrorCallStmt{Call: call, StmtPos: pos}
}

// parseIfStmt parses `ifHead elseIf* elseBlock? 'end'`.
func (p *Parser) parseIfStmt() *ast.IfStmt {
	stmt := &ast.IfStmt{StmtPos: p.cur.Pos}

	stmt.Branches = append(stmt.Branches, p.parseIfHead())
	for p.cur.Type == lexer.ELSE && p.peek.Type == lexer.IF {
		p.next() // consume 'else'
		stmt.Branches = append(stmt.Branches, p.parseIfHead())
	}
	if p.cur.Type == lexer.ELSE {
		p.next() // consume 'else'
		elseBlock := p.parseBlock()
		stmt.Else = elseBlock
	}
	p.expect(lexer.END)
	return stmt
}

// parseIfHead parses `'if' '(' expression ')' 'then' block`, and is reused
// for each `else if` clause (there the caller has already consumed the
// `else`; parseIfHead itself consumes the `if`).
func (p *Parser) parseIfHead() ast.IfBranch {
	p.expect(lexer.IF)
	p.expect(lexer.LPAREN)
	cond := p.parseExpression(precLowest)
	p.expect(lexer.RPAREN)
	p.expect(lexer.THEN)
	body := p.parseBlock()
	return ast.IfBranch{Cond: cond, Body: body}
}

// Operator precedence, lowest to highest:
//
//	|| , && , == !=, < <= > >=, + -, * / mod, ^ (right assoc), unary - / !
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precPower
	precUnary
)

func precedenceOf(tt lexer.TokenType) int {
	switch tt {
	case lexer.OR:
		return precOr
	case lexer.AND:
		return precAnd
	case lexer.EQ, lexer.NEQ:
		return precEquality
	case lexer.LT, lexer.LTE, lexer.GT, lexer.GTE:
		return precRelational
	case lexer.PLUS, lexer.MINUS:
		return precAdditive
	case lexer.STAR, lexer.SLASH, lexer.MOD:
		return precMultiplicative
	case lexer.CARET:
		return precPower
	default:
		return precLowest
	}
}

func binaryOpOf(tt lexer.TokenType) ast.BinaryOp {
	switch tt {
	case lexer.OR:
		return ast.BinOr
	case lexer.AND:
		return ast.BinAnd
	case lexer.EQ:
		return ast.BinEq
	case lexer.NEQ:
		return ast.BinNeq
	case lexer.LT:
		return ast.BinLt
	case lexer.LTE:
		return ast.BinLte
	case lexer.GT:
		return ast.BinGt
	case lexer.GTE:
		return ast.BinGte
	case lexer.PLUS:
		return ast.BinAdd
	case lexer.MINUS:
		return ast.BinSub
	case lexer.STAR:
		return ast.BinMul
	case lexer.SLASH:
		return ast.BinDiv
	case lexer.MOD:
		return ast.BinMod
	case lexer.CARET:
		return ast.BinPow
	default:
		return ast.BinAdd
	}
}

// parseExpression implements precedence climbing. ^ is right-associative,
// so its recursive call uses its own precedence rather than precedence+1.
func (p *Parser) parseExpression(minPrec int) ast.Expr {
	left := p.parseUnary()

	for {
		prec := precedenceOf(p.cur.Type)
		if prec == precLowest || prec < minPrec {
			return left
		}
		op := p.cur
		nextMinPrec := prec + 1
		if op.Type == lexer.CARET {
			nextMinPrec = prec // right-associative
		}
		p.next()
		right := p.parseExpression(nextMinPrec)
		left = &ast.BinaryExpr{Op: binaryOpOf(op.Type), Left: left, Right: right, ExprPos: op.Pos}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Type {
	case lexer.MINUS:
		pos := p.cur.Pos
		p.next()
		operand := p.parseExpression(precUnary)
		return &ast.UnaryExpr{Op: ast.UnaryNeg, Operand: operand, ExprPos: pos}
	case lexer.BANG:
		pos := p.cur.Pos
		p.next()
		operand := p.parseExpression(precUnary)
		return &ast.UnaryExpr{Op: ast.UnaryNot, Operand: operand, ExprPos: pos}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Type {
	case lexer.NUMBER:
		tok := p.cur
		p.next()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addErrorf(tok.Pos, "invalid number literal %q", tok.Literal)
		}
		return &ast.NumberLit{Value: v, ExprPos: tok.Pos}
	case lexer.STRING:
		tok := p.cur
		p.next()
		return &ast.StringLit{Value: tok.Literal, ExprPos: tok.Pos}
	case lexer.TRUE:
		pos := p.cur.Pos
		p.next()
		return &ast.BoolLit{Value: true, ExprPos: pos}
	case lexer.FALSE:
		pos := p.cur.Pos
		p.next()
		return &ast.BoolLit{Value: false, ExprPos: pos}
	case lexer.LPAREN:
		p.next()
		inner := p.parseExpression(precLowest)
		p.expect(lexer.RPAREN)
		return inner
	case lexer.IDENT:
		tok := p.cur
		p.next()
		if p.cur.Type == lexer.LPAREN {
			return p.parseCallExpr(tok.Literal, tok.Pos)
		}
		return &ast.Identifier{Name: tok.Literal, ExprPos: tok.Pos}
	default:
		pos := p.cur.Pos
		p.addErrorf(pos, "unexpected token %s %q in expression", p.cur.Type, p.cur.Literal)
		p.next()
		return &ast.NumberLit{ExprPos: pos}
	}
}

func (p *Parser) parseCallExpr(name string, pos lexer.Position) *ast.CallExpr {
	p.expect(lexer.LPAREN)
	var args []ast.Expr
	if p.cur.Type != lexer.RPAREN {
		args = append(args, p.parseExpression(precLowest))
		for p.cur.Type == lexer.COMMA {
			p.next()
			args = append(args, p.parseExpression(precLowest))
		}
	}
	p.expect(lexer.RPAREN)
	return &ast.CallExpr{Name: name, Args: args, ExprPos: pos}
}
