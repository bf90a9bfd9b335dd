package eval

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cwbudde/go-rating/internal/ast"
	"github.com/cwbudde/go-rating/internal/builtins"
	"github.com/cwbudde/go-rating/internal/function"
	"github.com/cwbudde/go-rating/internal/lexer"
	"github.com/cwbudde/go-rating/internal/parser"
	"github.com/cwbudde/go-rating/internal/rterr"
	"github.com/cwbudde/go-rating/internal/value"
	"github.com/cwbudde/go-rating/pkg/ident"
)

// Evaluator walks a parsed formula's *ast.Block against a Context. One
// Evaluator is created per formula being evaluated (it carries that
// formula's name and source text for error messages); Context is shared
// across the whole Calculate call (or, for a function body, its own
// child Context).
type Evaluator struct {
	ctx         *Context
	formulaName string
	source      string
}

// New creates an Evaluator for one formula's parsed body.
func New(ctx *Context, formulaName, source string) *Evaluator {
	return &Evaluator{ctx: ctx, formulaName: formulaName, source: source}
}

// Context returns the Evaluator's underlying scope.
func (e *Evaluator) Context() *Context { return e.ctx }

// result threads a block's outcome back up through nested if/elseIf/else
// bodies without panicking: returned is true once a `return` or
// `error(...)` statement has fired anywhere in the block, at which point
// every enclosing call simply forwards value/err unchanged.
type result struct {
	value    value.Value
	err      error
	returned bool
}

// Eval walks block and returns its value. A block that reaches no
// `return`/`error(...)` (only possible via an `if` with no matching
// branch and no `else`) yields void.
func (e *Evaluator) Eval(block *ast.Block) (value.Value, error) {
	r := e.evalStmt(block.Stmt)
	return r.value, r.err
}

func (e *Evaluator) evalStmt(stmt ast.Stmt) result {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		v, err := e.evalExpr(s.Value)
		return result{value: v, err: err, returned: true}
	case *ast.ErrorCallStmt:
		return e.evalErrorCall(s)
	case *ast.IfStmt:
		return e.evalIfStmt(s)
	default:
		return result{err: e.evalErrf(stmt.Pos(), "internal error: unknown statement type %T", stmt)}
	}
}

func (e *Evaluator) evalErrorCall(s *ast.ErrorCallStmt) result {
	if len(s.Call.Args) != 1 {
		return result{err: rterr.ArityMismatch(e.formulaName, "error", 1, len(s.Call.Args), e.source, toPos(s.StmtPos))}
	}
	arg, err := e.evalExpr(s.Call.Args[0])
	if err != nil {
		return result{err: err}
	}
	if !arg.IsNumber() {
		return result{err: e.evalErrf(s.StmtPos, "error(...) expects a number argument, got %s", arg.TypeName())}
	}
	code := value.Number(arg.AsNumber()).Stringify()
	return result{err: rterr.Cancelled(code), returned: true}
}

func (e *Evaluator) evalIfStmt(s *ast.IfStmt) result {
	for _, branch := range s.Branches {
		cond, err := e.evalExpr(branch.Cond)
		if err != nil {
			return result{err: err}
		}
		if !cond.IsBool() {
			return result{err: e.evalErrf(branch.Cond.Pos(), "if condition must be a bool, got %s", cond.TypeName())}
		}
		if cond.AsBool() {
			return e.evalStmt(branch.Body.Stmt)
		}
	}
	if s.Else != nil {
		return e.evalStmt(s.Else.Stmt)
	}
	return result{value: value.VoidValue()}
}

func (e *Evaluator) evalExpr(expr ast.Expr) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.NumberLit:
		return value.Number(n.Value), nil
	case *ast.StringLit:
		return value.String(n.Value), nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.Identifier:
		return e.resolveIdentifier(n)
	case *ast.UnaryExpr:
		return e.evalUnary(n)
	case *ast.BinaryExpr:
		return e.evalBinary(n)
	case *ast.CallExpr:
		return e.evalCall(n)
	default:
		return value.Value{}, e.evalErrf(expr.Pos(), "internal error: unknown expression type %T", expr)
	}
}

func (e *Evaluator) resolveIdentifier(n *ast.Identifier) (value.Value, error) {
	norm := ident.Normalize(n.Name)
	h, ok := e.ctx.vars[norm]
	if !ok {
		return value.Value{}, rterr.MissingInput(n.Name)
	}

	switch h.kind {
	case holderFunctionArgument:
		return h.argValue, nil
	case holderEager:
		if v, ok := h.eager[e.ctx.instanceID]; ok {
			return v, nil
		}
		if v, ok := h.eager[""]; ok {
			return v, nil
		}
		return value.Value{}, rterr.MissingInput(n.Name)
	case holderLazy:
		return e.resolveLazy(n.Name, h)
	default:
		return value.Value{}, rterr.MissingInput(n.Name)
	}
}

func (e *Evaluator) resolveLazy(name string, h *holder) (value.Value, error) {
	if v, ok := h.lazyMemo[e.ctx.instanceID]; ok {
		return v, nil
	}
	if e.ctx.instanceID != "" {
		if v, ok := h.lazyMemo[""]; ok {
			return v, nil
		}
	}

	cacheKey := "var:" + ident.Normalize(name)
	tree, err := e.parseCachedOn(e.ctx, cacheKey, name, h.lazySource)
	if err != nil {
		return value.Value{}, err
	}

	sub := New(e.ctx, name, h.lazySource)
	v, err := sub.Eval(tree)
	if err != nil {
		return value.Value{}, err
	}

	h.lazyMemo[e.ctx.instanceID] = v
	if e.ctx.instanceID == "" {
		eager := newEagerHolder()
		for id, memoized := range h.lazyMemo {
			eager.eager[id] = memoized
		}
		*h = *eager
	}
	return v, nil
}

func (e *Evaluator) parseCachedOn(ctx *Context, cacheKey, formulaName, source string) (*ast.Block, error) {
	if ctx.treeCache != nil {
		if tree, ok := ctx.treeCache.Get(ctx.rateKey, cacheKey); ok {
			return tree, nil
		}
	}
	tree, err := parser.Parse(formulaName, source)
	if err != nil {
		return nil, err
	}
	if ctx.treeCache != nil {
		ctx.treeCache.Put(ctx.rateKey, cacheKey, tree)
	}
	return tree, nil
}

func (e *Evaluator) evalUnary(n *ast.UnaryExpr) (value.Value, error) {
	v, err := e.evalExpr(n.Operand)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case ast.UnaryNeg:
		if !v.IsNumber() {
			return value.Value{}, e.evalErrf(n.ExprPos, "unary '-' expects a number, got %s", v.TypeName())
		}
		return value.Number(-v.AsNumber()), nil
	case ast.UnaryNot:
		if !v.IsBool() {
			return value.Value{}, e.evalErrf(n.ExprPos, "unary '!' expects a bool, got %s", v.TypeName())
		}
		return value.Bool(!v.AsBool()), nil
	default:
		return value.Value{}, e.evalErrf(n.ExprPos, "internal error: unknown unary operator")
	}
}

func (e *Evaluator) evalBinary(n *ast.BinaryExpr) (value.Value, error) {
	left, err := e.evalExpr(n.Left)
	if err != nil {
		return value.Value{}, err
	}
	// && and || are intentionally NOT short-circuited: both operands are
	// always evaluated.
	right, err := e.evalExpr(n.Right)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case ast.BinEq:
		return value.Bool(value.Equal(left, right)), nil
	case ast.BinNeq:
		return value.Bool(!value.Equal(left, right)), nil
	case ast.BinAnd:
		return e.boolOp(n.ExprPos, "&&", left, right, func(a, b bool) bool { return a && b })
	case ast.BinOr:
		return e.boolOp(n.ExprPos, "||", left, right, func(a, b bool) bool { return a || b })
	case ast.BinLt, ast.BinLte, ast.BinGt, ast.BinGte:
		return e.relational(n.Op, n.ExprPos, left, right)
	case ast.BinAdd:
		return e.add(n.ExprPos, left, right)
	case ast.BinSub:
		return e.numericOp(n.ExprPos, "-", left, right, func(a, b float64) (float64, error) { return a - b, nil })
	case ast.BinMul:
		return e.mul(n.ExprPos, left, right)
	case ast.BinDiv:
		return e.numericOp(n.ExprPos, "/", left, right, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, rterr.DivByZero()
			}
			return a / b, nil
		})
	case ast.BinMod:
		return e.numericOp(n.ExprPos, "mod", left, right, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, rterr.DivByZero()
			}
			m := math.Mod(a, b)
			if math.IsNaN(m) {
				return 0, rterr.DivByZero()
			}
			return m, nil
		})
	case ast.BinPow:
		return e.numericOp(n.ExprPos, "^", left, right, func(a, b float64) (float64, error) { return math.Pow(a, b), nil })
	default:
		return value.Value{}, e.evalErrf(n.ExprPos, "internal error: unknown binary operator")
	}
}

func (e *Evaluator) boolOp(pos lexer.Position, op string, left, right value.Value, fn func(a, b bool) bool) (value.Value, error) {
	if !left.IsBool() || !right.IsBool() {
		return value.Value{}, e.evalErrf(pos, "%s expects bool operands, got %s and %s", op, left.TypeName(), right.TypeName())
	}
	return value.Bool(fn(left.AsBool(), right.AsBool())), nil
}

func (e *Evaluator) relational(op ast.BinaryOp, pos lexer.Position, left, right value.Value) (value.Value, error) {
	lt, ok := value.Less(left, right)
	if !ok {
		return value.Value{}, e.evalErrf(pos, "ordering comparison requires two numbers or two strings, got %s and %s", left.TypeName(), right.TypeName())
	}
	gt, _ := value.Less(right, left)
	switch op {
	case ast.BinLt:
		return value.Bool(lt), nil
	case ast.BinGt:
		return value.Bool(gt), nil
	case ast.BinLte:
		return value.Bool(!gt), nil
	case ast.BinGte:
		return value.Bool(!lt), nil
	default:
		return value.Value{}, e.evalErrf(pos, "internal error: unknown relational operator")
	}
}

func (e *Evaluator) add(pos lexer.Position, left, right value.Value) (value.Value, error) {
	if left.IsNumber() && right.IsNumber() {
		return value.Number(left.AsNumber() + right.AsNumber()), nil
	}
	if left.IsString() || right.IsString() {
		return value.String(left.Stringify() + right.Stringify()), nil
	}
	return value.Value{}, e.evalErrf(pos, "'+' expects two numbers or a string operand, got %s and %s", left.TypeName(), right.TypeName())
}

func (e *Evaluator) mul(pos lexer.Position, left, right value.Value) (value.Value, error) {
	if left.IsNumber() && right.IsNumber() {
		return value.Number(left.AsNumber() * right.AsNumber()), nil
	}
	if left.IsString() && right.IsNumber() {
		return value.String(strings.Repeat(left.AsString(), roundToInt(right.AsNumber()))), nil
	}
	if left.IsNumber() && right.IsString() {
		return value.String(strings.Repeat(right.AsString(), roundToInt(left.AsNumber()))), nil
	}
	return value.Value{}, e.evalErrf(pos, "'*' expects two numbers, or a string and a number, got %s and %s", left.TypeName(), right.TypeName())
}

func roundToInt(n float64) int {
	if n < 0 {
		return 0
	}
	return int(n + 0.5)
}

func (e *Evaluator) numericOp(pos lexer.Position, op string, left, right value.Value, fn func(a, b float64) (float64, error)) (value.Value, error) {
	if !left.IsNumber() || !right.IsNumber() {
		return value.Value{}, e.evalErrf(pos, "'%s' expects two numbers, got %s and %s", op, left.TypeName(), right.TypeName())
	}
	result, err := fn(left.AsNumber(), right.AsNumber())
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(result), nil
}

func (e *Evaluator) evalCall(n *ast.CallExpr) (value.Value, error) {
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalExpr(a)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}

	if spec, ok := builtins.Lookup(n.Name); ok {
		if len(args) != spec.Arity {
			return value.Value{}, rterr.ArityMismatch(e.formulaName, n.Name, spec.Arity, len(args), e.source, toPos(n.ExprPos))
		}
		v, err := spec.Fn(n.Name, args)
		if err != nil {
			return value.Value{}, rterr.NewEvalError(e.formulaName, err.Error(), e.source, toPos(n.ExprPos))
		}
		return v, nil
	}

	if fn, ok := e.ctx.LookupUserFunction(n.Name, len(args)); ok {
		return e.callUserFunction(fn, args)
	}

	if fn, ok := e.ctx.LookupHostFunction(n.Name, len(args)); ok {
		return e.callHostFunction(fn, args, n)
	}

	return value.Value{}, rterr.NewEvalError(e.formulaName, fmt.Sprintf("function %q with %d argument(s) is not defined", n.Name, len(args)), e.source, toPos(n.ExprPos))
}

func (e *Evaluator) callUserFunction(fn *function.UserFunction, args []value.Value) (value.Value, error) {
	child := e.ctx.newChildForFunction(fn.Params(), args)
	tree, err := e.parseCachedOn(child, "fn:"+fn.CacheKey(), fn.Name(), fn.Body())
	if err != nil {
		return value.Value{}, err
	}
	sub := New(child, fn.Name(), fn.Body())
	return sub.Eval(tree)
}

func (e *Evaluator) callHostFunction(fn function.Function, args []value.Value, call *ast.CallExpr) (value.Value, error) {
	start := time.Now()
	v, err := fn.Execute(args, e.ctx)
	e.ctx.AddHostDuration(time.Since(start))
	if err != nil {
		var ratingErr *rterr.RatingError
		if errors.As(err, &ratingErr) {
			return value.Value{}, ratingErr
		}
		return value.Value{}, rterr.NewEvalError(e.formulaName, err.Error(), e.source, toPos(call.ExprPos))
	}
	return v, nil
}

func (e *Evaluator) evalErrf(pos lexer.Position, format string, args ...interface{}) error {
	return rterr.NewEvalError(e.formulaName, fmt.Sprintf(format, args...), e.source, toPos(pos))
}

func toPos(pos lexer.Position) rterr.Position {
	return rterr.Position{Line: pos.Line, Column: pos.Column}
}
