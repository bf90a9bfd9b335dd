package function_test

import (
	"testing"

	"github.com/cwbudde/go-rating/internal/function"
	"github.com/cwbudde/go-rating/internal/value"
)

func TestParseHeaderWithArgs(t *testing.T) {
	name, params, ok := function.ParseHeader("discount(base, years)")
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if name != "discount" {
		t.Fatalf("got name %q, want discount", name)
	}
	if len(params) != 2 || params[0] != "base" || params[1] != "years" {
		t.Fatalf("got params %v", params)
	}
}

func TestParseHeaderNoArgs(t *testing.T) {
	name, params, ok := function.ParseHeader("constantOne()")
	if !ok || name != "constantOne" || len(params) != 0 {
		t.Fatalf("got name=%q params=%v ok=%v", name, params, ok)
	}
}

func TestParseHeaderPlainVariableIsNotAFunction(t *testing.T) {
	_, _, ok := function.ParseHeader("premiumBase")
	if ok {
		t.Fatalf("expected a plain variable name to not match the function header pattern")
	}
}

type constFn struct{ v value.Value }

func (f constFn) Name() string  { return "constFn" }
func (f constFn) Arity() int    { return 0 }
func (f constFn) Execute(params []value.Value, ctx function.Evaluator) (value.Value, error) {
	return f.v, nil
}

func TestMapRegistryLookup(t *testing.T) {
	reg := function.NewMapRegistry([]function.Function{constFn{v: value.Number(7)}})

	fn, ok := reg.Lookup("CONSTFN", 0)
	if !ok {
		t.Fatalf("expected case-insensitive lookup to succeed")
	}
	got, err := fn.Execute(nil, nil)
	if err != nil || got.AsNumber() != 7 {
		t.Fatalf("got %v, %v", got, err)
	}

	if _, ok := reg.Lookup("constFn", 1); ok {
		t.Fatalf("expected arity mismatch to miss")
	}
}

func TestUserFunctionCacheKey(t *testing.T) {
	fn := function.NewUserFunction("Discount", []string{"base", "years"}, "return base * years")
	if fn.CacheKey() != "discount/2" {
		t.Fatalf("got %q", fn.CacheKey())
	}
}
