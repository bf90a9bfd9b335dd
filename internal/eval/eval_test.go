package eval_test

import (
	"testing"

	"github.com/cwbudde/go-rating/internal/cache"
	"github.com/cwbudde/go-rating/internal/eval"
	"github.com/cwbudde/go-rating/internal/function"
	"github.com/cwbudde/go-rating/internal/parser"
	"github.com/cwbudde/go-rating/internal/value"
)

func newContext() *eval.Context {
	return eval.NewContext("rate1", nil, cache.NewDefaultFunctionResultCache(), cache.NewDefaultParseTreeCache())
}

func evalSource(t *testing.T, ctx *eval.Context, name, src string) (value.Value, error) {
	t.Helper()
	tree, err := parser.Parse(name, src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return eval.New(ctx, name, src).Eval(tree)
}

func TestEagerInputScalar(t *testing.T) {
	ctx := newContext()
	ctx.BindEagerInput("age", value.Number(42))
	got, err := evalSource(t, ctx, "f", "return age")
	if err != nil || got.AsNumber() != 42 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestMissingInputIsAnError(t *testing.T) {
	ctx := newContext()
	_, err := evalSource(t, ctx, "f", "return unknownThing")
	if err == nil {
		t.Fatalf("expected a missing-input error")
	}
}

func TestInstanceMapFallsBackToScalarEntry(t *testing.T) {
	ctx := newContext()
	ctx.BindEagerInstanceMap("roomArea", map[string]value.Value{"kitchen": value.Number(12)})
	ctx.SetCurrentOutput("out", "bedroom")
	got, err := evalSource(t, ctx, "f", "return roomArea")
	if err == nil {
		t.Fatalf("expected missing-input error for instance with no entry and no scalar fallback, got %v", got)
	}

	ctx2 := newContext()
	ctx2.BindEagerInput("base", value.Number(5))
	ctx2.SetCurrentOutput("out", "bedroom")
	got, err = evalSource(t, ctx2, "f", "return base")
	if err != nil || got.AsNumber() != 5 {
		t.Fatalf("expected scalar fallback for unknown instance, got %v, %v", got, err)
	}
}

func TestLazyFormulaMemoizesPerInstance(t *testing.T) {
	ctx := newContext()
	ctx.BindLazyFormula("doubled", "return base * 2")
	ctx.BindEagerInput("base", value.Number(3))

	got, err := evalSource(t, ctx, "f", "return doubled")
	if err != nil || got.AsNumber() != 6 {
		t.Fatalf("got %v, %v", got, err)
	}

	// Changing the underlying input after first evaluation must not
	// affect the memoized result.
	ctx.BindEagerInput("base", value.Number(100))
	got, err = evalSource(t, ctx, "f", "return doubled")
	if err != nil || got.AsNumber() != 6 {
		t.Fatalf("expected memoized value 6, got %v, %v", got, err)
	}
}

func TestLazyFormulaPerInstanceIsolation(t *testing.T) {
	ctx := newContext()
	ctx.BindEagerInstanceMap("area", map[string]value.Value{
		"kitchen": value.Number(10),
		"bedroom": value.Number(20),
	})
	ctx.BindLazyFormula("rent", "return area * 5")

	ctx.SetCurrentOutput("rent", "kitchen")
	got, err := evalSource(t, ctx, "rent", "return rent")
	if err != nil || got.AsNumber() != 50 {
		t.Fatalf("kitchen: got %v, %v", got, err)
	}

	ctx.SetCurrentOutput("rent", "bedroom")
	got, err = evalSource(t, ctx, "rent", "return rent")
	if err != nil || got.AsNumber() != 100 {
		t.Fatalf("bedroom: got %v, %v", got, err)
	}
}

func TestUserFunctionRecursion(t *testing.T) {
	ctx := newContext()
	ctx.RegisterUserFunction(function.NewUserFunction("factorial", []string{"n"},
		"if (n <= 1) then return 1 else return n * factorial(n - 1) end"))

	got, err := evalSource(t, ctx, "f", "return factorial(5)")
	if err != nil || got.AsNumber() != 120 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestFunctionArgumentScopeDoesNotLeak(t *testing.T) {
	ctx := newContext()
	ctx.BindEagerInput("n", value.Number(999))
	ctx.RegisterUserFunction(function.NewUserFunction("identity", []string{"n"}, "return n"))

	got, err := evalSource(t, ctx, "f", "return identity(1) + n")
	if err != nil || got.AsNumber() != 1000 {
		t.Fatalf("expected the outer 'n' to remain 999 after the call, got %v, %v", got, err)
	}
}

func TestIfElseIfElseChain(t *testing.T) {
	ctx := newContext()
	ctx.BindEagerInput("x", value.Number(2))
	got, err := evalSource(t, ctx, "f",
		"if (x == 1) then return 'one' else if (x == 2) then return 'two' else return 'other' end")
	if err != nil || got.AsString() != "two" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestErrorCallCancelsCalculation(t *testing.T) {
	ctx := newContext()
	_, err := evalSource(t, ctx, "f", "error(42)")
	if err == nil {
		t.Fatalf("expected a cancellation error")
	}
}

func TestOperatorTypeErrorsAreReported(t *testing.T) {
	ctx := newContext()
	ctx.BindEagerInput("s", value.String("x"))
	_, err := evalSource(t, ctx, "f", "return s - 1")
	if err == nil {
		t.Fatalf("expected a type error for string minus number")
	}
}

func TestStringConcatenationViaPlus(t *testing.T) {
	ctx := newContext()
	got, err := evalSource(t, ctx, "f", "return 'a' + 'b'")
	if err != nil || got.AsString() != "ab" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestBuiltinCallRoundTrip(t *testing.T) {
	ctx := newContext()
	got, err := evalSource(t, ctx, "f", "return max(3, 7)")
	if err != nil || got.AsNumber() != 7 {
		t.Fatalf("got %v, %v", got, err)
	}
}

// stubFunction is a minimal host function.Function used to exercise
// Context.LookupHostFunction and host-duration accounting.
type stubFunction struct {
	name  string
	arity int
}

func (s *stubFunction) Name() string { return s.name }
func (s *stubFunction) Arity() int   { return s.arity }
func (s *stubFunction) Execute(args []value.Value, ctx function.Evaluator) (value.Value, error) {
	return value.Number(args[0].AsNumber() + 1), nil
}

func TestHostFunctionCallAndDurationAccounting(t *testing.T) {
	registry := function.NewMapRegistry([]function.Function{&stubFunction{name: "increment", arity: 1}})
	ctx := eval.NewContext("rate1", registry, cache.NewDefaultFunctionResultCache(), cache.NewDefaultParseTreeCache())

	got, err := evalSource(t, ctx, "f", "return increment(41)")
	if err != nil || got.AsNumber() != 42 {
		t.Fatalf("got %v, %v", got, err)
	}
	if ctx.HostDuration() < 0 {
		t.Fatalf("expected non-negative accumulated host duration")
	}
}

func TestCaseInsensitiveIdentifiersAndFunctions(t *testing.T) {
	ctx := newContext()
	ctx.BindEagerInput("Age", value.Number(5))
	got, err := evalSource(t, ctx, "f", "return AGE + age")
	if err != nil || got.AsNumber() != 10 {
		t.Fatalf("got %v, %v", got, err)
	}
}
