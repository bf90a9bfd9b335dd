// Package rating implements the host-facing rating engine: given a set of
// input values, a library of formula sources, and a list of requested
// outputs, Engine.Calculate drives the lazy, memoized evaluator in
// internal/eval to produce a result for each output.
package rating

import (
	"fmt"
	"sort"

	"github.com/cwbudde/go-rating/internal/ast"
	"github.com/cwbudde/go-rating/internal/cache"
	"github.com/cwbudde/go-rating/internal/eval"
	"github.com/cwbudde/go-rating/internal/function"
	"github.com/cwbudde/go-rating/internal/parser"
	"github.com/cwbudde/go-rating/internal/value"
)

// Scalar is a single (non-instance-mapped) value a host passes in or gets
// back: a float64, a string or a bool. Inputs may also be given as int;
// a void result is returned as nil.
type Scalar interface{}

// InstanceMap fans a single output variable out across instance ids.
type InstanceMap map[string]Scalar

// Map is the host-facing request/result shape: every entry is either a
// Scalar or an InstanceMap.
type Map map[string]any

// RatingOutput names one formula to evaluate and where its result goes.
type RatingOutput struct {
	VariableName string
	SortOrder    int
	Formula      string
	InstanceID   string
}

// Engine ties a host function registry and the two shared caches to
// repeated Calculate calls.
type Engine struct {
	registry    function.Registry
	resultCache cache.FunctionResultCache
	treeCache   cache.ParseTreeCache
}

// NewEngine builds an Engine. functions are the host-supplied business
// functions formulas may call; resultCache/treeCache may be nil. With a
// nil treeCache every formula is parsed again each time it is needed;
// lazy-variable values are still memoized per instance id within one
// Calculate call.
func NewEngine(functions []function.Function, resultCache cache.FunctionResultCache, treeCache cache.ParseTreeCache) *Engine {
	return &Engine{
		registry:    function.NewMapRegistry(functions),
		resultCache: resultCache,
		treeCache:   treeCache,
	}
}

// Calculate runs one rating pass: it seeds a fresh eval.Context from
// input, registers every entry of ratingFormulas as either a
// function.UserFunction or a lazy variable, then evaluates ratingOutput
// in ascending SortOrder, merging each result into the returned Map.
func (e *Engine) Calculate(rateKey string, input Map, ratingFormulas map[string]string, ratingOutput []RatingOutput) (Map, error) {
	ctx := eval.NewContext(rateKey, e.registry, e.resultCache, e.treeCache)

	if err := bindInputs(ctx, input); err != nil {
		return nil, err
	}
	if err := bindFormulas(ctx, ratingFormulas); err != nil {
		return nil, err
	}

	sorted := make([]RatingOutput, len(ratingOutput))
	copy(sorted, ratingOutput)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SortOrder < sorted[j].SortOrder })

	result := make(Map)
	for _, out := range sorted {
		v, err := e.evaluateOutput(ctx, out)
		if err != nil {
			return nil, err
		}
		ctx.StoreComputed(out.VariableName, v)
		if err := mergeResult(result, out.VariableName, out.InstanceID, v); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *Engine) evaluateOutput(ctx *eval.Context, out RatingOutput) (value.Value, error) {
	ctx.SetCurrentOutput(out.VariableName, out.InstanceID)

	cacheKey := fmt.Sprintf("output:%s:%d", out.VariableName, out.SortOrder)
	tree, err := parseCached(ctx, cacheKey, out.VariableName, out.Formula)
	if err != nil {
		return value.Value{}, err
	}
	return eval.New(ctx, out.VariableName, out.Formula).Eval(tree)
}

// parseCached parses source once per (rate key, cacheKey), reusing the
// Context's shared ParseTreeCache the same way internal/eval caches
// lazy-variable and user-function bodies.
func parseCached(ctx *eval.Context, cacheKey, name, source string) (*ast.Block, error) {
	if tc := ctx.TreeCache(); tc != nil {
		if tree, ok := tc.Get(ctx.RateKey(), cacheKey); ok {
			return tree, nil
		}
	}
	tree, err := parser.Parse(name, source)
	if err != nil {
		return nil, err
	}
	if tc := ctx.TreeCache(); tc != nil {
		tc.Put(ctx.RateKey(), cacheKey, tree)
	}
	return tree, nil
}

func bindInputs(ctx *eval.Context, input Map) error {
	for name, raw := range input {
		switch v := raw.(type) {
		case InstanceMap:
			converted := make(map[string]value.Value, len(v))
			for id, scalar := range v {
				val, err := scalarToValue(scalar)
				if err != nil {
					return fmt.Errorf("input %q, instance %q: %w", name, id, err)
				}
				converted[id] = val
			}
			ctx.BindEagerInstanceMap(name, converted)
		default:
			val, err := scalarToValue(raw)
			if err != nil {
				return fmt.Errorf("input %q: %w", name, err)
			}
			ctx.BindEagerInput(name, val)
		}
	}
	return nil
}

func scalarToValue(raw any) (value.Value, error) {
	switch v := raw.(type) {
	case float64:
		return value.Number(v), nil
	case int:
		return value.Number(float64(v)), nil
	case string:
		return value.String(v), nil
	case bool:
		return value.Bool(v), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported input type %T", raw)
	}
}

func bindFormulas(ctx *eval.Context, formulas map[string]string) error {
	for key, body := range formulas {
		if name, params, ok := function.ParseHeader(key); ok {
			ctx.RegisterUserFunction(function.NewUserFunction(name, params, body))
			continue
		}
		ctx.BindLazyFormula(key, body)
	}
	return nil
}

func mergeResult(result Map, name, instanceID string, v value.Value) error {
	scalar, err := valueToScalar(v)
	if err != nil {
		return err
	}
	if instanceID == "" {
		result[name] = scalar
		return nil
	}
	existing, ok := result[name]
	if !ok {
		m := make(InstanceMap)
		m[instanceID] = scalar
		result[name] = m
		return nil
	}
	m, ok := existing.(InstanceMap)
	if !ok {
		return fmt.Errorf("internal consistency error: output %q has both a scalar and an instance-mapped result", name)
	}
	m[instanceID] = scalar
	return nil
}

func valueToScalar(v value.Value) (Scalar, error) {
	switch {
	case v.IsNumber():
		return v.AsNumber(), nil
	case v.IsString():
		return v.AsString(), nil
	case v.IsBool():
		return v.AsBool(), nil
	case v.IsVoid():
		return nil, nil
	default:
		return nil, fmt.Errorf("internal error: unhandled value kind")
	}
}
