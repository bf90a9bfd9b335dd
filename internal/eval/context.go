// Package eval implements the tree-walking evaluator for parsed rating
// formulas: Context holds the scope stack (input variables, lazy
// formulas, function-local arguments, registered functions, caches) and
// Evaluator walks an *ast.Block to produce a value.Value.
package eval

import (
	"time"

	"github.com/cwbudde/go-rating/internal/cache"
	"github.com/cwbudde/go-rating/internal/function"
	"github.com/cwbudde/go-rating/internal/value"
	"github.com/cwbudde/go-rating/pkg/ident"
)

// holderKind identifies which of the three binding forms a holder is.
type holderKind int

const (
	holderEager holderKind = iota
	holderLazy
	holderFunctionArgument
)

// holder is one variable's binding in a Context's scope. It is always
// stored behind a pointer so that child scopes sharing it by reference
// observe in-place mutation (e.g. a Lazy holder's memo filling in, or its
// conversion to Eager) exactly as the parent does — safe only because
// evaluation is single-threaded.
type holder struct {
	kind holderKind

	// holderEager
	eager map[string]value.Value // instanceID -> value

	// holderLazy
	lazySource string
	lazyMemo   map[string]value.Value

	// holderFunctionArgument
	argValue value.Value
}

func newEagerHolder() *holder {
	return &holder{kind: holderEager, eager: make(map[string]value.Value)}
}

func newLazyHolder(source string) *holder {
	return &holder{kind: holderLazy, lazySource: source, lazyMemo: make(map[string]value.Value)}
}

func newFunctionArgumentHolder(v value.Value) *holder {
	return &holder{kind: holderFunctionArgument, argValue: v}
}

// funcKey identifies a user-defined function by case-insensitive name and
// arity, the same pair host functions are looked up by.
type funcKey struct {
	name  string
	arity int
}

// Context is the evaluator's scope stack. One root Context is built per
// Engine.Calculate call; child Contexts are built per user-function
// invocation and are discarded when that call returns.
type Context struct {
	parent *Context

	rateKey     string
	treeCache   cache.ParseTreeCache
	resultCache cache.FunctionResultCache
	registry    function.Registry

	userFuncs map[funcKey]*function.UserFunction
	vars      map[string]*holder

	outputName string
	instanceID string

	hostDuration time.Duration
}

// NewContext creates the root Context for a single Calculate call.
func NewContext(rateKey string, registry function.Registry, resultCache cache.FunctionResultCache, treeCache cache.ParseTreeCache) *Context {
	return &Context{
		rateKey:     rateKey,
		treeCache:   treeCache,
		resultCache: resultCache,
		registry:    registry,
		userFuncs:   make(map[funcKey]*function.UserFunction),
		vars:        make(map[string]*holder),
	}
}

// RateKey and InstanceID implement function.Evaluator so host functions
// can see which rate/instance they are being called for.
func (c *Context) RateKey() string    { return c.rateKey }
func (c *Context) InstanceID() string { return c.instanceID }

// SetCurrentOutput points the context at the output currently being
// computed; Engine.Calculate calls this before evaluating each requested
// output so identifier resolution and StoreComputed know which instance
// id is active.
func (c *Context) SetCurrentOutput(name, instanceID string) {
	c.outputName = name
	c.instanceID = instanceID
}

// CurrentOutputName returns the output Engine.Calculate is currently
// evaluating.
func (c *Context) CurrentOutputName() string { return c.outputName }

// TreeCache and ResultCache expose the shared caches to the parser/host
// function call sites that need them.
func (c *Context) TreeCache() cache.ParseTreeCache         { return c.treeCache }
func (c *Context) ResultCache() cache.FunctionResultCache { return c.resultCache }

// BindEagerInput stores a scalar input under the empty instance id.
func (c *Context) BindEagerInput(name string, v value.Value) {
	h := newEagerHolder()
	h.eager[""] = v
	c.vars[ident.Normalize(name)] = h
}

// BindEagerInstanceMap stores an instance-keyed input.
func (c *Context) BindEagerInstanceMap(name string, values map[string]value.Value) {
	h := newEagerHolder()
	for id, v := range values {
		h.eager[id] = v
	}
	c.vars[ident.Normalize(name)] = h
}

// BindLazyFormula registers a plain-variable formula, evaluated on first
// reference per instance id.
func (c *Context) BindLazyFormula(name, source string) {
	c.vars[ident.Normalize(name)] = newLazyHolder(source)
}

// RegisterUserFunction registers a formula-defined function by name and
// arity.
func (c *Context) RegisterUserFunction(fn *function.UserFunction) {
	c.userFuncs[funcKey{ident.Normalize(fn.Name()), fn.Arity()}] = fn
}

// LookupUserFunction resolves a (name, arity) pair to a UserFunction, if
// one was registered for this call.
func (c *Context) LookupUserFunction(name string, arity int) (*function.UserFunction, bool) {
	fn, ok := c.userFuncs[funcKey{ident.Normalize(name), arity}]
	return fn, ok
}

// LookupHostFunction resolves a (name, arity) pair against the host
// function registry.
func (c *Context) LookupHostFunction(name string, arity int) (function.Function, bool) {
	if c.registry == nil {
		return nil, false
	}
	return c.registry.Lookup(name, arity)
}

// StoreComputed records the value just computed for an output variable
// under the current instance id, so later outputs (and Resolve calls
// within this call) can see it — matching Engine.Calculate step 5, "store
// the calculated value back into the context".
func (c *Context) StoreComputed(name string, v value.Value) {
	norm := ident.Normalize(name)
	h, ok := c.vars[norm]
	if !ok || h.kind != holderEager {
		h = newEagerHolder()
		c.vars[norm] = h
	}
	h.eager[c.instanceID] = v
}

// AddHostDuration accumulates time spent inside a host function call,
// forwarding it up to the root context so the whole Calculate call's
// total host time can be reported by the caller if it wants to.
func (c *Context) AddHostDuration(d time.Duration) {
	c.hostDuration += d
	if c.parent != nil {
		c.parent.AddHostDuration(d)
	}
}

// HostDuration returns the accumulated host-function time observed by
// this Context and all of its descendants.
func (c *Context) HostDuration() time.Duration { return c.hostDuration }

// newChildForFunction builds the scope for a user-function call: every
// parent variable that is not itself a FunctionArgument is carried over
// by reference (so Lazy memoization and Eager updates are visible to
// both scopes), and each formal parameter is bound as a fresh
// FunctionArgument visible only in the child.
func (c *Context) newChildForFunction(params []string, args []value.Value) *Context {
	child := &Context{
		parent:      c,
		rateKey:     c.rateKey,
		treeCache:   c.treeCache,
		resultCache: c.resultCache,
		registry:    c.registry,
		userFuncs:   c.userFuncs,
		vars:        make(map[string]*holder, len(c.vars)+len(params)),
		outputName:  c.outputName,
		instanceID:  c.instanceID,
	}
	for name, h := range c.vars {
		if h.kind == holderFunctionArgument {
			continue
		}
		child.vars[name] = h
	}
	for i, p := range params {
		var v value.Value
		if i < len(args) {
			v = args[i]
		}
		child.vars[ident.Normalize(p)] = newFunctionArgumentHolder(v)
	}
	return child
}
