package function

import (
	"fmt"
	"regexp"
	"strings"
)

// headerPattern matches a formula definition key of the form
// `name(arg1, arg2)`.
var headerPattern = regexp.MustCompile(`^\s*([a-zA-Z_]\w*)\s*\(([^)]*)\)\s*$`)

// ParseHeader reports whether key names a user-defined function (as
// opposed to a plain lazy variable), returning its name and formal
// parameter names (trimmed, in declaration order) when it does.
func ParseHeader(key string) (name string, params []string, ok bool) {
	m := headerPattern.FindStringSubmatch(key)
	if m == nil {
		return "", nil, false
	}
	name = m[1]
	argList := strings.TrimSpace(m[2])
	if argList == "" {
		return name, nil, true
	}
	rawParams := strings.Split(argList, ",")
	params = make([]string, 0, len(rawParams))
	for _, p := range rawParams {
		params = append(params, strings.TrimSpace(p))
	}
	return name, params, true
}

// UserFunction is a function defined by a rating formula rather than by
// the host: a name, formal parameter names, and a DSL source body. It
// carries no parsed tree of its own — the body is parsed (and cached)
// the same way any other formula is, keyed by its function id.
type UserFunction struct {
	name   string
	params []string
	body   string
}

// NewUserFunction builds a UserFunction from its name and formal
// parameter names (as returned by ParseHeader) and DSL source body.
func NewUserFunction(name string, params []string, body string) *UserFunction {
	return &UserFunction{name: name, params: params, body: body}
}

func (f *UserFunction) Name() string { return f.name }

func (f *UserFunction) Arity() int { return len(f.params) }

// Params returns the formal parameter names in declaration order.
func (f *UserFunction) Params() []string { return f.params }

// Body returns the function's DSL source.
func (f *UserFunction) Body() string { return f.body }

// CacheKey returns the identifier used to cache this function's parsed
// tree: its name and arity, which together with the rate key uniquely
// identify one parse of this function's body.
func (f *UserFunction) CacheKey() string {
	return fmt.Sprintf("%s/%d", strings.ToLower(f.name), len(f.params))
}
