// Package builtins implements the rating DSL's built-in function table:
// arithmetic helpers (max, min, rnd, ceil, floor, exp), date helpers
// (day, month, year, addDays, getDiffDays, differenceInMonths), and
// string helpers (substr, paddedString). Every built-in here is a pure
// function of its arguments — no context, no caching, no host
// collaboration — unlike internal/function.Function and UserFunction.
//
// The `error(code)` built-in is deliberately NOT registered here: the
// grammar only allows it as a block's entire body, not nested inside an
// expression, so internal/eval handles it directly when walking an
// ast.ErrorCallStmt.
package builtins

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/go-rating/internal/value"
)

// Func implements one built-in's behavior given already-evaluated
// arguments. name identifies the built-in for error messages.
type Func func(name string, args []value.Value) (value.Value, error)

// Spec pairs a built-in's required arity with its implementation.
type Spec struct {
	Arity int
	Fn    Func
}

var table = map[string]Spec{
	"max":                {2, maxFn},
	"min":                {2, minFn},
	"rnd":                {2, rndFn},
	"ceil":               {1, ceilFn},
	"floor":              {1, floorFn},
	"exp":                {1, expFn},
	"day":                {1, dayFn},
	"month":              {1, monthFn},
	"year":               {1, yearFn},
	"substr":             {3, substrFn},
	"adddays":            {2, addDaysFn},
	"getdiffdays":        {2, getDiffDaysFn},
	"differenceinmonths": {2, differenceInMonthsFn},
	"paddedstring":       {2, paddedStringFn},
}

// Lookup returns the Spec registered for name (case-insensitive), and
// whether one exists.
func Lookup(name string) (Spec, bool) {
	spec, ok := table[strings.ToLower(name)]
	return spec, ok
}

func typeError(name, ordinal, wantKind string, got value.Value) error {
	return fmt.Errorf("illegal argument type for %s parameter of function %q, %s expected (got %s)", ordinal, strings.ToUpper(name), wantKind, got.TypeName())
}

func requireNumber(name, ordinal string, v value.Value) (float64, error) {
	if !v.IsNumber() {
		return 0, typeError(name, ordinal, "number", v)
	}
	return v.AsNumber(), nil
}

func requireString(name, ordinal string, v value.Value) (string, error) {
	if !v.IsString() {
		return "", typeError(name, ordinal, "string", v)
	}
	return v.AsString(), nil
}

func maxFn(name string, args []value.Value) (value.Value, error) {
	a, err := requireNumber(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	b, err := requireNumber(name, "second", args[1])
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Max(a, b)), nil
}

func minFn(name string, args []value.Value) (value.Value, error) {
	a, err := requireNumber(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	b, err := requireNumber(name, "second", args[1])
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Min(a, b)), nil
}

// rndFn rounds half-away-from-zero to `places` decimal digits; a
// negative `places` rounds to the corresponding power of ten (rnd(x,-2)
// rounds to the nearest hundred).
func rndFn(name string, args []value.Value) (value.Value, error) {
	x, err := requireNumber(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	places, err := requireNumber(name, "second", args[1])
	if err != nil {
		return value.Value{}, err
	}
	if places >= 0 {
		factor := math.Pow(10, places)
		return value.Number(roundHalfAwayFromZero(x*factor) / factor), nil
	}
	factor := math.Pow(10, -places)
	return value.Number(roundHalfAwayFromZero(x/factor) * factor), nil
}

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return math.Floor(x + 0.5)
	}
	return math.Ceil(x - 0.5)
}

func ceilFn(name string, args []value.Value) (value.Value, error) {
	x, err := requireNumber(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Ceil(x)), nil
}

func floorFn(name string, args []value.Value) (value.Value, error) {
	x, err := requireNumber(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Floor(x)), nil
}

func expFn(name string, args []value.Value) (value.Value, error) {
	x, err := requireNumber(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	result := math.Exp(x)
	if math.IsInf(result, 1) {
		return value.Value{}, fmt.Errorf("overflow range error in function 'exp' for value: %v", x)
	}
	return value.Number(result), nil
}

const defaultDate = "0001-01-01"

// isoDatePattern matches the YYYY-MM-DD shape before any calendar
// validity check, so a malformed string fails with a clear message
// rather than a generic parse error.
var isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// parseISODate parses s as a calendar date, rejecting strings that are
// merely numerically-shaped but not a real date (e.g. 2015-02-29).
// "0001-01-01" and the empty string are treated as a null-date sentinel
// meaning "day 1 / month 1 / year 1" without actually parsing a date;
// callers that accept that sentinel check for it first.
func parseISODate(s string) (time.Time, error) {
	m := isoDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a valid ISO date: %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("not a valid calendar date: %q", s)
	}
	return t, nil
}

func dayFn(name string, args []value.Value) (value.Value, error) {
	s, err := requireString(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	if s == defaultDate || s == "" {
		return value.Number(1), nil
	}
	t, err := parseISODate(s)
	if err != nil {
		return value.Value{}, fmt.Errorf("cannot convert first parameter of function 'day' to date: %s", s)
	}
	return value.Number(float64(t.Day())), nil
}

func monthFn(name string, args []value.Value) (value.Value, error) {
	s, err := requireString(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	if s == defaultDate || s == "" {
		return value.Number(1), nil
	}
	t, err := parseISODate(s)
	if err != nil {
		return value.Value{}, fmt.Errorf("cannot convert first parameter of function 'month' to date: %s", s)
	}
	return value.Number(float64(t.Month())), nil
}

func yearFn(name string, args []value.Value) (value.Value, error) {
	s, err := requireString(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	if s == defaultDate || s == "" {
		return value.Number(1), nil
	}
	t, err := parseISODate(s)
	if err != nil {
		return value.Value{}, fmt.Errorf("cannot convert first parameter of function 'year' to date: %s", s)
	}
	return value.Number(float64(t.Year())), nil
}

func substrFn(name string, args []value.Value) (value.Value, error) {
	s, err := requireString(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	startF, err := requireNumber(name, "second", args[1])
	if err != nil {
		return value.Value{}, err
	}
	lenF, err := requireNumber(name, "third", args[2])
	if err != nil {
		return value.Value{}, err
	}

	start := int(startF + 0.5)
	if start < 1 {
		return value.Value{}, fmt.Errorf("second parameter of function 'SUBSTR' must be >= 1")
	}
	length := int(lenF + 0.5)
	if length < 1 {
		return value.Value{}, fmt.Errorf("third parameter of function 'SUBSTR' must be >= 1")
	}

	runes := []rune(s)
	begin := start - 1
	if begin > len(runes) {
		return value.Value{}, fmt.Errorf("string index out of range in function 'SUBSTR'('%s', %d, %d)", s, start, length)
	}
	end := begin + length
	if end > len(runes) {
		end = len(runes)
	}
	return value.String(string(runes[begin:end])), nil
}

func addDaysFn(name string, args []value.Value) (value.Value, error) {
	s, err := requireString(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	n, err := requireNumber(name, "second", args[1])
	if err != nil {
		return value.Value{}, err
	}
	t, err := parseISODate(s)
	if err != nil {
		return value.Value{}, fmt.Errorf("cannot convert first parameter of function 'addDays' to date: %s", s)
	}
	days := int(n + 0.5)
	result := t.AddDate(0, 0, days)
	return value.String(result.Format("2006-01-02")), nil
}

func getDiffDaysFn(name string, args []value.Value) (value.Value, error) {
	a, err := requireString(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	b, err := requireString(name, "second", args[1])
	if err != nil {
		return value.Value{}, err
	}
	left, err := parseISODate(a)
	if err != nil {
		return value.Value{}, fmt.Errorf("cannot convert first parameter of function 'getDiffDays' to date: %s", a)
	}
	right, err := parseISODate(b)
	if err != nil {
		return value.Value{}, fmt.Errorf("cannot convert second parameter of function 'getDiffDays' to date: %s", b)
	}
	diffDays := int(left.Sub(right).Hours() / 24)
	if diffDays < 0 {
		return value.Value{}, fmt.Errorf("days difference is less than zero in function 'getDiffDays' with first parameter '%s' and second parameter '%s'", a, b)
	}
	return value.Number(float64(diffDays)), nil
}

func differenceInMonthsFn(name string, args []value.Value) (value.Value, error) {
	a, err := requireString(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	b, err := requireString(name, "second", args[1])
	if err != nil {
		return value.Value{}, err
	}
	left, err := parseISODate(a)
	if err != nil {
		return value.Value{}, fmt.Errorf("cannot convert first parameter of function 'differenceInMonths' to date: %s", a)
	}
	right, err := parseISODate(b)
	if err != nil {
		return value.Value{}, fmt.Errorf("cannot convert second parameter of function 'differenceInMonths' to date: %s", b)
	}
	months := (left.Year()-right.Year())*12 + int(left.Month()) - int(right.Month())
	return value.Number(float64(months)), nil
}

// paddedStringFn left-pads s with '0' up to n characters. The reference
// engine's own implementation builds this padded string but discards it
// without assigning it back, so it always returns the input unchanged —
// an evident bug. This engine implements the behavior the built-in's
// name and documented contract promise instead of reproducing that bug.
func paddedStringFn(name string, args []value.Value) (value.Value, error) {
	s, err := requireString(name, "first", args[0])
	if err != nil {
		return value.Value{}, err
	}
	n, err := requireNumber(name, "second", args[1])
	if err != nil {
		return value.Value{}, err
	}
	want := int(n)
	runes := []rune(s)
	if want <= len(runes) {
		return value.String(s), nil
	}
	return value.String(strings.Repeat("0", want-len(runes)) + s), nil
}
