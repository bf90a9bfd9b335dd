// Package rterr defines the rating engine's error taxonomy: ParsingError and
// EvalError for compile/evaluate-time problems local to a single formula,
// and RatingError for the small set of conditions the host is expected to
// handle (missing input, division by zero, cancellation, caller-specific
// failures).
package rterr

import (
	"fmt"
	"strings"
)

// ParsingError reports a syntax error collected while tokenizing or parsing
// a single formula: a header line, the offending source line, and a caret
// under the column.
type ParsingError struct {
	FormulaName string
	Message     string
	Source      string
	Pos         Position
}

func NewParsingError(formulaName, message, source string, pos Position) *ParsingError {
	return &ParsingError{FormulaName: formulaName, Message: message, Source: source, Pos: pos}
}

func (e *ParsingError) Error() string {
	return e.Format()
}

// Format renders the error with a source line and a caret pointing at Pos.
func (e *ParsingError) Format() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "error parsing formula %q", e.FormulaName)
	if e.Pos.Line > 0 {
		fmt.Fprintf(&sb, " at %d:%d", e.Pos.Line, e.Pos.Column)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)

	if line := e.sourceLine(e.Pos.Line); line != "" {
		sb.WriteString("\n")
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+max(e.Pos.Column-1, 0)))
		sb.WriteString("^")
	}

	return sb.String()
}

func (e *ParsingError) sourceLine(lineNum int) string {
	if e.Source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ErrorList accumulates ParsingErrors across a full tokenize/parse pass
// instead of aborting at the first one, so a formula's complete set of
// mistakes can be reported together.
type ErrorList struct {
	Errors []*ParsingError
}

func (l *ErrorList) Add(err *ParsingError) {
	l.Errors = append(l.Errors, err)
}

func (l *ErrorList) HasErrors() bool {
	return len(l.Errors) > 0
}

// First returns the earliest-collected error, or nil if there is none.
// Callers use this when only a single failure can be reported to the host.
func (l *ErrorList) First() *ParsingError {
	if len(l.Errors) == 0 {
		return nil
	}
	return l.Errors[0]
}

// Format renders every collected error, numbered.
func (l *ErrorList) Format() string {
	if len(l.Errors) == 0 {
		return ""
	}
	if len(l.Errors) == 1 {
		return l.Errors[0].Format()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:\n\n", len(l.Errors))
	for i, err := range l.Errors {
		fmt.Fprintf(&sb, "[%d/%d] %s\n", i+1, len(l.Errors), err.Format())
	}
	return sb.String()
}
