package rterr

import "fmt"

// EvalError reports a type mismatch or other failure discovered while
// walking a parsed formula: an operator applied to the wrong Kind, a call
// to an undeclared function, and so on. An identifier that cannot be
// resolved is reported as a RatingError (see MissingInput) instead.
type EvalError struct {
	FormulaName string
	Message     string
	Source      string
	Pos         Position
}

func NewEvalError(formulaName, message, source string, pos Position) *EvalError {
	return &EvalError{FormulaName: formulaName, Message: message, Source: source, Pos: pos}
}

func (e *EvalError) Error() string {
	return e.Format()
}

// Format mirrors ParsingError.Format: header, source line, caret.
func (e *EvalError) Format() string {
	pe := ParsingError{FormulaName: e.FormulaName, Message: e.Message, Source: e.Source, Pos: e.Pos}
	return pe.Format()
}

// UndefinedIdentifier builds an EvalError naming an identifier that is
// not in scope. The evaluator itself reports unresolved variables with
// MissingInput.
func UndefinedIdentifier(formulaName, name, source string, pos Position) *EvalError {
	return NewEvalError(formulaName, fmt.Sprintf("undefined identifier %q", name), source, pos)
}

// TypeMismatch builds the EvalError raised when an operator or builtin is
// applied to a Value of the wrong kind.
func TypeMismatch(formulaName, operation, wantKind, gotKind, source string, pos Position) *EvalError {
	return NewEvalError(
		formulaName,
		fmt.Sprintf("%s expects %s, got %s", operation, wantKind, gotKind),
		source, pos,
	)
}

// ArityMismatch builds the EvalError raised when a function is called
// with the wrong number of arguments.
func ArityMismatch(formulaName, fn string, want, got int, source string, pos Position) *EvalError {
	return NewEvalError(
		formulaName,
		fmt.Sprintf("function %q expects %d argument(s), got %d", fn, want, got),
		source, pos,
	)
}
