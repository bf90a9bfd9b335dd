package parser

import (
	"fmt"

	"github.com/cwbudde/go-rating/internal/lexer"
	"github.com/cwbudde/go-rating/internal/rterr"
)

// syntaxError is a single problem found while parsing, before it is
// attached to a formula name and source text by newParsingError.
type syntaxError struct {
	pos lexer.Position
	msg string
}

func (e *syntaxError) Error() string { return e.msg }

// lexErrorAdapter lets a lexer.LexerError participate in the same error
// list as syntaxError.
type lexErrorAdapter struct {
	err lexer.LexerError
}

func (e *lexErrorAdapter) Error() string { return e.err.Message }

func sprintf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// newParsingError builds the *rterr.ParsingError surfaced to the host,
// anchored on the first collected error; the message additionally notes
// the total error count when there was more than one.
func newParsingError(name, source string, errs []error) error {
	first := errs[0]
	pos := rterr.Position{}
	switch e := first.(type) {
	case *syntaxError:
		pos = rterr.Position{Line: e.pos.Line, Column: e.pos.Column}
	case *lexErrorAdapter:
		pos = rterr.Position{Line: e.err.Pos.Line, Column: e.err.Pos.Column}
	}

	msg := first.Error()
	if len(errs) > 1 {
		msg = fmt.Sprintf("%s (and %d more error(s))", msg, len(errs)-1)
	}
	return rterr.NewParsingError(name, msg, source, pos)
}
