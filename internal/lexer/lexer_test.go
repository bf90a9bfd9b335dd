package lexer_test

import (
	"testing"

	"github.com/cwbudde/go-rating/internal/lexer"
)

func collectTypes(t *testing.T, src string) []lexer.TokenType {
	t.Helper()
	l := lexer.New(src)
	var types []lexer.TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == lexer.EOF {
			break
		}
	}
	return types
}

func TestNextTokenOperatorsAndPunctuation(t *testing.T) {
	src := "+ - * / ^ ! && || == != < <= > >= ( ) ,"
	want := []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH, lexer.CARET, lexer.BANG,
		lexer.AND, lexer.OR, lexer.EQ, lexer.NEQ, lexer.LT, lexer.LTE, lexer.GT, lexer.GTE,
		lexer.LPAREN, lexer.RPAREN, lexer.COMMA, lexer.EOF,
	}
	got := collectTypes(t, src)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNextTokenKeywordsAreCaseInsensitive(t *testing.T) {
	for _, src := range []string{"IF", "If", "if"} {
		l := lexer.New(src)
		tok := l.NextToken()
		if tok.Type != lexer.IF {
			t.Errorf("src %q: got %v, want IF", src, tok.Type)
		}
	}
}

func TestNextTokenIdentifierNotKeyword(t *testing.T) {
	l := lexer.New("ifValue")
	tok := l.NextToken()
	if tok.Type != lexer.IDENT || tok.Literal != "ifValue" {
		t.Fatalf("got %v %q, want IDENT \"ifValue\"", tok.Type, tok.Literal)
	}
}

func TestNextTokenNumbers(t *testing.T) {
	cases := []string{"123", "1.5", "0.001", "1e10", "1.5e-3", "2E+4"}
	for _, src := range cases {
		l := lexer.New(src)
		tok := l.NextToken()
		if tok.Type != lexer.NUMBER || tok.Literal != src {
			t.Errorf("src %q: got %v %q", src, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenStringWithEscape(t *testing.T) {
	l := lexer.New(`'it\'s a test'`)
	tok := l.NextToken()
	if tok.Type != lexer.STRING {
		t.Fatalf("got %v, want STRING", tok.Type)
	}
	if tok.Literal != "it's a test" {
		t.Fatalf("got %q, want %q", tok.Literal, "it's a test")
	}
}

func TestNextTokenUnterminatedStringRecordsError(t *testing.T) {
	l := lexer.New("'unterminated")
	l.NextToken()
	if len(l.Errors()) == 0 {
		t.Fatalf("expected a lexer error for an unterminated string")
	}
}

func TestNextTokenLineCommentSkipped(t *testing.T) {
	l := lexer.New("1 // trailing comment\n")
	tok := l.NextToken()
	if tok.Type != lexer.NUMBER {
		t.Fatalf("got %v, want NUMBER", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != lexer.NEWLINE {
		t.Fatalf("got %v, want NEWLINE", tok.Type)
	}
}

func TestNextTokenBlockCommentSingleNesting(t *testing.T) {
	l := lexer.New("1 /* outer /* inner */ still-comment */ 2")
	first := l.NextToken()
	second := l.NextToken()
	if first.Type != lexer.NUMBER || first.Literal != "1" {
		t.Fatalf("got %v %q for first token", first.Type, first.Literal)
	}
	if second.Type != lexer.NUMBER || second.Literal != "2" {
		t.Fatalf("got %v %q for second token", second.Type, second.Literal)
	}
}

func TestNextTokenUnterminatedBlockCommentRecordsError(t *testing.T) {
	l := lexer.New("1 /* never closed")
	l.NextToken()
	l.NextToken()
	if len(l.Errors()) == 0 {
		t.Fatalf("expected a lexer error for an unterminated block comment")
	}
}

func TestNextTokenTracksLineAndColumn(t *testing.T) {
	l := lexer.New("a\nb")
	first := l.NextToken()
	if first.Pos.Line != 1 {
		t.Fatalf("got line %d, want 1", first.Pos.Line)
	}
	l.NextToken() // newline
	third := l.NextToken()
	if third.Pos.Line != 2 {
		t.Fatalf("got line %d, want 2", third.Pos.Line)
	}
}

func TestNextTokenIllegalCharacterRecordsError(t *testing.T) {
	l := lexer.New("@")
	tok := l.NextToken()
	if tok.Type != lexer.ILLEGAL {
		t.Fatalf("got %v, want ILLEGAL", tok.Type)
	}
	if len(l.Errors()) == 0 {
		t.Fatalf("expected a lexer error for an illegal character")
	}
}
