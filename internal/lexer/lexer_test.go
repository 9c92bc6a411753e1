package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collectKinds(t *testing.T, source string) []TokenKind {
	t.Helper()
	l := New(source)
	var kinds []TokenKind
	for {
		tok, err := l.NextToken()
		require.Nil(t, err)
		kinds = append(kinds, tok.Kind)
		if tok.Kind == EOF {
			break
		}
	}
	return kinds
}

func TestNextTokenOperators(t *testing.T) {
	kinds := collectKinds(t, "+ - * / % = == != < > <= >= && || & | ^ += -= *= /= %= ! ( ) , ;")
	require.Equal(t, []TokenKind{
		Plus, Minus, Asterisk, Slash, Percent, Assign, Eq, NotEq, Lt, Gt, LtEq, GtEq,
		AndAnd, OrOr, Amp, Pipe, Caret, PlusEq, MinusEq, AsteriskEq, SlashEq, PercentEq,
		Bang, LParen, RParen, Comma, Semi, EOF,
	}, kinds)
}

func TestNextTokenNumbers(t *testing.T) {
	cases := []string{"1", "1.5", ".5", "5.", "0"}
	for _, src := range cases {
		l := New(src)
		tok, err := l.NextToken()
		require.Nil(t, err)
		require.Equal(t, Number, tok.Kind)
		require.Equal(t, src, tok.Literal)
	}
}

func TestNextTokenIdentifier(t *testing.T) {
	l := New("reg00")
	tok, err := l.NextToken()
	require.Nil(t, err)
	require.Equal(t, Identifier, tok.Kind)
	require.Equal(t, "reg00", tok.Literal)
}

func TestSkipsLineAndBlockComments(t *testing.T) {
	kinds := collectKinds(t, "1 // trailing comment\n+ 2 /* block\ncomment */ * 3")
	require.Equal(t, []TokenKind{Number, Plus, Number, Asterisk, Number, EOF}, kinds)
}

func TestUnterminatedBlockCommentIsLexError(t *testing.T) {
	l := New("1 /* never closes")
	_, err := l.NextToken()
	require.Nil(t, err)
	_, err = l.NextToken()
	require.NotNil(t, err)
}

func TestIllegalCharacterIsLexError(t *testing.T) {
	l := New("@")
	_, err := l.NextToken()
	require.NotNil(t, err)
}

func TestEOFIsIdempotent(t *testing.T) {
	l := New("")
	tok1, err := l.NextToken()
	require.Nil(t, err)
	require.Equal(t, EOF, tok1.Kind)
	tok2, err := l.NextToken()
	require.Nil(t, err)
	require.Equal(t, EOF, tok2.Kind)
}
