package parser

import (
	"testing"

	"github.com/cwbudde/eel2wasm/internal/ast"
	"github.com/cwbudde/eel2wasm/internal/lexer"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, source string) *ast.Function {
	t.Helper()
	l := lexer.New(source)
	p := New(l, source)
	fn, err := p.ParseFunction()
	require.Nil(t, err, "unexpected parse error: %v", err)
	return fn
}

func TestParseAdditivePrecedence(t *testing.T) {
	fn := parseSource(t, "1 + 2 * 3;")
	require.Len(t, fn.Body.Expressions, 1)
	bin, ok := fn.Body.Expressions[0].(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Add, bin.Op)
	_, leftIsNumber := bin.Left.(*ast.NumberLiteral)
	require.True(t, leftIsNumber)
	right, ok := bin.Right.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Multiply, right.Op)
}

func TestParsePowIsRightAssociative(t *testing.T) {
	fn := parseSource(t, "2 ^ 2 ^ 4;")
	top, ok := fn.Body.Expressions[0].(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Pow, top.Op)
	_, leftIsNumber := top.Left.(*ast.NumberLiteral)
	require.True(t, leftIsNumber)
	right, ok := top.Right.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Pow, right.Op)
}

func TestParseIdentifierIsLowercased(t *testing.T) {
	fn := parseSource(t, "MyVar;")
	ident, ok := fn.Body.Expressions[0].(*ast.Identifier)
	require.True(t, ok)
	require.Equal(t, "myvar", ident.Name)
}

func TestParseCompoundAssignment(t *testing.T) {
	fn := parseSource(t, "g += 1;")
	assign, ok := fn.Body.Expressions[0].(*ast.Assignment)
	require.True(t, ok)
	require.Equal(t, ast.AssignAdd, assign.Operator)
	target, ok := assign.Target.(*ast.Identifier)
	require.True(t, ok)
	require.Equal(t, "g", target.Name)
}

func TestParseBufferAssignmentTarget(t *testing.T) {
	fn := parseSource(t, "megabuf(0) = 10;")
	assign, ok := fn.Body.Expressions[0].(*ast.Assignment)
	require.True(t, ok)
	require.Equal(t, ast.Assign, assign.Operator)
	call, ok := assign.Target.(*ast.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "megabuf", call.Name.Name)
}

func TestParseFunctionCallArguments(t *testing.T) {
	fn := parseSource(t, "sigmoid(1, 2.0);")
	call, ok := fn.Body.Expressions[0].(*ast.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "sigmoid", call.Name.Name)
	require.Len(t, call.Arguments, 2)
}

func TestParseParenBlockIsExpressionList(t *testing.T) {
	fn := parseSource(t, "(1; 2; 3);")
	block, ok := fn.Body.Expressions[0].(*ast.Block)
	require.True(t, ok)
	require.Len(t, block.Expressions, 3)
}

func TestParseEmptyFunctionBody(t *testing.T) {
	fn := parseSource(t, "")
	require.Empty(t, fn.Body.Expressions)
}

func TestParseUnexpectedTokenIsError(t *testing.T) {
	l := lexer.New(")")
	p := New(l, ")")
	_, err := p.ParseFunction()
	require.NotNil(t, err)
}

func TestParseTrailingGarbageIsError(t *testing.T) {
	l := lexer.New("1; )")
	p := New(l, "1; )")
	_, err := p.ParseFunction()
	require.NotNil(t, err)
}
