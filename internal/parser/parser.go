// Package parser implements a Pratt-style precedence-climbing parser that
// turns a token stream into an ast.Function: an ordered block of
// expressions with no declared parameters and no declared return.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/eel2wasm/internal/ast"
	"github.com/cwbudde/eel2wasm/internal/compilerrors"
	"github.com/cwbudde/eel2wasm/internal/lexer"
)

// Precedence levels, lowest to highest. Assignment is handled as a prefix
// identifier/call followed by an assignment-tail rule rather than through
// the Pratt loop below, so it needs no entry here.
const (
	precLowest = iota
	precLogical
	precEquality
	precRelational
	precBitwise
	precAdditive
	precMultiplicative
	precExponent
	precPrefix
)

// Parser consumes tokens from a Lexer with a single token of lookahead.
type Parser struct {
	lex    *lexer.Lexer
	tok    lexer.Token
	source string
	err    *compilerrors.CompilerError
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer, source string) *Parser {
	p := &Parser{lex: l, source: source}
	p.tok = lexer.Token{Kind: lexer.SOF}
	p.advance()
	return p
}

// ParseFunction parses a single function body: a block of expressions
// terminated by EOF. Trailing and repeated `;` separators are permitted.
func (p *Parser) ParseFunction() (*ast.Function, *compilerrors.CompilerError) {
	body, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != lexer.EOF {
		return nil, p.errorf(p.tok.Span, "expected end of input but found %s", p.tok.Kind)
	}
	return &ast.Function{Body: body}, nil
}

func (p *Parser) advance() {
	if p.err != nil {
		return
	}
	tok, err := p.lex.NextToken()
	if err != nil {
		p.err = err
		p.tok = lexer.Token{Kind: lexer.EOF}
		return
	}
	p.tok = tok
}

func (p *Parser) errorf(span compilerrors.Span, format string, args ...any) *compilerrors.CompilerError {
	return compilerrors.New(compilerrors.KindParse, fmt.Sprintf(format, args...), span, p.source, "")
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, *compilerrors.CompilerError) {
	if p.err != nil {
		return lexer.Token{}, p.err
	}
	if p.tok.Kind != kind {
		return lexer.Token{}, p.errorf(p.tok.Span, "expected %s but found %s", kind, p.tok.Kind)
	}
	tok := p.tok
	p.advance()
	return tok, p.err
}

// parseExpressionList parses expressions separated by (optional, repeatable)
// semicolons, stopping as soon as the next token cannot start an expression
// (the caller is responsible for then expecting its own closing token).
func (p *Parser) parseExpressionList() (ast.Block, *compilerrors.CompilerError) {
	start := p.tok.Span
	var exprs []ast.Expression
	for p.startsExpression() {
		expr, err := p.parseExpression(precLowest)
		if err != nil {
			return ast.Block{}, err
		}
		exprs = append(exprs, expr)
		for p.tok.Kind == lexer.Semi {
			p.advance()
			if p.err != nil {
				return ast.Block{}, p.err
			}
		}
	}
	if p.err != nil {
		return ast.Block{}, p.err
	}
	end := p.tok.Span
	if len(exprs) > 0 {
		end = exprs[len(exprs)-1].Pos()
	}
	return ast.Block{Span: compilerrors.Span{Start: start.Start, End: end.End}, Expressions: exprs}, nil
}

func (p *Parser) startsExpression() bool {
	switch p.tok.Kind {
	case lexer.LParen, lexer.Number, lexer.Plus, lexer.Minus, lexer.Bang, lexer.Identifier:
		return true
	default:
		return false
	}
}

// parseExpression parses one expression via Pratt precedence climbing:
// a prefix production followed by zero or more infix productions whose
// precedence exceeds the caller's floor.
func (p *Parser) parseExpression(precedence int) (ast.Expression, *compilerrors.CompilerError) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	return p.parseInfix(left, precedence)
}

func (p *Parser) parsePrefix() (ast.Expression, *compilerrors.CompilerError) {
	switch p.tok.Kind {
	case lexer.LParen:
		return p.parseParenBlock()
	case lexer.Number:
		return p.parseNumber()
	case lexer.Plus:
		return p.parseUnary(ast.UnaryPlus)
	case lexer.Minus:
		return p.parseUnary(ast.UnaryMinus)
	case lexer.Bang:
		return p.parseUnary(ast.UnaryNot)
	case lexer.Identifier:
		return p.parseIdentifierExpression()
	default:
		return nil, p.errorf(p.tok.Span, "unexpected token %s", p.tok.Kind)
	}
}

func (p *Parser) parseParenBlock() (ast.Expression, *compilerrors.CompilerError) {
	open, err := p.expect(lexer.LParen)
	if err != nil {
		return nil, err
	}
	block, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	closeTok, err := p.expect(lexer.RParen)
	if err != nil {
		return nil, err
	}
	block.Span = compilerrors.Span{Start: open.Span.Start, End: closeTok.Span.End}
	b := block
	return &b, nil
}

func (p *Parser) parseNumber() (ast.Expression, *compilerrors.CompilerError) {
	tok := p.tok
	value, convErr := parseNumberLiteral(tok.Literal)
	if convErr != nil {
		return nil, p.errorf(tok.Span, "invalid numeric literal %q", tok.Literal)
	}
	p.advance()
	if p.err != nil {
		return nil, p.err
	}
	return &ast.NumberLiteral{Span: tok.Span, Value: value}, nil
}

// parseNumberLiteral rewrites a leading dot to "0." before conversion, so
// the degenerate literal "." parses as 0.0.
func parseNumberLiteral(raw string) (float64, error) {
	if strings.HasPrefix(raw, ".") {
		raw = "0" + raw
	}
	if strings.HasSuffix(raw, ".") {
		raw = raw + "0"
	}
	return strconv.ParseFloat(raw, 64)
}

func (p *Parser) parseUnary(op ast.UnaryOperator) (ast.Expression, *compilerrors.CompilerError) {
	start := p.tok.Span
	p.advance()
	if p.err != nil {
		return nil, p.err
	}
	right, err := p.parseExpression(precPrefix)
	if err != nil {
		return nil, err
	}
	return &ast.Unary{Span: compilerrors.Span{Start: start.Start, End: right.Pos().End}, Op: op, Right: right}, nil
}

func (p *Parser) parseIdentifierExpression() (ast.Expression, *compilerrors.CompilerError) {
	ident := p.parseIdentifier()
	if p.err != nil {
		return nil, p.err
	}

	if p.isAssignmentOperator(p.tok.Kind) {
		return p.parseAssignmentTail(ident)
	}

	if p.tok.Kind == lexer.LParen {
		call, err := p.parseCall(ident)
		if err != nil {
			return nil, err
		}
		if p.isAssignmentOperator(p.tok.Kind) {
			return p.parseAssignmentTail(call)
		}
		return call, nil
	}

	return ident, nil
}

func (p *Parser) parseIdentifier() *ast.Identifier {
	tok := p.tok
	name := strings.ToLower(tok.Literal)
	p.advance()
	return &ast.Identifier{Span: tok.Span, Name: name}
}

func (p *Parser) parseCall(name *ast.Identifier) (*ast.FunctionCall, *compilerrors.CompilerError) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for p.tok.Kind != lexer.RParen {
		arg, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.Kind == lexer.Comma {
			p.advance()
			if p.err != nil {
				return nil, p.err
			}
			continue
		}
		break
	}
	closeTok, err := p.expect(lexer.RParen)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionCall{
		Span:      compilerrors.Span{Start: name.Span.Start, End: closeTok.Span.End},
		Name:      *name,
		Arguments: args,
	}, nil
}

func (p *Parser) isAssignmentOperator(kind lexer.TokenKind) bool {
	switch kind {
	case lexer.Assign, lexer.PlusEq, lexer.MinusEq, lexer.AsteriskEq, lexer.SlashEq, lexer.PercentEq:
		return true
	default:
		return false
	}
}

// parseAssignmentTail lowers `target <op> right` into an ast.Assignment.
// target must be an *ast.Identifier or a megabuf/gmegabuf *ast.FunctionCall;
// any other call-as-target is rejected by the function emitter, not here,
// since the parser does not know the callee catalog.
func (p *Parser) parseAssignmentTail(target ast.AssignmentTarget) (ast.Expression, *compilerrors.CompilerError) {
	var op ast.AssignmentOperator
	switch p.tok.Kind {
	case lexer.Assign:
		op = ast.Assign
	case lexer.PlusEq:
		op = ast.AssignAdd
	case lexer.MinusEq:
		op = ast.AssignSub
	case lexer.AsteriskEq:
		op = ast.AssignMul
	case lexer.SlashEq:
		op = ast.AssignDiv
	case lexer.PercentEq:
		op = ast.AssignMod
	default:
		return nil, p.errorf(p.tok.Span, "unexpected assignment operator %s", p.tok.Kind)
	}
	p.advance()
	if p.err != nil {
		return nil, p.err
	}
	right, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{
		Span:     compilerrors.Span{Start: target.Pos().Start, End: right.Pos().End},
		Target:   target,
		Operator: op,
		Right:    right,
	}, nil
}

type infixRule struct {
	prec  int
	op    ast.BinaryOperator
	right bool // right-associative
}

func (p *Parser) infixRule(kind lexer.TokenKind) (infixRule, bool) {
	switch kind {
	case lexer.OrOr:
		return infixRule{precLogical, ast.LogicalOr, false}, true
	case lexer.AndAnd:
		return infixRule{precLogical, ast.LogicalAnd, false}, true
	case lexer.Eq:
		return infixRule{precEquality, ast.Eq, false}, true
	case lexer.NotEq:
		return infixRule{precEquality, ast.NotEqual, false}, true
	case lexer.Lt:
		return infixRule{precRelational, ast.LessThan, false}, true
	case lexer.Gt:
		return infixRule{precRelational, ast.GreaterThan, false}, true
	case lexer.LtEq:
		return infixRule{precRelational, ast.LessThanEqual, false}, true
	case lexer.GtEq:
		return infixRule{precRelational, ast.GreaterThanEqual, false}, true
	case lexer.Pipe:
		return infixRule{precBitwise, ast.BitwiseOr, false}, true
	case lexer.Amp:
		return infixRule{precBitwise, ast.BitwiseAnd, false}, true
	case lexer.Plus:
		return infixRule{precAdditive, ast.Add, false}, true
	case lexer.Minus:
		return infixRule{precAdditive, ast.Subtract, false}, true
	case lexer.Asterisk:
		return infixRule{precMultiplicative, ast.Multiply, false}, true
	case lexer.Slash:
		return infixRule{precMultiplicative, ast.Divide, false}, true
	case lexer.Percent:
		return infixRule{precMultiplicative, ast.Mod, false}, true
	case lexer.Caret:
		return infixRule{precExponent, ast.Pow, true}, true
	default:
		return infixRule{}, false
	}
}

func (p *Parser) parseInfix(left ast.Expression, precedence int) (ast.Expression, *compilerrors.CompilerError) {
	for {
		if p.err != nil {
			return nil, p.err
		}
		rule, ok := p.infixRule(p.tok.Kind)
		if !ok || rule.prec <= precedence {
			return left, nil
		}
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		nextFloor := rule.prec
		if rule.right {
			nextFloor--
		}
		right, err := p.parseExpression(nextFloor)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{
			Span:  compilerrors.Span{Start: left.Pos().Start, End: right.Pos().End},
			Op:    rule.op,
			Left:  left,
			Right: right,
		}
	}
}
