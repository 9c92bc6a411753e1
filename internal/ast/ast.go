// Package ast defines the Abstract Syntax Tree node types for the eel2wasm
// expression language: a single function body is a Block of Expressions,
// every one of which yields exactly one numeric value.
package ast

import "github.com/cwbudde/eel2wasm/internal/compilerrors"

// Span is a half-open byte-offset interval into the source text.
type Span = compilerrors.Span

// Node is the base interface implemented by every AST node.
type Node interface {
	Pos() Span
}

// Expression is any node that yields exactly one f64 value when emitted.
type Expression interface {
	Node
	expressionNode()
}

// Function is a compiled unit: an ordered sequence of expressions with no
// declared parameters and no declared return. Only the trailing value of
// the body is observable (and even that is dropped at emission time); the
// function's effect is entirely through global/memory mutation.
type Function struct {
	Body Block
}

// Block is an ordered sequence of expressions; its value is that of the
// last expression, with every earlier value discarded.
type Block struct {
	Span        Span
	Expressions []Expression
}

func (b *Block) Pos() Span       { return b.Span }
func (b *Block) expressionNode() {}

// NumberLiteral is a 64-bit IEEE-754 float literal.
type NumberLiteral struct {
	Span  Span
	Value float64
}

func (n *NumberLiteral) Pos() Span       { return n.Span }
func (n *NumberLiteral) expressionNode() {}

// Identifier is a case-insensitive variable reference. Name is always
// already lowercased by the parser.
type Identifier struct {
	Span Span
	Name string
}

func (i *Identifier) Pos() Span       { return i.Span }
func (i *Identifier) expressionNode() {}

// UnaryOperator enumerates the prefix operators.
type UnaryOperator int

const (
	UnaryPlus UnaryOperator = iota
	UnaryMinus
	UnaryNot
)

// Unary is a prefix expression: +x, -x, or !x.
type Unary struct {
	Span  Span
	Op    UnaryOperator
	Right Expression
}

func (u *Unary) Pos() Span       { return u.Span }
func (u *Unary) expressionNode() {}

// BinaryOperator enumerates the infix operators.
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Subtract
	Multiply
	Divide
	Mod
	Pow
	Eq
	NotEqual
	LessThan
	GreaterThan
	LessThanEqual
	GreaterThanEqual
	BitwiseAnd
	BitwiseOr
	LogicalAnd
	LogicalOr
)

// Binary is an infix expression. All binary operators are left-associative
// except Pow, which is right-associative.
type Binary struct {
	Span  Span
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

func (b *Binary) Pos() Span       { return b.Span }
func (b *Binary) expressionNode() {}

// FunctionCall is a call to a builtin form, a math shim, or a buffer
// accessor (megabuf/gmegabuf). Name is already lowercased by the parser.
type FunctionCall struct {
	Span      Span
	Name      Identifier
	Arguments []Expression
}

func (f *FunctionCall) Pos() Span       { return f.Span }
func (f *FunctionCall) expressionNode() {}

// AssignmentOperator enumerates the plain and compound assignment forms.
type AssignmentOperator int

const (
	Assign AssignmentOperator = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
)

// AssignmentTarget is either a scalar identifier or a megabuf/gmegabuf call.
type AssignmentTarget interface {
	Node
	assignmentTargetNode()
}

func (i *Identifier) assignmentTargetNode()   {}
func (f *FunctionCall) assignmentTargetNode() {}

// Assignment stores a value into a global or a buffer slot. Its value as
// an expression is the value it stores; a buffer assignment whose index is
// out of range stores nothing and yields 0.0 (plain =) or the computed
// value (compound operators).
type Assignment struct {
	Span     Span
	Target   AssignmentTarget
	Operator AssignmentOperator
	Right    Expression
}

func (a *Assignment) Pos() Span       { return a.Span }
func (a *Assignment) expressionNode() {}
