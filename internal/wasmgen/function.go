package wasmgen

import (
	"fmt"

	"github.com/cwbudde/eel2wasm/internal/ast"
	"github.com/cwbudde/eel2wasm/internal/compilerrors"
	"github.com/cwbudde/eel2wasm/internal/target"
)

// compiledFunction is one EEL function lowered to its Code section entry,
// not yet assigned a function index.
type compiledFunction struct {
	locals []target.ValueType
	instrs []byte // ends in target.OpEnd
}

// emitFunction lowers fn's body, in pool's global namespace, into a
// function body. ctx accumulates the globals/functions/types it references
// so later functions (and the module emitter) see the same indices.
func emitFunction(fn *ast.Function, pool string, ctx *emitterContext, source string) (*compiledFunction, *compilerrors.CompilerError) {
	ctx.currentPool = pool
	fe := &functionEmitter{ctx: ctx, source: source, c: &code{}}
	if err := fe.emitExpressionList(fn.Body.Expressions); err != nil {
		return nil, err
	}
	fe.c.drop()
	fe.c.end()
	return &compiledFunction{locals: fe.locals, instrs: fe.c.bytes()}, nil
}

type functionEmitter struct {
	ctx    *emitterContext
	source string
	c      *code
	locals []target.ValueType
}

func (fe *functionEmitter) errorf(span compilerrors.Span, format string, args ...any) *compilerrors.CompilerError {
	return compilerrors.New(compilerrors.KindEmit, fmt.Sprintf(format, args...), span, fe.source, "")
}

func (fe *functionEmitter) resolveLocal(t target.ValueType) uint32 {
	fe.locals = append(fe.locals, t)
	return uint32(len(fe.locals) - 1)
}

func (fe *functionEmitter) emitExpressionList(exprs []ast.Expression) *compilerrors.CompilerError {
	if len(exprs) == 0 {
		fe.c.f64Const(0)
		return nil
	}
	last := len(exprs) - 1
	for i, expr := range exprs {
		if err := fe.emitExpression(expr); err != nil {
			return err
		}
		if i != last {
			fe.c.drop()
		}
	}
	return nil
}

func (fe *functionEmitter) emitExpression(expr ast.Expression) *compilerrors.CompilerError {
	switch e := expr.(type) {
	case *ast.Block:
		return fe.emitExpressionList(e.Expressions)
	case *ast.NumberLiteral:
		fe.c.f64Const(e.Value)
		return nil
	case *ast.Identifier:
		idx := fe.ctx.resolveVariable(e.Name)
		fe.c.globalGet(idx)
		return nil
	case *ast.Unary:
		return fe.emitUnary(e)
	case *ast.Binary:
		return fe.emitBinary(e)
	case *ast.Assignment:
		return fe.emitAssignment(e)
	case *ast.FunctionCall:
		return fe.emitCall(e)
	default:
		return fe.errorf(expr.Pos(), "internal: unhandled expression node")
	}
}

func (fe *functionEmitter) emitUnary(u *ast.Unary) *compilerrors.CompilerError {
	switch u.Op {
	case ast.UnaryPlus:
		return fe.emitExpression(u.Right)
	case ast.UnaryMinus:
		if err := fe.emitExpression(u.Right); err != nil {
			return err
		}
		fe.c.op(target.OpF64Neg)
		return nil
	case ast.UnaryNot:
		if err := fe.emitExpression(u.Right); err != nil {
			return err
		}
		fe.emitIsZeroish()
		fe.c.op(target.OpF64ConvertI32S)
		return nil
	}
	return fe.errorf(u.Span, "internal: unknown unary operator")
}

// emitIsZeroish leaves an i32 1/0 on the stack for |top| < epsilon.
func (fe *functionEmitter) emitIsZeroish() {
	fe.c.op(target.OpF64Abs).f64Const(epsilon).op(target.OpF64Lt)
}

// emitIsNotZeroish leaves an i32 1/0 on the stack for |top| > epsilon.
func (fe *functionEmitter) emitIsNotZeroish() {
	fe.c.op(target.OpF64Abs).f64Const(epsilon).op(target.OpF64Gt)
}

func (fe *functionEmitter) emitBinary(b *ast.Binary) *compilerrors.CompilerError {
	switch b.Op {
	case ast.LogicalAnd:
		return fe.emitLogical(b.Left, b.Right, true)
	case ast.LogicalOr:
		return fe.emitLogical(b.Left, b.Right, false)
	}

	if err := fe.emitExpression(b.Left); err != nil {
		return err
	}
	if err := fe.emitExpression(b.Right); err != nil {
		return err
	}

	switch b.Op {
	case ast.Add:
		fe.c.op(target.OpF64Add)
	case ast.Subtract:
		fe.c.op(target.OpF64Sub)
	case ast.Multiply:
		fe.c.op(target.OpF64Mul)
	case ast.Divide:
		fe.c.call(fe.ctx.resolveBuiltin(builtinDiv))
	case ast.Mod:
		fe.c.call(fe.ctx.resolveBuiltin(builtinMod))
	case ast.Eq:
		fe.c.op(target.OpF64Sub)
		fe.emitIsZeroish()
		fe.c.op(target.OpF64ConvertI32S)
	case ast.NotEqual:
		fe.c.op(target.OpF64Sub)
		fe.emitIsNotZeroish()
		fe.c.op(target.OpF64ConvertI32S)
	case ast.LessThan:
		fe.c.op(target.OpF64Lt).op(target.OpF64ConvertI32S)
	case ast.GreaterThan:
		fe.c.op(target.OpF64Gt).op(target.OpF64ConvertI32S)
	case ast.LessThanEqual:
		fe.c.op(target.OpF64Le).op(target.OpF64ConvertI32S)
	case ast.GreaterThanEqual:
		fe.c.op(target.OpF64Ge).op(target.OpF64ConvertI32S)
	case ast.BitwiseAnd:
		fe.c.call(fe.ctx.resolveBuiltin(builtinBitwiseAnd))
	case ast.BitwiseOr:
		fe.c.call(fe.ctx.resolveBuiltin(builtinBitwiseOr))
	case ast.Pow:
		fe.c.call(fe.ctx.resolveShim(shimPow))
	default:
		return fe.errorf(b.Span, "internal: unknown binary operator")
	}
	return nil
}

// emitLogical lowers && and || without evaluating the right operand unless
// it is needed: both are expression-valued, yielding 1.0/0.0, not a bare
// branch.
func (fe *functionEmitter) emitLogical(left, right ast.Expression, and bool) *compilerrors.CompilerError {
	if err := fe.emitExpression(left); err != nil {
		return err
	}
	if and {
		fe.emitIsZeroish()
	} else {
		fe.emitIsNotZeroish()
	}
	fe.c.block(target.OpIf, target.BlockF64)
	if and {
		fe.c.f64Const(0.0)
	} else {
		fe.c.f64Const(1.0)
	}
	fe.c.els()
	if err := fe.emitExpression(right); err != nil {
		return err
	}
	fe.emitIsNotZeroish()
	fe.c.op(target.OpF64ConvertI32S)
	fe.c.end()
	return nil
}

func (fe *functionEmitter) emitAssignment(a *ast.Assignment) *compilerrors.CompilerError {
	switch dst := a.Target.(type) {
	case *ast.Identifier:
		return fe.emitIdentifierAssignment(dst, a.Operator, a.Right)
	case *ast.FunctionCall:
		return fe.emitBufferAssignment(dst, a.Operator, a.Right)
	default:
		return fe.errorf(a.Span, "internal: unknown assignment target")
	}
}

func (fe *functionEmitter) emitIdentifierAssignment(ident *ast.Identifier, op ast.AssignmentOperator, right ast.Expression) *compilerrors.CompilerError {
	idx := fe.ctx.resolveVariable(ident.Name)
	if op == ast.Assign {
		if err := fe.emitExpression(right); err != nil {
			return err
		}
		fe.c.globalSet(idx)
		fe.c.globalGet(idx)
		return nil
	}
	fe.c.globalGet(idx)
	if err := fe.emitExpression(right); err != nil {
		return err
	}
	if err := fe.emitCompoundOp(op); err != nil {
		return err
	}
	fe.c.globalSet(idx)
	fe.c.globalGet(idx)
	return nil
}

// emitCompoundOp applies a compound assignment's update operator to the two
// already-pushed operands (current value, then right-hand side).
func (fe *functionEmitter) emitCompoundOp(op ast.AssignmentOperator) *compilerrors.CompilerError {
	switch op {
	case ast.AssignAdd:
		fe.c.op(target.OpF64Add)
	case ast.AssignSub:
		fe.c.op(target.OpF64Sub)
	case ast.AssignMul:
		fe.c.op(target.OpF64Mul)
	case ast.AssignDiv:
		fe.c.call(fe.ctx.resolveBuiltin(builtinDiv))
	case ast.AssignMod:
		fe.c.call(fe.ctx.resolveBuiltin(builtinMod))
	default:
		return fe.errorf(compilerrors.Span{}, "internal: unknown compound assignment operator")
	}
	return nil
}

// bufferOffset returns the memory byte offset for a megabuf/gmegabuf call,
// or an error if call is neither.
func (fe *functionEmitter) bufferOffset(call *ast.FunctionCall) (uint32, *compilerrors.CompilerError) {
	switch call.Name.Name {
	case "megabuf":
		return 0, nil
	case "gmegabuf":
		return gmegabufOffset, nil
	default:
		return 0, fe.errorf(call.Span, "only megabuf() and gmegabuf() can be assignment targets")
	}
}

// emitBufferAssignment stores into megabuf(index)/gmegabuf(index). The
// right-hand side is always evaluated, even if index turns out to be out
// of range, so side effects in the value expression still run. For an index
// that builtinGetBufferIndex rejects, nothing is stored: a plain assignment
// yields 0.0, while a compound assignment treats the current value as 0 and
// yields the computed result.
func (fe *functionEmitter) emitBufferAssignment(call *ast.FunctionCall, op ast.AssignmentOperator, right ast.Expression) *compilerrors.CompilerError {
	if len(call.Arguments) != 1 {
		return fe.errorf(call.Span, "%s() takes exactly 1 argument, got %d", call.Name.Name, len(call.Arguments))
	}
	offset, err := fe.bufferOffset(call)
	if err != nil {
		return err
	}
	index := call.Arguments[0]

	if op == ast.Assign {
		rawIdx := fe.resolveLocal(target.I32)
		rightVal := fe.resolveLocal(target.F64)

		if err := fe.emitExpression(right); err != nil {
			return err
		}
		fe.c.localSet(rightVal)
		if err := fe.emitExpression(index); err != nil {
			return err
		}
		fe.c.call(fe.ctx.resolveBuiltin(builtinGetBufferIndex))
		fe.c.localTee(rawIdx)
		fe.c.i32Const(0)
		fe.c.op(target.OpI32LtS)
		fe.c.block(target.OpIf, target.BlockF64)
		fe.c.f64Const(0.0)
		fe.c.els()
		fe.c.localGet(rawIdx)
		fe.c.localGet(rightVal)
		fe.c.op(target.OpF64Store).u32(3).u32(offset)
		fe.c.localGet(rightVal)
		fe.c.end()
		return nil
	}

	idx := fe.resolveLocal(target.I32)
	inBounds := fe.resolveLocal(target.I32)
	rightVal := fe.resolveLocal(target.F64)
	result := fe.resolveLocal(target.F64)

	if err := fe.emitExpression(right); err != nil {
		return err
	}
	fe.c.localSet(rightVal)
	if err := fe.emitExpression(index); err != nil {
		return err
	}
	fe.c.call(fe.ctx.resolveBuiltin(builtinGetBufferIndex))
	fe.c.localTee(idx)
	fe.c.i32Const(-1)
	fe.c.op(target.OpI32Ne)
	fe.c.localTee(inBounds)
	fe.c.block(target.OpIf, target.BlockF64)
	fe.c.localGet(idx)
	fe.c.op(target.OpF64Load).u32(3).u32(offset)
	fe.c.els()
	fe.c.f64Const(0.0)
	fe.c.end()
	fe.c.localGet(rightVal)
	if err := fe.emitCompoundOp(op); err != nil {
		return err
	}
	fe.c.localTee(result)
	fe.c.localGet(inBounds)
	fe.c.block(target.OpIf, target.BlockVoid)
	fe.c.localGet(idx)
	fe.c.localGet(result)
	fe.c.op(target.OpF64Store).u32(3).u32(offset)
	fe.c.end()
	return nil
}

func (fe *functionEmitter) assertArity(call *ast.FunctionCall, arity int) *compilerrors.CompilerError {
	if len(call.Arguments) != arity {
		return fe.errorf(call.Name.Span, "incorrect argument count for function `%s`: expected %d, got %d",
			call.Name.Name, arity, len(call.Arguments))
	}
	return nil
}

func (fe *functionEmitter) emitArgs(call *ast.FunctionCall) *compilerrors.CompilerError {
	for _, arg := range call.Arguments {
		if err := fe.emitExpression(arg); err != nil {
			return err
		}
	}
	return nil
}

func (fe *functionEmitter) emitCall(call *ast.FunctionCall) *compilerrors.CompilerError {
	name := call.Name.Name
	switch name {
	case "int":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Floor)
	case "if":
		if err := fe.assertArity(call, 3); err != nil {
			return err
		}
		if err := fe.emitExpression(call.Arguments[0]); err != nil {
			return err
		}
		fe.emitIsNotZeroish()
		fe.c.block(target.OpIf, target.BlockF64)
		if err := fe.emitExpression(call.Arguments[1]); err != nil {
			return err
		}
		fe.c.els()
		if err := fe.emitExpression(call.Arguments[2]); err != nil {
			return err
		}
		fe.c.end()
	case "abs":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Abs)
	case "sqrt":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Abs).op(target.OpF64Sqrt)
	case "min":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Min)
	case "max":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Max)
	case "above":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Gt).op(target.OpF64ConvertI32S)
	case "below":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Lt).op(target.OpF64ConvertI32S)
	case "equal":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Sub)
		fe.emitIsZeroish()
		fe.c.op(target.OpF64ConvertI32S)
	case "bnot":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.emitIsZeroish()
		fe.c.op(target.OpF64ConvertI32S)
	case "floor":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Floor)
	case "ceil":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.op(target.OpF64Ceil)
	case "sqr":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.call(fe.ctx.resolveBuiltin(builtinSqr))
	case "bor":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.call(fe.ctx.resolveBuiltin(builtinLogicalOr))
	case "band":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.call(fe.ctx.resolveBuiltin(builtinLogicalAnd))
	case "mod":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.call(fe.ctx.resolveBuiltin(builtinMod))
	case "sign":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		if err := fe.emitArgs(call); err != nil {
			return err
		}
		fe.c.call(fe.ctx.resolveBuiltin(builtinSign))
	case "exec2":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		return fe.emitExpressionList(call.Arguments)
	case "exec3":
		if err := fe.assertArity(call, 3); err != nil {
			return err
		}
		return fe.emitExpressionList(call.Arguments)
	case "while":
		if err := fe.assertArity(call, 1); err != nil {
			return err
		}
		return fe.emitWhile(call.Arguments[0])
	case "loop":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		return fe.emitLoop(call.Arguments[0], call.Arguments[1])
	case "assign":
		if err := fe.assertArity(call, 2); err != nil {
			return err
		}
		ident, ok := call.Arguments[0].(*ast.Identifier)
		if !ok {
			return fe.errorf(call.Name.Span, "expected the first argument of assign() to be an identifier")
		}
		return fe.emitIdentifierAssignment(ident, ast.Assign, call.Arguments[1])
	case "megabuf":
		return fe.emitMemoryRead(call, 0)
	case "gmegabuf":
		return fe.emitMemoryRead(call, gmegabufOffset)
	default:
		if s, ok := shimByName[name]; ok {
			if err := fe.assertArity(call, s.arity()); err != nil {
				return err
			}
			if err := fe.emitArgs(call); err != nil {
				return err
			}
			fe.c.call(fe.ctx.resolveShim(s))
			return nil
		}
		return fe.errorf(call.Name.Span, "unknown function `%s`", name)
	}
	return nil
}

// emitMemoryRead loads megabuf(index)/gmegabuf(index), yielding 0 for an
// out-of-range index.
func (fe *functionEmitter) emitMemoryRead(call *ast.FunctionCall, offset uint32) *compilerrors.CompilerError {
	if err := fe.assertArity(call, 1); err != nil {
		return err
	}
	idx := fe.resolveLocal(target.I32)
	if err := fe.emitExpression(call.Arguments[0]); err != nil {
		return err
	}
	fe.c.call(fe.ctx.resolveBuiltin(builtinGetBufferIndex))
	fe.c.localTee(idx)
	fe.c.i32Const(-1)
	fe.c.op(target.OpI32Ne)
	fe.c.block(target.OpIf, target.BlockF64)
	fe.c.localGet(idx)
	fe.c.op(target.OpF64Load).u32(3).u32(offset)
	fe.c.els()
	fe.c.f64Const(0.0)
	fe.c.end()
	return nil
}

// emitWhile lowers while(body): re-run body while it is both truthy and
// under maxLoopCount, yielding 0.0 always (the value is never the
// condition's final output, matching the original's implicit 0 return).
func (fe *functionEmitter) emitWhile(body ast.Expression) *compilerrors.CompilerError {
	iter := fe.resolveLocal(target.I32)
	fe.c.i32Const(0)
	fe.c.localSet(iter)

	fe.c.block(target.OpLoop, target.BlockVoid)
	fe.c.localGet(iter)
	fe.c.i32Const(1)
	fe.c.op(target.OpI32Add)
	fe.c.localTee(iter)
	fe.c.i32Const(maxLoopCount)
	fe.c.op(target.OpI32LtU)
	if err := fe.emitExpression(body); err != nil {
		return err
	}
	fe.emitIsNotZeroish()
	fe.c.op(target.OpI32And)
	fe.c.op(target.OpBrIf).u32(0)
	fe.c.end()
	fe.c.f64Const(0.0)
	return nil
}

// emitLoop lowers loop(count, body): run body trunc(count) times, capped at
// maxLoopCount (treating count <= 0 as zero iterations), yielding 0.0.
func (fe *functionEmitter) emitLoop(count, body ast.Expression) *compilerrors.CompilerError {
	iter := fe.resolveLocal(target.I32)
	fe.c.block(target.OpBlock, target.BlockVoid)
	if err := fe.emitExpression(count); err != nil {
		return err
	}
	fe.c.op(target.OpI32TruncF64S)
	fe.c.localTee(iter)
	fe.c.i32Const(maxLoopCount)
	fe.c.op(target.OpI32GtS)
	fe.c.block(target.OpIf, target.BlockVoid)
	fe.c.i32Const(maxLoopCount)
	fe.c.localSet(iter)
	fe.c.end()
	fe.c.localGet(iter)
	fe.c.i32Const(0)
	fe.c.op(target.OpI32LeS)
	fe.c.op(target.OpBrIf).u32(0)

	fe.c.block(target.OpLoop, target.BlockVoid)
	if err := fe.emitExpression(body); err != nil {
		return err
	}
	fe.c.drop()
	fe.c.localGet(iter)
	fe.c.i32Const(1)
	fe.c.op(target.OpI32Sub)
	fe.c.localTee(iter)
	fe.c.i32Const(0)
	fe.c.op(target.OpI32Ne)
	fe.c.op(target.OpBrIf).u32(0)
	fe.c.end() // inner loop
	fe.c.end() // outer block
	fe.c.f64Const(0.0)
	return nil
}
