package wasmgen

import "github.com/cwbudde/eel2wasm/internal/target"

// builtin is a function the emitter synthesizes directly into the module's
// Code section, rather than importing from the host. These cover operators
// and calls whose result needs more than a single WASM opcode: safe
// divide/modulo, the bitwise/logical combinators, sqr, sign, and the
// megabuf/gmegabuf index normalizer.
type builtin int

const (
	builtinDiv builtin = iota
	builtinMod
	builtinBitwiseAnd
	builtinBitwiseOr
	builtinLogicalAnd
	builtinLogicalOr
	builtinSqr
	builtinSign
	builtinGetBufferIndex
)

var builtinNames = map[builtin]string{
	builtinDiv:            "div",
	builtinMod:            "mod",
	builtinBitwiseAnd:     "bitwise_and",
	builtinBitwiseOr:      "bitwise_or",
	builtinLogicalAnd:     "logical_and",
	builtinLogicalOr:      "logical_or",
	builtinSqr:            "sqr",
	builtinSign:           "sign",
	builtinGetBufferIndex: "get_buffer_index",
}

func (b builtin) name() string { return builtinNames[b] }

func (b builtin) signature() funcType {
	if b == builtinGetBufferIndex {
		return newFuncType([]target.ValueType{target.F64}, []target.ValueType{target.I32})
	}
	if b == builtinSqr || b == builtinSign {
		return newFuncType([]target.ValueType{target.F64}, []target.ValueType{target.F64})
	}
	return newFuncType([]target.ValueType{target.F64, target.F64}, []target.ValueType{target.F64})
}

// locals lists the extra locals (beyond the parameters) a builtin's body
// declares, in declaration order starting at the first local index past
// the parameter count.
func (b builtin) locals() []target.ValueType {
	if b == builtinGetBufferIndex {
		return []target.ValueType{target.I32}
	}
	return nil
}

// body returns the builtin's instruction stream, terminated by OpEnd.
func (b builtin) body() []byte {
	c := &code{}
	switch b {
	case builtinDiv:
		c.localGet(1).f64Const(0).op(target.OpF64Ne)
		c.block(target.OpIf, target.BlockF64)
		c.localGet(0).localGet(1).op(target.OpF64Div)
		c.els()
		c.f64Const(0)
		c.end()
	case builtinMod:
		c.localGet(1).f64Const(0).op(target.OpF64Ne)
		c.block(target.OpIf, target.BlockF64)
		c.localGet(0).op(target.OpI32TruncF64S)
		c.localGet(1).op(target.OpI32TruncF64S)
		c.op(target.OpI32RemS)
		c.op(target.OpF64ConvertI32S)
		c.els()
		c.f64Const(0)
		c.end()
	case builtinBitwiseAnd:
		c.localGet(0).op(target.OpI32TruncF64S)
		c.localGet(1).op(target.OpI32TruncF64S)
		c.op(target.OpI32And)
		c.op(target.OpF64ConvertI32S)
	case builtinBitwiseOr:
		c.localGet(0).op(target.OpI32TruncF64S)
		c.localGet(1).op(target.OpI32TruncF64S)
		c.op(target.OpI32Or)
		c.op(target.OpF64ConvertI32S)
	case builtinLogicalAnd:
		c.localGet(0).op(target.OpF64Abs).f64Const(epsilon).op(target.OpF64Gt)
		c.localGet(1).op(target.OpF64Abs).f64Const(epsilon).op(target.OpF64Gt)
		c.op(target.OpI32And)
		c.op(target.OpF64ConvertI32S)
	case builtinLogicalOr:
		c.localGet(0).op(target.OpF64Abs).f64Const(epsilon).op(target.OpF64Gt)
		c.localGet(1).op(target.OpF64Abs).f64Const(epsilon).op(target.OpF64Gt)
		c.op(target.OpI32Or)
		c.op(target.OpF64ConvertI32S)
	case builtinSqr:
		c.localGet(0).localGet(0).op(target.OpF64Mul)
	case builtinSign:
		c.localGet(0).f64Const(epsilon).op(target.OpF64Gt)
		c.block(target.OpIf, target.BlockF64)
		c.f64Const(1.0)
		c.els()
		c.localGet(0).op(target.OpF64Neg).f64Const(epsilon).op(target.OpF64Gt)
		c.block(target.OpIf, target.BlockF64)
		c.f64Const(-1.0)
		c.els()
		c.f64Const(0.0)
		c.end()
		c.end()
	case builtinGetBufferIndex:
		// Returns a byte offset (slot * 8), not a slot index: callers feed
		// the result straight into f64.load/f64.store.
		c.localGet(0).f64Const(epsilon).op(target.OpF64Add).op(target.OpI32TruncF64S)
		c.localTee(1)
		c.i32Const(0)
		c.op(target.OpI32LtS)
		c.block(target.OpIf, target.BlockI32)
		c.i32Const(-1)
		c.els()
		c.localGet(1)
		c.i32Const(bufferSize)
		c.op(target.OpI32LtS)
		c.block(target.OpIf, target.BlockI32)
		c.localGet(1)
		c.i32Const(8)
		c.op(target.OpI32Mul)
		c.els()
		c.i32Const(-1)
		c.end()
		c.end()
	}
	c.end()
	return c.bytes()
}
