package wasmgen

import "github.com/cwbudde/eel2wasm/internal/target"

// code accumulates a function body's instruction stream. Every emitter in
// this package (the builtin bodies and the per-expression function
// emitter) appends to one of these rather than building an intermediate
// instruction tree; the target VM's encoding is simple enough that the
// byte stream IS the intermediate representation.
type code struct {
	buf []byte
}

func (c *code) op(b byte) *code {
	c.buf = append(c.buf, b)
	return c
}

func (c *code) u32(v uint32) *code {
	c.buf = target.AppendULEB128(c.buf, v)
	return c
}

func (c *code) i32Const(v int32) *code {
	c.op(target.OpI32Const)
	c.buf = target.AppendSLEB128(c.buf, v)
	return c
}

func (c *code) f64Const(v float64) *code {
	c.op(target.OpF64Const)
	c.buf = target.AppendF64(c.buf, v)
	return c
}

func (c *code) localGet(idx uint32) *code  { return c.op(target.OpLocalGet).u32(idx) }
func (c *code) localSet(idx uint32) *code  { return c.op(target.OpLocalSet).u32(idx) }
func (c *code) localTee(idx uint32) *code  { return c.op(target.OpLocalTee).u32(idx) }
func (c *code) globalGet(idx uint32) *code { return c.op(target.OpGlobalGet).u32(idx) }
func (c *code) globalSet(idx uint32) *code { return c.op(target.OpGlobalSet).u32(idx) }
func (c *code) call(idx uint32) *code      { return c.op(target.OpCall).u32(idx) }

// block opens a block/loop/if with the given result type (BlockVoid,
// BlockF64 or BlockI32).
func (c *code) block(opcode byte, result byte) *code {
	return c.op(opcode).op(result)
}

func (c *code) els() *code { return c.op(target.OpElse) }
func (c *code) end() *code { return c.op(target.OpEnd) }
func (c *code) drop() *code { return c.op(target.OpDrop) }

func (c *code) bytes() []byte { return c.buf }

// encodeLocals writes a function body's local-declaration vector: a
// ULEB128 count of distinct runs followed by (count, type) pairs. Each of
// this compiler's locals is declared individually (count == 1) since
// locals are allocated one at a time and never coalesced by type.
func encodeLocals(locals []target.ValueType) []byte {
	out := target.AppendULEB128(nil, uint32(len(locals)))
	for _, t := range locals {
		out = target.AppendULEB128(out, 1)
		out = append(out, byte(t))
	}
	return out
}

// encodeFuncBody wraps a locals vector and instruction stream (which must
// already end in target.OpEnd) into a Code section entry: a ULEB128 byte
// length followed by the body bytes.
func encodeFuncBody(locals []target.ValueType, instrs []byte) []byte {
	body := append(encodeLocals(locals), instrs...)
	return append(target.AppendULEB128(nil, uint32(len(body))), body...)
}
