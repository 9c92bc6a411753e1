package wasmgen

import (
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/eel2wasm/internal/target"
)

// Disassembler prints a human-readable view of a single function body's
// instruction stream, for the CLI's --disassemble flag.
type Disassembler struct {
	writer io.Writer
	code   []byte
}

// NewDisassembler creates a Disassembler over a function body's raw
// instruction bytes (as returned alongside a compiled function, ending in
// target.OpEnd).
func NewDisassembler(code []byte, writer io.Writer) *Disassembler {
	return &Disassembler{writer: writer, code: code}
}

// Disassemble prints every instruction in the stream, one per line,
// prefixed by its byte offset.
func (d *Disassembler) Disassemble() {
	offset := 0
	depth := 0
	for offset < len(d.code) {
		start := offset
		mnemonic, next := d.decode(offset, &depth)
		fmt.Fprintf(d.writer, "[%04d] %s\n", start, mnemonic)
		offset = next
	}
}

func (d *Disassembler) decode(offset int, depth *int) (string, int) {
	op := d.code[offset]
	offset++

	switch op {
	case target.OpEnd:
		*depth--
		return "end", offset
	case target.OpElse:
		return "else", offset
	case target.OpDrop:
		return "drop", offset
	case target.OpBlock:
		*depth++
		bt, n := d.blockType(offset)
		return fmt.Sprintf("block %s", bt), offset + n
	case target.OpLoop:
		*depth++
		bt, n := d.blockType(offset)
		return fmt.Sprintf("loop %s", bt), offset + n
	case target.OpIf:
		*depth++
		bt, n := d.blockType(offset)
		return fmt.Sprintf("if %s", bt), offset + n
	case target.OpBr:
		v, n := readULEB128(d.code[offset:])
		return fmt.Sprintf("br %d", v), offset + n
	case target.OpBrIf:
		v, n := readULEB128(d.code[offset:])
		return fmt.Sprintf("br_if %d", v), offset + n
	case target.OpCall:
		v, n := readULEB128(d.code[offset:])
		return fmt.Sprintf("call %d", v), offset + n
	case target.OpLocalGet:
		v, n := readULEB128(d.code[offset:])
		return fmt.Sprintf("local.get %d", v), offset + n
	case target.OpLocalSet:
		v, n := readULEB128(d.code[offset:])
		return fmt.Sprintf("local.set %d", v), offset + n
	case target.OpLocalTee:
		v, n := readULEB128(d.code[offset:])
		return fmt.Sprintf("local.tee %d", v), offset + n
	case target.OpGlobalGet:
		v, n := readULEB128(d.code[offset:])
		return fmt.Sprintf("global.get %d", v), offset + n
	case target.OpGlobalSet:
		v, n := readULEB128(d.code[offset:])
		return fmt.Sprintf("global.set %d", v), offset + n
	case target.OpI32Const:
		v, n := readSLEB128(d.code[offset:])
		return fmt.Sprintf("i32.const %d", v), offset + n
	case target.OpF64Const:
		bits := uint64(0)
		for i := 7; i >= 0; i-- {
			bits = bits<<8 | uint64(d.code[offset+i])
		}
		return fmt.Sprintf("f64.const %g", math.Float64frombits(bits)), offset + 8
	case target.OpF64Load:
		_, n1 := readULEB128(d.code[offset:])
		off, n2 := readULEB128(d.code[offset+n1:])
		return fmt.Sprintf("f64.load offset=%d", off), offset + n1 + n2
	case target.OpF64Store:
		_, n1 := readULEB128(d.code[offset:])
		off, n2 := readULEB128(d.code[offset+n1:])
		return fmt.Sprintf("f64.store offset=%d", off), offset + n1 + n2
	}

	if mnemonic, ok := simpleOpcodes[op]; ok {
		return mnemonic, offset
	}
	return fmt.Sprintf("unknown(0x%02x)", op), offset
}

func (d *Disassembler) blockType(offset int) (string, int) {
	switch d.code[offset] {
	case target.BlockVoid:
		return "", 1
	case target.BlockF64:
		return "(result f64)", 1
	case target.BlockI32:
		return "(result i32)", 1
	default:
		return "?", 1
	}
}

var simpleOpcodes = map[byte]string{
	target.OpI32Eqz:         "i32.eqz",
	target.OpI32Ne:          "i32.ne",
	target.OpI32LtS:         "i32.lt_s",
	target.OpI32LtU:         "i32.lt_u",
	target.OpI32GtS:         "i32.gt_s",
	target.OpI32LeS:         "i32.le_s",
	target.OpI32GeS:         "i32.ge_s",
	target.OpI32Add:         "i32.add",
	target.OpI32Sub:         "i32.sub",
	target.OpI32RemS:        "i32.rem_s",
	target.OpI32And:         "i32.and",
	target.OpI32Or:          "i32.or",
	target.OpF64Eq:          "f64.eq",
	target.OpF64Ne:          "f64.ne",
	target.OpF64Lt:          "f64.lt",
	target.OpF64Gt:          "f64.gt",
	target.OpF64Le:          "f64.le",
	target.OpF64Ge:          "f64.ge",
	target.OpF64Abs:         "f64.abs",
	target.OpF64Neg:         "f64.neg",
	target.OpF64Ceil:        "f64.ceil",
	target.OpF64Floor:       "f64.floor",
	target.OpF64Sqrt:        "f64.sqrt",
	target.OpF64Add:         "f64.add",
	target.OpF64Sub:         "f64.sub",
	target.OpF64Mul:         "f64.mul",
	target.OpF64Div:         "f64.div",
	target.OpF64Min:         "f64.min",
	target.OpF64Max:         "f64.max",
	target.OpI32TruncF64S:   "i32.trunc_f64_s",
	target.OpF64ConvertI32S: "f64.convert_i32_s",
}

func readULEB128(buf []byte) (uint32, int) {
	var result uint32
	var shift uint
	for i, b := range buf {
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
	}
	return result, len(buf)
}

func readSLEB128(buf []byte) (int32, int) {
	var result int32
	var shift uint
	var b byte
	i := 0
	for {
		b = buf[i]
		result |= int32(b&0x7f) << shift
		shift += 7
		i++
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 32 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, i
}
