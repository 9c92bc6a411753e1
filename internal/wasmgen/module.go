// Package wasmgen lowers a compiled EEL function list into a target-VM
// binary module: Type/Import/Function/Memory/Global/Export/Code sections,
// LEB128-encoded throughout, following the WebAssembly MVP binary format.
package wasmgen

import (
	"fmt"
	"sort"

	"github.com/cwbudde/eel2wasm/internal/ast"
	"github.com/cwbudde/eel2wasm/internal/compilerrors"
	"github.com/cwbudde/eel2wasm/internal/target"
)

// CompileUnit is one exported EEL function: its export name, parsed body,
// the global pool its identifiers resolve against, and its original
// source text (kept so emit-time errors can point at the right snippet).
type CompileUnit struct {
	Name   string
	Fn     *ast.Function
	Pool   string
	Source string
}

var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6d}
var wasmVersion = [4]byte{0x01, 0x00, 0x00, 0x00}

// importedGlobal names one host-supplied global import: the module (pool,
// or "registers" for the shared register namespace) and field (variable
// name) it is imported as.
type importedGlobal struct{ module, field string }

// Disassembly maps each compiled unit's export name to its raw instruction
// stream, for callers (the CLI's --disassemble flag) that want a
// human-readable dump alongside the binary module.
type Disassembly map[string][]byte

// EmitModule compiles units into a binary module. globalsByPool lists every
// host-supplied global per pool, so each is imported even if no unit
// referenced it (the host always provides its full pool).
func EmitModule(units []CompileUnit, globalsByPool map[string][]string) ([]byte, Disassembly, *compilerrors.CompilerError) {
	shimOffset := uint32(len(allShims))
	ctx := newEmitterContext(shimOffset, uint32(len(units)))
	for _, s := range allShims {
		ctx.funcTypes.ensure(s.signature())
	}
	ctx.funcTypes.ensure(newFuncType(nil, nil)) // every exported unit's own signature

	// Import every host global up front, in a stable (pool, name) order, so
	// output is deterministic across runs regardless of map iteration order.
	pools := make([]string, 0, len(globalsByPool))
	for pool := range globalsByPool {
		pools = append(pools, pool)
	}
	sort.Strings(pools)

	var globalImports []importedGlobal

	// The register namespace (reg00-reg99) is always available, independent
	// of any pool the host declares, so it is imported unconditionally
	// rather than requiring every caller to list it.
	ctx.currentPool = ""
	for n := 0; n < 100; n++ {
		name := fmt.Sprintf("reg%02d", n)
		ctx.resolveVariable(name)
		globalImports = append(globalImports, importedGlobal{module: "registers", field: name})
	}

	for _, pool := range pools {
		names := append([]string(nil), globalsByPool[pool]...)
		sort.Strings(names)
		ctx.currentPool = pool
		for _, name := range names {
			if isRegisterName(name) {
				// Already imported unconditionally above; a pool listing
				// one too is redundant, not a second distinct global.
				continue
			}
			ctx.resolveVariable(name)
			globalImports = append(globalImports, importedGlobal{module: pool, field: name})
		}
	}

	// Every global import gets its dense index from the walk above; any
	// identifier a function references that the host never listed gets one
	// too, just later, and becomes a module-owned global instead of an
	// import (spec.md §4.8 step 5).
	importedGlobalCount := ctx.globals.len()

	compiled := make([]*compiledFunction, len(units))
	dump := make(Disassembly, len(units))
	for i, u := range units {
		body, err := emitFunction(u.Fn, u.Pool, ctx, u.Source)
		if err != nil {
			return nil, nil, err
		}
		compiled[i] = body
		dump[u.Name] = body.instrs
	}

	var buf []byte
	buf = append(buf, wasmMagic[:]...)
	buf = append(buf, wasmVersion[:]...)

	buf = appendSection(buf, target.SecType, emitTypeSection(ctx))
	buf = appendSection(buf, target.SecImport, emitImportSection(globalImports, ctx, shimOffset))
	buf = appendSection(buf, target.SecFunction, emitFunctionSection(ctx, len(units)))
	buf = appendSection(buf, target.SecMemory, emitMemorySection())
	if localGlobals := ctx.globals.len() - importedGlobalCount; localGlobals > 0 {
		buf = appendSection(buf, target.SecGlobal, emitGlobalSection(localGlobals))
	}
	buf = appendSection(buf, target.SecExport, emitExportSection(units, shimOffset))
	buf = appendSection(buf, target.SecCode, emitCodeSection(compiled, ctx))

	return buf, dump, nil
}

func appendSection(buf []byte, id byte, payload []byte) []byte {
	buf = append(buf, id)
	buf = target.AppendULEB128(buf, uint32(len(payload)))
	return append(buf, payload...)
}

func emitTypeSection(ctx *emitterContext) []byte {
	types := ctx.funcTypes.keyList()
	out := target.AppendULEB128(nil, uint32(len(types)))
	for _, t := range types {
		out = append(out, target.FuncTypeTag)
		params := t.paramTypes()
		out = target.AppendULEB128(out, uint32(len(params)))
		for _, p := range params {
			out = append(out, byte(p))
		}
		results := t.resultTypes()
		out = target.AppendULEB128(out, uint32(len(results)))
		for _, r := range results {
			out = append(out, byte(r))
		}
	}
	return out
}

func emitImportSection(globals []importedGlobal, ctx *emitterContext, shimOffset uint32) []byte {
	entries := len(globals) + int(shimOffset)
	out := target.AppendULEB128(nil, uint32(entries))
	for _, g := range globals {
		out = appendName(out, g.module)
		out = appendName(out, g.field)
		out = append(out, target.ExtGlobal)
		out = append(out, byte(target.F64))
		out = append(out, 1) // mutable
	}
	for _, s := range allShims {
		typeIdx := ctx.funcTypes.get(s.signature())
		out = appendName(out, "shims")
		out = appendName(out, s.name())
		out = append(out, target.ExtFunc)
		out = target.AppendULEB128(out, typeIdx)
	}
	return out
}

func appendName(buf []byte, s string) []byte {
	buf = target.AppendULEB128(buf, uint32(len(s)))
	return append(buf, s...)
}

// emitFunctionSection lists every locally-defined function (the eel
// functions, then the builtins actually referenced) in the same order
// they were assigned indices after the shim imports.
func emitFunctionSection(ctx *emitterContext, eelCount int) []byte {
	eelType := ctx.funcTypes.get(newFuncType(nil, nil))
	builtinNames := ctx.builtins.keyList()
	out := target.AppendULEB128(nil, uint32(eelCount+len(builtinNames)))
	for i := 0; i < eelCount; i++ {
		out = target.AppendULEB128(out, eelType)
	}
	for _, name := range builtinNames {
		b := builtinByName[name]
		out = target.AppendULEB128(out, ctx.funcTypes.get(b.signature()))
	}
	return out
}

// emitMemorySection declares the module's single memory with min == max,
// so the host allocates it at a fixed size instead of leaving it growable.
func emitMemorySection() []byte {
	out := target.AppendULEB128(nil, 1)
	out = append(out, 1) // has maximum
	out = target.AppendULEB128(out, wasmMemorySize)
	out = target.AppendULEB128(out, wasmMemorySize)
	return out
}

// emitGlobalSection declares count mutable f64 globals, each initialized to
// 0.0: one per identifier a unit referenced that no pool's global list
// covered. These occupy the global index space immediately after the
// imported globals, so no further index remapping is needed.
func emitGlobalSection(count int) []byte {
	out := target.AppendULEB128(nil, uint32(count))
	for i := 0; i < count; i++ {
		out = append(out, byte(target.F64), 1) // mutable f64
		out = append(out, target.OpF64Const)
		out = target.AppendF64(out, 0.0)
		out = append(out, target.OpEnd)
	}
	return out
}

func emitExportSection(units []CompileUnit, shimOffset uint32) []byte {
	out := target.AppendULEB128(nil, uint32(len(units)))
	for i, u := range units {
		out = appendName(out, u.Name)
		out = append(out, target.ExtFunc)
		out = target.AppendULEB128(out, shimOffset+uint32(i))
	}
	return out
}

func emitCodeSection(compiled []*compiledFunction, ctx *emitterContext) []byte {
	builtinNames := ctx.builtins.keyList()
	out := target.AppendULEB128(nil, uint32(len(compiled)+len(builtinNames)))
	for _, fn := range compiled {
		out = append(out, encodeFuncBody(fn.locals, fn.instrs)...)
	}
	for _, name := range builtinNames {
		b := builtinByName[name]
		out = append(out, encodeFuncBody(b.locals(), b.body())...)
	}
	return out
}

var builtinByName = func() map[string]builtin {
	all := []builtin{
		builtinDiv, builtinMod, builtinBitwiseAnd, builtinBitwiseOr,
		builtinLogicalAnd, builtinLogicalOr, builtinSqr, builtinSign,
		builtinGetBufferIndex,
	}
	m := make(map[string]builtin, len(all))
	for _, b := range all {
		m[b.name()] = b
	}
	return m
}()
