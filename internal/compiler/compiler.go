// Package compiler exposes the single entry point that turns a set of
// named EEL sources into one target-VM binary module.
package compiler

import (
	"github.com/cwbudde/eel2wasm/internal/compilerrors"
	"github.com/cwbudde/eel2wasm/internal/lexer"
	"github.com/cwbudde/eel2wasm/internal/parser"
	"github.com/cwbudde/eel2wasm/internal/wasmgen"
)

// Unit is a single EEL source to compile into an exported function.
type Unit struct {
	// Export is the name the compiled function is exported under.
	Export string
	// Source is the EEL source text for this unit.
	Source string
	// Pool names the global namespace Source's identifiers resolve
	// against (distinct pools may hold distinct variables of the same
	// name; see Globals).
	Pool string
}

// Globals lists, per pool, every numeric global the host makes available
// to that pool. The register namespace (reg00-reg99) is implicit and
// shared across every pool; it does not need to be listed here.
type Globals map[string][]string

// Disassembly maps each unit's export name to its raw instruction stream,
// for tooling that wants a human-readable dump alongside the binary module.
type Disassembly = wasmgen.Disassembly

// Compile parses and emits every unit into one binary module exporting one
// function per unit, in order. All units share a single linear memory and
// function/type table; only their global namespace (Pool) differs.
func Compile(units []Unit, globals Globals) ([]byte, Disassembly, *compilerrors.CompilerError) {
	compileUnits := make([]wasmgen.CompileUnit, len(units))
	for i, u := range units {
		l := lexer.New(u.Source)
		p := parser.New(l, u.Source)
		fn, err := p.ParseFunction()
		if err != nil {
			return nil, nil, err
		}
		compileUnits[i] = wasmgen.CompileUnit{Name: u.Export, Fn: fn, Pool: u.Pool, Source: u.Source}
	}

	return wasmgen.EmitModule(compileUnits, map[string][]string(globals))
}
