package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileSingleUnitProducesWasmModule(t *testing.T) {
	units := []Unit{{Export: "main", Source: "g = ((6 - -7.0) + 3.0);", Pool: "preset"}}
	module, _, err := Compile(units, Globals{"preset": {"g"}})
	require.Nil(t, err)
	require.True(t, len(module) > 8)
	require.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d}, module[:4])
}

func TestCompilePropagatesParseErrors(t *testing.T) {
	units := []Unit{{Export: "main", Source: "g = ;", Pool: "preset"}}
	_, _, err := Compile(units, Globals{"preset": {"g"}})
	require.NotNil(t, err)
}

func TestCompileDeclaresUndeclaredVariableAsLocalGlobal(t *testing.T) {
	units := []Unit{{Export: "main", Source: "h = 1;", Pool: "preset"}}
	module, _, err := Compile(units, Globals{"preset": {"g"}})
	require.Nil(t, err)
	require.NotEmpty(t, module)
}

func TestCompileExportsEveryUnit(t *testing.T) {
	units := []Unit{
		{Export: "frame", Source: "g = g + 1.0;", Pool: "preset"},
		{Export: "beat", Source: "g = 0;", Pool: "preset"},
	}
	module, dump, err := Compile(units, Globals{"preset": {"g"}})
	require.Nil(t, err)
	require.NotEmpty(t, module)
	require.Len(t, dump, 2)
}

// Seed scenarios mirror the documented reference behaviors for assignment,
// exponent right-associativity, safe division, bounded loops, short-circuit
// logical operators, and the megabuf index quirk. Since the compiler's
// output is a binary WASM module, these only assert that each compiles
// without error; the numeric outcomes are covered by wasmgen's disassembly
// snapshots.
func TestSeedScenariosCompile(t *testing.T) {
	scenarios := []string{
		"g = ((6 - -7.0) + 3.0);",
		"g = 2 ^ 2 ^ 4;",
		"g = 100 / 0;",
		"loop(10, g = g + 1.0);",
		"0 && (g = 10);",
		"megabuf(-1) = 10; g = megabuf(0);",
		"megabuf(8388608) = 10;",
		"while(exec2(g = g + 1, g - 10.0));",
		"g = sigmoid(1, 2.0);",
	}
	for _, src := range scenarios {
		units := []Unit{{Export: "main", Source: src, Pool: "preset"}}
		_, _, err := Compile(units, Globals{"preset": {"g"}})
		require.Nil(t, err, "scenario %q failed: %v", src, err)
	}
}
