package wasmgen

import (
	"bytes"
	"testing"

	"github.com/cwbudde/eel2wasm/internal/ast"
	"github.com/cwbudde/eel2wasm/internal/lexer"
	"github.com/cwbudde/eel2wasm/internal/parser"
	"github.com/cwbudde/eel2wasm/internal/target"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"
)

func parseFunction(t *testing.T, source string) *ast.Function {
	t.Helper()
	l := lexer.New(source)
	p := parser.New(l, source)
	fn, err := p.ParseFunction()
	require.Nil(t, err, "unexpected parse error: %v", err)
	return fn
}

func mustEmit(t *testing.T, source string, pool string, globals map[string][]string) ([]byte, Disassembly) {
	t.Helper()
	fn := parseFunction(t, source)
	units := []CompileUnit{{Name: "main", Fn: fn, Pool: pool, Source: source}}
	module, dump, err := EmitModule(units, globals)
	require.Nil(t, err, "unexpected emit error: %v", err)
	return module, dump
}

// sectionIDs walks the module's sections after the 8-byte header and
// returns their IDs in file order.
func sectionIDs(module []byte) []byte {
	var ids []byte
	for off := 8; off < len(module); {
		size, n := readULEB128(module[off+1:])
		ids = append(ids, module[off])
		off += 1 + n + int(size)
	}
	return ids
}

func TestEmitModuleHasWasmHeader(t *testing.T) {
	module, _ := mustEmit(t, "g = 1;", "p", map[string][]string{"p": {"g"}})
	require.True(t, bytes.HasPrefix(module, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}))
}

func TestEmitModuleSectionsAppearInOrder(t *testing.T) {
	module, _ := mustEmit(t, "g = 1;", "p", map[string][]string{"p": {"g"}})
	// Section IDs must appear, each preceded by its predecessor, after the header.
	ids := sectionIDs(module)
	var lastIdx = -1
	for _, id := range []byte{target.SecType, target.SecImport, target.SecFunction, target.SecMemory, target.SecExport, target.SecCode} {
		idx := bytes.IndexByte(ids, id)
		require.Greater(t, idx, lastIdx, "section 0x%x out of order", id)
		lastIdx = idx
	}
}

func TestEmitModuleSectionsAppearInOrderWithLocalGlobal(t *testing.T) {
	// An identifier no pool lists still compiles; it becomes a module-owned
	// global (spec.md §4.8 step 5) and the Global section sits between
	// Memory and Export.
	module, _ := mustEmit(t, "undeclared = 1;", "p", map[string][]string{"p": {"other"}})
	ids := sectionIDs(module)
	var lastIdx = -1
	for _, id := range []byte{target.SecType, target.SecImport, target.SecFunction, target.SecMemory, target.SecGlobal, target.SecExport, target.SecCode} {
		idx := bytes.IndexByte(ids, id)
		require.Greater(t, idx, lastIdx, "section 0x%x out of order", id)
		lastIdx = idx
	}
}

func TestEmitModuleDeclaresNonImportedVariableAsLocalGlobal(t *testing.T) {
	fn := parseFunction(t, "undeclared = 1;")
	units := []CompileUnit{{Name: "main", Fn: fn, Pool: "p", Source: "undeclared = 1;"}}
	module, _, err := EmitModule(units, map[string][]string{"p": {"other"}})
	require.Nil(t, err)
	require.NotEmpty(t, module)
}

func TestEmitModuleImportsRegistersUnconditionally(t *testing.T) {
	module, dump := mustEmit(t, "reg00 = reg00 + 1;", "p", map[string][]string{"p": {}})
	require.Contains(t, dump, "main")
	// reg99 is never referenced and no pool lists it, yet it is imported.
	require.True(t, bytes.Contains(module, []byte("\x09registers\x05reg99")))
}

func TestDisassembleSimpleAssignment(t *testing.T) {
	_, dump := mustEmit(t, "g = ((6 - -7.0) + 3.0);", "p", map[string][]string{"p": {"g"}})
	var buf bytes.Buffer
	NewDisassembler(dump["main"], &buf).Disassemble()
	snaps.MatchSnapshot(t, buf.String())
}

func TestDisassembleLoop(t *testing.T) {
	_, dump := mustEmit(t, "loop(10, g = g + 1.0);", "p", map[string][]string{"p": {"g"}})
	var buf bytes.Buffer
	NewDisassembler(dump["main"], &buf).Disassemble()
	snaps.MatchSnapshot(t, buf.String())
}

func TestDisassembleShortCircuitAnd(t *testing.T) {
	_, dump := mustEmit(t, "0 && (g = 10);", "p", map[string][]string{"p": {"g"}})
	var buf bytes.Buffer
	NewDisassembler(dump["main"], &buf).Disassemble()
	snaps.MatchSnapshot(t, buf.String())
}

func TestDisassembleMegabufAssignment(t *testing.T) {
	_, dump := mustEmit(t, "megabuf(-1) = 10; g = megabuf(0);", "p", map[string][]string{"p": {"g"}})
	var buf bytes.Buffer
	NewDisassembler(dump["main"], &buf).Disassemble()
	snaps.MatchSnapshot(t, buf.String())
}

func TestDisassembleSigmoidCall(t *testing.T) {
	_, dump := mustEmit(t, "g = sigmoid(1, 2.0);", "p", map[string][]string{"p": {"g"}})
	var buf bytes.Buffer
	NewDisassembler(dump["main"], &buf).Disassemble()
	snaps.MatchSnapshot(t, buf.String())
}

func TestMultiUnitCompilationSharesShimsAndSplitsGlobalsByPool(t *testing.T) {
	fnA := parseFunction(t, "a = a + 1;")
	fnB := parseFunction(t, "a = a + 2;")
	units := []CompileUnit{
		{Name: "presetA", Fn: fnA, Pool: "A", Source: "a = a + 1;"},
		{Name: "presetB", Fn: fnB, Pool: "B", Source: "a = a + 2;"},
	}
	module, dump, err := EmitModule(units, map[string][]string{"A": {"a"}, "B": {"a"}})
	require.Nil(t, err)
	require.NotEmpty(t, module)
	require.Contains(t, dump, "presetA")
	require.Contains(t, dump, "presetB")
}
