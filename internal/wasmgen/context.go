package wasmgen

import (
	"regexp"

	"github.com/cwbudde/eel2wasm/internal/target"
)

// registerPattern recognizes the pool-independent register namespace:
// identifiers matching reg[0-9][0-9] share a single global across every
// pool rather than being duplicated per pool.
var registerPattern = regexp.MustCompile(`^reg[0-9]{2}$`)

func isRegisterName(name string) bool {
	return registerPattern.MatchString(name)
}

// funcType is a WASM function signature, keyed by its parameter and result
// value types so identical signatures intern to the same Type section entry.
type funcType struct {
	params  string // target.ValueType bytes, packed for comparability
	results string
}

func newFuncType(params, results []target.ValueType) funcType {
	return funcType{params: packTypes(params), results: packTypes(results)}
}

func packTypes(types []target.ValueType) string {
	b := make([]byte, len(types))
	for i, t := range types {
		b[i] = byte(t)
	}
	return string(b)
}

func (t funcType) paramTypes() []target.ValueType  { return unpackTypes(t.params) }
func (t funcType) resultTypes() []target.ValueType { return unpackTypes(t.results) }

func unpackTypes(s string) []target.ValueType {
	out := make([]target.ValueType, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = target.ValueType(s[i])
	}
	return out
}

// globalKey identifies a global variable slot. pool is empty for register
// names (reg00-reg99), which are shared across every pool; otherwise it
// holds the current compile unit's pool name.
type globalKey struct {
	pool string
	name string
}

// emitterContext accumulates every interned table shared across the
// functions in a single compilation: variables, function signatures, and
// the set of builtins actually referenced. One context is built per
// Compile call and threaded through every function emitted into that
// module.
//
// The module's function index space is laid out in three fixed bands:
// shim imports [0, shimOffset), the caller's EEL functions
// [shimOffset, shimOffset+eelCount), then builtins, assigned in the order
// they are first referenced. shimOffset and eelCount are known before any
// function body is emitted, so shim and EEL call targets are computed
// directly; only builtins need an index store, since which ones end up
// used (and in what order) is discovered during emission.
type emitterContext struct {
	currentPool string
	shimOffset  uint32
	eelCount    uint32
	globals     *indexStore[globalKey]
	funcTypes   *indexStore[funcType]
	builtins    *indexStore[string]
}

func newEmitterContext(shimOffset, eelCount uint32) *emitterContext {
	return &emitterContext{
		shimOffset: shimOffset,
		eelCount:   eelCount,
		globals:    newIndexStore[globalKey](),
		funcTypes:  newIndexStore[funcType](),
		builtins:   newIndexStore[string](),
	}
}

// resolveVariable returns name's global index, creating it in the current
// pool (or in the shared register namespace) if this is the first reference.
func (c *emitterContext) resolveVariable(name string) uint32 {
	pool := c.currentPool
	if isRegisterName(name) {
		pool = ""
	}
	return c.globals.get(globalKey{pool: pool, name: name})
}

// resolveShim returns a shim's fixed import index: shims are always
// imported in allShims order regardless of which ones a given module
// actually calls, so its index is simply its ordinal in that list.
func (c *emitterContext) resolveShim(s shim) uint32 {
	return uint32(s)
}

// resolveBuiltin returns a builtin's function index, interning it (in
// first-reference order) past the shim and EEL bands if this is the first
// call site that needs it.
func (c *emitterContext) resolveBuiltin(b builtin) uint32 {
	c.funcTypes.ensure(b.signature())
	return c.shimOffset + c.eelCount + c.builtins.get(b.name())
}

// resolveEel returns the function index of the idx'th EEL function passed
// to EmitModule.
func (c *emitterContext) resolveEel(idx int) uint32 {
	return c.shimOffset + uint32(idx)
}
