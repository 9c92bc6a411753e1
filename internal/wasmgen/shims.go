package wasmgen

import "github.com/cwbudde/eel2wasm/internal/target"

// shim is a math function the target VM does not implement natively and
// instead imports from the host's "shims" module: trigonometry, logs,
// exponentiation, and the sigmoid activation used by some presets.
type shim int

const (
	shimSin shim = iota
	shimCos
	shimTan
	shimAsin
	shimAcos
	shimAtan
	shimAtan2
	shimLog
	shimLog10
	shimExp
	shimPow
	shimSigmoid
)

// shimByName maps an EEL function call name to the shim it lowers to, if any.
var shimByName = map[string]shim{
	"sin":     shimSin,
	"cos":     shimCos,
	"tan":     shimTan,
	"asin":    shimAsin,
	"acos":    shimAcos,
	"atan":    shimAtan,
	"atan2":   shimAtan2,
	"log":     shimLog,
	"log10":   shimLog10,
	"exp":     shimExp,
	"pow":     shimPow,
	"sigmoid": shimSigmoid,
}

func (s shim) name() string {
	for name, candidate := range shimByName {
		if candidate == s {
			return name
		}
	}
	return "unknown"
}

func (s shim) arity() int {
	switch s {
	case shimAtan2, shimPow, shimSigmoid:
		return 2
	default:
		return 1
	}
}

func (s shim) signature() funcType {
	params := make([]target.ValueType, s.arity())
	for i := range params {
		params[i] = target.F64
	}
	return newFuncType(params, []target.ValueType{target.F64})
}

// allShims lists every shim in a fixed order, used to build the import
// section deterministically rather than relying on map iteration order.
var allShims = []shim{
	shimSin, shimCos, shimTan, shimAsin, shimAcos, shimAtan,
	shimAtan2, shimLog, shimLog10, shimExp, shimPow, shimSigmoid,
}
