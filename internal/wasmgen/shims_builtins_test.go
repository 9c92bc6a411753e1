package wasmgen

import (
	"testing"

	"github.com/cwbudde/eel2wasm/internal/target"
	"github.com/stretchr/testify/require"
)

func TestShimArities(t *testing.T) {
	require.Equal(t, 1, shimSin.arity())
	require.Equal(t, 2, shimAtan2.arity())
	require.Equal(t, 2, shimPow.arity())
	require.Equal(t, 2, shimSigmoid.arity())
}

func TestShimSignatureParamCountMatchesArity(t *testing.T) {
	sig := shimAtan2.signature()
	require.Len(t, sig.paramTypes(), 2)
	require.Equal(t, []target.ValueType{target.F64}, sig.resultTypes())
}

func TestAllShimsOrderMatchesEnum(t *testing.T) {
	for i, s := range allShims {
		require.Equal(t, shim(i), s)
	}
}

func TestShimByNameRoundTrips(t *testing.T) {
	for name, s := range shimByName {
		require.Equal(t, name, s.name())
	}
}

func TestBuiltinSignatures(t *testing.T) {
	require.Equal(t, []target.ValueType{target.I32}, builtinGetBufferIndex.signature().resultTypes())
	require.Equal(t, []target.ValueType{target.F64}, builtinSqr.signature().resultTypes())
	require.Len(t, builtinDiv.signature().paramTypes(), 2)
}

func TestBuiltinBodyEndsWithOpEnd(t *testing.T) {
	for _, b := range []builtin{
		builtinDiv, builtinMod, builtinBitwiseAnd, builtinBitwiseOr,
		builtinLogicalAnd, builtinLogicalOr, builtinSqr, builtinSign,
		builtinGetBufferIndex,
	} {
		body := b.body()
		require.NotEmpty(t, body)
		require.Equal(t, byte(target.OpEnd), body[len(body)-1])
	}
}

func TestGetBufferIndexDeclaresOneExtraLocal(t *testing.T) {
	require.Equal(t, []target.ValueType{target.I32}, builtinGetBufferIndex.locals())
	require.Nil(t, builtinDiv.locals())
}
