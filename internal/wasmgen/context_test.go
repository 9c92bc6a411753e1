package wasmgen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRegisterName(t *testing.T) {
	require.True(t, isRegisterName("reg00"))
	require.True(t, isRegisterName("reg99"))
	require.False(t, isRegisterName("reg"))
	require.False(t, isRegisterName("reg100"))
	require.False(t, isRegisterName("g"))
}

func TestResolveVariableSharesRegistersAcrossPools(t *testing.T) {
	ctx := newEmitterContext(0, 1)
	ctx.currentPool = "presetA"
	a := ctx.resolveVariable("reg03")
	ctx.currentPool = "presetB"
	b := ctx.resolveVariable("reg03")
	require.Equal(t, a, b)
}

func TestResolveVariableIsolatesNonRegistersPerPool(t *testing.T) {
	ctx := newEmitterContext(0, 1)
	ctx.currentPool = "presetA"
	a := ctx.resolveVariable("g")
	ctx.currentPool = "presetB"
	b := ctx.resolveVariable("g")
	require.NotEqual(t, a, b)
}

func TestResolveEelAndShimAndBuiltinOffsets(t *testing.T) {
	ctx := newEmitterContext(uint32(len(allShims)), 2)
	require.Equal(t, uint32(0), ctx.resolveShim(shimSin))
	require.Equal(t, ctx.shimOffset, ctx.resolveEel(0))
	require.Equal(t, ctx.shimOffset+1, ctx.resolveEel(1))
	first := ctx.resolveBuiltin(builtinDiv)
	require.Equal(t, ctx.shimOffset+ctx.eelCount, first)
	second := ctx.resolveBuiltin(builtinMod)
	require.Equal(t, first+1, second)
	// re-resolving the same builtin must not consume a new index
	require.Equal(t, first, ctx.resolveBuiltin(builtinDiv))
}
