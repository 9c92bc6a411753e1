package wasmgen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexStoreInternsInInsertionOrder(t *testing.T) {
	s := newIndexStore[string]()
	require.Equal(t, uint32(0), s.get("a"))
	require.Equal(t, uint32(1), s.get("b"))
	require.Equal(t, uint32(0), s.get("a"))
	require.Equal(t, []string{"a", "b"}, s.keyList())
	require.Equal(t, 2, s.len())
}

func TestIndexStoreEnsureDoesNotReturnButStillInterns(t *testing.T) {
	s := newIndexStore[globalKey]()
	s.ensure(globalKey{pool: "p", name: "x"})
	s.ensure(globalKey{pool: "p", name: "x"})
	require.Equal(t, 1, s.len())
}
