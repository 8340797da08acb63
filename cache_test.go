package embtls_test

import (
	"crypto/tls"
	"testing"

	"github.com/embtls/embtls"
	"github.com/stretchr/testify/require"
)

var _ tls.ClientSessionCache = (*embtls.SessionCache)(nil)

func TestSessionCacheBound(t *testing.T) {
	cache, err := embtls.NewSessionCache(2)
	require.NoError(t, err)

	cache.Put("a", &tls.ClientSessionState{})
	cache.Put("b", &tls.ClientSessionState{})
	cache.Put("c", &tls.ClientSessionState{})

	require.Equal(t, 2, cache.Len())

	// The least recently used entry is the one evicted.
	_, ok := cache.Get("a")
	require.False(t, ok)
	_, ok = cache.Get("c")
	require.True(t, ok)
}

func TestSessionCachePutNilRemoves(t *testing.T) {
	cache, err := embtls.NewSessionCache(2)
	require.NoError(t, err)

	cache.Put("a", &tls.ClientSessionState{})
	require.Equal(t, 1, cache.Len())

	cache.Put("a", nil)
	require.Equal(t, 0, cache.Len())

	_, ok := cache.Get("a")
	require.False(t, ok)
}

func TestSessionCacheInvalidCapacity(t *testing.T) {
	_, err := embtls.NewSessionCache(0)
	require.Error(t, err)
}
