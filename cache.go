package embtls

import (
	"crypto/tls"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SessionCache is a bounded most-recently-used cache of engine session
// state, used by client-mode Sessions to resume earlier handshakes instead
// of running a full key exchange.
type SessionCache struct {
	entries *lru.Cache[string, *tls.ClientSessionState]
}

// NewSessionCache returns a cache holding at most capacity sessions.
func NewSessionCache(capacity int) (*SessionCache, error) {
	entries, err := lru.New[string, *tls.ClientSessionState](capacity)
	if err != nil {
		return nil, err
	}
	return &SessionCache{entries: entries}, nil
}

// Get implements [tls.ClientSessionCache].
func (c *SessionCache) Get(sessionKey string) (*tls.ClientSessionState, bool) {
	return c.entries.Get(sessionKey)
}

// Put implements [tls.ClientSessionCache]. A nil session removes the entry,
// matching the engine's contract for invalidated sessions.
func (c *SessionCache) Put(sessionKey string, cs *tls.ClientSessionState) {
	if cs == nil {
		c.entries.Remove(sessionKey)
		return
	}
	c.entries.Add(sessionKey, cs)
}

// Len reports the number of cached sessions.
func (c *SessionCache) Len() int {
	return c.entries.Len()
}
