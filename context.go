package embtls

import (
	"crypto"
	"errors"
	"sync"

	"github.com/embtls/embtls/internal/engine"
)

// Context represents one reusable TLS configuration: the protocol preset,
// the shared random generator, and the local identity loaded with
// [Context.LoadCertificateChain]. Sessions are originated from a Context
// with [NewSession] and must be closed before the Context is.
type Context struct {
	state *State
	token *slotToken

	protocol Protocol
	cfg      *Config

	mu       sync.Mutex
	closed   bool
	sessions int
	identity *engine.Identity
}

// NewContext acquires the configuration slot and applies the defaults for
// protocol. It fails with [ErrNotInitialized] before [State.Init] and with
// [ErrResourceBusy] while the slot pool is exhausted. The Context has no
// certificate material until [Context.LoadCertificateChain].
func (s *State) NewContext(protocol Protocol, opts ...Option) (*Context, error) {
	if !s.initialized() {
		return nil, ErrNotInitialized
	}
	token, err := s.contextSlots.Acquire()
	if err != nil {
		return nil, err
	}
	return &Context{
		state:    s,
		token:    token,
		protocol: protocol,
		cfg:      newConfig(opts...),
	}, nil
}

// LoadCertificateChain parses certPEM into a certificate chain and keyPEM,
// when non-nil, into the matching private key. The first certificate in
// the chain becomes the local identity presented to the peer; the
// remainder is installed as the CA chain used for peer verification.
//
// A second call replaces all prior material. A failed call discards prior
// material too, leaving the Context without an identity until a later call
// succeeds.
func (c *Context) LoadCertificateChain(certPEM, keyPEM []byte) error {
	if certPEM == nil {
		return ErrInvalidArgument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.token == nil {
		return ErrInvalidArgument
	}
	c.identity = nil

	chain, err := engine.ParseCertificateChain(certPEM)
	if err != nil {
		return errors.Join(ErrCertParse, err)
	}
	var key crypto.PrivateKey
	if keyPEM != nil {
		key, err = engine.ParsePrivateKey(keyPEM)
		if err != nil {
			return errors.Join(ErrKeyParse, err)
		}
	}
	identity, err := engine.NewIdentity(chain, key)
	if err != nil {
		return errors.Join(ErrCertKeyMismatch, err)
	}
	c.identity = identity
	return nil
}

// Close releases the configuration slot. It fails with [ErrSessionsActive]
// while Sessions opened from this Context are still open, and with
// [ErrInvalidArgument] on a second Close.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.token == nil {
		return ErrInvalidArgument
	}
	if c.sessions > 0 {
		return ErrSessionsActive
	}
	if err := c.state.contextSlots.Release(c.token); err != nil {
		return err
	}
	c.closed = true
	c.token = nil
	return nil
}

// engineConfig assembles the engine-facing configuration for one session.
func (c *Context) engineConfig() (*engine.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.token == nil {
		return nil, ErrInvalidArgument
	}
	min, max := c.protocol.versionBounds()
	ec := &engine.Config{
		MinVersion:         min,
		MaxVersion:         max,
		Rand:               c.state.generator(),
		Identity:           c.identity,
		ServerName:         c.cfg.ServerName,
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
	}
	if c.cfg.SessionCache != nil {
		ec.SessionCache = c.cfg.SessionCache
	}
	return ec, nil
}

// sessionOpened registers a Session about to be bound to this Context.
func (c *Context) sessionOpened() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.token == nil {
		return ErrInvalidArgument
	}
	c.sessions++
	return nil
}

func (c *Context) sessionClosed() {
	c.mu.Lock()
	c.sessions--
	c.mu.Unlock()
}
