package embtls

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/embtls/embtls/internal/engine"
)

// SessionState tracks where a [Session] is in its lifecycle.
type SessionState int

const (
	// StateUnopened is the zero state before the slot is acquired.
	StateUnopened SessionState = iota

	// StateHandshaking covers the synchronous handshake in [NewSession].
	StateHandshaking

	// StateEstablished allows Read, Write, and Close.
	StateEstablished

	// StateClosed is reached by a successful Close.
	StateClosed

	// StateError absorbs handshake failures. The Session is not reusable.
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateHandshaking:
		return "handshaking"
	case StateEstablished:
		return "established"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Session is one secure connection bound to a [Transport] and the [Context]
// it was opened from. Handshake, Read, and Write are synchronous blocking
// calls; they return when the transport's own primitive returns.
type Session struct {
	ctx    *Context
	br     *bridge
	logger *slog.Logger

	mu    sync.Mutex
	state SessionState
	token *slotToken
	ssl   *engine.Session
}

// NewSession acquires a session slot, binds transport to the Context's
// configuration, and runs the handshake to completion. A handshake failure
// releases the slot before returning, so a fresh NewSession can follow
// immediately; the failed Session itself is not reusable.
//
// The Session must be closed before ctx, and before the caller closes
// transport.
func NewSession(ctx *Context, transport Transport, mode Mode) (*Session, error) {
	if ctx == nil || transport == nil {
		return nil, ErrInvalidArgument
	}
	if !ctx.state.initialized() {
		return nil, ErrNotInitialized
	}
	ec, err := ctx.engineConfig()
	if err != nil {
		return nil, err
	}
	if err := ctx.sessionOpened(); err != nil {
		return nil, err
	}
	token, err := ctx.state.sessionSlots.Acquire()
	if err != nil {
		ctx.sessionClosed()
		return nil, err
	}

	s := &Session{
		ctx:    ctx,
		br:     newBridge(transport),
		logger: ctx.cfg.Logger,
		state:  StateHandshaking,
		token:  token,
	}

	// The slot and the Context registration are torn down on every exit
	// path until the handshake has succeeded.
	established := false
	defer func() {
		if !established {
			ctx.state.sessionSlots.Release(token)
			ctx.sessionClosed()
			s.token = nil
			s.state = StateError
		}
	}()

	ssl := engine.NewSession(ec, s.br, mode == ModeClient)
	if err := ssl.Handshake(); err != nil {
		s.logger.Debug("handshake failed", "mode", mode.String(), "error", err)
		return nil, errors.Join(ErrHandshake, err)
	}

	s.ssl = ssl
	s.state = StateEstablished
	established = true
	s.logger.Debug("handshake complete",
		"mode", mode.String(),
		"version", engine.VersionName(ssl.Version()),
		"remote", s.br.RemoteAddr().String(),
	)
	return s, nil
}

// State reports the Session's lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LocalAddr returns the transport's local address if it exposes one.
func (s *Session) LocalAddr() net.Addr { return s.br.LocalAddr() }

// RemoteAddr returns the transport's peer address if it exposes one.
func (s *Session) RemoteAddr() net.Addr { return s.br.RemoteAddr() }

// Read decrypts application data into p. It is valid only while the
// Session is established; one attempt is made and the engine's result is
// surfaced verbatim, including end-of-stream.
func (s *Session) Read(p []byte) (int, error) {
	ssl, err := s.established()
	if err != nil {
		return 0, err
	}
	return ssl.Read(p)
}

// Write encrypts and writes p. It is valid only while the Session is
// established; one attempt is made and the engine's result is surfaced
// verbatim. The caller retries on partial writes.
func (s *Session) Write(p []byte) (int, error) {
	ssl, err := s.established()
	if err != nil {
		return 0, err
	}
	return ssl.Write(p)
}

func (s *Session) established() (*engine.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEstablished {
		return nil, ErrInvalidArgument
	}
	return s.ssl, nil
}

// Close sends the close-notify alert, frees the engine session, and
// releases the session slot. It must run before the caller closes the
// underlying transport. Closing a Session that is not established fails
// with [ErrInvalidArgument]; a failure releasing the slot indicates caller
// misuse of the lifecycle and is reported, not swallowed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEstablished || s.token == nil {
		return ErrInvalidArgument
	}
	notifyErr := s.ssl.CloseNotify()
	s.ssl = nil
	s.state = StateClosed

	releaseErr := s.ctx.state.sessionSlots.Release(s.token)
	s.token = nil
	s.ctx.sessionClosed()

	s.logger.Debug("session closed", "remote", s.br.RemoteAddr().String())
	return errors.Join(notifyErr, releaseErr)
}
