package embtls

import (
	"crypto/tls"
	"io"
	"log/slog"
)

// Protocol selects the protocol version preset applied to a [Context].
type Protocol int

const (
	// ProtocolDefault negotiates TLS 1.2 or 1.3.
	ProtocolDefault Protocol = iota

	// ProtocolTLS12 pins sessions to TLS 1.2.
	ProtocolTLS12

	// ProtocolTLS13 pins sessions to TLS 1.3.
	ProtocolTLS13
)

// versionBounds maps the preset onto the engine's version range. A zero
// maximum leaves the engine's own ceiling in place.
func (p Protocol) versionBounds() (min, max uint16) {
	switch p {
	case ProtocolTLS12:
		return tls.VersionTLS12, tls.VersionTLS12
	case ProtocolTLS13:
		return tls.VersionTLS13, tls.VersionTLS13
	default:
		return tls.VersionTLS12, 0
	}
}

// Mode selects which side of the handshake a [Session] drives.
type Mode int

const (
	// ModeServer accepts a handshake initiated by the peer.
	ModeServer Mode = iota

	// ModeClient initiates the handshake.
	ModeClient
)

func (m Mode) String() string {
	if m == ModeClient {
		return "client"
	}
	return "server"
}

// Config carries the per-Context options beyond the protocol preset.
type Config struct {
	// ServerName is the peer name presented for SNI and verified against
	// the peer certificate in client mode.
	ServerName string

	// InsecureSkipVerify disables peer certificate verification in client
	// mode. Intended for tests and closed deployments only.
	InsecureSkipVerify bool

	// SessionCache, when set, lets client-mode sessions resume earlier
	// handshakes.
	SessionCache *SessionCache

	// Logger receives handshake and close events. Defaults to a silent
	// logger.
	Logger *slog.Logger
}

// Option is a functional option for configuring a [Context].
type Option func(*Config)

func newConfig(opts ...Option) *Config {
	cfg := &Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithServerName sets the peer name used for SNI and verification in
// client mode.
func WithServerName(name string) Option {
	return func(cfg *Config) {
		cfg.ServerName = name
	}
}

// WithInsecureSkipVerify disables peer certificate verification in client
// mode.
func WithInsecureSkipVerify() Option {
	return func(cfg *Config) {
		cfg.InsecureSkipVerify = true
	}
}

// WithSessionCache enables client session resumption backed by cache.
func WithSessionCache(cache *SessionCache) Option {
	return func(cfg *Config) {
		cfg.SessionCache = cache
	}
}

// WithLogger routes handshake and close events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}
