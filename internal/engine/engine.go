// Package engine wraps the vetted TLS engine (crypto/tls and crypto/x509)
// behind the capability surface the session layer sequences: certificate
// and key parsing, configuration assembly, handshake, record I/O, and
// close-notify. The session layer never touches record or handshake
// internals itself.
package engine

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"net"
)

// ParseCertificateChain decodes every CERTIFICATE block in pemData, in
// order. At least one certificate is required.
func ParseCertificateChain(pemData []byte) ([]*x509.Certificate, error) {
	var chain []*x509.Certificate
	rest := pemData
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cert)
	}
	if len(chain) == 0 {
		return nil, errors.New("engine: no certificates in PEM input")
	}
	return chain, nil
}

// ParsePrivateKey decodes the first private key block in pemData. PKCS#1,
// PKCS#8, and SEC 1 encodings are accepted.
func ParsePrivateKey(pemData []byte) (crypto.PrivateKey, error) {
	rest := pemData
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, errors.New("engine: no private key in PEM input")
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			return x509.ParsePKCS1PrivateKey(block.Bytes)
		case "EC PRIVATE KEY":
			return x509.ParseECPrivateKey(block.Bytes)
		case "PRIVATE KEY":
			return x509.ParsePKCS8PrivateKey(block.Bytes)
		}
	}
}

// Identity is a parsed local certificate chain bound to its private key.
// The head of the chain is the certificate presented to the peer; any
// remaining certificates double as the CA chain offered for peer
// verification.
type Identity struct {
	cert    tls.Certificate
	peerCAs *x509.CertPool
}

// NewIdentity pairs chain with key, rejecting keys that do not match the
// head certificate's public key. A nil key leaves the identity unable to
// serve, which the handshake reports.
func NewIdentity(chain []*x509.Certificate, key crypto.PrivateKey) (*Identity, error) {
	if len(chain) == 0 {
		return nil, errors.New("engine: empty certificate chain")
	}
	cert := tls.Certificate{Leaf: chain[0]}
	for _, c := range chain {
		cert.Certificate = append(cert.Certificate, c.Raw)
	}
	if key != nil {
		if err := matchKey(chain[0], key); err != nil {
			return nil, err
		}
		cert.PrivateKey = key
	}
	id := &Identity{cert: cert}
	if len(chain) > 1 {
		id.peerCAs = x509.NewCertPool()
		for _, c := range chain[1:] {
			id.peerCAs.AddCert(c)
		}
	}
	return id, nil
}

func matchKey(cert *x509.Certificate, key crypto.PrivateKey) error {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return errors.New("engine: private key does not implement crypto.Signer")
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(cert.PublicKey) {
		return errors.New("engine: private key does not match certificate public key")
	}
	return nil
}

// Config is the subset of engine configuration the session layer controls.
type Config struct {
	MinVersion         uint16
	MaxVersion         uint16
	Rand               io.Reader
	Identity           *Identity
	ServerName         string
	InsecureSkipVerify bool
	SessionCache       tls.ClientSessionCache
}

func (c *Config) tlsConfig(client bool) *tls.Config {
	tc := &tls.Config{
		MinVersion: c.MinVersion,
		MaxVersion: c.MaxVersion,
		Rand:       c.Rand,
	}
	if c.Identity != nil {
		tc.Certificates = []tls.Certificate{c.Identity.cert}
	}
	if client {
		tc.ServerName = c.ServerName
		tc.InsecureSkipVerify = c.InsecureSkipVerify
		tc.ClientSessionCache = c.SessionCache
		if c.Identity != nil && c.Identity.peerCAs != nil {
			tc.RootCAs = c.Identity.peerCAs
		}
	} else if c.Identity != nil && c.Identity.peerCAs != nil {
		tc.ClientCAs = c.Identity.peerCAs
	}
	return tc
}

// Session is one engine-side TLS connection bound to a transport.
type Session struct {
	conn *tls.Conn
}

// NewSession binds cfg and the transport conn into an engine session
// without touching the wire.
func NewSession(cfg *Config, conn net.Conn, client bool) *Session {
	tc := cfg.tlsConfig(client)
	if client {
		return &Session{conn: tls.Client(conn, tc)}
	}
	return &Session{conn: tls.Server(conn, tc)}
}

// Handshake drives the negotiation to completion, blocking on transport
// I/O until the engine reports success or failure.
func (s *Session) Handshake() error {
	return s.conn.Handshake()
}

// Read decrypts application data into p. End-of-stream and transport
// errors are returned verbatim.
func (s *Session) Read(p []byte) (int, error) {
	return s.conn.Read(p)
}

// Write encrypts and writes p.
func (s *Session) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}

// CloseNotify sends the close-notify alert and releases the engine's
// session state. The transport itself is left to the caller.
func (s *Session) CloseNotify() error {
	return s.conn.Close()
}

// Version reports the negotiated protocol version after the handshake.
func (s *Session) Version() uint16 {
	return s.conn.ConnectionState().Version
}

// VersionName formats a protocol version for logging.
func VersionName(version uint16) string {
	return tls.VersionName(version)
}
