package embtls_test

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"testing"

	"github.com/embtls/embtls"
	"github.com/embtls/embtls/internal/testcert"
	"github.com/stretchr/testify/require"
)

// newTestState returns a seeded State.
func newTestState(t *testing.T, opts ...embtls.StateOption) *embtls.State {
	t.Helper()
	state := embtls.NewState(opts...)
	require.NoError(t, state.Init())
	return state
}

// newServerContext returns a Context loaded with a fresh self-signed
// identity, plus the certificate PEM for the peer to trust.
func newServerContext(t *testing.T, state *embtls.State, opts ...embtls.Option) (*embtls.Context, []byte) {
	t.Helper()
	ctx, err := state.NewContext(embtls.ProtocolDefault, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { ctx.Close() })
	certPEM, keyPEM, err := testcert.Generate()
	require.NoError(t, err)
	require.NoError(t, ctx.LoadCertificateChain(certPEM, keyPEM))
	return ctx, certPEM
}

// newConnPair returns the two ends of a loopback TCP connection.
func newConnPair(t *testing.T) (server, client net.Conn) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	acceptErr := make(chan error, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			acceptErr <- err
			return
		}
		accepted <- c
	}()

	client, err = net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)

	select {
	case server = <-accepted:
	case err := <-acceptErr:
		t.Fatalf("accept failed: %v", err)
	}
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server, client
}

// refClientConfig builds a stock crypto/tls client config trusting certPEM.
func refClientConfig(t *testing.T, certPEM []byte) *tls.Config {
	t.Helper()
	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(certPEM))
	return &tls.Config{RootCAs: pool, ServerName: "localhost"}
}

// openPair establishes one server Session against a reference crypto/tls
// client, both ends of a loopback connection.
func openPair(t *testing.T, ctx *embtls.Context, certPEM []byte) (*embtls.Session, *tls.Conn) {
	t.Helper()
	serverEnd, clientEnd := newConnPair(t)

	client := tls.Client(clientEnd, refClientConfig(t, certPEM))
	handshakeErr := make(chan error, 1)
	go func() { handshakeErr <- client.Handshake() }()

	sess, err := embtls.NewSession(ctx, serverEnd, embtls.ModeServer)
	require.NoError(t, err)
	require.NoError(t, <-handshakeErr)
	require.Equal(t, embtls.StateEstablished, sess.State())
	return sess, client
}
