package embtls

import (
	"net"
	"os"
	"time"
)

// Transport is the byte-stream primitive a [Session] runs over. It must
// behave like a blocking partial-I/O stream: short reads and writes and
// transport errors are surfaced to the engine verbatim, and the engine owns
// retry semantics during handshake and record transfer.
//
// [net.Conn] satisfies Transport, but any connected byte stream will do.
type Transport interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
}

// bridge adapts a Transport into the [net.Conn] shape the crypto engine
// consumes. It is a direct passthrough: no buffering, no retry, no framing.
type bridge struct {
	t Transport
}

func newBridge(t Transport) *bridge {
	return &bridge{t: t}
}

func (b *bridge) Read(p []byte) (int, error)  { return b.t.Read(p) }
func (b *bridge) Write(p []byte) (int, error) { return b.t.Write(p) }

// Close is a no-op. The transport lifecycle stays with the caller, who
// closes it after [Session.Close].
func (b *bridge) Close() error { return nil }

// noAddr stands in when the transport does not expose addresses.
type noAddr struct{}

func (noAddr) Network() string { return "embtls" }
func (noAddr) String() string  { return "unknown" }

func (b *bridge) LocalAddr() net.Addr {
	if a, ok := b.t.(interface{ LocalAddr() net.Addr }); ok {
		return a.LocalAddr()
	}
	return noAddr{}
}

func (b *bridge) RemoteAddr() net.Addr {
	if a, ok := b.t.(interface{ RemoteAddr() net.Addr }); ok {
		return a.RemoteAddr()
	}
	return noAddr{}
}

// Deadlines are forwarded when the transport supports them. Transports
// without deadlines report os.ErrNoDeadline; the caller's transport layer
// is then the sole place timeouts can be enforced.

func (b *bridge) SetDeadline(t time.Time) error {
	if d, ok := b.t.(interface{ SetDeadline(time.Time) error }); ok {
		return d.SetDeadline(t)
	}
	return os.ErrNoDeadline
}

func (b *bridge) SetReadDeadline(t time.Time) error {
	if d, ok := b.t.(interface{ SetReadDeadline(time.Time) error }); ok {
		return d.SetReadDeadline(t)
	}
	return os.ErrNoDeadline
}

func (b *bridge) SetWriteDeadline(t time.Time) error {
	if d, ok := b.t.(interface{ SetWriteDeadline(time.Time) error }); ok {
		return d.SetWriteDeadline(t)
	}
	return os.ErrNoDeadline
}
