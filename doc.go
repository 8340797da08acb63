// Package embtls implements a minimal TLS session-management layer for
// callers that own their transport. It sits between a byte-stream transport
// supplied by the caller and the application's read/write calls, and
// sequences the vetted crypto engine through configuration, handshake,
// record I/O, and close-notify.
//
// Prior to creating any [Context], a [State] must be constructed and seeded
// with [State.Init]. The State owns the process-wide entropy source and
// deterministic random generator shared by every Context, and the resource
// slot pools that bound how many Contexts and Sessions may be live at once.
// The default bound of one apiece mirrors constrained deployments where a
// single TLS role is active at a time; raise it with [WithContextSlots] and
// [WithSessionSlots].
//
// There are three values a caller works with:
//   - The [State] is the explicit process lifecycle object.
//   - The [Context] is one reusable TLS configuration, holding the local
//     identity loaded with [Context.LoadCertificateChain].
//   - The [Session] is one secure connection bound to a [Transport], opened
//     with [NewSession] and released with [Session.Close].
//
// Sessions must be closed before their Context, and before the caller
// closes the underlying transport.
package embtls
