package embtls

import "errors"

var (
	// ErrNotInitialized is returned when a Context or Session is created
	// before the State was seeded with [State.Init].
	ErrNotInitialized = errors.New("embtls: state was not initialized with State.Init")

	// ErrResourceBusy is returned when every slot of a resource kind is
	// occupied. It is a provisioning failure, not a retryable condition.
	ErrResourceBusy = errors.New("embtls: no free resource slot")

	// ErrInvalidArgument is returned for absent required handles and for
	// calls made in the wrong lifecycle state.
	ErrInvalidArgument = errors.New("embtls: invalid argument or lifecycle state")

	// ErrSeedFailed is returned when the random generator rejects its seed
	// or the entropy source fails.
	ErrSeedFailed = errors.New("embtls: random generator seeding failed")

	// ErrCertParse is returned for malformed certificate input.
	ErrCertParse = errors.New("embtls: certificate parsing failed")

	// ErrKeyParse is returned for malformed private key input.
	ErrKeyParse = errors.New("embtls: private key parsing failed")

	// ErrCertKeyMismatch is returned when the engine rejects the pairing of
	// the loaded certificate and private key.
	ErrCertKeyMismatch = errors.New("embtls: certificate and key do not match")

	// ErrHandshake wraps the engine-reported handshake failure.
	ErrHandshake = errors.New("embtls: handshake failed")

	// ErrSessionsActive is returned by [Context.Close] while Sessions
	// opened from the Context are still open.
	ErrSessionsActive = errors.New("embtls: context still has open sessions")
)
