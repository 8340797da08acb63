package embtls

import (
	"crypto/rand"
	"errors"
	"io"
	"sync"

	"github.com/embtls/embtls/internal/engine"
)

// drbgPersonalization is mixed into the generator seed. It is fixed and
// non-secret; it only separates this module's random stream from other
// consumers of the same entropy source.
const drbgPersonalization = "embtls"

// State holds the process-wide cryptographic state shared by every
// [Context]: the entropy source, the deterministic random generator seeded
// from it, and the slot pools bounding live Contexts and Sessions.
// Construct one State per process, seed it with [State.Init], and pass it
// to [State.NewContext].
type State struct {
	mu     sync.Mutex
	seeded bool
	drbg   *engine.DRBG

	contextSlots *slotPool
	sessionSlots *slotPool
}

// StateOption configures a [State] before first use.
type StateOption func(*State)

// WithContextSlots bounds the number of concurrently live Contexts. The
// default of 1 preserves the single-configuration design.
func WithContextSlots(n int) StateOption {
	return func(s *State) {
		s.contextSlots = newSlotPool(n)
	}
}

// WithSessionSlots bounds the number of concurrently live Sessions. The
// default of 1 preserves the single-session design; raise it when sessions
// must overlap.
func WithSessionSlots(n int) StateOption {
	return func(s *State) {
		s.sessionSlots = newSlotPool(n)
	}
}

// NewState returns an unseeded State. [State.Init] must be called before
// the State can originate Contexts.
func NewState(opts ...StateOption) *State {
	s := &State{
		contextSlots: newSlotPool(1),
		sessionSlots: newSlotPool(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init seeds the random generator from the entropy source and the
// personalization string. The first call performs the seeding; any later
// call is a no-op returning nil.
func (s *State) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return nil
	}
	drbg, err := engine.NewDRBG(rand.Reader, []byte(drbgPersonalization))
	if err != nil {
		return errors.Join(ErrSeedFailed, err)
	}
	s.drbg = drbg
	s.seeded = true
	return nil
}

func (s *State) initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

// generator returns the shared random generator. The generator advances
// its internal state on every draw and is mutex-guarded, so handing it to
// multiple sessions is safe.
func (s *State) generator() io.Reader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drbg
}
