package embtls

import "sync"

// slotToken marks ownership of one slot in a slotPool. Tokens are handed
// back with Release and are not reusable afterward.
type slotToken struct {
	pool  *slotPool
	index int
}

// slotPool enforces at-most-N live allocations of a scarce resource kind.
// Acquire fails fast when every slot is occupied; there is no queuing and
// no blocking. The pool never touches the resource itself, only the
// occupancy bookkeeping.
type slotPool struct {
	mu       sync.Mutex
	occupied []bool
}

func newSlotPool(capacity int) *slotPool {
	if capacity < 1 {
		capacity = 1
	}
	return &slotPool{occupied: make([]bool, capacity)}
}

// Acquire claims a free slot or fails with ErrResourceBusy.
func (p *slotPool) Acquire() (*slotToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, used := range p.occupied {
		if !used {
			p.occupied[i] = true
			return &slotToken{pool: p, index: i}, nil
		}
	}
	return nil, ErrResourceBusy
}

// Release clears the slot held by t. Releasing a token twice, or a token
// minted by another pool, is caller misuse and reported as such.
func (p *slotPool) Release(t *slotToken) error {
	if t == nil || t.pool != p {
		return ErrInvalidArgument
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.occupied[t.index] {
		return ErrInvalidArgument
	}
	p.occupied[t.index] = false
	return nil
}
