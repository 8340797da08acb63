package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"io"
	"sync"
)

// reseedInterval is how many bytes may be drawn before the generator mixes
// fresh entropy into its state.
const reseedInterval = 1 << 20

// DRBG is a deterministic random byte generator in the CTR-DRBG mold: an
// AES-256-CTR keystream keyed from the entropy source mixed with a caller
// personalization string. Every read advances the internal state, so the
// generator is mutex-guarded and safe to share between sessions.
type DRBG struct {
	mu      sync.Mutex
	entropy io.Reader
	person  []byte
	stream  cipher.Stream
	drawn   int
}

// NewDRBG seeds a generator from entropy and the personalization string.
// The personalization is not secret; it separates this generator's stream
// from other consumers of the same entropy source.
func NewDRBG(entropy io.Reader, personalization []byte) (*DRBG, error) {
	if entropy == nil {
		return nil, errors.New("engine: nil entropy source")
	}
	d := &DRBG{entropy: entropy, person: personalization}
	if err := d.reseed(); err != nil {
		return nil, err
	}
	return d, nil
}

// reseed derives a fresh key and counter block from the entropy source and
// the personalization string. Callers hold d.mu (or are the constructor).
func (d *DRBG) reseed() error {
	seed := make([]byte, 48)
	if _, err := io.ReadFull(d.entropy, seed); err != nil {
		return err
	}
	h := sha256.New()
	h.Write(seed[:32])
	h.Write(d.person)
	block, err := aes.NewCipher(h.Sum(nil))
	if err != nil {
		return err
	}
	d.stream = cipher.NewCTR(block, seed[32:48])
	d.drawn = 0
	return nil
}

// Read fills p with generator output. It never returns a short read
// without an error, which is the contract the engine expects of its
// randomness source.
func (d *DRBG) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drawn+len(p) > reseedInterval {
		if err := d.reseed(); err != nil {
			return 0, err
		}
	}
	for i := range p {
		p[i] = 0
	}
	d.stream.XORKeyStream(p, p)
	d.drawn += len(p)
	return len(p), nil
}
