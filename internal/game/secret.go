package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Generator produces secret codes.
type Generator interface {
	Generate(length, minDigit, maxDigit int) (Code, error)
}

// RandomGenerator draws each digit independently and uniformly from a
// math/rand source. It is not safe for concurrent use; give each session
// its own generator.
type RandomGenerator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator with a fixed seed. The same seed always
// yields the same sequence of secrets.
func NewGenerator(seed int64) *RandomGenerator {
	return &RandomGenerator{rng: rand.New(rand.NewSource(seed))}
}

// NewEntropyGenerator returns a generator seeded from crypto/rand.
func NewEntropyGenerator() (*RandomGenerator, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewGenerator(seed), nil
}

// NewSeed reads an int64 seed from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Generate returns length digits drawn from [minDigit, maxDigit].
func (g *RandomGenerator) Generate(length, minDigit, maxDigit int) (Code, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", ErrLengthMismatch, length)
	}
	if minDigit < 0 || maxDigit > 9 || minDigit > maxDigit {
		return nil, fmt.Errorf("%w: bad digit range %d-%d", ErrInvalidDigit, minDigit, maxDigit)
	}
	span := maxDigit - minDigit + 1
	out := make(Code, length)
	for i := range out {
		out[i] = Digit(minDigit + g.rng.Intn(span))
	}
	return out, nil
}

// FixedGenerator always returns the same code. Useful for tests and for
// replaying a known secret.
type FixedGenerator Code

// Generate returns a copy of the fixed code, checked against the request.
func (f FixedGenerator) Generate(length, minDigit, maxDigit int) (Code, error) {
	r := Rules{CodeLength: length, MinDigit: minDigit, MaxDigit: maxDigit, MaxAttempts: 1}
	c := Code(f).Clone()
	if err := r.CheckCode(c); err != nil {
		return nil, err
	}
	return c, nil
}
