// Package sampling provides the seeded random source and the reusable
// sampling primitives every generation stage draws from. A Source is a single
// sequential stream: callers that need reproducible output must issue draws
// in a fixed order.
package sampling

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
)

// pcgStream is the fixed PCG increment; only the seed varies between runs.
const pcgStream uint64 = 0x9e3779b97f4a7c15

// Source is a seeded pseudo-random stream. It is not safe for concurrent use.
type Source struct {
	seed uint64
	rng  *rand.Rand
}

// NewSource returns a Source seeded with seed.
func NewSource(seed uint64) *Source {
	return &Source{seed: seed, rng: rand.New(rand.NewPCG(seed, pcgStream))}
}

// NewSeed generates a random seed using crypto/rand, for runs that do not pin one.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Seed returns the seed the stream was created with.
func (s *Source) Seed() uint64 { return s.seed }

// Float64 returns a draw in [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// Uniform returns a draw in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

// IntN returns a draw in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int { return s.rng.IntN(n) }

// IntBetween returns a draw in [lo, hi], both inclusive.
func (s *Source) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Exponential returns an exponentially distributed draw with the given mean.
func (s *Source) Exponential(mean float64) float64 {
	return s.rng.ExpFloat64() * mean
}

// Pareto returns a Pareto II (Lomax) draw with the given shape and unit
// scale, i.e. values in [0, +Inf) with P(X > x) = (1+x)^-shape. Low shapes
// put most of the mass in a long right tail.
func (s *Source) Pareto(shape float64) float64 {
	return math.Expm1(s.rng.ExpFloat64() / shape)
}

// Bernoulli reports true with probability p.
func (s *Source) Bernoulli(p float64) bool {
	return s.rng.Float64() < p
}
