// Package entropy provides deterministic seeded randomness for the simulation.
// A root seed fans out into named subsystem streams so that world generation,
// ant behavior, and combat each draw from an independent, reproducible sequence.
package entropy

import (
	"hash/fnv"
	"math/rand"
)

// Source owns a root seed and hands out derived streams.
type Source struct {
	seed int64
}

// NewSource creates a source from a root seed.
func NewSource(seed int64) *Source {
	return &Source{seed: seed}
}

// Seed returns the root seed the source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Stream returns a fresh *rand.Rand for a named subsystem. Identical
// (seed, name) pairs always produce identical sequences; distinct names
// produce decorrelated ones.
func (s *Source) Stream(name string) *rand.Rand {
	return rand.New(rand.NewSource(deriveSeed(s.seed, name)))
}

// deriveSeed mixes the root seed with a subsystem name.
func deriveSeed(seed int64, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	derived := int64(h.Sum64()) ^ (seed * 0x9E3779B9)
	if derived < 0 {
		derived = -derived
	}
	if derived == 0 {
		derived = 1
	}
	return derived
}
