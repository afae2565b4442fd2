// Package generator produces synthetic fixture lines.
package generator

import (
	"io"
	"math/rand/v2"
)

// Generator produces one line of test data per call.
type Generator interface {
	// Init sets the random source used for every following line.
	Init(r *rand.Rand)

	// WriteLine writes a single newline-terminated line to w.
	WriteLine(w io.Writer) error

	// Description returns a human-readable description of the data format.
	Description() string
}

// NewRand returns a deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomRand returns a random source seeded from the runtime.
func NewRandomRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) // #nosec G404
}
