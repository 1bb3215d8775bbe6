// Package engine advances a campus-life GameState: the weekly tick, event
// selection and resolution, exams, achievements and player intents.
//
// Engine functions take a GameState value and return a new one; they never
// mutate their input. Session is the single owner of a playthrough's state.
package engine

import (
	"math/rand/v2"

	"github.com/tatianab/campus-life/internal/content"
)

// Rand is the randomness an Env draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Env carries the read-only content tables and the random source shared by
// every engine call of one session.
type Env struct {
	Content *content.Catalog
	Rand    Rand
}

// NewEnv returns an Env with a PCG source seeded from seed.
func NewEnv(c *content.Catalog, seed uint64) *Env {
	return &Env{
		Content: c,
		Rand:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (e *Env) chance(p float64) bool {
	return e.Rand.Float64() < p
}

func (e *Env) uniform(lo, hi float64) float64 {
	return lo + e.Rand.Float64()*(hi-lo)
}

func (e *Env) pick(n int) int {
	if n <= 1 {
		return 0
	}
	return e.Rand.IntN(n)
}
