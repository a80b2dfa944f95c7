package states

import (
	"math/rand/v2"
)

// Roller rolls a die with the given number of sides, returning 1..sides.
type Roller interface {
	Roll(sides int) int
}

// RollerFunc adapts a function to the Roller interface.
type RollerFunc func(sides int) int

func (f RollerFunc) Roll(sides int) int {
	return f(sides)
}

type randRoller struct {
	r *rand.Rand
}

// NewRandRoller returns a Roller backed by a PCG source seeded with seed.
func NewRandRoller(seed uint64) Roller {
	return &randRoller{
		r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *randRoller) Roll(sides int) int {
	if sides < 1 {
		return 0
	}
	return r.r.IntN(sides) + 1
}
