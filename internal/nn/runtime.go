//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

// Package nn holds the small set of gonum-backed layers the tagger is built from:
// Linear, Embedding, GRU, Dropout plus activations, losses and parameter bookkeeping.
package nn

import (
	"errors"
	"golang.org/x/exp/rand"
	"math"
)

var (
	ErrIDRange   = errors.New("nn: id out of range")
	ErrDimension = errors.New("nn: dimension mismatch")
	ErrShape     = errors.New("nn: parameter shape mismatch")
	ErrMissing   = errors.New("nn: parameter missing from checkpoint")
)

// Runtime replaces a process-wide device/mode switch: every layer that needs to know whether it is
// training, or that needs random numbers, gets one of these at construction time.
type Runtime struct {
	Training bool
	Rng      *rand.Rand
}

// NewRuntime - an inference runtime unless training is set; the seed drives weight init and dropout
func NewRuntime(seed uint64, training bool) *Runtime {
	return &Runtime{
		Training: training,
		Rng:      rand.New(rand.NewSource(seed)),
	}
}

// uniform - fill a slice with U(-k, k), k = 1/sqrt(fanin): the usual recurrent/linear init
func (rt *Runtime) uniform(n int, fanin int) []float64 {
	k := 1.0 / math.Sqrt(float64(fanin))
	d := make([]float64, n)
	for i := range d {
		d[i] = (rt.Rng.Float64()*2 - 1) * k
	}
	return d
}
