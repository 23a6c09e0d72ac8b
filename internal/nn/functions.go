//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package nn

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"math"
	"sort"
)

//
// ACTIVATIONS AND VECTOR HELPERS
//

func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// ReLU - a fresh vector; the input is untouched
func ReLU(v mat.Vector) *mat.VecDense {
	out := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		if x := v.AtVec(i); x > 0 {
			out.SetVec(i, x)
		}
	}
	return out
}

// Concat - [a; b; ...]
func Concat(vv ...mat.Vector) *mat.VecDense {
	n := 0
	for _, v := range vv {
		n += v.Len()
	}
	data := make([]float64, 0, n)
	for _, v := range vv {
		for i := 0; i < v.Len(); i++ {
			data = append(data, v.AtVec(i))
		}
	}
	return mat.NewVecDense(n, data)
}

// Raw - the scalars of a vector as a slice
func Raw(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// Softmax - numerically stable softmax over a logit vector
func Softmax(v mat.Vector) []float64 {
	p := Raw(v)
	lse := floats.LogSumExp(p)
	for i := range p {
		p[i] = math.Exp(p[i] - lse)
	}
	return p
}

// ArgMax - first index holding the largest value
func ArgMax(v mat.Vector) int {
	return floats.MaxIdx(Raw(v))
}

// TopK - indices of the k largest values, largest first; ties go to the lower index
func TopK(p []float64, k int) []int {
	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p[idx[a]] > p[idx[b]]
	})
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

//
// LOSSES
//

// CrossEntropy - mean negative log-likelihood of targets under per-step logits, skipping the ignore id
func CrossEntropy(logits []*mat.VecDense, targets []int, ignore int) float64 {
	var total float64
	n := 0
	for t := 0; t < len(logits) && t < len(targets); t++ {
		if targets[t] == ignore {
			continue
		}
		raw := Raw(logits[t])
		total += floats.LogSumExp(raw) - raw[targets[t]]
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// BinaryCrossEntropy - mean sigmoid cross-entropy of independent logits against 0/1 targets
func BinaryCrossEntropy(logits mat.Vector, targets []float64) float64 {
	n := logits.Len()
	if n == 0 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		x := logits.AtVec(i)
		total += math.Max(x, 0) - x*targets[i] + math.Log1p(math.Exp(-math.Abs(x)))
	}
	return total / float64(n)
}

//
// OPTIONAL VECTORS
//

// Maybe - a vector that might be absent; the transformer context travels in one of these
type Maybe struct {
	v *mat.VecDense
}

func Some(v *mat.VecDense) Maybe {
	return Maybe{v: v}
}

func None() Maybe {
	return Maybe{}
}

func (m Maybe) Get() (*mat.VecDense, bool) {
	return m.v, m.v != nil
}
