//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package nn

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"math"
	"testing"
)

func seq(rt *Runtime, n int, width int) []*mat.VecDense {
	out := make([]*mat.VecDense, n)
	for i := range out {
		out[i] = mat.NewVecDense(width, rt.uniform(width, 1))
	}
	return out
}

func TestGRUShapes(t *testing.T) {
	rt := NewRuntime(1, false)

	uni := NewGRU(rt, 4, 6, 1, false)
	out, hn, err := uni.Forward(seq(rt, 5, 4), nil)
	require.NoError(t, err)
	assert.Len(t, out, 5)
	assert.Len(t, hn, 1)
	assert.Equal(t, 6, out[4].Len())
	assert.True(t, mat.Equal(out[4], hn[0]), "last output of a one-layer forward GRU is its final state")

	bi := NewGRU(rt, 4, 3, 2, true)
	assert.Equal(t, 4, bi.StateDepth())
	out, hn, err = bi.Forward(seq(rt, 7, 4), nil)
	require.NoError(t, err)
	assert.Len(t, out, 7)
	assert.Len(t, hn, 4)
	assert.Equal(t, 6, out[0].Len())
}

func TestGRURejectsBadState(t *testing.T) {
	rt := NewRuntime(1, false)
	g := NewGRU(rt, 2, 3, 2, false)

	_, _, err := g.Forward(seq(rt, 2, 2), seq(rt, 1, 3))
	assert.ErrorIs(t, err, ErrDimension)

	_, _, err = g.Forward(seq(rt, 2, 5), nil)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestGRUStepMatchesForward(t *testing.T) {
	rt := NewRuntime(7, false)
	g := NewGRU(rt, 3, 4, 2, false)
	xs := seq(rt, 3, 3)
	h0 := seq(rt, 2, 4)

	whole, _, err := g.Forward(xs, h0)
	require.NoError(t, err)

	h := h0
	var last []*mat.VecDense
	for _, x := range xs {
		last, h, err = g.Forward([]*mat.VecDense{x}, h)
		require.NoError(t, err)
	}
	assert.True(t, mat.EqualApprox(whole[2], last[0], 1e-12))
}

func TestEmbeddingLookup(t *testing.T) {
	rt := NewRuntime(1, false)
	e := NewEmbedding(rt, 5, 3)

	v, err := e.Lookup(4)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())

	_, err = e.Lookup(5)
	assert.ErrorIs(t, err, ErrIDRange)
	_, err = e.LookupAll([]int{0, -1})
	assert.ErrorIs(t, err, ErrIDRange)
}

func TestDropoutIsIdentityAtInference(t *testing.T) {
	v := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	d := NewDropout(NewRuntime(3, false), 0.9)
	assert.Same(t, v, d.Apply(v))

	train := NewDropout(NewRuntime(3, true), 0.5)
	out := train.Apply(v)
	for i := 0; i < 4; i++ {
		x := out.AtVec(i)
		assert.True(t, x == 0 || x == 2*v.AtVec(i))
	}
}

func TestSoftmaxAndTopK(t *testing.T) {
	p := Softmax(mat.NewVecDense(4, []float64{1, 3, 3, -2}))
	assert.InDelta(t, 1.0, floats.Sum(p), 1e-12)
	assert.Equal(t, []int{1, 2}, TopK(p, 2))
	assert.Equal(t, []int{1, 2, 0, 3}, TopK(p, 10))
	assert.Equal(t, 1, ArgMax(mat.NewVecDense(4, p)))
}

func TestLosses(t *testing.T) {
	logits := []*mat.VecDense{
		mat.NewVecDense(3, []float64{0, 0, 0}),
		mat.NewVecDense(3, []float64{5, 0, 0}),
	}
	assert.InDelta(t, math.Log(3), CrossEntropy(logits, []int{2, 0}, 0), 1e-12)
	assert.Equal(t, 0.0, CrossEntropy(logits, []int{0, 0}, 0))

	bce := BinaryCrossEntropy(mat.NewVecDense(2, []float64{0, 0}), []float64{1, 0})
	assert.InDelta(t, math.Log(2), bce, 1e-12)
}

func TestParamRoundTrip(t *testing.T) {
	a := NewLinear(NewRuntime(1, false), 3, 2)
	b := NewLinear(NewRuntime(2, false), 3, 2)
	require.False(t, mat.Equal(a.W, b.W))

	require.NoError(t, b.Params().Restore(a.Params().Export()))
	assert.True(t, mat.Equal(a.W, b.W))
	assert.True(t, mat.Equal(a.B, b.B))

	wrong := NewLinear(NewRuntime(1, false), 4, 2)
	assert.ErrorIs(t, wrong.Params().Restore(a.Params().Export()), ErrShape)
	assert.ErrorIs(t, a.Params().Restore(map[string]Tensor{}), ErrMissing)
}

func TestMaybe(t *testing.T) {
	_, ok := None().Get()
	assert.False(t, ok)
	v := mat.NewVecDense(1, []float64{2})
	got, ok := Some(v).Get()
	assert.True(t, ok)
	assert.Same(t, v, got)
}
