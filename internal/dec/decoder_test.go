//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package dec

import (
	"context"
	"github.com/e-gun/HipparchiaMorphTagger/internal/nn"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"math"
	"testing"
)

const hid = 6

func symbols(ss ...string) *vocab.Vocabulary {
	v := vocab.New()
	for _, s := range ss {
		_, _ = v.Add(s)
	}
	v.Freeze()
	return v
}

func randvec(rt *nn.Runtime, n int) *mat.VecDense {
	d := make([]float64, n)
	for i := range d {
		d[i] = rt.Rng.Float64()*2 - 1
	}
	return mat.NewVecDense(n, d)
}

func input(rt *nn.Runtime, withtransformer bool) Input {
	in := Input{Word: randvec(rt, hid), Context: randvec(rt, 2*hid), Transformer: nn.None()}
	if withtransformer {
		in.Transformer = nn.Some(randvec(rt, hid))
	}
	return in
}

func TestGreedyNeverEmitsReserved(t *testing.T) {
	v := symbols("a", "b", "c", "d")
	for seed := uint64(1); seed <= 20; seed++ {
		rt := nn.NewRuntime(seed, false)
		for _, withT := range []bool{false, true} {
			d := NewCharDecoder(rt, v, 4, hid, withT, 0.1)
			ids, err := d.Greedy(input(rt, withT), 12)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(ids), 12)
			for _, id := range ids {
				assert.False(t, vocab.IsReserved(id), "seed %d emitted %d", seed, id)
			}
		}
	}
}

func TestGreedyStopsAtFirstEnd(t *testing.T) {
	v := symbols("a", "b")
	rt := nn.NewRuntime(2, false)
	d := NewCharDecoder(rt, v, 4, hid, false, 0)
	d.Classifier.B.SetVec(vocab.END, 1e6)

	ids, err := d.Greedy(input(rt, false), 50)
	require.NoError(t, err)
	assert.Empty(t, ids)

	res, err := d.Beam(input(rt, false), 3, 2, 50)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Empty(t, res.IDs)
	assert.NoError(t, res.Err())
}

func TestBeamWidthOneIsGreedy(t *testing.T) {
	v := symbols("a", "b", "c", "d", "e")
	for seed := uint64(1); seed <= 25; seed++ {
		rt := nn.NewRuntime(seed, false)
		d := NewCharDecoder(rt, v, 4, hid, seed%2 == 0, 0)
		in := input(rt, seed%2 == 0)

		greedy, err := d.Greedy(in, 15)
		require.NoError(t, err)
		beam, err := d.Beam(in, 15, 1, 15)
		require.NoError(t, err)
		if len(greedy) == 0 {
			assert.Empty(t, beam.IDs, "seed %d", seed)
		} else {
			assert.Equal(t, greedy, beam.IDs, "seed %d", seed)
		}
	}
}

func TestDecodeBeamWidthOneMatchesGreedy(t *testing.T) {
	v := symbols("a", "b", "c", "d", "e")
	surfaces := []string{"a", "abcdefghij", "abc"}
	for seed := uint64(1); seed <= 60; seed++ {
		rt := nn.NewRuntime(seed, false)
		withT := seed%3 == 0
		d := NewCharDecoder(rt, v, 4, hid, withT, 0)
		b := Batch{Surfaces: surfaces}
		for range surfaces {
			b.Inputs = append(b.Inputs, input(rt, withT))
		}

		d.BeamWidth = 0
		greedy, err := d.Decode(context.Background(), b)
		require.NoError(t, err)
		d.BeamWidth = 1
		beam, err := d.Decode(context.Background(), b)
		require.NoError(t, err)

		require.Len(t, beam, len(greedy))
		for i := range greedy {
			assert.Equal(t, greedy[i], beam[i], "seed %d word %d", seed, i)
			assert.LessOrEqual(t, len(greedy[i]), len([]rune(surfaces[i]))+2, "seed %d word %d", seed, i)
		}
	}
}

func TestDecodeMaxLenOverridesSurfaceLimit(t *testing.T) {
	v := symbols("a", "b")
	rt := nn.NewRuntime(4, false)
	d := NewCharDecoder(rt, v, 4, hid, false, 0)
	d.Classifier.B.SetVec(vocab.END, -1e6)
	d.Classifier.B.SetVec(vocab.PAD, -1e6)
	d.Classifier.B.SetVec(vocab.START, -1e6)

	b := Batch{Inputs: []Input{input(rt, false), input(rt, false)}, Surfaces: []string{"a", "abcd"}}
	out, err := d.Decode(context.Background(), b)
	require.NoError(t, err)
	assert.Len(t, out[0], 3)
	assert.Len(t, out[1], 6)

	d.MaxLen = 4
	for _, w := range []int{0, 1, 2} {
		d.BeamWidth = w
		out, err = d.Decode(context.Background(), b)
		require.NoError(t, err)
		assert.Len(t, out[0], 4, "width %d", w)
		assert.Len(t, out[1], 4, "width %d", w)
	}
}

func TestBeamWithoutCompletion(t *testing.T) {
	v := symbols("a", "b")
	rt := nn.NewRuntime(4, false)
	d := NewCharDecoder(rt, v, 4, hid, false, 0)
	d.Classifier.B.SetVec(vocab.END, -1e6)

	res, err := d.Beam(input(rt, false), 3, 3, 5)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.ErrorIs(t, res.Err(), ErrNoCompletion)
	assert.LessOrEqual(t, len(res.IDs), 5, "surface length 3 caps output at 5")

	res, err = d.Beam(input(rt, false), 3, 3, 0)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Empty(t, res.IDs)
}

func TestCharDecodeCountsIncompleteBeams(t *testing.T) {
	v := symbols("a", "b")
	rt := nn.NewRuntime(4, false)
	d := NewCharDecoder(rt, v, 4, hid, false, 0)
	d.Classifier.B.SetVec(vocab.END, -1e6)
	d.BeamWidth = 2

	b := Batch{Inputs: []Input{input(rt, false), input(rt, false)}, Surfaces: []string{"ab", "ba"}}
	out, err := d.Decode(context.Background(), b)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, int64(2), d.Incomplete())

	_, err = d.Decode(context.Background(), Batch{Inputs: b.Inputs, Surfaces: []string{"ab"}})
	assert.ErrorIs(t, err, ErrBatch)
}

func TestTransformerPresenceMustMatch(t *testing.T) {
	v := symbols("a")
	rt := nn.NewRuntime(1, false)
	with := NewCharDecoder(rt, v, 4, hid, true, 0)
	without := NewFeedForwardDecoder(rt, v, hid, false, 0)

	_, err := with.Greedy(input(rt, false), 5)
	assert.ErrorIs(t, err, ErrTransformerContext)
	_, err = without.Probabilities(input(rt, true))
	assert.ErrorIs(t, err, ErrTransformerContext)

	bad := input(rt, false)
	bad.Context = randvec(rt, hid)
	_, err = without.Probabilities(bad)
	assert.ErrorIs(t, err, nn.ErrDimension)
}

func TestTransformationDecoder(t *testing.T) {
	labels := symbols("K", "D", "R:a")
	rt := nn.NewRuntime(9, false)
	for _, withT := range []bool{false, true} {
		d := NewTransformationDecoder(rt, labels, 10, 4, hid, withT, 0)
		assert.Equal(t, 2*stacklayers(withT), d.GRU.StateDepth())

		b := Batch{
			Inputs:   []Input{input(rt, withT), input(rt, withT)},
			Surfaces: []string{"abc", "d"},
			Chars:    [][]int{{3, 4, 5, vocab.END}, {6, vocab.END, 0, 0}},
		}
		out, err := d.Decode(context.Background(), b)
		require.NoError(t, err)
		assert.Len(t, out[0], 3)
		assert.Len(t, out[1], 1)

		loss, err := d.Loss(b, [][]string{{"K", "K", "D"}, {"R:a"}})
		require.NoError(t, err)
		assert.Greater(t, loss, 0.0)

		_, err = d.Decode(context.Background(), Batch{Inputs: b.Inputs, Surfaces: b.Surfaces})
		assert.ErrorIs(t, err, ErrBatch)
	}
	assert.Equal(t, "cat", Lemma(KindTransformation, "cats", []string{"K", "K", "K", "D"}))
	assert.Equal(t, "cat", Lemma(KindChar, "cats", []string{"c", "a", "t"}))
}

func TestFeedForwardIdempotent(t *testing.T) {
	tags := symbols("N", "V", "Sg", "Pl", "Nom")
	rt := nn.NewRuntime(11, false)
	d := NewFeedForwardDecoder(rt, tags, hid, false, 0.5)
	b := Batch{Inputs: []Input{input(rt, false)}, Surfaces: []string{"x"}}

	first, err := d.Decode(context.Background(), b)
	require.NoError(t, err)
	second, err := d.Decode(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFeedForwardOrderIndependent(t *testing.T) {
	a := symbols("N", "V", "Sg")
	b := symbols("Sg", "N", "V")
	rt := nn.NewRuntime(12, false)
	da := NewFeedForwardDecoder(rt, a, hid, false, 0)
	db := NewFeedForwardDecoder(rt, b, hid, false, 0)
	db.W.W.Copy(da.W.W)
	db.W.B.CopyVec(da.W.B)
	db.H.W.Copy(da.H.W)
	db.H.B.CopyVec(da.H.B)
	for _, sym := range a.Symbols() {
		ia, _ := a.ID(sym)
		ib, _ := b.ID(sym)
		db.Classifier.W.SetRow(ib, mat.Row(nil, ia, da.Classifier.W))
		db.Classifier.B.SetVec(ib, da.Classifier.B.AtVec(ia))
	}
	// make sure something fires
	n, _ := a.ID("N")
	da.Classifier.B.SetVec(n, 50)
	nb, _ := b.ID("N")
	db.Classifier.B.SetVec(nb, 50)

	for i := 0; i < 10; i++ {
		in := input(rt, false)
		ta, err := da.Decode(context.Background(), Batch{Inputs: []Input{in}, Surfaces: []string{"x"}})
		require.NoError(t, err)
		tb, err := db.Decode(context.Background(), Batch{Inputs: []Input{in}, Surfaces: []string{"x"}})
		require.NoError(t, err)
		assert.ElementsMatch(t, ta[0], tb[0])
		assert.Contains(t, ta[0], "N")
	}
}

func TestFeedForwardExcludesReserved(t *testing.T) {
	tags := symbols("N", "V")
	rt := nn.NewRuntime(13, false)
	d := NewFeedForwardDecoder(rt, tags, hid, true, 0)
	for i := 0; i < tags.Len(); i++ {
		d.Classifier.B.SetVec(i, 100)
	}
	out, err := d.Decode(context.Background(), Batch{Inputs: []Input{input(rt, true)}, Surfaces: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "V"}, out[0])

	for i := 0; i < tags.Len(); i++ {
		d.Classifier.B.SetVec(i, -100)
	}
	out, err = d.Decode(context.Background(), Batch{Inputs: []Input{input(rt, true)}, Surfaces: []string{"x"}})
	require.NoError(t, err)
	assert.Empty(t, out[0], "zero tags is a legal answer")
}

func TestLosses(t *testing.T) {
	v := symbols("a", "b", "N")
	rt := nn.NewRuntime(14, false)
	b := Batch{Inputs: []Input{input(rt, false), input(rt, false)}, Surfaces: []string{"ab", "b"}}
	gold := [][]string{{"a", "b"}, {"b"}}

	for _, d := range []Decoder{NewCharDecoder(rt, v, 4, hid, false, 0), NewFeedForwardDecoder(rt, v, hid, false, 0)} {
		loss, err := d.Loss(b, gold)
		require.NoError(t, err, d.Kind().String())
		assert.False(t, math.IsNaN(loss))
		assert.Greater(t, loss, 0.0)

		_, err = d.Loss(b, gold[:1])
		assert.ErrorIs(t, err, ErrBatch)
	}
	assert.Equal(t, "feedforward", KindFeedForward.String())
}

func TestDropoutOnlyWhenTraining(t *testing.T) {
	v := symbols("a", "b")
	rt := nn.NewRuntime(15, false)
	d := NewCharDecoder(rt, v, 4, hid, false, 0.9)
	in := input(rt, false)
	l1, err := d.Forward(in, []int{vocab.START, 3})
	require.NoError(t, err)
	l2, err := d.Forward(in, []int{vocab.START, 3})
	require.NoError(t, err)
	assert.True(t, mat.Equal(l1[1], l2[1]))
}
