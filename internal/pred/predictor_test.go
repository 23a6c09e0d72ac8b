//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package pred

import (
	"context"
	"github.com/e-gun/HipparchiaMorphTagger/internal/conll"
	"github.com/e-gun/HipparchiaMorphTagger/internal/enc"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mdl"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"strings"
	"sync/atomic"
	"testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const train = "1\trunning\trun\t_\t_\tV;PTCP\t_\t_\t_\t_\n" +
	"2\tfast\tfast\t_\t_\tADV\t_\t_\t_\t_\n" +
	"\n" +
	"1\tdog\tdog\t_\t_\tN;SG\t_\t_\t_\t_\n"

func predictor(t *testing.T, overrides bool) *Predictor {
	t.Helper()
	ss, err := conll.ReadSentences(strings.NewReader(train))
	require.NoError(t, err)

	h := mdl.Defaults()
	h.CharHidden, h.WordHidden = 8, 8
	h.EmbeddingSize, h.OutputEmbeddingSize = 4, 4
	b, err := mdl.New(h, vocab.BuildSet(ss), false)
	require.NoError(t, err)
	b.Surface2Lemma["dog"] = "canine"
	return New(b, overrides, nil)
}

func TestEndToEnd(t *testing.T) {
	p := predictor(t, false)
	aa, err := p.PredictSentence(context.Background(), []string{"running", "fast"})
	require.NoError(t, err)
	require.Len(t, aa, 2)
	assert.Equal(t, 1, aa[0].Index)
	assert.Equal(t, 2, aa[1].Index)

	block := conll.FormatSentence(aa)
	lines := strings.Split(strings.TrimSuffix(block, "\n\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "# Sentence", lines[0])
	for i, ln := range lines[1:] {
		ff := strings.Split(ln, "\t")
		require.Len(t, ff, 10)
		assert.Equal(t, []string{"1", "2"}[i], ff[0])
		assert.Equal(t, aa[i].Surface, ff[1])
		assert.Equal(t, strings.Join(aa[i].Tags, ";"), ff[5])
	}
}

func TestOverride(t *testing.T) {
	p := predictor(t, true)
	aa, err := p.PredictSentence(context.Background(), []string{"dog", "fast"})
	require.NoError(t, err)
	assert.Equal(t, "canine", aa[0].Lemma)

	off := predictor(t, false)
	bb, err := off.PredictSentence(context.Background(), []string{"dog", "fast"})
	require.NoError(t, err)
	assert.Equal(t, aa[1], bb[1], "override touches only the exact surface")
	assert.Equal(t, aa[0].Tags, bb[0].Tags)
}

func TestPredictAllKeepsOrder(t *testing.T) {
	p := predictor(t, true)
	in := [][]string{{"dog"}, {"running", "fast"}, {"fast", "dog", "running"}, {"runs"}, {"dog", "dog"}}

	var ticks atomic.Int32
	got, err := p.PredictAll(context.Background(), in, 3, func() { ticks.Add(1) })
	require.NoError(t, err)
	require.Len(t, got, len(in))
	assert.EqualValues(t, len(in), ticks.Load())

	for i, s := range in {
		one, err := p.PredictSentence(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, one, got[i])
	}
}

func TestPredictAllStopsOnError(t *testing.T) {
	p := predictor(t, false)
	in := [][]string{{"dog"}, {"fast", ""}, {"running"}}
	_, err := p.PredictAll(context.Background(), in, 2, nil)
	assert.ErrorIs(t, err, enc.ErrEmptyWord)
	assert.Contains(t, err.Error(), "sentence 2")
}

func TestPredictAllHonoursCancel(t *testing.T) {
	p := predictor(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.PredictAll(ctx, [][]string{{"dog"}}, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
