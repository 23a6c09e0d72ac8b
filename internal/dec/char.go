//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package dec

import (
	"context"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/nn"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vocab"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"gonum.org/v1/gonum/mat"
	"sort"
	"sync/atomic"
	"unicode/utf8"
)

// CharDecoder - autoregressive GRU decoder over a symbol vocabulary (lemma characters or tags)
type CharDecoder struct {
	Vocab      *vocab.Vocabulary
	Hidden     int
	W          *nn.Linear // 2h -> h
	Emb        *nn.Embedding
	GRU        *nn.GRU
	Classifier *nn.Linear
	BeamWidth  int // 0: greedy
	MaxLen     int // 0: each word's surface length + 2
	Msg        *mm.MessageMaker
	drop       *nn.Dropout
	tfm        bool
	incomplete atomic.Int64
}

func NewCharDecoder(rt *nn.Runtime, v *vocab.Vocabulary, embsize int, hidden int, transformer bool, dropout float64) *CharDecoder {
	return &CharDecoder{
		Vocab:      v,
		Hidden:     hidden,
		W:          nn.NewLinear(rt, 2*hidden, hidden),
		Emb:        nn.NewEmbedding(rt, v.Len()+1, embsize),
		GRU:        nn.NewGRU(rt, embsize, hidden, stacklayers(transformer), false),
		Classifier: nn.NewLinear(rt, hidden, v.Len()),
		drop:       nn.NewDropout(rt, dropout),
		tfm:        transformer,
	}
}

func (d *CharDecoder) Kind() Kind {
	return KindChar
}

func (d *CharDecoder) Params() nn.ParamSet {
	ps := make(nn.ParamSet)
	ps.Merge("w", d.W.Params())
	ps.Merge("emb", d.Emb.Params())
	ps.Merge("gru", d.GRU.Params())
	ps.Merge("classifier", d.Classifier.Params())
	return ps
}

// Incomplete - how many beam searches so far have ended without a completed candidate
func (d *CharDecoder) Incomplete() int64 {
	return d.incomplete.Load()
}

// Forward - teacher-forced pass: inputs already begin with START; one logit vector per input step
func (d *CharDecoder) Forward(in Input, inputs []int) ([]*mat.VecDense, error) {
	h, err := initstack(d.W, in, d.Hidden, d.tfm)
	if err != nil {
		return nil, err
	}
	xs, err := d.Emb.LookupAll(inputs)
	if err != nil {
		return nil, err
	}
	out, _, err := d.GRU.Forward(d.drop.ApplyAll(xs), h)
	if err != nil {
		return nil, err
	}
	logits := make([]*mat.VecDense, len(out))
	for i, o := range out {
		logits[i] = d.Classifier.Forward(d.drop.Apply(o))
	}
	return logits, nil
}

func (d *CharDecoder) Loss(b Batch, gold [][]string) (float64, error) {
	const (
		FAIL1 = "%w: %d inputs, %d gold sequences"
	)
	if len(gold) != len(b.Inputs) {
		return 0, fmt.Errorf(FAIL1, ErrBatch, len(b.Inputs), len(gold))
	}
	if len(b.Inputs) == 0 {
		return 0, nil
	}
	var total float64
	for i, in := range b.Inputs {
		ids := d.Vocab.Encode(gold[i], true, true)
		logits, err := d.Forward(in, ids[:len(ids)-1])
		if err != nil {
			return 0, err
		}
		total += nn.CrossEntropy(logits, ids[1:], vocab.PAD)
	}
	return total / float64(len(b.Inputs)), nil
}

// step - feed one symbol, get the logits and the next state
func (d *CharDecoder) step(last int, h []*mat.VecDense) (*mat.VecDense, []*mat.VecDense, error) {
	x, err := d.Emb.Lookup(last)
	if err != nil {
		return nil, nil, err
	}
	out, hn, err := d.GRU.Forward([]*mat.VecDense{x}, h)
	if err != nil {
		return nil, nil, err
	}
	return d.Classifier.Forward(out[0]), hn, nil
}

// Greedy - most probable symbol at every step, at most maxlen steps; stops at the first END.
// PAD, END and START never reach the output.
func (d *CharDecoder) Greedy(in Input, maxlen int) ([]int, error) {
	h, err := initstack(d.W, in, d.Hidden, d.tfm)
	if err != nil {
		return nil, err
	}
	var out []int
	last := vocab.START
	for i := 0; i < maxlen; i++ {
		var logits *mat.VecDense
		logits, h, err = d.step(last, h)
		if err != nil {
			return nil, err
		}
		// same choice rule as a one-wide beam
		last = nn.TopK(nn.Softmax(logits), 1)[0]
		if last == vocab.END {
			break
		}
		if !vocab.IsReserved(last) {
			out = append(out, last)
		}
	}
	return out, nil
}

// BeamResult - the winning candidate; Completed is false when nothing emitted END before the caps
type BeamResult struct {
	IDs        []int
	Score      float64
	Normalized float64
	Completed  bool
}

// Err - ErrNoCompletion for a partial result
func (r BeamResult) Err() error {
	if r.Completed {
		return nil
	}
	return ErrNoCompletion
}

type beamstate struct {
	ids   []int
	score float64
	norm  float64
	last  int
	h     []*mat.VecDense
}

func lengthpenalty(n int) float64 {
	return (5 + float64(n)) / 6
}

func bestof(states []beamstate) beamstate {
	sort.SliceStable(states, func(i, j int) bool { return states[i].norm > states[j].norm })
	return states[0]
}

// Beam - beam search with multiplicative scores and length normalisation
//
//	in progress: score / ((5+len)/6)
//	completed:   score / ((5+len)/6) * (surfacelen/len), len counting the END
//
// A candidate stops expanding after maxlen rounds, so no output is longer than maxlen; Decode hands in
// the same per-word limit it gives Greedy. If nothing completes, the best stopped candidate comes back
// with Completed set to false.
func (d *CharDecoder) Beam(in Input, surfacelen int, width int, maxlen int) (BeamResult, error) {
	if width < 1 {
		width = 1
	}
	h, err := initstack(d.W, in, d.Hidden, d.tfm)
	if err != nil {
		return BeamResult{}, err
	}

	states := []beamstate{{score: 1, norm: 1, last: vocab.START, h: h}}
	var completed, exhausted []beamstate

	for round := 0; len(states) > 0; round++ {
		var next []beamstate
		for _, st := range states {
			if round >= maxlen {
				exhausted = append(exhausted, st)
				continue
			}
			logits, hn, serr := d.step(st.last, st.h)
			if serr != nil {
				return BeamResult{}, serr
			}
			p := nn.Softmax(logits)
			for _, ix := range nn.TopK(p, width) {
				score := st.score * p[ix]
				if ix == vocab.END {
					n := len(st.ids) + 1
					norm := score / lengthpenalty(n) * (float64(surfacelen) / float64(n))
					completed = append(completed, beamstate{ids: st.ids, score: score, norm: norm, last: ix, h: hn})
					continue
				}
				ids := st.ids
				if !vocab.IsReserved(ix) {
					ids = make([]int, len(st.ids), len(st.ids)+1)
					copy(ids, st.ids)
					ids = append(ids, ix)
				}
				next = append(next, beamstate{ids: ids, score: score, norm: score / lengthpenalty(len(ids)), last: ix, h: hn})
			}
		}
		sort.SliceStable(next, func(i, j int) bool { return next[i].norm > next[j].norm })
		if len(next) > width {
			next = next[:width]
		}
		states = next
	}

	if len(completed) > 0 {
		b := bestof(completed)
		return BeamResult{IDs: b.ids, Score: b.score, Normalized: b.norm, Completed: true}, nil
	}
	b := bestof(exhausted)
	return BeamResult{IDs: b.ids, Score: b.score, Normalized: b.norm, Completed: false}, nil
}

// limit - the step cap for one word, shared by greedy and beam decoding
func (d *CharDecoder) limit(surfacelen int) int {
	if d.MaxLen > 0 {
		return d.MaxLen
	}
	return surfacelen + 2
}

func (d *CharDecoder) Decode(ctx context.Context, b Batch) ([][]string, error) {
	const (
		MSG1 = "'%s': %v; using the best partial %v"
	)
	if err := b.validate(false); err != nil {
		return nil, err
	}
	out := make([][]string, len(b.Inputs))
	for i, in := range b.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		surfacelen := utf8.RuneCountInString(b.Surfaces[i])
		steps := d.limit(surfacelen)
		var ids []int
		if d.BeamWidth > 0 {
			res, err := d.Beam(in, surfacelen, d.BeamWidth, steps)
			if err != nil {
				return nil, err
			}
			ids = res.IDs
			if !res.Completed {
				d.incomplete.Add(1)
				if d.Msg != nil {
					partial, _ := d.Vocab.Decode(ids)
					d.Msg.Emit(fmt.Sprintf(MSG1, b.Surfaces[i], res.Err(), partial), vv.MSGWARN)
				}
			}
		} else {
			var err error
			ids, err = d.Greedy(in, steps)
			if err != nil {
				return nil, err
			}
		}
		syms, err := d.Vocab.Decode(ids)
		if err != nil {
			return nil, err
		}
		out[i] = syms
	}
	return out, nil
}
