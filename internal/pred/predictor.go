//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package pred

import (
	"context"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mdl"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"golang.org/x/sync/errgroup"
	"runtime"
	"sync/atomic"
	"time"
)

// Predictor - turns surfaces into positional analyses; safe for concurrent use once built
type Predictor struct {
	Model     *mdl.Bundle
	Overrides bool // exact-match surface -> lemma replacement after decoding
	Msg       *mm.MessageMaker
	done      atomic.Int64
}

func New(b *mdl.Bundle, overrides bool, msg *mm.MessageMaker) *Predictor {
	return &Predictor{Model: b, Overrides: overrides, Msg: msg}
}

// Predicted - sentences analysed so far
func (p *Predictor) Predicted() int64 {
	return p.done.Load()
}

// PredictSentence - encode once, decode lemma and tags per word, then apply any override
func (p *Predictor) PredictSentence(ctx context.Context, surfaces []string) ([]str.Analysis, error) {
	a, err := p.Model.Analyze(ctx, surfaces)
	if err != nil {
		return nil, err
	}

	out := make([]str.Analysis, len(surfaces))
	for i, s := range surfaces {
		lem := a.Lemmata[i]
		if p.Overrides {
			if forced, ok := p.Model.Surface2Lemma[s]; ok {
				lem = forced
			}
		}
		tags := a.Tags[i]
		if tags == nil {
			tags = []string{}
		}
		out[i] = str.Analysis{Index: i + 1, Surface: s, Lemma: lem, Tags: tags}
	}
	p.done.Add(1)
	return out, nil
}

// PredictAll - sentences in parallel, at most workers at a time, output in input order; the first error
// cancels everything still pending. tick, when not nil, is called after each finished sentence.
func (p *Predictor) PredictAll(ctx context.Context, sentences [][]string, workers int, tick func()) ([][]str.Analysis, error) {
	const (
		MSG1 = "predicted %d sentences with %d workers"
		FAIL = "sentence %d: %w"
	)

	start := time.Now()
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	out := make([][]str.Analysis, len(sentences))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i := range sentences {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			aa, err := p.PredictSentence(ctx, sentences[i])
			if err != nil {
				return fmt.Errorf(FAIL, i+1, err)
			}
			out[i] = aa
			if tick != nil {
				tick()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if p.Msg != nil {
		p.Msg.Timer("P1", fmt.Sprintf(MSG1, len(sentences), workers), start, start)
	}
	return out, nil
}
