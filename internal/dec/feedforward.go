//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package dec

import (
	"context"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/nn"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vocab"
	"gonum.org/v1/gonum/mat"
)

// THRESHOLD - a tag fires when its sigmoid clears this
const THRESHOLD = 0.5

// FeedForwardDecoder - independent sigmoid per tag; any number of tags may fire
type FeedForwardDecoder struct {
	Vocab      *vocab.Vocabulary
	Hidden     int
	W          *nn.Linear // 2h -> h, context projection
	H          *nn.Linear // 2h -> h, hidden layer
	Classifier *nn.Linear // h -> |tags|
	drop       *nn.Dropout
	tfm        bool
}

func NewFeedForwardDecoder(rt *nn.Runtime, tags *vocab.Vocabulary, hidden int, transformer bool, dropout float64) *FeedForwardDecoder {
	return &FeedForwardDecoder{
		Vocab:      tags,
		Hidden:     hidden,
		W:          nn.NewLinear(rt, 2*hidden, hidden),
		H:          nn.NewLinear(rt, 2*hidden, hidden),
		Classifier: nn.NewLinear(rt, hidden, tags.Len()),
		drop:       nn.NewDropout(rt, dropout),
		tfm:        transformer,
	}
}

func (d *FeedForwardDecoder) Kind() Kind {
	return KindFeedForward
}

func (d *FeedForwardDecoder) Params() nn.ParamSet {
	ps := make(nn.ParamSet)
	ps.Merge("w", d.W.Params())
	ps.Merge("h", d.H.Params())
	ps.Merge("classifier", d.Classifier.Params())
	return ps
}

// Forward - one logit per tag: classifier(dropout(relu(H·[relu(t), c] or H·[c, word])))
func (d *FeedForwardDecoder) Forward(in Input) (*mat.VecDense, error) {
	c, err := project(d.W, in, d.Hidden, d.tfm)
	if err != nil {
		return nil, err
	}
	var joined *mat.VecDense
	if t, ok := in.Transformer.Get(); ok {
		joined = nn.Concat(nn.ReLU(t), c)
	} else {
		joined = nn.Concat(c, in.Word)
	}
	hidden := d.drop.Apply(nn.ReLU(d.H.Forward(joined)))
	return d.Classifier.Forward(hidden), nil
}

// Probabilities - the sigmoid of every tag logit, indexed by tag id
func (d *FeedForwardDecoder) Probabilities(in Input) ([]float64, error) {
	logits, err := d.Forward(in)
	if err != nil {
		return nil, err
	}
	p := nn.Raw(logits)
	for i := range p {
		p[i] = nn.Sigmoid(p[i])
	}
	return p, nil
}

// Decode - tags over the threshold in id order; PAD, END and START never fire
func (d *FeedForwardDecoder) Decode(ctx context.Context, b Batch) ([][]string, error) {
	if err := b.validate(false); err != nil {
		return nil, err
	}
	out := make([][]string, len(b.Inputs))
	for i, in := range b.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := d.Probabilities(in)
		if err != nil {
			return nil, err
		}
		var tags []string
		for id, prob := range p {
			if vocab.IsReserved(id) || prob <= THRESHOLD {
				continue
			}
			sym, serr := d.Vocab.Symbol(id)
			if serr != nil {
				return nil, serr
			}
			tags = append(tags, sym)
		}
		out[i] = tags
	}
	return out, nil
}

// Loss - binary cross-entropy against the multi-hot gold tag set; unknown tags are ignored
func (d *FeedForwardDecoder) Loss(b Batch, gold [][]string) (float64, error) {
	const (
		FAIL1 = "%w: %d inputs, %d gold sets"
	)
	if len(gold) != len(b.Inputs) {
		return 0, fmt.Errorf(FAIL1, ErrBatch, len(b.Inputs), len(gold))
	}
	if len(b.Inputs) == 0 {
		return 0, nil
	}
	var total float64
	for i, in := range b.Inputs {
		logits, err := d.Forward(in)
		if err != nil {
			return 0, err
		}
		hot := make([]float64, d.Vocab.Len())
		for _, t := range gold[i] {
			if id, ok := d.Vocab.ID(t); ok && !vocab.IsReserved(id) {
				hot[id] = 1
			}
		}
		total += nn.BinaryCrossEntropy(logits, hot)
	}
	return total / float64(len(b.Inputs)), nil
}
