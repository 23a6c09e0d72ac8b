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

// TransformationDecoder - a bidirectional GRU over the surface characters that labels each one with an edit.
// Every vector of the initial stack is fed twice, once per direction.
type TransformationDecoder struct {
	Vocab      *vocab.Vocabulary // edit labels
	Hidden     int
	W          *nn.Linear // 2h -> h
	Emb        *nn.Embedding
	GRU        *nn.GRU
	Classifier *nn.Linear // 2h -> |labels|
	drop       *nn.Dropout
	tfm        bool
}

func NewTransformationDecoder(rt *nn.Runtime, labels *vocab.Vocabulary, surfacevocab int, embsize int, hidden int,
	transformer bool, dropout float64) *TransformationDecoder {
	return &TransformationDecoder{
		Vocab:      labels,
		Hidden:     hidden,
		W:          nn.NewLinear(rt, 2*hidden, hidden),
		Emb:        nn.NewEmbedding(rt, surfacevocab+1, embsize),
		GRU:        nn.NewGRU(rt, embsize, hidden, stacklayers(transformer), true),
		Classifier: nn.NewLinear(rt, 2*hidden, labels.Len()),
		drop:       nn.NewDropout(rt, dropout),
		tfm:        transformer,
	}
}

func (d *TransformationDecoder) Kind() Kind {
	return KindTransformation
}

func (d *TransformationDecoder) Params() nn.ParamSet {
	ps := make(nn.ParamSet)
	ps.Merge("w", d.W.Params())
	ps.Merge("emb", d.Emb.Params())
	ps.Merge("gru", d.GRU.Params())
	ps.Merge("classifier", d.Classifier.Params())
	return ps
}

// Forward - logits for every position of one padded character row
func (d *TransformationDecoder) Forward(in Input, row []int) ([]*mat.VecDense, error) {
	stack, err := initstack(d.W, in, d.Hidden, d.tfm)
	if err != nil {
		return nil, err
	}
	doubled := make([]*mat.VecDense, 0, 2*len(stack))
	for _, v := range stack {
		doubled = append(doubled, v, v)
	}
	xs, err := d.Emb.LookupAll(row)
	if err != nil {
		return nil, err
	}
	out, _, err := d.GRU.Forward(d.drop.ApplyAll(xs), doubled)
	if err != nil {
		return nil, err
	}
	logits := make([]*mat.VecDense, len(out))
	for i, o := range out {
		logits[i] = d.Classifier.Forward(d.drop.Apply(o))
	}
	return logits, nil
}

// Decode - arg-max label per position, cut back to the surface length; no autoregression
func (d *TransformationDecoder) Decode(ctx context.Context, b Batch) ([][]string, error) {
	if err := b.validate(true); err != nil {
		return nil, err
	}
	out := make([][]string, len(b.Inputs))
	for i, in := range b.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logits, err := d.Forward(in, b.Chars[i])
		if err != nil {
			return nil, err
		}
		n := min(len([]rune(b.Surfaces[i])), len(logits))
		labels := make([]string, n)
		for p := 0; p < n; p++ {
			labels[p], err = d.Vocab.Symbol(nn.ArgMax(logits[p]))
			if err != nil {
				return nil, err
			}
		}
		out[i] = labels
	}
	return out, nil
}

// Loss - cross-entropy at every labelled position; padding and unknown labels are ignored
func (d *TransformationDecoder) Loss(b Batch, gold [][]string) (float64, error) {
	const (
		FAIL1 = "%w: %d inputs, %d gold sequences"
	)
	if err := b.validate(true); err != nil {
		return 0, err
	}
	if len(gold) != len(b.Inputs) {
		return 0, fmt.Errorf(FAIL1, ErrBatch, len(b.Inputs), len(gold))
	}
	if len(b.Inputs) == 0 {
		return 0, nil
	}
	var total float64
	for i, in := range b.Inputs {
		logits, err := d.Forward(in, b.Chars[i])
		if err != nil {
			return 0, err
		}
		targets := make([]int, len(logits))
		for p := 0; p < len(targets) && p < len(gold[i]); p++ {
			if id, ok := d.Vocab.ID(gold[i][p]); ok {
				targets[p] = id
			}
		}
		total += nn.CrossEntropy(logits, targets, vocab.PAD)
	}
	return total / float64(len(b.Inputs)), nil
}
