//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

// Package dec holds the three decoders. A CharDecoder writes a lemma (or a tag sequence) one symbol at a time;
// a TransformationDecoder labels every surface character with an edit; a FeedForwardDecoder fires any number
// of tags at once. Callers dispatch on Kind.
package dec

import (
	"context"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/edit"
	"github.com/e-gun/HipparchiaMorphTagger/internal/enc"
	"github.com/e-gun/HipparchiaMorphTagger/internal/nn"
	"gonum.org/v1/gonum/mat"
	"strings"
)

var (
	ErrBatch              = errors.New("dec: malformed batch")
	ErrTransformerContext = errors.New("dec: transformer context presence does not match the decoder")
	ErrNoCompletion       = errors.New("dec: beam search completed no candidate")
)

type Kind int

const (
	KindChar Kind = iota
	KindTransformation
	KindFeedForward
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindTransformation:
		return "transformation"
	case KindFeedForward:
		return "feedforward"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Decoder - the capability every decoder variant offers
type Decoder interface {
	Kind() Kind
	// Decode - one label sequence per word: characters, tags or edit labels depending on the kind
	Decode(ctx context.Context, b Batch) ([][]string, error)
	// Loss - mean teacher-forced loss over the words of the batch against gold label sequences
	Loss(b Batch, gold [][]string) (float64, error)
	Params() nn.ParamSet
}

// Input - the encoder's triple for one word
type Input struct {
	Word        *mat.VecDense
	Context     *mat.VecDense
	Transformer nn.Maybe
}

// Batch - one sentence worth of decoder input
type Batch struct {
	Inputs   []Input
	Surfaces []string
	Chars    [][]int // the encoder's padded character rows
}

// NewBatch - slice the encoder output into per-word inputs
func NewBatch(e *enc.Encoded, surfaces []string, chars [][]int) Batch {
	b := Batch{Inputs: make([]Input, e.Len()), Surfaces: surfaces, Chars: chars}
	for i := range b.Inputs {
		b.Inputs[i] = Input{Word: e.Words[i], Context: e.Context[i], Transformer: e.Transformer[i]}
	}
	return b
}

func (b Batch) validate(needchars bool) error {
	const (
		FAIL1 = "%w: %d inputs, %d surfaces"
		FAIL2 = "%w: %d inputs, %d character rows"
	)
	if len(b.Surfaces) != len(b.Inputs) {
		return fmt.Errorf(FAIL1, ErrBatch, len(b.Inputs), len(b.Surfaces))
	}
	if needchars && len(b.Chars) != len(b.Inputs) {
		return fmt.Errorf(FAIL2, ErrBatch, len(b.Inputs), len(b.Chars))
	}
	return nil
}

// Lemma - turn a lemma decoder's labels into a lemma string
func Lemma(k Kind, surface string, labels []string) string {
	if k == KindTransformation {
		return edit.Apply(surface, labels)
	}
	return strings.Join(labels, "")
}

// project - relu(W·context), after checking the widths that a bad input would otherwise turn into a panic
func project(w *nn.Linear, in Input, hidden int, wanttransformer bool) (*mat.VecDense, error) {
	const (
		FAIL1 = "%w: context width %d, want %d"
		FAIL2 = "%w: word width %d, want %d"
		FAIL3 = "%w: transformer width %d, want %d"
		FAIL4 = "%w: decoder built with transformer=%t"
	)
	if in.Context == nil || in.Context.Len() != w.In {
		n := 0
		if in.Context != nil {
			n = in.Context.Len()
		}
		return nil, fmt.Errorf(FAIL1, nn.ErrDimension, n, w.In)
	}
	if in.Word == nil || in.Word.Len() != hidden {
		n := 0
		if in.Word != nil {
			n = in.Word.Len()
		}
		return nil, fmt.Errorf(FAIL2, nn.ErrDimension, n, hidden)
	}
	t, ok := in.Transformer.Get()
	if ok != wanttransformer {
		return nil, fmt.Errorf(FAIL4, ErrTransformerContext, wanttransformer)
	}
	if ok && t.Len() != hidden {
		return nil, fmt.Errorf(FAIL3, nn.ErrDimension, t.Len(), hidden)
	}
	return nn.ReLU(w.Forward(in.Context)), nil
}

// initstack - the recurrent initial state: [relu(transformer)], relu(W·context), word
func initstack(w *nn.Linear, in Input, hidden int, wanttransformer bool) ([]*mat.VecDense, error) {
	c, err := project(w, in, hidden, wanttransformer)
	if err != nil {
		return nil, err
	}
	if t, ok := in.Transformer.Get(); ok {
		return []*mat.VecDense{nn.ReLU(t), c, in.Word}, nil
	}
	return []*mat.VecDense{c, in.Word}, nil
}

func stacklayers(transformer bool) int {
	if transformer {
		return 3
	}
	return 2
}
