//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

// Package mdl ties the encoder and the two decoders together, builds them from hyperparameters and moves them
// in and out of a checkpoint store.
package mdl

import (
	"context"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/db"
	"github.com/e-gun/HipparchiaMorphTagger/internal/dec"
	"github.com/e-gun/HipparchiaMorphTagger/internal/enc"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/nn"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/tfm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vocab"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
)

var (
	ErrHyper       = errors.New("mdl: inconsistent hyperparameters")
	ErrNoTokenizer = errors.New("mdl: transformer fusion enabled but no tokenizer attached")
)

// Bundle - everything prediction needs
type Bundle struct {
	Hyper         str.Hyperparameters
	Vocab         *vocab.Set
	Encoder       *enc.Encoder
	Lemma         dec.Decoder
	Morph         dec.Decoder
	Surface2Lemma map[string]string
	Tokenizer     tfm.Tokenizer
	Runtime       *nn.Runtime
}

// Analysis - the raw output for one sentence before any dictionary override
type Analysis struct {
	Lemmata []string
	Tags    [][]string
}

// Losses - teacher-forced losses for one sentence
type Losses struct {
	Lemma float64
	Morph float64
}

// Check - the combinations the architecture can actually wire together
func Check(h str.Hyperparameters) error {
	const (
		FAIL1 = "%w: charhidden (%d) must equal wordhidden (%d)"
		FAIL2 = "%w: unknown lemma decoder '%s'"
		FAIL3 = "%w: unknown tag decoder '%s'"
		FAIL4 = "%w: '%s' must be positive"
		FAIL5 = "%w: dropout %.2f outside [0,1)"
	)
	if h.CharHidden != h.WordHidden {
		return fmt.Errorf(FAIL1, ErrHyper, h.CharHidden, h.WordHidden)
	}
	if h.LemmaDecoder != vv.LEMMACHAR && h.LemmaDecoder != vv.LEMMATRANSFORM {
		return fmt.Errorf(FAIL2, ErrHyper, h.LemmaDecoder)
	}
	if h.TagDecoder != vv.TAGSRNN && h.TagDecoder != vv.TAGSFF {
		return fmt.Errorf(FAIL3, ErrHyper, h.TagDecoder)
	}
	sizes := []struct {
		n string
		v int
	}{
		{"charhidden", h.CharHidden},
		{"embeddingsize", h.EmbeddingSize},
		{"outputembeddingsize", h.OutputEmbeddingSize},
		{"maxtagslen", h.MaxTagsLen},
	}
	if h.UseTransformer {
		sizes = append(sizes, struct {
			n string
			v int
		}{"transformerdim", h.TransformerDim})
	}
	for _, s := range sizes {
		if s.v <= 0 {
			return fmt.Errorf(FAIL4, ErrHyper, s.n)
		}
	}
	for _, p := range []float64{h.EncoderDropout, h.DecoderDropout} {
		if p < 0 || p >= 1 {
			return fmt.Errorf(FAIL5, ErrHyper, p)
		}
	}
	return nil
}

// New - a freshly initialised bundle; training decides whether dropout is live
func New(h str.Hyperparameters, set *vocab.Set, training bool) (*Bundle, error) {
	if err := Check(h); err != nil {
		return nil, err
	}
	rt := nn.NewRuntime(h.Seed, training)

	b := &Bundle{
		Hyper:         h,
		Vocab:         set,
		Runtime:       rt,
		Surface2Lemma: make(map[string]string),
	}

	b.Encoder = enc.New(rt, enc.Config{
		CharVocab:      set.Surface.Len(),
		EmbeddingSize:  h.EmbeddingSize,
		CharHidden:     h.CharHidden,
		WordHidden:     h.WordHidden,
		Dropout:        h.EncoderDropout,
		UseTransformer: h.UseTransformer,
		TransformerDim: h.TransformerDim,
	})

	switch h.LemmaDecoder {
	case vv.LEMMATRANSFORM:
		b.Lemma = dec.NewTransformationDecoder(rt, set.Transforms, set.Surface.Len(), h.EmbeddingSize, h.WordHidden,
			h.UseTransformer, h.DecoderDropout)
	default:
		cd := dec.NewCharDecoder(rt, set.Lemma, h.OutputEmbeddingSize, h.WordHidden, h.UseTransformer, h.DecoderDropout)
		cd.BeamWidth = h.BeamWidth
		b.Lemma = cd
	}

	switch h.TagDecoder {
	case vv.TAGSFF:
		b.Morph = dec.NewFeedForwardDecoder(rt, set.Tags, h.WordHidden, h.UseTransformer, h.DecoderDropout)
	default:
		cd := dec.NewCharDecoder(rt, set.Tags, h.OutputEmbeddingSize, h.WordHidden, h.UseTransformer, h.DecoderDropout)
		cd.MaxLen = h.MaxTagsLen
		b.Morph = cd
	}
	return b, nil
}

// AttachMessenger - let the autoregressive decoders report incomplete beams
func (b *Bundle) AttachMessenger(m *mm.MessageMaker) {
	for _, d := range []dec.Decoder{b.Lemma, b.Morph} {
		if cd, ok := d.(*dec.CharDecoder); ok {
			cd.Msg = m
		}
	}
}

// SetBeamWidth - lemma beam width for inference; the checkpoint's own value is only a default
func (b *Bundle) SetBeamWidth(w int) {
	b.Hyper.BeamWidth = w
	if cd, ok := b.Lemma.(*dec.CharDecoder); ok {
		cd.BeamWidth = w
	}
}

// AttachTransformer - the tokenizer and embedder behind the subword fusion; a no-op when fusion is off
func (b *Bundle) AttachTransformer(tok tfm.Tokenizer, emb tfm.Embedder) {
	if b.Encoder.Fusion == nil {
		return
	}
	b.Tokenizer = tok
	b.Encoder.Fusion.Embedder = emb
}

// Incomplete - beam searches that fell back to a partial candidate
func (b *Bundle) Incomplete() int64 {
	var n int64
	for _, d := range []dec.Decoder{b.Lemma, b.Morph} {
		if cd, ok := d.(*dec.CharDecoder); ok {
			n += cd.Incomplete()
		}
	}
	return n
}

// ParamCount - scalars across every component
func (b *Bundle) ParamCount() int {
	return b.Encoder.Params().Count() + b.Lemma.Params().Count() + b.Morph.Params().Count()
}

// batch - encode one sentence and package it for the decoders
func (b *Bundle) batch(ctx context.Context, surfaces []string) (dec.Batch, error) {
	rows, err := enc.CharRows(b.Vocab.Surface, surfaces)
	if err != nil {
		return dec.Batch{}, err
	}
	in := enc.Input{Chars: rows}
	if b.Encoder.Fusion != nil {
		if b.Tokenizer == nil {
			return dec.Batch{}, ErrNoTokenizer
		}
		in.Subwords, in.Owners, err = tfm.Subwords(b.Tokenizer, surfaces)
		if err != nil {
			return dec.Batch{}, err
		}
	}
	e, err := b.Encoder.Encode(ctx, in)
	if err != nil {
		return dec.Batch{}, err
	}
	return dec.NewBatch(e, surfaces, rows), nil
}

// Analyze - lemmata and tags for one sentence of surfaces
func (b *Bundle) Analyze(ctx context.Context, surfaces []string) (Analysis, error) {
	bt, err := b.batch(ctx, surfaces)
	if err != nil {
		return Analysis{}, err
	}
	ll, err := b.Lemma.Decode(ctx, bt)
	if err != nil {
		return Analysis{}, err
	}
	tt, err := b.Morph.Decode(ctx, bt)
	if err != nil {
		return Analysis{}, err
	}

	a := Analysis{Lemmata: make([]string, len(surfaces)), Tags: tt}
	for i := range surfaces {
		a.Lemmata[i] = dec.Lemma(b.Lemma.Kind(), surfaces[i], ll[i])
	}
	return a, nil
}

// TagProbabilities - the feed-forward tag decoder's per-tag probabilities for one word of a sentence
func (b *Bundle) TagProbabilities(ctx context.Context, surfaces []string, word int) ([]string, []float64, error) {
	const (
		FAIL1 = "mdl: the tag decoder is '%s', not feed-forward"
		FAIL2 = "mdl: word %d not in [0,%d)"
	)
	ff, ok := b.Morph.(*dec.FeedForwardDecoder)
	if !ok {
		return nil, nil, fmt.Errorf(FAIL1, b.Morph.Kind())
	}
	if word < 0 || word >= len(surfaces) {
		return nil, nil, fmt.Errorf(FAIL2, word, len(surfaces))
	}
	bt, err := b.batch(ctx, surfaces)
	if err != nil {
		return nil, nil, err
	}
	p, err := ff.Probabilities(bt.Inputs[word])
	if err != nil {
		return nil, nil, err
	}
	return ff.Vocab.Symbols(), p, nil
}

// SentenceLoss - teacher-forced losses of both decoders against the gold sentence
func (b *Bundle) SentenceLoss(ctx context.Context, s str.Sentence) (Losses, error) {
	bt, err := b.batch(ctx, s.Surfaces())
	if err != nil {
		return Losses{}, err
	}

	lg := make([][]string, s.Len())
	tg := make([][]string, s.Len())
	for i, w := range s.Words {
		if b.Lemma.Kind() == dec.KindTransformation {
			lg[i] = w.Transformation
		} else {
			lg[i] = vocab.Chars(w.Lemma)
		}
		tg[i] = w.Tags
	}

	var l Losses
	if l.Lemma, err = b.Lemma.Loss(bt, lg); err != nil {
		return Losses{}, err
	}
	if l.Morph, err = b.Morph.Loss(bt, tg); err != nil {
		return Losses{}, err
	}
	return l, nil
}

//
// CHECKPOINTS
//

// Save - every component under its own name
func (b *Bundle) Save(ctx context.Context, s db.Store, msg *mm.MessageMaker) error {
	comp := []struct {
		name string
		v    any
	}{
		{vv.CKHYPER, b.Hyper},
		{vv.CKVOCAB, b.Vocab},
		{vv.CKENCODER, b.Encoder.Params().Export()},
		{vv.CKLEMMA, b.Lemma.Params().Export()},
		{vv.CKMORPH, b.Morph.Params().Export()},
		{vv.CKSURF2LEMMA, b.Surface2Lemma},
	}
	for _, c := range comp {
		if err := db.SaveJSON(ctx, s, c.name, c.v, msg); err != nil {
			return err
		}
	}
	return nil
}

// Load - rebuild the architecture from the stored hyperparameters, then restore the weights into it
func Load(ctx context.Context, s db.Store, training bool) (*Bundle, error) {
	const (
		FAIL1 = "mdl: restoring '%s': %w"
	)
	var h str.Hyperparameters
	if err := db.LoadJSON(ctx, s, vv.CKHYPER, &h); err != nil {
		return nil, err
	}
	var set vocab.Set
	if err := db.LoadJSON(ctx, s, vv.CKVOCAB, &set); err != nil {
		return nil, err
	}
	if set.Surface == nil || set.Lemma == nil || set.Tags == nil || set.Transforms == nil {
		return nil, fmt.Errorf(FAIL1, vv.CKVOCAB, vocab.ErrReserved)
	}

	b, err := New(h, &set, training)
	if err != nil {
		return nil, err
	}

	for name, ps := range map[string]nn.ParamSet{
		vv.CKENCODER: b.Encoder.Params(),
		vv.CKLEMMA:   b.Lemma.Params(),
		vv.CKMORPH:   b.Morph.Params(),
	} {
		var saved map[string]nn.Tensor
		if err = db.LoadJSON(ctx, s, name, &saved); err != nil {
			return nil, err
		}
		if err = ps.Restore(saved); err != nil {
			return nil, fmt.Errorf(FAIL1, name, err)
		}
	}

	err = db.LoadJSON(ctx, s, vv.CKSURF2LEMMA, &b.Surface2Lemma)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if b.Surface2Lemma == nil {
		b.Surface2Lemma = make(map[string]string)
	}
	return b, nil
}

// Defaults - the hyperparameters used when neither the config file nor a checkpoint says otherwise
func Defaults() str.Hyperparameters {
	return str.Hyperparameters{
		BeamWidth:           vv.DEFAULTBEAMWIDTH,
		CharHidden:          vv.DEFAULTCHARHIDDEN,
		DecoderDropout:      vv.DEFAULTDECDROPOUT,
		EmbeddingSize:       vv.DEFAULTEMBSIZE,
		EncoderDropout:      vv.DEFAULTENCDROPOUT,
		LemmaDecoder:        vv.DEFAULTLEMMADECODER,
		MaxTagsLen:          vv.DEFAULTMAXTAGSLEN,
		OutputEmbeddingSize: vv.DEFAULTOUTEMBSIZE,
		Seed:                vv.DEFAULTSEED,
		TagDecoder:          vv.DEFAULTTAGDECODER,
		TransformerDim:      vv.DEFAULTTRANSFORMERDIM,
		WordHidden:          vv.DEFAULTCHARHIDDEN,
	}
}
