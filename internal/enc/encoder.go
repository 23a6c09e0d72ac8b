//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

// Package enc builds the per-word representations every decoder consumes: a character GRU gives each word a
// vector, a bidirectional word GRU puts those vectors in sentence context, and an optional subword fusion
// adds a pooled pretrained-transformer vector per word.
package enc

import (
	"context"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/nn"
	"github.com/e-gun/HipparchiaMorphTagger/internal/tfm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vocab"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyWord       = errors.New("enc: empty word")
	ErrBatchSize       = errors.New("enc: malformed sentence batch")
	ErrSegmentMismatch = errors.New("enc: subword segments do not line up with the words")
	ErrNoEmbedder      = errors.New("enc: subword fusion enabled but no embedder attached")
)

// Input - one sentence; sentences are never batched together
type Input struct {
	Chars    [][]int // one padded row of character ids per word, END after the last character
	Subwords []int   // whole-sentence subword ids; ignored unless fusion is on
	Owners   []int   // word index of each subword
}

// Encoded - the triple every decoder reads, one entry per word
type Encoded struct {
	Words       []*mat.VecDense // char-GRU final states
	Context     []*mat.VecDense // word-GRU outputs, forward and backward halves
	Transformer []nn.Maybe      // projected pooled subword vectors, or None throughout
}

func (e *Encoded) Len() int {
	return len(e.Words)
}

// CharRows - encode surfaces as equal-length rows: characters, END, then PAD; unknown characters are skipped
func CharRows(v *vocab.Vocabulary, surfaces []string) ([][]int, error) {
	const (
		FAIL1 = "%w: word %d"
	)
	if len(surfaces) == 0 {
		return nil, fmt.Errorf("%w: no words", ErrBatchSize)
	}
	width := 0
	enc := make([][]int, len(surfaces))
	for i, s := range surfaces {
		if s == "" {
			return nil, fmt.Errorf(FAIL1, ErrEmptyWord, i)
		}
		enc[i] = v.Encode(vocab.Chars(s), false, true)
		width = max(width, len([]rune(s))+1)
	}
	rows := make([][]int, len(surfaces))
	for i := range enc {
		rows[i] = make([]int, width)
		copy(rows[i], enc[i])
	}
	return rows, nil
}

//
// CHARACTERS -> WORDS
//

// CharWordEncoder - a one-layer forward GRU over each word's characters; its last state is the word vector
type CharWordEncoder struct {
	Emb  *nn.Embedding
	GRU  *nn.GRU
	drop *nn.Dropout
}

func NewCharWordEncoder(rt *nn.Runtime, charvocab int, embsize int, hidden int, dropout float64) *CharWordEncoder {
	return &CharWordEncoder{
		Emb:  nn.NewEmbedding(rt, charvocab+1, embsize),
		GRU:  nn.NewGRU(rt, embsize, hidden, 1, false),
		drop: nn.NewDropout(rt, dropout),
	}
}

// Encode - every row runs the full padded width so that all words of a sentence are treated alike
func (c *CharWordEncoder) Encode(rows [][]int) ([]*mat.VecDense, error) {
	const (
		FAIL1 = "%w: no words"
		FAIL2 = "%w: word %d"
		FAIL3 = "%w: row %d has width %d, row 0 has %d"
	)
	if len(rows) == 0 {
		return nil, fmt.Errorf(FAIL1, ErrBatchSize)
	}
	out := make([]*mat.VecDense, len(rows))
	for i, r := range rows {
		if len(r) == 0 || r[0] == vocab.PAD {
			return nil, fmt.Errorf(FAIL2, ErrEmptyWord, i)
		}
		if len(r) != len(rows[0]) {
			return nil, fmt.Errorf(FAIL3, ErrBatchSize, i, len(r), len(rows[0]))
		}
		xs, err := c.Emb.LookupAll(r)
		if err != nil {
			return nil, err
		}
		_, hn, err := c.GRU.Forward(c.drop.ApplyAll(xs), nil)
		if err != nil {
			return nil, err
		}
		out[i] = c.drop.Apply(hn[0])
	}
	return out, nil
}

func (c *CharWordEncoder) Params() nn.ParamSet {
	ps := make(nn.ParamSet)
	ps.Merge("emb", c.Emb.Params())
	ps.Merge("gru", c.GRU.Params())
	return ps
}

//
// WORDS -> CONTEXT
//

// SentenceContextEncoder - a one-layer bidirectional GRU over the word vectors of a sentence
type SentenceContextEncoder struct {
	GRU  *nn.GRU
	drop *nn.Dropout
}

func NewSentenceContextEncoder(rt *nn.Runtime, in int, hidden int, dropout float64) *SentenceContextEncoder {
	return &SentenceContextEncoder{
		GRU:  nn.NewGRU(rt, in, hidden, 1, true),
		drop: nn.NewDropout(rt, dropout),
	}
}

func (s *SentenceContextEncoder) Encode(words []*mat.VecDense) ([]*mat.VecDense, error) {
	out, _, err := s.GRU.Forward(words, nil)
	if err != nil {
		return nil, err
	}
	return s.drop.ApplyAll(out), nil
}

func (s *SentenceContextEncoder) Params() nn.ParamSet {
	ps := make(nn.ParamSet)
	ps.Merge("gru", s.GRU.Params())
	return ps
}

//
// SUBWORDS -> WORDS
//

// SegmentSum - add up the rows that share an owner; row k of the result belongs to the k-th smallest owner.
// Every word in [0, nwords) must own at least one row.
func SegmentSum(rows [][]float64, owners []int, nwords int) ([]*mat.VecDense, error) {
	const (
		FAIL1 = "%w: %d vectors but %d owner labels"
		FAIL2 = "%w: owner %d outside [0,%d)"
		FAIL3 = "%w: %d distinct owners for %d words"
		FAIL4 = "%w: vector %d has width %d, vector 0 has %d"
	)
	if len(rows) != len(owners) {
		return nil, fmt.Errorf(FAIL1, ErrSegmentMismatch, len(rows), len(owners))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf(FAIL3, ErrSegmentMismatch, 0, nwords)
	}

	seen := make([]bool, nwords)
	distinct := 0
	for _, o := range owners {
		if o < 0 || o >= nwords {
			return nil, fmt.Errorf(FAIL2, ErrSegmentMismatch, o, nwords)
		}
		if !seen[o] {
			seen[o] = true
			distinct++
		}
	}
	if distinct != nwords {
		return nil, fmt.Errorf(FAIL3, ErrSegmentMismatch, distinct, nwords)
	}

	width := len(rows[0])
	out := make([]*mat.VecDense, nwords)
	for i := range out {
		out[i] = mat.NewVecDense(width, nil)
	}
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf(FAIL4, nn.ErrDimension, i, len(r), width)
		}
		out[owners[i]].AddVec(out[owners[i]], mat.NewVecDense(width, r))
	}
	return out, nil
}

// SubwordFusion - run the embedder over the whole sentence, pool per word, project to the word-GRU width
type SubwordFusion struct {
	Proj     *nn.Linear
	Embedder tfm.Embedder
}

func NewSubwordFusion(rt *nn.Runtime, transformerdim int, hidden int) *SubwordFusion {
	return &SubwordFusion{Proj: nn.NewLinear(rt, transformerdim, hidden)}
}

func (f *SubwordFusion) Fuse(ctx context.Context, subwords []int, owners []int, nwords int) ([]*mat.VecDense, error) {
	const (
		FAIL1 = "%w: %d subwords in, %d vectors out"
		FAIL2 = "%w: embedder width %d, projection expects %d"
	)
	if f.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	vecs, err := f.Embedder.Embed(ctx, subwords)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(subwords) {
		return nil, fmt.Errorf(FAIL1, tfm.ErrLength, len(subwords), len(vecs))
	}
	pooled, err := SegmentSum(vecs, owners, nwords)
	if err != nil {
		return nil, err
	}
	out := make([]*mat.VecDense, len(pooled))
	for i, p := range pooled {
		if p.Len() != f.Proj.In {
			return nil, fmt.Errorf(FAIL2, nn.ErrDimension, p.Len(), f.Proj.In)
		}
		out[i] = f.Proj.Forward(p)
	}
	return out, nil
}

func (f *SubwordFusion) Params() nn.ParamSet {
	ps := make(nn.ParamSet)
	ps.Merge("proj", f.Proj.Params())
	return ps
}

//
// THE WHOLE ENCODER
//

type Encoder struct {
	Chars   *CharWordEncoder
	Context *SentenceContextEncoder
	Fusion  *SubwordFusion // nil when the transformer is off
}

type Config struct {
	CharVocab      int
	EmbeddingSize  int
	CharHidden     int
	WordHidden     int
	Dropout        float64
	UseTransformer bool
	TransformerDim int
}

func New(rt *nn.Runtime, cfg Config) *Encoder {
	e := &Encoder{
		Chars:   NewCharWordEncoder(rt, cfg.CharVocab, cfg.EmbeddingSize, cfg.CharHidden, cfg.Dropout),
		Context: NewSentenceContextEncoder(rt, cfg.CharHidden, cfg.WordHidden, cfg.Dropout),
	}
	if cfg.UseTransformer {
		e.Fusion = NewSubwordFusion(rt, cfg.TransformerDim, cfg.WordHidden)
	}
	return e
}

// Encode - the full per-sentence pass
func (e *Encoder) Encode(ctx context.Context, in Input) (*Encoded, error) {
	words, err := e.Chars.Encode(in.Chars)
	if err != nil {
		return nil, err
	}
	cv, err := e.Context.Encode(words)
	if err != nil {
		return nil, err
	}

	tc := make([]nn.Maybe, len(words))
	if e.Fusion != nil {
		fused, ferr := e.Fusion.Fuse(ctx, in.Subwords, in.Owners, len(words))
		if ferr != nil {
			return nil, ferr
		}
		for i := range fused {
			tc[i] = nn.Some(fused[i])
		}
	} else {
		for i := range tc {
			tc[i] = nn.None()
		}
	}
	return &Encoded{Words: words, Context: cv, Transformer: tc}, nil
}

func (e *Encoder) Params() nn.ParamSet {
	ps := make(nn.ParamSet)
	ps.Merge("char", e.Chars.Params())
	ps.Merge("word", e.Context.Params())
	if e.Fusion != nil {
		ps.Merge("fusion", e.Fusion.Params())
	}
	return ps
}
