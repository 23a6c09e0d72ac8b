//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package tfm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/e-gun/wego/pkg/embedding"
	"io"
	"os"
	"os/exec"
)

// Embedder - subword ids -> one vector per id, same length, same order
type Embedder interface {
	Embed(ctx context.Context, ids []int) ([][]float64, error)
	Dim() int
}

//
// STATIC
//

// StaticEmbedder - a fixed vector per subword read from a word-vector text file ("token v1 v2 ... vn" per line)
type StaticEmbedder struct {
	dim     int
	vectors map[int][]float64
}

// NewStaticEmbedder - ids are resolved through the tokenizer's vocabulary; tokens the file lacks embed as zeros
func NewStaticEmbedder(r io.Reader, wp *WordPiece) (*StaticEmbedder, error) {
	const (
		FAIL1 = "%w: no vectors in the embedding file"
		FAIL2 = "%w: '%s' has %d dimensions, expected %d"
	)
	embs, err := embedding.Load(r)
	if err != nil {
		return nil, err
	}
	if len(embs) == 0 {
		return nil, fmt.Errorf(FAIL1, ErrVocab)
	}

	se := &StaticEmbedder{dim: len(embs[0].Vector), vectors: make(map[int][]float64, len(embs))}
	for _, e := range embs {
		if len(e.Vector) != se.dim {
			return nil, fmt.Errorf(FAIL2, ErrVocab, e.Word, len(e.Vector), se.dim)
		}
		id, ok := wp.vocab[e.Word]
		if !ok {
			continue
		}
		v := make([]float64, se.dim)
		copy(v, e.Vector)
		se.vectors[id] = v
	}
	return se, nil
}

// LoadStaticEmbedder - NewStaticEmbedder over a file
func LoadStaticEmbedder(fn string, wp *WordPiece) (*StaticEmbedder, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewStaticEmbedder(f, wp)
}

func (se *StaticEmbedder) Dim() int {
	return se.dim
}

func (se *StaticEmbedder) Embed(ctx context.Context, ids []int) ([][]float64, error) {
	out := make([][]float64, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := make([]float64, se.dim)
		if known, ok := se.vectors[id]; ok {
			copy(v, known)
		}
		out[i] = v
	}
	return out, nil
}

//
// EXTERNAL PROCESS
//

// ExecEmbedder - hand the ids to an external program (e.g. a python script wrapping a real transformer)
//
//	stdin:  {"ids":[101, 2057, ...]}
//	stdout: {"vectors":[[...], [...], ...]}
type ExecEmbedder struct {
	Command []string
	Width   int
}

type execrequest struct {
	IDs []int `json:"ids"`
}

type execreply struct {
	Vectors [][]float64 `json:"vectors"`
}

func (ee *ExecEmbedder) Dim() int {
	return ee.Width
}

func (ee *ExecEmbedder) Embed(ctx context.Context, ids []int) ([][]float64, error) {
	const (
		FAIL1 = "tfm: embedder command failed: %w: %s"
		FAIL2 = "tfm: embedder reply: %w"
		FAIL3 = "%w: vector %d has %d dimensions, expected %d"
	)
	if len(ee.Command) == 0 {
		return nil, ErrNoCommand
	}

	in, err := json.Marshal(execrequest{IDs: ids})
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, ee.Command[0], ee.Command[1:]...)
	cmd.Stdin = bytes.NewReader(in)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err = cmd.Run(); err != nil {
		return nil, fmt.Errorf(FAIL1, err, stderr.String())
	}

	var rep execreply
	if err = json.Unmarshal(out.Bytes(), &rep); err != nil {
		return nil, fmt.Errorf(FAIL2, err)
	}
	for i, v := range rep.Vectors {
		if ee.Width > 0 && len(v) != ee.Width {
			return nil, fmt.Errorf(FAIL3, ErrLength, i, len(v), ee.Width)
		}
	}
	return rep.Vectors, nil
}
