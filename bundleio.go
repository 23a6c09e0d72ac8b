//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/db"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mdl"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/tfm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"os"
	"time"
)

var ErrNoModel = errors.New("no saved model")

var ErrNoEmbeddings = errors.New("transformer fusion is on but neither an embedder command nor an embeddings file is configured")

func openstore(ctx context.Context, c *str.CurrentConfiguration) (db.Store, error) {
	return db.Open(ctx, c.Store, c.WorkerCount)
}

// modelpresent - false only when a sqlite checkpoint file is known to be missing; opening it would create it
func modelpresent(c *str.CurrentConfiguration) bool {
	if c.Store.Provider != "" && c.Store.Provider != vv.DEFAULTSTORE {
		return true
	}
	fn := c.Store.SQLitePath
	if fn == "" {
		fn = vv.DEFAULTSQLITEFILE
	}
	_, err := os.Stat(fn)
	return err == nil
}

// loadbundle - restore the checkpoint for inference and hook up the transformer services it was built with
func loadbundle(ctx context.Context, c *str.CurrentConfiguration) (*mdl.Bundle, error) {
	const (
		MSG1 = "model restored: %s/%s, %d parameters"
	)
	start := time.Now()
	if !modelpresent(c) {
		return nil, fmt.Errorf("%w: '%s' (run 'hmt init' first)", ErrNoModel, c.Store.SQLitePath)
	}

	s, err := openstore(ctx, c)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	b, err := mdl.Load(ctx, s, false)
	if err != nil {
		return nil, err
	}
	b.AttachMessenger(Msg)
	b.SetBeamWidth(c.Model.BeamWidth)

	if b.Hyper.UseTransformer {
		tok, emb, e := transformer(c.Transformer, b.Hyper.TransformerDim)
		if e != nil {
			return nil, e
		}
		b.AttachTransformer(tok, emb)
	}

	Msg.Timer("B1", fmt.Sprintf(MSG1, b.Hyper.LemmaDecoder, b.Hyper.TagDecoder, b.ParamCount()), start, start)
	return b, nil
}

// transformer - the tokenizer plus either the external embedder or the static vectors
func transformer(ts str.TransformerService, dim int) (tfm.Tokenizer, tfm.Embedder, error) {
	if ts.Tokenizer == "" {
		return nil, nil, mdl.ErrNoTokenizer
	}
	wp, err := tfm.LoadWordPiece(ts.Tokenizer)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case len(ts.Command) > 0:
		return wp, &tfm.ExecEmbedder{Command: ts.Command, Width: dim}, nil
	case ts.Embeddings != "":
		se, e := tfm.LoadStaticEmbedder(ts.Embeddings, wp)
		if e != nil {
			return nil, nil, e
		}
		return wp, se, nil
	default:
		return nil, nil, ErrNoEmbeddings
	}
}
