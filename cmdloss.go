//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/conll"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mdl"
	"github.com/spf13/cobra"
	"io"
	"os"
)

func lossCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "loss",
		Short: "mean teacher-forced losses of the saved model over a CONLL file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" {
				return errors.New("--data is required")
			}
			b, err := loadbundle(cmd.Context(), cfg())
			if err != nil {
				return err
			}
			f, err := os.Open(data)
			if err != nil {
				return err
			}
			defer f.Close()
			l, n, err := meanloss(cmd.Context(), b, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sentences: %d\tlemma: %.4f\tmorph: %.4f\n", n, l.Lemma, l.Morph)
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "CONLL file with gold lemmata and tags")
	return cmd
}

// meanloss - per-sentence losses averaged over every sentence in r
func meanloss(ctx context.Context, b *mdl.Bundle, r io.Reader) (mdl.Losses, int, error) {
	const (
		FAIL1 = "sentence %d: %w"
	)
	sentences, err := conll.ReadSentences(r)
	if err != nil {
		return mdl.Losses{}, 0, err
	}

	var sum mdl.Losses
	for i, s := range sentences {
		l, e := b.SentenceLoss(ctx, s)
		if e != nil {
			return mdl.Losses{}, 0, fmt.Errorf(FAIL1, i+1, e)
		}
		sum.Lemma += l.Lemma
		sum.Morph += l.Morph
	}
	if len(sentences) > 0 {
		sum.Lemma /= float64(len(sentences))
		sum.Morph /= float64(len(sentences))
	}
	return sum, len(sentences), nil
}
