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
	"github.com/e-gun/HipparchiaMorphTagger/internal/lnch"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mdl"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vocab"
	"github.com/spf13/cobra"
	"os"
	"time"
)

var ErrNoTrainingData = errors.New("no sentences in the training file")

func initCmd() *cobra.Command {
	var train, dict string
	var writeconf bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "build vocabularies from a CONLL file and save a freshly initialised model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if writeconf {
				if _, err := lnch.WriteDefaultConfig(); err != nil {
					return err
				}
			}
			if train == "" {
				if writeconf {
					return nil
				}
				return errors.New("--train is required")
			}
			return initmodel(cmd.Context(), cfg(), train, dict)
		},
	}
	cmd.Flags().StringVar(&train, "train", "", "CONLL training file")
	cmd.Flags().StringVar(&dict, "dict", "", "CONLL file for the surface->lemma overrides (default: the training file)")
	cmd.Flags().BoolVar(&writeconf, "writeconf", false, "write a starter configuration to $HOME/.config")
	return cmd
}

// initmodel - vocabularies, a new bundle with the configured hyperparameters, the override map; then save it all
func initmodel(ctx context.Context, c *str.CurrentConfiguration, train string, dict string) error {
	const (
		MSG1 = "%d sentences read from '%s'"
		MSG2 = "vocabularies: %d surface chars, %d lemma chars, %d tags, %d transformations"
		MSG3 = "%d surface->lemma overrides"
		MSG4 = "model saved: %d parameters"
	)
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	previous := time.Now()

	f, err := os.Open(train)
	if err != nil {
		return err
	}
	sentences, err := conll.ReadSentences(f)
	f.Close()
	if err != nil {
		return err
	}
	if len(sentences) == 0 {
		return fmt.Errorf("%w: '%s'", ErrNoTrainingData, train)
	}
	Msg.Timer("I1", fmt.Sprintf(MSG1, len(sentences), train), start, previous)

	previous = time.Now()
	set := vocab.BuildSet(sentences)
	Msg.Timer("I2", fmt.Sprintf(MSG2, set.Surface.Len(), set.Lemma.Len(), set.Tags.Len(), set.Transforms.Len()),
		start, previous)

	b, err := mdl.New(c.Model, set, false)
	if err != nil {
		return err
	}

	if dict == "" {
		dict = train
	}
	df, err := os.Open(dict)
	if err != nil {
		return err
	}
	b.Surface2Lemma, err = conll.ReadSurfaceLemmaMap(df)
	df.Close()
	if err != nil {
		return err
	}
	Msg.FYI(fmt.Sprintf(MSG3, len(b.Surface2Lemma)))

	previous = time.Now()
	s, err := openstore(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()
	if err = b.Save(ctx, s, Msg); err != nil {
		return err
	}
	Msg.Timer("I3", fmt.Sprintf(MSG4, b.ParamCount()), start, previous)
	return nil
}
