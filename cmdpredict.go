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
	"github.com/e-gun/HipparchiaMorphTagger/internal/pred"
	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"io"
	"os"
)

const (
	FMTCONLL = "conll"
	FMTTEXT  = "text"
)

var ErrFormat = errors.New("unknown input format")

func predictCmd() *cobra.Command {
	var in, out, format string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "lemmatize and tag every sentence of a file; CONLL out",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return errors.New("-i is required")
			}
			b, err := loadbundle(cmd.Context(), cfg())
			if err != nil {
				return err
			}
			p := pred.New(b, cfg().UseOverrides, Msg)

			rf, err := os.Open(in)
			if err != nil {
				return err
			}
			defer rf.Close()

			var w io.Writer = cmd.OutOrStdout()
			showbar := false
			if out != "" && out != "-" {
				wf, e := os.Create(out)
				if e != nil {
					return e
				}
				defer wf.Close()
				w = wf
				showbar = true
			}
			return predictfile(cmd.Context(), p, rf, w, format, cfg().WorkerCount, showbar)
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "file to analyse")
	cmd.Flags().StringVarP(&out, "output", "o", "", "CONLL output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", FMTCONLL, "input format: conll (surfaces from column 2) or text (one sentence per line)")
	return cmd
}

// predictfile - read the sentences, run them through the worker pool, write CONLL in input order
func predictfile(ctx context.Context, p *pred.Predictor, r io.Reader, w io.Writer, format string, workers int, showbar bool) error {
	const (
		MSG1 = "%d sentences read"
		MSG2 = "%d beam searches gave up before END; partial lemmata kept"
	)
	if ctx == nil {
		ctx = context.Background()
	}
	var sentences [][]string
	var err error
	switch format {
	case FMTCONLL:
		sentences, err = conll.ReadSurfaces(r)
	case FMTTEXT:
		sentences, err = conll.SplitLines(r)
	default:
		err = fmt.Errorf("%w: '%s'", ErrFormat, format)
	}
	if err != nil {
		return err
	}
	Msg.FYI(fmt.Sprintf(MSG1, len(sentences)))

	tick := func() {}
	if showbar && len(sentences) > 0 {
		uiprogress.Start()
		bar := uiprogress.AddBar(len(sentences))
		bar.AppendCompleted()
		bar.PrependElapsed()
		tick = func() { bar.Incr() }
		defer uiprogress.Stop()
	}

	analyses, err := p.PredictAll(ctx, sentences, workers, tick)
	if err != nil {
		return err
	}
	if err = conll.Write(w, analyses); err != nil {
		return err
	}

	if n := p.Model.Incomplete(); n > 0 {
		Msg.WARN(fmt.Sprintf(MSG2, n))
	}
	return nil
}
