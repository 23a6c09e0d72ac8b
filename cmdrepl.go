//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package main

import (
	"context"
	"fmt"
	"github.com/c-bata/go-prompt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/conll"
	"github.com/e-gun/HipparchiaMorphTagger/internal/gen"
	"github.com/e-gun/HipparchiaMorphTagger/internal/lnch"
	"github.com/e-gun/HipparchiaMorphTagger/internal/pred"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"
	"io"
	"strings"
)

const (
	REPLPREFIX  = "hmt> "
	REPLMAXSUGG = 12
)

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "analyse sentences typed at a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			b, err := loadbundle(ctx, cfg())
			if err != nil {
				return err
			}
			p := pred.New(b, cfg().UseOverrides, Msg)
			lnch.PrintVersion(cmd.OutOrStdout(), cfg())
			fmt.Fprintln(cmd.OutOrStdout(), lnch.Copyright())
			fmt.Fprintln(cmd.OutOrStdout(), "type a sentence; 'quit' leaves")

			sorted := gen.SortedKeys(b.Surface2Lemma)
			comp := func(d prompt.Document) []prompt.Suggest {
				return suggestions(sorted, b.Surface2Lemma, d.GetWordBeforeCursor())
			}

			var history []string
			for {
				line := prompt.Input(REPLPREFIX, comp,
					prompt.OptionTitle(lnch.VersionLine(cfg())),
					prompt.OptionPrefixTextColor(prompt.Yellow),
					prompt.OptionMaxSuggestion(REPLMAXSUGG),
					prompt.OptionHistory(history))
				if !replline(ctx, p, line, cmd.OutOrStdout()) {
					return nil
				}
				if strings.TrimSpace(line) != "" {
					history = append(history, line)
				}
			}
		},
	}
}

// suggestions - override-dictionary surfaces that start with the word being typed; the lemma is the description
func suggestions(sorted []string, dict map[string]string, word string) []prompt.Suggest {
	if word == "" {
		return nil
	}
	hits := gen.WithPrefix(sorted, norm.NFC.String(word), REPLMAXSUGG)
	ss := make([]prompt.Suggest, len(hits))
	for i, h := range hits {
		ss[i] = prompt.Suggest{Text: h, Description: dict[h]}
	}
	return ss
}

// replline - analyse one line and print its CONLL block; false means leave the loop
func replline(ctx context.Context, p *pred.Predictor, line string, w io.Writer) bool {
	ff := strings.Fields(norm.NFC.String(line))
	if len(ff) == 0 {
		return true
	}
	if len(ff) == 1 && (ff[0] == "quit" || ff[0] == "exit") {
		return false
	}
	aa, err := p.PredictSentence(ctx, ff)
	if err != nil {
		fmt.Fprintf(w, "error: %s\n", err.Error())
		return true
	}
	fmt.Fprint(w, conll.FormatSentence(aa))
	return true
}
