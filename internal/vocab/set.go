//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package vocab

import (
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Set - the four vocabularies a model needs
type Set struct {
	Surface    *Vocabulary `json:"surface"`    // characters of the input words
	Lemma      *Vocabulary `json:"lemma"`      // characters of the lemmata
	Tags       *Vocabulary `json:"tags"`       // morphological tags
	Transforms *Vocabulary `json:"transforms"` // edit labels
}

// BuildSet - collect every symbol in the training sentences; ids are handed out in sorted symbol order so that
// the same data always yields the same vocabularies. The result is frozen.
func BuildSet(sentences []str.Sentence) *Set {
	sc := make(map[string]struct{})
	lc := make(map[string]struct{})
	tg := make(map[string]struct{})
	tr := make(map[string]struct{})

	for _, s := range sentences {
		for _, w := range s.Words {
			for _, r := range w.Surface {
				sc[string(r)] = struct{}{}
			}
			for _, r := range w.Lemma {
				lc[string(r)] = struct{}{}
			}
			for _, t := range w.Tags {
				tg[t] = struct{}{}
			}
			for _, t := range w.Transformation {
				tr[t] = struct{}{}
			}
		}
	}

	return &Set{
		Surface:    frozen(sc),
		Lemma:      frozen(lc),
		Tags:       frozen(tg),
		Transforms: frozen(tr),
	}
}

func frozen(seen map[string]struct{}) *Vocabulary {
	kk := maps.Keys(seen)
	slices.Sort(kk)
	v := New()
	for _, k := range kk {
		// a reserved symbol that shows up in the data is already present: Add is a no-op for it
		_, _ = v.Add(k)
	}
	v.Freeze()
	return v
}

// Chars - split a word into one symbol per rune
func Chars(word string) []string {
	out := make([]string, 0, len(word))
	for _, r := range word {
		out = append(out, string(r))
	}
	return out
}
