//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package str

// Word - one token of a sentence; gold fields are empty when only the surface is known
type Word struct {
	Surface        string
	Lemma          string
	Tags           []string
	Transformation []string
}

// Sentence - owns its words in order
type Sentence struct {
	Words []Word
}

func (s Sentence) Len() int {
	return len(s.Words)
}

// Surfaces - the surface forms in order
func (s Sentence) Surfaces() []string {
	out := make([]string, len(s.Words))
	for i := range s.Words {
		out[i] = s.Words[i].Surface
	}
	return out
}

// Analysis - the positional output record for one word; Index is 1-based
type Analysis struct {
	Index   int      `json:"index"`
	Surface string   `json:"surface"`
	Lemma   string   `json:"lemma"`
	Tags    []string `json:"tags"`
}
