//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

// Package tfm supplies the two services the subword fusion needs: a tokenizer that turns a word into
// subword ids and an embedder that turns a subword id sequence into one vector per id.
package tfm

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"golang.org/x/text/unicode/norm"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoSubwords = errors.New("tfm: word produced no subwords")
	ErrLength     = errors.New("tfm: embedder returned the wrong number of vectors")
	ErrVocab      = errors.New("tfm: unusable tokenizer vocabulary")
	ErrNoCommand  = errors.New("tfm: no embedder command configured")
)

// Tokenizer - word -> subword ids; must be total on non-empty words and must not lowercase
type Tokenizer interface {
	Tokenize(word string) ([]int, error)
}

// WordPiece - greedy longest-match-first subword splitting over a BERT-style vocabulary
type WordPiece struct {
	vocab    map[string]int
	prefix   string
	unk      string
	unkid    int
	maxchars int
}

// hfjson - the parts of a HuggingFace tokenizer.json that WordPiece needs
type hfjson struct {
	Model struct {
		Type                    string         `json:"type"`
		Vocab                   map[string]int `json:"vocab"`
		UnkToken                string         `json:"unk_token"`
		ContinuingSubwordPrefix string         `json:"continuing_subword_prefix"`
		MaxInputCharsPerWord    int            `json:"max_input_chars_per_word"`
	} `json:"model"`
}

// LoadWordPiece - read either a tokenizer.json or a one-token-per-line vocab.txt
func LoadWordPiece(fn string) (*WordPiece, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(fn), ".json") {
		return ReadTokenizerJSON(f)
	}
	return ReadVocabTXT(f)
}

func ReadTokenizerJSON(r io.Reader) (*WordPiece, error) {
	const (
		FAIL1 = "%w: model type is '%s', not WordPiece"
	)
	var hf hfjson
	if err := json.NewDecoder(r).Decode(&hf); err != nil {
		return nil, fmt.Errorf("tokenizer.json: %w", err)
	}
	if hf.Model.Type != "" && hf.Model.Type != "WordPiece" {
		return nil, fmt.Errorf(FAIL1, ErrVocab, hf.Model.Type)
	}
	return newWordPiece(hf.Model.Vocab, hf.Model.ContinuingSubwordPrefix, hf.Model.UnkToken, hf.Model.MaxInputCharsPerWord)
}

func ReadVocabTXT(r io.Reader) (*WordPiece, error) {
	vocab := make(map[string]int)
	sc := bufio.NewScanner(r)
	id := 0
	for sc.Scan() {
		tok := strings.TrimRight(sc.Text(), "\r\n")
		if _, dup := vocab[tok]; !dup {
			vocab[tok] = id
		}
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return newWordPiece(vocab, "", "", 0)
}

func newWordPiece(vocab map[string]int, prefix string, unk string, maxchars int) (*WordPiece, error) {
	const (
		FAIL1 = "%w: empty"
		FAIL2 = "%w: unknown-token '%s' is not in the vocabulary"
	)
	if len(vocab) == 0 {
		return nil, fmt.Errorf(FAIL1, ErrVocab)
	}
	if prefix == "" {
		prefix = "##"
	}
	if unk == "" {
		unk = "[UNK]"
	}
	if maxchars == 0 {
		maxchars = 100
	}
	unkid, ok := vocab[unk]
	if !ok {
		return nil, fmt.Errorf(FAIL2, ErrVocab, unk)
	}
	return &WordPiece{vocab: vocab, prefix: prefix, unk: unk, unkid: unkid, maxchars: maxchars}, nil
}

// Tokenize - NFC-normalise, then split; a word that cannot be covered becomes a single [UNK]
func (wp *WordPiece) Tokenize(word string) ([]int, error) {
	runes := []rune(norm.NFC.String(word))
	if len(runes) == 0 {
		return nil, ErrNoSubwords
	}
	if len(runes) > wp.maxchars {
		return []int{wp.unkid}, nil
	}

	var ids []int
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for start < end {
			sub := string(runes[start:end])
			if start > 0 {
				sub = wp.prefix + sub
			}
			if id, ok := wp.vocab[sub]; ok {
				ids = append(ids, id)
				found = true
				break
			}
			end--
		}
		if !found {
			return []int{wp.unkid}, nil
		}
		start = end
	}
	return ids, nil
}

func (wp *WordPiece) Len() int {
	return len(wp.vocab)
}

// Subwords - the sentence-level subword sequence plus, for every subword, the index of the word it came from
func Subwords(tok Tokenizer, words []string) ([]int, []int, error) {
	const (
		FAIL1 = "word %d ('%s'): %w"
	)
	var ids, owners []int
	for i, w := range words {
		sw, err := tok.Tokenize(w)
		if err != nil {
			return nil, nil, fmt.Errorf(FAIL1, i, w, err)
		}
		if len(sw) == 0 {
			return nil, nil, fmt.Errorf(FAIL1, i, w, ErrNoSubwords)
		}
		ids = append(ids, sw...)
		for range sw {
			owners = append(owners, i)
		}
	}
	return ids, owners, nil
}
