//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

// Package conll reads CONLL-U style corpora and writes the tagger's analyses back out in the same layout.
//
//	1	amavit	amo	_	_	v3sria;act	_	_	_	_
//
// Column 2 is the surface, column 3 the lemma, column 6 the tags joined with ';'.
package conll

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/edit"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"golang.org/x/text/unicode/norm"
	"io"
	"strings"
)

const (
	COLUMNS   = 10
	EMPTY     = "_"
	TAGSEP    = ";"
	COMMENT   = "#"
	SENTHEAD  = "# Sentence\n"
	ROWFORMAT = "%d\t%s\t%s\t_\t_\t%s\t_\t_\t_\t_\n"
	SCANBUF   = 64 * 1024
	MAXLINE   = 1024 * 1024
)

var ErrColumns = errors.New("conll: wrong number of columns")

// row - the three columns the tagger cares about
type row struct {
	surface string
	lemma   string
	tags    []string
}

// newscanner - accepts lines up to MAXLINE bytes
func newscanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, SCANBUF), MAXLINE)
	return sc
}

// scan - feed every sentence (as its rows) to fn; comment lines and multiword or empty-node ids are skipped
func scan(r io.Reader, fn func([]row)) error {
	const (
		FAIL1 = "%w: line %d has %d, want %d"
	)

	sc := newscanner(r)

	var pending []row
	flush := func() {
		if len(pending) > 0 {
			fn(pending)
			pending = nil
		}
	}

	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, COMMENT) {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) != COLUMNS {
			return fmt.Errorf(FAIL1, ErrColumns, ln, len(cols), COLUMNS)
		}
		if strings.ContainsAny(cols[0], "-.") {
			continue
		}
		pending = append(pending, row{
			surface: norm.NFC.String(cols[1]),
			lemma:   norm.NFC.String(cols[2]),
			tags:    splittags(cols[5]),
		})
	}
	if err := sc.Err(); err != nil {
		return err
	}
	flush()
	return nil
}

func splittags(col string) []string {
	if col == EMPTY || col == "" {
		return nil
	}
	var tt []string
	for _, t := range strings.Split(col, TAGSEP) {
		if t != "" {
			tt = append(tt, t)
		}
	}
	return tt
}

// ReadSentences - gold training sentences with their edit transformations already derived
func ReadSentences(r io.Reader) ([]str.Sentence, error) {
	var ss []str.Sentence
	err := scan(r, func(rows []row) {
		s := str.Sentence{Words: make([]str.Word, len(rows))}
		for i, rw := range rows {
			s.Words[i] = str.Word{
				Surface:        rw.surface,
				Lemma:          rw.lemma,
				Tags:           rw.tags,
				Transformation: edit.Derive(rw.surface, rw.lemma),
			}
		}
		ss = append(ss, s)
	})
	return ss, err
}

// ReadSurfaces - only the surfaces, one slice per sentence
func ReadSurfaces(r io.Reader) ([][]string, error) {
	var out [][]string
	err := scan(r, func(rows []row) {
		s := make([]string, len(rows))
		for i := range rows {
			s[i] = rows[i].surface
		}
		out = append(out, s)
	})
	return out, err
}

// ReadSurfaceLemmaMap - the override dictionary; when a surface recurs the last lemma seen wins
func ReadSurfaceLemmaMap(r io.Reader) (map[string]string, error) {
	m := make(map[string]string)
	err := scan(r, func(rows []row) {
		for _, rw := range rows {
			m[rw.surface] = rw.lemma
		}
	})
	return m, err
}

// SplitLines - plain text with one whitespace-separated sentence per line
func SplitLines(r io.Reader) ([][]string, error) {
	var out [][]string
	sc := newscanner(r)
	for sc.Scan() {
		ff := strings.Fields(norm.NFC.String(sc.Text()))
		if len(ff) > 0 {
			out = append(out, ff)
		}
	}
	return out, sc.Err()
}

// FormatSentence - header, one row per word, then the blank line that ends the block
func FormatSentence(aa []str.Analysis) string {
	var b strings.Builder
	b.WriteString(SENTHEAD)
	for _, a := range aa {
		b.WriteString(fmt.Sprintf(ROWFORMAT, a.Index, a.Surface, a.Lemma, strings.Join(a.Tags, TAGSEP)))
	}
	b.WriteString("\n")
	return b.String()
}

// Write - every sentence in order
func Write(w io.Writer, sentences [][]str.Analysis) error {
	bw := bufio.NewWriter(w)
	for _, s := range sentences {
		if _, err := bw.WriteString(FormatSentence(s)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
