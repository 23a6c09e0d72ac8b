//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

// Package edit turns a surface/lemma pair into one edit label per surface character and back again.
//
//	K      keep the character
//	D      drop the character
//	R:xyz  write "xyz" in place of the character
//
// An insertion is folded into the label of the character before it ("cat" -> "cats" gives K K R:ts);
// insertions before the first character are folded into the first label.
package edit

import "strings"

const (
	KEEP    = "K"
	DELETE  = "D"
	REPLACE = "R:"
)

type op int

const (
	opmatch op = iota
	opsub
	opdel
	opins
)

// Derive - the edit script that rewrites surface into lemma; nil for an empty surface
func Derive(surface string, lemma string) []string {
	s := []rune(surface)
	l := []rune(lemma)
	if len(s) == 0 {
		return nil
	}

	ops := align(s, l)

	// emit[i] is what surface rune i becomes
	emit := make([]string, len(s))
	var lead strings.Builder
	i, j := -1, 0
	for _, o := range ops {
		switch o {
		case opmatch, opsub:
			i++
			emit[i] = string(l[j])
			j++
		case opdel:
			i++
			emit[i] = ""
		case opins:
			if i < 0 {
				lead.WriteRune(l[j])
			} else {
				emit[i] += string(l[j])
			}
			j++
		}
	}
	emit[0] = lead.String() + emit[0]

	labels := make([]string, len(s))
	for k := range s {
		switch emit[k] {
		case string(s[k]):
			labels[k] = KEEP
		case "":
			labels[k] = DELETE
		default:
			labels[k] = REPLACE + emit[k]
		}
	}
	return labels
}

// Apply - run an edit script over a surface; a missing or unrecognised label keeps its character
func Apply(surface string, labels []string) string {
	var sb strings.Builder
	for i, r := range []rune(surface) {
		if i >= len(labels) {
			sb.WriteRune(r)
			continue
		}
		lab := labels[i]
		switch {
		case lab == DELETE:
		case strings.HasPrefix(lab, REPLACE):
			sb.WriteString(strings.TrimPrefix(lab, REPLACE))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// align - Levenshtein alignment of s onto l as a list of operations in surface order
func align(s []rune, l []rune) []op {
	n, m := len(s), len(l)
	d := make([][]int, n+1)
	for i := range d {
		d[i] = make([]int, m+1)
		d[i][0] = i
	}
	for j := 0; j <= m; j++ {
		d[0][j] = j
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			c := 1
			if s[i-1] == l[j-1] {
				c = 0
			}
			d[i][j] = min(d[i-1][j-1]+c, d[i-1][j]+1, d[i][j-1]+1)
		}
	}

	// walk back; diagonal first, then deletion, then insertion
	var rev []op
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && s[i-1] == l[j-1] && d[i][j] == d[i-1][j-1]:
			rev = append(rev, opmatch)
			i--
			j--
		case i > 0 && j > 0 && d[i][j] == d[i-1][j-1]+1:
			rev = append(rev, opsub)
			i--
			j--
		case i > 0 && d[i][j] == d[i-1][j]+1:
			rev = append(rev, opdel)
			i--
		default:
			rev = append(rev, opins)
			j--
		}
	}

	ops := make([]op, len(rev))
	for k := range rev {
		ops[k] = rev[len(rev)-1-k]
	}
	return ops
}
