//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package gen

import "strings"

//
// STRINGS and []RUNE
//

// FirstUnacceptable - the index of the first token that is blank or holds any of the chars in the
// bad-string; -1 when every token passes
func FirstUnacceptable(bad string, tokens []string) int {
	for i, t := range tokens {
		if strings.TrimSpace(t) == "" || strings.ContainsAny(t, bad) {
			return i
		}
	}
	return -1
}
