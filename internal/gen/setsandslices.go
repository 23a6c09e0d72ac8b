//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package gen

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

//
// SETS AND SLICES
//

// SortedKeys - the keys of a map in order
func SortedKeys[K constraints.Ordered, V any](mp map[K]V) []K {
	kk := maps.Keys(mp)
	slices.Sort(kk)
	return kk
}

// WithPrefix - the members of a sorted slice that start with p, capped at n (n <= 0: no cap)
func WithPrefix(sorted []string, p string, n int) []string {
	i, _ := slices.BinarySearch(sorted, p)
	var out []string
	for ; i < len(sorted); i++ {
		if len(sorted[i]) < len(p) || sorted[i][:len(p)] != p {
			break
		}
		out = append(out, sorted[i])
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
