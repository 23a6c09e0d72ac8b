//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package gen

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}

func TestWithPrefix(t *testing.T) {
	ss := []string{"cat", "cats", "dog", "dogma", "dogs", "eel"}
	assert.Equal(t, []string{"dog", "dogma", "dogs"}, WithPrefix(ss, "dog", 0))
	assert.Equal(t, []string{"dog", "dogma"}, WithPrefix(ss, "dog", 2))
	assert.Empty(t, WithPrefix(ss, "zz", 0))
}

func TestFirstUnacceptable(t *testing.T) {
	assert.Equal(t, -1, FirstUnacceptable("<>", []string{"a", "b"}))
	assert.Equal(t, -1, FirstUnacceptable("<>", nil))
	assert.Equal(t, 1, FirstUnacceptable("<>", []string{"a", "<b", "c>"}))
	assert.Equal(t, 2, FirstUnacceptable(`"`, []string{"dog", "fast", `"`}))
	assert.Equal(t, 0, FirstUnacceptable("<>", []string{" ", "a"}))
}
