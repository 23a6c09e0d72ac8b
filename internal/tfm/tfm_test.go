//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package tfm

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const vocabtxt = "[PAD]\n[UNK]\n[CLS]\nrun\n##ning\nfast\n##s\nR\n##un\n"

func TestWordPieceVocabTXT(t *testing.T) {
	wp, err := ReadVocabTXT(strings.NewReader(vocabtxt))
	require.NoError(t, err)

	ids, err := wp.Tokenize("running")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, ids)

	ids, err = wp.Tokenize("Run")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, ids, "case is preserved")

	ids, err = wp.Tokenize("xyz")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)

	_, err = wp.Tokenize("")
	assert.ErrorIs(t, err, ErrNoSubwords)
}

func TestWordPieceTokenizerJSON(t *testing.T) {
	js := `{"model":{"type":"WordPiece","unk_token":"<unk>","continuing_subword_prefix":"@@",
		"vocab":{"<unk>":0,"fa":1,"@@st":2}}}`
	wp, err := ReadTokenizerJSON(strings.NewReader(js))
	require.NoError(t, err)
	ids, err := wp.Tokenize("fast")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)

	_, err = ReadTokenizerJSON(strings.NewReader(`{"model":{"type":"BPE","vocab":{"a":0}}}`))
	assert.ErrorIs(t, err, ErrVocab)
	_, err = ReadTokenizerJSON(strings.NewReader(`{"model":{"type":"WordPiece","vocab":{"a":0}}}`))
	assert.ErrorIs(t, err, ErrVocab, "no [UNK]")
}

func TestLoadWordPieceByExtension(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(fn, []byte(vocabtxt), 0644))
	wp, err := LoadWordPiece(fn)
	require.NoError(t, err)
	assert.Equal(t, 9, wp.Len())
}

func TestSubwords(t *testing.T) {
	wp, err := ReadVocabTXT(strings.NewReader(vocabtxt))
	require.NoError(t, err)
	ids, owners, err := Subwords(wp, []string{"running", "fast"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, ids)
	assert.Equal(t, []int{0, 0, 1}, owners)

	_, _, err = Subwords(wp, []string{"fast", ""})
	assert.ErrorIs(t, err, ErrNoSubwords)
}

func TestStaticEmbedder(t *testing.T) {
	wp, err := ReadVocabTXT(strings.NewReader(vocabtxt))
	require.NoError(t, err)
	vecs := "run 1 2\n##ning 3 4\nunseen 9 9\n"
	se, err := NewStaticEmbedder(strings.NewReader(vecs), wp)
	require.NoError(t, err)
	assert.Equal(t, 2, se.Dim())

	out, err := se.Embed(context.Background(), []int{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {0, 0}}, out)

	_, err = NewStaticEmbedder(strings.NewReader("run 1 2\nfast 1\n"), wp)
	assert.Error(t, err, "ragged vectors")
}

func TestExecEmbedder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a posix shell")
	}
	ee := &ExecEmbedder{Command: []string{"sh", "-c", `cat >/dev/null; echo '{"vectors":[[1,2],[3,4]]}'`}, Width: 2}
	out, err := ee.Embed(context.Background(), []int{7, 8})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, out)

	ee.Width = 3
	_, err = ee.Embed(context.Background(), []int{7, 8})
	assert.ErrorIs(t, err, ErrLength)

	_, err = (&ExecEmbedder{}).Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoCommand)

	bad := &ExecEmbedder{Command: []string{"sh", "-c", "exit 3"}}
	_, err = bad.Embed(context.Background(), []int{1})
	assert.Error(t, err)
}
