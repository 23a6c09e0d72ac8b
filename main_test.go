//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package main

import (
	"bytes"
	"context"
	"errors"
	"github.com/e-gun/HipparchiaMorphTagger/internal/conll"
	"github.com/e-gun/HipparchiaMorphTagger/internal/dec"
	"github.com/e-gun/HipparchiaMorphTagger/internal/lnch"
	"github.com/e-gun/HipparchiaMorphTagger/internal/pred"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	Msg.Out = io.Discard
	Msg.SetLevel(vv.MSGCRIT, true)
	goleak.VerifyTestMain(m)
}

const train = "# sent_id = 1\n" +
	"1\trunning\trun\t_\t_\tV;PTCP\t_\t_\t_\t_\n" +
	"2\tfast\tfast\t_\t_\tADV\t_\t_\t_\t_\n" +
	"\n" +
	"1\tdog\tdog\t_\t_\tN;SG\t_\t_\t_\t_\n" +
	"2\truns\trun\t_\t_\tV;3;SG\t_\t_\t_\t_\n"

const dict = "1\tdog\tcanine\t_\t_\tN\t_\t_\t_\t_\n"

func testconfig(t *testing.T, lemma string, tags string) (*str.CurrentConfiguration, string) {
	t.Helper()
	dir := t.TempDir()
	c := lnch.BuildDefaultConfig()
	c.Store.SQLitePath = filepath.Join(dir, "model.db")
	c.WorkerCount = 2
	c.Model.CharHidden, c.Model.WordHidden = 8, 8
	c.Model.EmbeddingSize, c.Model.OutputEmbeddingSize = 4, 4
	c.Model.LemmaDecoder = lemma
	c.Model.TagDecoder = tags
	return c, dir
}

func writefile(t *testing.T, dir string, name string, body string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(body), 0644))
	return fn
}

func TestInitThenPredict(t *testing.T) {
	for _, dd := range [][2]string{{vv.LEMMACHAR, vv.TAGSRNN}, {vv.LEMMATRANSFORM, vv.TAGSFF}} {
		t.Run(dd[0]+"/"+dd[1], func(t *testing.T) {
			ctx := context.Background()
			c, dir := testconfig(t, dd[0], dd[1])
			assert.False(t, modelpresent(c))
			_, err := loadbundle(ctx, c)
			assert.ErrorIs(t, err, ErrNoModel)

			tf := writefile(t, dir, "train.conll", train)
			df := writefile(t, dir, "dict.conll", dict)
			require.NoError(t, initmodel(ctx, c, tf, df))
			require.True(t, modelpresent(c))

			b, err := loadbundle(ctx, c)
			require.NoError(t, err)
			assert.Equal(t, dd[0], b.Hyper.LemmaDecoder)
			assert.Equal(t, map[string]string{"dog": "canine"}, b.Surface2Lemma)

			p := pred.New(b, true, Msg)
			var out bytes.Buffer
			require.NoError(t, predictfile(ctx, p, strings.NewReader("dog runs\nfast\n"), &out, FMTTEXT, 2, false))

			back, err := conll.ReadSurfaceLemmaMap(&out)
			require.NoError(t, err)
			assert.Equal(t, "canine", back["dog"])
			assert.Contains(t, back, "runs")
			assert.Contains(t, back, "fast")
		})
	}
}

func TestInitDefaultsToTrainingDictionary(t *testing.T) {
	ctx := context.Background()
	c, dir := testconfig(t, vv.LEMMACHAR, vv.TAGSRNN)
	tf := writefile(t, dir, "train.conll", train)
	require.NoError(t, initmodel(ctx, c, tf, ""))

	b, err := loadbundle(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"running": "run", "fast": "fast", "dog": "dog", "runs": "run"}, b.Surface2Lemma)
}

func TestInitRejectsEmptyTraining(t *testing.T) {
	c, dir := testconfig(t, vv.LEMMACHAR, vv.TAGSRNN)
	tf := writefile(t, dir, "train.conll", "# nothing here\n")
	assert.ErrorIs(t, initmodel(context.Background(), c, tf, ""), ErrNoTrainingData)
}

func TestConfiguredBeamWidthWins(t *testing.T) {
	ctx := context.Background()
	c, dir := testconfig(t, vv.LEMMACHAR, vv.TAGSRNN)
	c.Model.BeamWidth = 0
	require.NoError(t, initmodel(ctx, c, writefile(t, dir, "train.conll", train), ""))

	c.Model.BeamWidth = 3
	b, err := loadbundle(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Hyper.BeamWidth)
	cd, ok := b.Lemma.(*dec.CharDecoder)
	require.True(t, ok)
	assert.Equal(t, 3, cd.BeamWidth)
}

func TestPredictFileFormats(t *testing.T) {
	ctx := context.Background()
	c, dir := testconfig(t, vv.LEMMACHAR, vv.TAGSRNN)
	require.NoError(t, initmodel(ctx, c, writefile(t, dir, "train.conll", train), ""))
	b, err := loadbundle(ctx, c)
	require.NoError(t, err)
	p := pred.New(b, false, Msg)

	var out bytes.Buffer
	require.NoError(t, predictfile(ctx, p, strings.NewReader(train), &out, FMTCONLL, 1, false))
	surf, err := conll.ReadSurfaces(&out)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"running", "fast"}, {"dog", "runs"}}, surf)

	err = predictfile(ctx, p, strings.NewReader(train), io.Discard, "xml", 1, false)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestMeanLoss(t *testing.T) {
	ctx := context.Background()
	c, dir := testconfig(t, vv.LEMMATRANSFORM, vv.TAGSFF)
	require.NoError(t, initmodel(ctx, c, writefile(t, dir, "train.conll", train), ""))
	b, err := loadbundle(ctx, c)
	require.NoError(t, err)

	l, n, err := meanloss(ctx, b, strings.NewReader(train))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Greater(t, l.Lemma, 0.0)
	assert.Greater(t, l.Morph, 0.0)
}

func TestSuggestions(t *testing.T) {
	d := map[string]string{"dog": "canine", "dogs": "canine", "door": "door", "cat": "feles"}
	sorted := []string{"cat", "dog", "dogs", "door"}

	got := suggestions(sorted, d, "do")
	require.Len(t, got, 3)
	assert.Equal(t, "dog", got[0].Text)
	assert.Equal(t, "canine", got[0].Description)
	assert.Equal(t, "door", got[2].Text)

	assert.Empty(t, suggestions(sorted, d, ""))
	assert.Empty(t, suggestions(sorted, d, "x"))
}

func TestReplLine(t *testing.T) {
	ctx := context.Background()
	c, dir := testconfig(t, vv.LEMMACHAR, vv.TAGSRNN)
	require.NoError(t, initmodel(ctx, c, writefile(t, dir, "train.conll", train), writefile(t, dir, "d", dict)))
	b, err := loadbundle(ctx, c)
	require.NoError(t, err)
	p := pred.New(b, true, Msg)

	var out bytes.Buffer
	assert.True(t, replline(ctx, p, "   ", &out))
	assert.Empty(t, out.String())

	assert.True(t, replline(ctx, p, "dog", &out))
	assert.Contains(t, out.String(), "1\tdog\tcanine\t")

	assert.False(t, replline(ctx, p, " quit ", &out))
	assert.False(t, replline(ctx, p, "exit", &out))
}

type stopcount struct{ n int }

func (s *stopcount) Stop() { s.n++ }

func TestExecuteStopsProfilerOnFailure(t *testing.T) {
	errBoom := errors.New("boom")
	root := rootCmd()
	root.AddCommand(&cobra.Command{
		Use:  "fail",
		RunE: func(cmd *cobra.Command, args []string) error { return errBoom },
	})
	root.SetArgs([]string{"fail", "--config", writefile(t, t.TempDir(), "c.yaml", "workers: 1\n")})

	sc := &stopcount{}
	profiler = sc
	assert.ErrorIs(t, execute(root), errBoom)
	assert.Equal(t, 1, sc.n)
	assert.Nil(t, profiler)
}

func TestRootCommandFlags(t *testing.T) {
	root := rootCmd()
	for _, f := range []string{"config", "gl", "el", "bw", "logfile", "workers", "profilecpu", "profilemem"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(f), f)
	}
	names := make([]string, 0)
	for _, sc := range root.Commands() {
		names = append(names, sc.Name())
	}
	assert.Subset(t, names, []string{"init", "loss", "predict", "serve", "repl", "version"})
}
