//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package db

import (
	"context"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func tempstore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteBlobs(t *testing.T) {
	ctx := context.Background()
	s := tempstore(t)

	_, err := s.LoadBlob(ctx, "encoder")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveBlob(ctx, "encoder", []byte{1, 2, 3}))
	require.NoError(t, s.SaveBlob(ctx, "encoder", []byte{4, 5}))
	require.NoError(t, s.SaveBlob(ctx, "decoder_lemma", []byte{6}))

	b, err := s.LoadBlob(ctx, "encoder")
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, b)

	cc, err := s.Components(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"decoder_lemma", "encoder"}, cc)
}

func TestJSONThroughGzip(t *testing.T) {
	ctx := context.Background()
	s := tempstore(t)

	in := map[string]string{"dog": "canine", "ἄνθρωπος": "ἄνθρωπος"}
	require.NoError(t, SaveJSON(ctx, s, "surface2lemma", in, nil))

	var out map[string]string
	require.NoError(t, LoadJSON(ctx, s, "surface2lemma", &out))
	assert.Equal(t, in, out)

	require.NoError(t, s.SaveBlob(ctx, "broken", []byte("not gzip")))
	assert.Error(t, LoadJSON(ctx, s, "broken", &out))
	assert.ErrorIs(t, LoadJSON(ctx, s, "missing", &out), ErrNotFound)
}

func TestOpenByProvider(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, str.StoreConfiguration{SQLitePath: filepath.Join(t.TempDir(), "m.db")}, 1)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, str.StoreConfiguration{Provider: "mongo"}, 1)
	assert.Error(t, err)
}
