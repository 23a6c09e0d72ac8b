//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

// Package db keeps model checkpoints. Each component (hyperparameters, vocabularies, encoder, decoders,
// override dictionary) is one gzipped JSON blob stored under its own name.
package db

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"io"
)

const (
	CHECKPOINTTABLE = "hmt_checkpoints"
	GZ              = gzip.DefaultCompression
)

var ErrNotFound = errors.New("db: no such checkpoint component")

// Store - where checkpoint components live
type Store interface {
	SaveBlob(ctx context.Context, component string, blob []byte) error
	LoadBlob(ctx context.Context, component string) ([]byte, error)
	Components(ctx context.Context) ([]string, error)
	Close() error
}

// Open - the store named in the configuration
func Open(ctx context.Context, sc str.StoreConfiguration, workers int) (Store, error) {
	const (
		FAIL1 = "db: unknown store provider '%s'"
	)
	switch sc.Provider {
	case "", vv.DEFAULTSTORE:
		fn := sc.SQLitePath
		if fn == "" {
			fn = vv.DEFAULTSQLITEFILE
		}
		return OpenSQLite(ctx, fn)
	case "pgsql":
		return OpenPostgres(ctx, sc.PGLogin, workers)
	default:
		return nil, fmt.Errorf(FAIL1, sc.Provider)
	}
}

// SaveJSON - marshal, gzip and store one component
func SaveJSON(ctx context.Context, s Store, component string, v any, msg *mm.MessageMaker) error {
	const (
		MSG1 = "%s compression: %dk -> %dk (%.1f%%)"
	)

	eb, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("db: marshal '%s': %w", component, err)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, GZ)
	if err != nil {
		return err
	}
	if _, err = zw.Write(eb); err != nil {
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}

	b := buf.Bytes()
	if msg != nil && len(eb) > 0 {
		msg.PEEK(fmt.Sprintf(MSG1, component, len(eb)/1024, len(b)/1024, (float32(len(b))/float32(len(eb)))*100))
	}
	return s.SaveBlob(ctx, component, b)
}

// LoadJSON - fetch, gunzip and unmarshal one component into v
func LoadJSON(ctx context.Context, s Store, component string, v any) error {
	blob, err := s.LoadBlob(ctx, component)
	if err != nil {
		return err
	}

	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("db: '%s' is not gzip data: %w", component, err)
	}
	decompr, err := io.ReadAll(zr)
	if err != nil {
		return err
	}
	if err = zr.Close(); err != nil {
		return err
	}

	if err = json.Unmarshal(decompr, v); err != nil {
		return fmt.Errorf("db: unmarshal '%s': %w", component, err)
	}
	return nil
}
