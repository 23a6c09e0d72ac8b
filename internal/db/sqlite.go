//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	_ "modernc.org/sqlite"
)

// SQLiteStore - a single-file checkpoint; the default when no server is configured
type SQLiteStore struct {
	Path string
	db   *sql.DB
}

// OpenSQLite - open (or create) the file and make sure the checkpoint table exists
func OpenSQLite(ctx context.Context, fn string) (*SQLiteStore, error) {
	const (
		CREATE = `CREATE TABLE IF NOT EXISTS %s (component TEXT PRIMARY KEY, blobsize INTEGER, blobdata BLOB)`
		FAIL1  = "db: could not open sqlite file '%s': %w"
	)
	sdb, err := sql.Open("sqlite", fn)
	if err != nil {
		return nil, fmt.Errorf(FAIL1, fn, err)
	}
	// one writer at a time
	sdb.SetMaxOpenConns(1)

	if _, err = sdb.ExecContext(ctx, fmt.Sprintf(CREATE, CHECKPOINTTABLE)); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf(FAIL1, fn, err)
	}
	return &SQLiteStore{Path: fn, db: sdb}, nil
}

func (s *SQLiteStore) SaveBlob(ctx context.Context, component string, blob []byte) error {
	const (
		INS = `INSERT INTO %s (component, blobsize, blobdata) VALUES (?, ?, ?)
			ON CONFLICT(component) DO UPDATE SET blobsize = excluded.blobsize, blobdata = excluded.blobdata`
	)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(INS, CHECKPOINTTABLE), component, len(blob), blob); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadBlob(ctx context.Context, component string) ([]byte, error) {
	const (
		Q = `SELECT blobdata FROM %s WHERE component = ? LIMIT 1`
	)
	var blob []byte
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(Q, CHECKPOINTTABLE), component).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: '%s' in %s", ErrNotFound, component, s.Path)
	}
	return blob, err
}

func (s *SQLiteStore) Components(ctx context.Context) ([]string, error) {
	const (
		Q = `SELECT component FROM %s ORDER BY component`
	)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(Q, CHECKPOINTTABLE))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cc []string
	for rows.Next() {
		var c string
		if err = rows.Scan(&c); err != nil {
			return nil, err
		}
		cc = append(cc, c)
	}
	return cc, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
