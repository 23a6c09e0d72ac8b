//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package db

import (
	"context"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"strings"
)

// PGStore - checkpoints kept in a PostgreSQL table; several servers can share one model this way
type PGStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres - build the pool and make sure the checkpoint table exists
func OpenPostgres(ctx context.Context, pl str.PostgresLogin, workers int) (*PGStore, error) {
	const (
		UTPL    = "postgres://%s:%s@%s:%d/%s?pool_min_conns=%d&pool_max_conns=%d"
		FAIL1   = "configuration error: could not execute ParseConfig(url) for %s@%s:%d/%s: %w"
		FAIL2   = "could not connect to PostgreSQL: %w"
		ERRRUN  = `dial error`
		FAILRUN = `the PostgreSQL server cannot be found; check that it is running and serving on port %d: %w`
		CREATE  = `
			CREATE TABLE IF NOT EXISTS %s
			(
			  component text PRIMARY KEY,
			  blobsize  int,
			  blobdata  bytea
			)`
	)

	mn := 1
	mx := workers
	if mx < mn {
		mx = mn
	}

	url := fmt.Sprintf(UTPL, pl.User, pl.Pass, pl.Host, pl.Port, pl.DBName, mn, mx)
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf(FAIL1, pl.User, pl.Host, pl.Port, pl.DBName, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf(FAIL2, err)
	}

	if _, err = pool.Exec(ctx, fmt.Sprintf(CREATE, CHECKPOINTTABLE)); err != nil {
		pool.Close()
		if strings.Contains(err.Error(), ERRRUN) {
			return nil, fmt.Errorf(FAILRUN, pl.Port, err)
		}
		return nil, fmt.Errorf(FAIL2, err)
	}
	return &PGStore{pool: pool}, nil
}

func (p *PGStore) SaveBlob(ctx context.Context, component string, blob []byte) error {
	const (
		INS = `
			INSERT INTO %s
				(component, blobsize, blobdata)
			VALUES ($1, $2, $3)
			ON CONFLICT (component) DO UPDATE SET blobsize = EXCLUDED.blobsize, blobdata = EXCLUDED.blobdata`
	)
	_, err := p.pool.Exec(ctx, fmt.Sprintf(INS, CHECKPOINTTABLE), component, len(blob), blob)
	return err
}

func (p *PGStore) LoadBlob(ctx context.Context, component string) ([]byte, error) {
	const (
		Q = `SELECT blobdata FROM %s WHERE component = $1 LIMIT 1`
	)
	var blob []byte
	err := p.pool.QueryRow(ctx, fmt.Sprintf(Q, CHECKPOINTTABLE), component).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, component)
	}
	return blob, err
}

func (p *PGStore) Components(ctx context.Context) ([]string, error) {
	const (
		Q = `SELECT component FROM %s ORDER BY component`
	)
	rows, err := p.pool.Query(ctx, fmt.Sprintf(Q, CHECKPOINTTABLE))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (p *PGStore) Close() error {
	p.pool.Close()
	return nil
}
