package store

import (
	"context"
	"errors"
	"fmt"

	"LedgerSync/internal/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxStore keeps records in Postgres through a pgx connection pool.
type PgxStore struct {
	pool *pgxpool.Pool
}

// NewPgxStore connects a pool to dsn and makes sure the table exists.
func NewPgxStore(ctx context.Context, dsn string) (*PgxStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}
	s := &PgxStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Pool exposes the underlying pool.
func (s *PgxStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate creates the ledger table when it is missing.
func (s *PgxStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return pgxError("migrate", err)
	}
	return nil
}

func (s *PgxStore) Upsert(ctx context.Context, rec ledger.Record) error {
	_, err := s.pool.Exec(ctx, upsertSQL, rec.AccountCode, rec.AccountName, rec.Debit.String(), rec.Credit.String())
	if err != nil {
		return pgxError("upsert "+rec.AccountCode, err)
	}
	return nil
}

func (s *PgxStore) All(ctx context.Context) ([]ledger.Record, error) {
	rows, err := s.pool.Query(ctx, selectAllSQL)
	if err != nil {
		return nil, pgxError("select", err)
	}
	defer rows.Close()

	records := make([]ledger.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, pgxError("scan", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, pgxError("select", err)
	}
	return records, nil
}

func (s *PgxStore) Get(ctx context.Context, code string) (Entry, error) {
	e, err := scanEntry(s.pool.QueryRow(ctx, selectOneSQL, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, pgxError("get "+code, err)
	}
	return e, nil
}

func (s *PgxStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return pgxError("ping", err)
	}
	return nil
}

func (s *PgxStore) Close() {
	s.pool.Close()
}

func pgxError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &Error{Op: op, Code: pgErr.Code, Err: err}
	}
	return &Error{Op: op, Err: err}
}
