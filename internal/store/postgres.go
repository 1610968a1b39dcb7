package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ppiankov/mediator/internal/model"
)

// Connect opens and pings a Postgres connection pool
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresStore keeps records as JSONB rows, one table per kind.
// Update locks the row with SELECT ... FOR UPDATE inside a transaction,
// so concurrent updates are serialized across processes.
type PostgresStore[T any] struct {
	DB    *pgxpool.Pool
	table string
}

// NewPostgresStore creates the kind's table if needed
func NewPostgresStore[T any](ctx context.Context, db *pgxpool.Pool, kind string) (*PostgresStore[T], error) {
	switch kind {
	case KindDisputes, KindChallenges:
	default:
		return nil, fmt.Errorf("%w: unknown record kind %q", model.ErrInvalidInput, kind)
	}

	s := &PostgresStore[T]{DB: db, table: "mediator_" + kind}
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
  id TEXT PRIMARY KEY,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  data JSONB NOT NULL
)`)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", s.table, err)
	}
	return s, nil
}

// Create implements Store
func (s *PostgresStore[T]) Create(ctx context.Context, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	tag, err := s.DB.Exec(ctx, `INSERT INTO `+s.table+`(id,data) VALUES($1,$2) ON CONFLICT (id) DO NOTHING`, id, data)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: record %s exists", model.ErrConflict, id)
	}
	return nil
}

// Get implements Store
func (s *PostgresStore[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	var data []byte
	err := s.DB.QueryRow(ctx, `SELECT data FROM `+s.table+` WHERE id=$1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, fmt.Errorf("%w: %s", model.ErrNotFound, id)
		}
		return rec, fmt.Errorf("select record: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// Update implements Store
func (s *PostgresStore[T]) Update(ctx context.Context, id string, fn func(rec *T) error) (T, error) {
	var zero T

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var data []byte
	err = tx.QueryRow(ctx, `SELECT data FROM `+s.table+` WHERE id=$1 FOR UPDATE`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, fmt.Errorf("%w: %s", model.ErrNotFound, id)
		}
		return zero, fmt.Errorf("lock record: %w", err)
	}

	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return zero, fmt.Errorf("decode record: %w", err)
	}
	if err := fn(&rec); err != nil {
		return zero, err
	}

	updated, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("encode record: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE `+s.table+` SET data=$2, updated_at=now() WHERE id=$1`, id, updated); err != nil {
		return zero, fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// Delete implements Store
func (s *PostgresStore[T]) Delete(ctx context.Context, id string) error {
	if _, err := s.DB.Exec(ctx, `DELETE FROM `+s.table+` WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// List implements Store. Records are returned in creation order.
func (s *PostgresStore[T]) List(ctx context.Context) ([]T, error) {
	rows, err := s.DB.Query(ctx, `SELECT data FROM `+s.table+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}
