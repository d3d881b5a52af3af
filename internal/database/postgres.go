package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	"github.com/TemirB/usercache/internal/config"
	"github.com/TemirB/usercache/internal/domain"
)

// querier is satisfied by *pgxpool.Pool, pgx.Tx and *pgx.Conn.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo stores users in a table with columns id, name and updated_at.
type Repo struct {
	db     querier
	schema string
	table  string
}

func New(db querier, pg config.Postgres) *Repo {
	return &Repo{db: db, schema: pg.Schema, table: pg.Table}
}

// Connect opens a pool whose queries are traced to logger and pings it.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   newZapTracer(logger),
		LogLevel: traceLevel(logger),
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (r *Repo) qt() string {
	if r.schema == "" {
		return pgx.Identifier{r.table}.Sanitize()
	}
	return pgx.Identifier{r.schema, r.table}.Sanitize()
}

func (r *Repo) NameByID(ctx context.Context, id uint32) (string, error) {
	var name string
	err := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT name FROM %s WHERE id=$1`, r.qt()),
		int64(id),
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (r *Repo) Upsert(ctx context.Context, u domain.User) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
		  name=EXCLUDED.name,
		  updated_at=EXCLUDED.updated_at
	`, r.qt()), int64(u.ID), u.Name)
	return err
}

// Delete is idempotent: removing an unknown id is not an error.
func (r *Repo) Delete(ctx context.Context, id uint32) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, r.qt()), int64(id))
	return err
}

// RecentUserIDs returns up to limit ids, most recently written first.
func (r *Repo) RecentUserIDs(ctx context.Context, limit int) ([]uint32, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT id FROM %s
		ORDER BY updated_at DESC NULLS LAST
		LIMIT $1
	`, r.qt()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, uint32(id))
	}
	return ids, rows.Err()
}
