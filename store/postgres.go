package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/git-pkgs/altsource/internal/core"
)

const schema = `
	CREATE TABLE IF NOT EXISTS altsource_documents (
		key        TEXT PRIMARY KEY,
		document   JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

type documentRow struct {
	Document  []byte    `db:"document"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PostgresStore keeps documents in a jsonb table, one row per key.
type PostgresStore struct {
	db  *sqlx.DB
	key string
}

// NewPostgresStore connects to dsn and creates the table if needed.
func NewPostgresStore(ctx context.Context, dsn, key string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s, err := NewPostgresStoreFromDB(ctx, db, key)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB uses an existing connection pool.
func NewPostgresStoreFromDB(ctx context.Context, db *sqlx.DB, key string) (*PostgresStore, error) {
	if key == "" {
		key = "default"
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &PostgresStore{db: db, key: key}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (core.Source, error) {
	query := `
		SELECT document, updated_at
		FROM altsource_documents
		WHERE key = $1`

	var row documentRow
	err := p.db.GetContext(ctx, &row, query, p.key)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Source{}, ErrNotFound
	}
	if err != nil {
		return core.Source{}, fmt.Errorf("failed to load document: %w", err)
	}
	return decode(row.Document)
}

func (p *PostgresStore) Save(ctx context.Context, src core.Source) error {
	data, err := encode(src)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO altsource_documents (key, document, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`

	if _, err := p.db.ExecContext(ctx, query, p.key, string(data)); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
