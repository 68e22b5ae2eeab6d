package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"trustverify/internal/platform/config"
)

// Open connects to PostgreSQL and verifies the connection.
// Returns nil if the URL is empty (in-memory stores are used instead).
func Open(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// schema is applied idempotently at startup. The uniqueness constraint on
// (user_id, recipient_email) is what gives preference saves upsert semantics.
const schema = `
CREATE TABLE IF NOT EXISTS sharing_preferences (
	id              UUID PRIMARY KEY,
	user_id         TEXT NOT NULL,
	recipient_email TEXT NOT NULL,
	share_name      BOOLEAN NOT NULL DEFAULT FALSE,
	share_phone     BOOLEAN NOT NULL DEFAULT FALSE,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, recipient_email)
);

CREATE TABLE IF NOT EXISTS sharing_history (
	seq             BIGSERIAL,
	id              UUID PRIMARY KEY,
	user_id         TEXT NOT NULL,
	recipient_email TEXT NOT NULL,
	shared_data     JSONB NOT NULL,
	status          TEXT NOT NULL CHECK (status IN ('sent', 'failed', 'pending')),
	shared_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS sharing_history_user_idx ON sharing_history (user_id, shared_at DESC, seq DESC);
`

// EnsureSchema creates the sharing tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
