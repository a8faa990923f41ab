package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order and is safe to re-run. ts is stored as text in
// the "C" collation so range filters and bucket labels compare bytewise.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		token_digest  TEXT UNIQUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS appliances (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		name         TEXT NOT NULL,
		type         TEXT,
		is_on        BOOLEAN NOT NULL DEFAULT FALSE,
		power_rating DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (power_rating >= 0),
		room         TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS appliances_user_id_idx ON appliances (user_id, id DESC)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		appliance_id BIGINT REFERENCES appliances(id) ON DELETE SET NULL,
		ts           TEXT COLLATE "C" NOT NULL,
		consumption  DOUBLE PRECISION NOT NULL,
		voltage      DOUBLE PRECISION NOT NULL DEFAULT 230,
		current      DOUBLE PRECISION NOT NULL DEFAULT 0,
		frequency    DOUBLE PRECISION NOT NULL DEFAULT 50
	)`,
	`CREATE INDEX IF NOT EXISTS readings_user_ts_idx ON readings (user_id, ts)`,
	`CREATE INDEX IF NOT EXISTS readings_appliance_idx ON readings (appliance_id)`,
}

// Migrate creates the schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
