package database

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/config"
)

// Connect opens the shared connection pool. Requests borrow a connection per
// statement or transaction and return it when done.
func Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", config.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	db.SetMaxOpenConns(config.DBMaxOpenConns())
	db.SetMaxIdleConns(config.DBMaxIdleConns())
	db.SetConnMaxLifetime(config.DBConnMaxLifetime())
	return db, nil
}
