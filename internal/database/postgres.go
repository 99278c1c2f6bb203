package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"property-bidding/internal/config"
	"property-bidding/utils"

	_ "github.com/jackc/pgx/v5/stdlib" // registers driver "pgx"
	_ "github.com/lib/pq"              // registers driver "postgres"
)

const pingTimeout = 5 * time.Second

// OpenSQL opens a pooled connection using driver ("postgres" or "pgx") and
// verifies it with a ping.
func OpenSQL(ctx context.Context, driver string, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := prepare(ctx, db, cfg); err != nil {
		db.Close()
		return nil, err
	}

	utils.Info("Database connection established", map[string]any{
		"driver": driver,
		"host":   cfg.Host,
		"name":   cfg.Name,
	})
	return db, nil
}

func prepare(ctx context.Context, db *sql.DB, cfg config.DatabaseConfig) error {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	return nil
}
