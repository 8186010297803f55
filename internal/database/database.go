// Package database connects to the CMS PostgreSQL database.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/infrastructure/retry"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
)

// TablePlaceholder is the CMS's table-prefix placeholder.
const TablePlaceholder = "#__"

const pingTimeout = 5 * time.Second

// Connect opens a pooled connection and pings it, retrying while the
// database is unreachable.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log infralogger.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn("Database not reachable, retrying",
			infralogger.Int("attempt", attempt),
			infralogger.Duration("delay", delay),
			infralogger.Error(err),
		)
	}

	pingErr := retry.Do(ctx, retryCfg, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	log.Info("Database connection established",
		infralogger.String("host", cfg.Host),
		infralogger.Int("port", cfg.Port),
		infralogger.String("dbname", cfg.Database),
		infralogger.String("table_prefix", cfg.TablePrefix),
	)

	return db, nil
}

// Tables rewrites CMS queries written against the #__ placeholder.
type Tables struct {
	prefix string
}

// NewTables returns a Tables for prefix, e.g. "jos_".
func NewTables(prefix string) Tables {
	return Tables{prefix: prefix}
}

// Q substitutes the configured prefix for every #__ in query.
func (t Tables) Q(query string) string {
	return strings.ReplaceAll(query, TablePlaceholder, t.prefix)
}

// Name returns the prefixed name of table, given without prefix.
func (t Tables) Name(table string) string {
	return t.prefix + table
}
