package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
	"github.com/cybersalt/cs-sponsored-articles/internal/database"
)

// SetupDatabase connects to the CMS database.
func SetupDatabase(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*sqlx.DB, error) {
	db, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	log.Info("Database connected",
		infralogger.String("host", cfg.Database.Host),
		infralogger.String("database", cfg.Database.Database),
		infralogger.String("table_prefix", cfg.Database.TablePrefix),
	)
	return db, nil
}

func closeDatabase(db *sqlx.DB, log infralogger.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Error("Failed to close database", infralogger.Error(err))
	}
}
