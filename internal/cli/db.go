package cli

import (
	"context"
	"fmt"

	repository "github.com/okian/bakery/internal/adapters/repository"
	"github.com/okian/bakery/internal/adapters/repository/migrate"
	"github.com/okian/bakery/internal/config"
	"github.com/okian/bakery/pkg/logger"
)

// connectStore opens the configured database.
func connectStore(ctx context.Context, cfg *config.Config) (*repository.GormStore, error) {
	store, err := repository.Open(ctx, cfg.DatabaseURL,
		repository.WithLogger(logger.Named("gorm")),
		repository.WithSlowQueryThreshold(cfg.SlowQueryThreshold()),
		repository.WithMaxOpenConns(cfg.DBMaxOpenConns),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return store, nil
}

// newRunner builds a migration runner over store.
func newRunner(store *repository.GormStore, cfg *config.Config) *migrate.Runner {
	return migrate.NewRunner(store.DB(), migrate.Schema(), cfg.MigrationTable,
		migrate.WithLogger(logger.Named("migrate")))
}
