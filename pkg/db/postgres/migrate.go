package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// Константы для сообщений об ошибках миграций.
const (
	ErrCreateMigrationInstance = "failed to create migration instance"
	ErrApplyMigrations         = "failed to apply migrations"
	ErrMigrationVersion        = "failed to read migration version"
	ErrDirtyDatabase           = "database is in dirty migration state"
)

// MigrateDSN применяет миграции из sourceURL (например, file:///migrations/notes).
func MigrateDSN(ctx context.Context, dsn string, sourceURL string) error {
	log := logger.Log(ctx).With(zap.String("source", sourceURL))

	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		log.Error(ctx, ErrCreateMigrationInstance, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrCreateMigrationInstance, err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn(ctx, "failed to close migration instance", zap.NamedError("source_error", srcErr), zap.NamedError("db_error", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error(ctx, ErrApplyMigrations, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrApplyMigrations, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("%s: %w", ErrMigrationVersion, err)
	}
	if dirty {
		return fmt.Errorf("%s: version %d", ErrDirtyDatabase, version)
	}

	log.Info(ctx, LogMigrationsApplied, zap.Uint("version", version))
	return nil
}
