package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/icco/cinerank/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open opens (creating if needed) the SQLite export at path and brings its
// schema up to date.
func Open(path string, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: NewGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(gormDB, logger); err != nil {
		return nil, err
	}
	return gormDB, nil
}

// Close releases the underlying connection pool.
func Close(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

// RunMigrations runs all database migrations
func RunMigrations(gormDB *gorm.DB, logger *slog.Logger) error {
	ctx := context.Background()

	enableSQLiteOptimizations(ctx, gormDB, logger)

	if err := gormDB.WithContext(ctx).AutoMigrate(&models.Run{}, &models.RankedMovie{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return createAdditionalIndexes(ctx, gormDB, logger)
}

// enableSQLiteOptimizations applies pragmas; a failing pragma is logged and
// skipped.
func enableSQLiteOptimizations(ctx context.Context, gormDB *gorm.DB, logger *slog.Logger) {
	optimizations := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range optimizations {
		if err := gormDB.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.Warn("Failed to execute pragma", slog.String("pragma", pragma), slog.Any("error", err))
		} else {
			logger.Debug("Executed pragma", slog.String("pragma", pragma))
		}
	}
}

func createAdditionalIndexes(ctx context.Context, gormDB *gorm.DB, logger *slog.Logger) error {
	additionalIndexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_ranked_movies_run_position ON ranked_movies(run_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_ranked_movies_tmdb_id ON ranked_movies(tmdb_id)",
	}

	for _, indexSQL := range additionalIndexes {
		if err := gormDB.WithContext(ctx).Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
		logger.Debug("Created index", slog.String("sql", indexSQL))
	}

	return nil
}
