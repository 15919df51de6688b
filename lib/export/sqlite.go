package export

import (
	"context"
	"log/slog"

	"github.com/icco/cinerank/lib/db"
)

// WriteSQLite appends the run to the SQLite file at path, creating it on
// first use.
func WriteSQLite(ctx context.Context, path string, r Report, logger *slog.Logger) error {
	gormDB, err := db.Open(path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			logger.Error("Failed to close database", slog.Any("error", err))
		}
	}()

	return db.SaveRun(ctx, gormDB, r.Run())
}
