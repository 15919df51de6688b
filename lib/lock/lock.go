package lock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileLock guards an output directory against concurrent exports.
type FileLock struct {
	dir    string
	logger *slog.Logger
}

// NewFileLock creates a lock whose files live in dir.
func NewFileLock(dir string, logger *slog.Logger) *FileLock {
	return &FileLock{
		dir:    dir,
		logger: logger,
	}
}

// TryLock attempts to acquire a lock with the given key and timeout
func (fl *FileLock) TryLock(ctx context.Context, key string, timeout time.Duration) (bool, error) {
	lockFile := fl.path(key)

	if err := os.MkdirAll(filepath.Dir(lockFile), 0750); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	deadline := time.Now().Add(timeout)

	for {
		// #nosec G304 - lockFile is built from a sanitised key in path
		file, err := os.OpenFile(lockFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			if _, err := fmt.Fprintf(file, "%d\n%d\n", time.Now().Unix(), os.Getpid()); err != nil {
				fl.logger.Error("Failed to write to lock file", slog.String("file", lockFile), slog.Any("error", err))
				if closeErr := file.Close(); closeErr != nil {
					fl.logger.Error("Failed to close lock file after write error", slog.String("file", lockFile), slog.Any("error", closeErr))
				}
				return false, fmt.Errorf("failed to write to lock file: %w", err)
			}
			if err := file.Close(); err != nil {
				return false, fmt.Errorf("failed to close lock file: %w", err)
			}

			fl.logger.Debug("Acquired lock", slog.String("key", key), slog.String("file", lockFile))
			return true, nil
		}
		if !os.IsExist(err) {
			return false, fmt.Errorf("failed to create lock file: %w", err)
		}

		if fl.isLockStale(lockFile, timeout*2) {
			fl.logger.Warn("Removing stale lock file", slog.String("file", lockFile))
			if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
				fl.logger.Error("Failed to remove stale lock file", slog.String("file", lockFile), slog.Any("error", err))
			}
			continue
		}

		if !time.Now().Before(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Unlock releases the lock for the given key
func (fl *FileLock) Unlock(ctx context.Context, key string) error {
	lockFile := fl.path(key)

	if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	fl.logger.Debug("Released lock", slog.String("key", key), slog.String("file", lockFile))
	return nil
}

func (fl *FileLock) path(key string) string {
	key = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Clean(filepath.Join(fl.dir, "."+key+".lock"))
}

// isLockStale checks if a lock file is older than the given duration
func (fl *FileLock) isLockStale(lockFile string, staleDuration time.Duration) bool {
	info, err := os.Stat(lockFile)
	if err != nil {
		return true
	}

	return time.Since(info.ModTime()) > staleDuration
}
