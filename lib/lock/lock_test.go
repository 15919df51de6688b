package lock

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newLock(t *testing.T) (*FileLock, string) {
	dir := t.TempDir()
	return NewFileLock(dir, slog.New(slog.NewTextHandler(io.Discard, nil))), dir
}

func TestTryLockAndUnlock(t *testing.T) {
	fl, dir := newLock(t)
	ctx := context.Background()

	ok, err := fl.TryLock(ctx, "export", time.Second)
	if err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".export.lock")); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	ok, err = fl.TryLock(ctx, "export", 200*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second TryLock should time out while the lock is held")
	}

	if err := fl.Unlock(ctx, "export"); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	ok, err = fl.TryLock(ctx, "export", time.Second)
	if err != nil || !ok {
		t.Fatalf("TryLock() after unlock = %v, %v", ok, err)
	}
}

func TestUnlockMissingIsNoop(t *testing.T) {
	fl, _ := newLock(t)
	if err := fl.Unlock(context.Background(), "nothing"); err != nil {
		t.Errorf("Unlock() error = %v", err)
	}
}

func TestStaleLockIsReplaced(t *testing.T) {
	fl, dir := newLock(t)
	stale := filepath.Join(dir, ".export.lock")
	if err := os.WriteFile(stale, []byte("1\n1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	ok, err := fl.TryLock(context.Background(), "export", time.Second)
	if err != nil || !ok {
		t.Fatalf("TryLock() over stale lock = %v, %v", ok, err)
	}
}

func TestTryLockHonoursContext(t *testing.T) {
	fl, _ := newLock(t)
	if ok, err := fl.TryLock(context.Background(), "export", time.Minute); !ok || err != nil {
		t.Fatal("first lock failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fl.TryLock(ctx, "export", time.Minute); err == nil {
		t.Fatal("expected context error")
	}
}

func TestKeyCannotEscapeDir(t *testing.T) {
	fl, dir := newLock(t)
	if got := fl.path("../../etc/passwd"); filepath.Dir(got) != dir {
		t.Errorf("path escaped lock dir: %s", got)
	}
}
