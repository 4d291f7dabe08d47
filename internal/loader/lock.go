package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/metro-mecard/mecard/internal/domain"
)

// lockFile is the exclusive batch-load lock. Its existence is the lock.
type lockFile struct {
	path string
}

// acquire creates the lock file atomically. It returns domain.ErrLockHeld
// when another run holds it.
func (l lockFile) acquire(runID string, now time.Time) error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domain.ErrLockHeld
		}
		return fmt.Errorf("create lock %s: %w", l.path, err)
	}
	_, werr := fmt.Fprintf(f, "%s %s %d\n", runID, now.UTC().Format(time.RFC3339), os.Getpid())
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(l.path)
		return fmt.Errorf("write lock %s: %w", l.path, errors.Join(werr, cerr))
	}
	return nil
}

func (l lockFile) release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}

// age returns how long the lock has existed, and false when it is absent.
func (l lockFile) age(now time.Time) (time.Duration, bool) {
	info, err := os.Stat(l.path)
	if err != nil {
		return 0, false
	}
	return now.Sub(info.ModTime()), true
}
