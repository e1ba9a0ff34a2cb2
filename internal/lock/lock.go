package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Guard is an exclusive single-instance lock backed by flock(2) on a PID
// file. Two servers replying from the same policy file would answer every
// comment twice, so serve takes a Guard before listening. The lock lives as
// long as the open descriptor.
type Guard struct {
	path string
	f    *os.File
}

// Acquire takes a non-blocking exclusive lock at path and records the
// owning PID in the file. It fails immediately if another process holds
// the lock.
func Acquire(path string) (*Guard, error) {
	if path == "" {
		return nil, fmt.Errorf("lock path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("another instance holds %s: %w", path, err)
	}

	if err := writePID(f); err != nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
		return nil, err
	}

	return &Guard{path: path, f: f}, nil
}

func writePID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("write pid: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

func (g *Guard) Path() string { return g.path }

// Release drops the lock. Safe to call more than once.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_UN)
	err := g.f.Close()
	g.f = nil
	return err
}
