package singleton

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning reports that another daemon instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Guard holds the exclusive daemon lock. The lock file doubles as the PID
// file: the kernel lock is the single source of truth for liveness, the file
// content is advisory (it lets the CLI find the process to terminate).
type Guard struct {
	lock *flock.Flock
	path string
}

// Acquire takes the exclusive lock at path, creating parent directories as
// needed, and writes the current PID. A held lock yields ErrAlreadyRunning
// immediately; there is no waiting.
func Acquire(path string) (*Guard, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, path)
	}

	// The PID write happens strictly after the lock is held, so a reader
	// racing against startup either sees no lock or a consistent PID.
	pid := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(path, []byte(pid), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}

	return &Guard{lock: lock, path: path}, nil
}

// Path returns the lock file location.
func (g *Guard) Path() string {
	return g.path
}

// Release drops the lock and removes the file. Safe to call once at
// shutdown; a crashed process leaves a stale file behind, which the next
// Acquire overwrites because the kernel lock died with the process.
func (g *Guard) Release() error {
	if g == nil || g.lock == nil {
		return nil
	}
	unlockErr := g.lock.Unlock()
	removeErr := os.Remove(g.path)
	g.lock = nil
	if unlockErr != nil {
		return fmt.Errorf("release lock: %w", unlockErr)
	}
	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", removeErr)
	}
	return nil
}

// ReadPID returns the PID recorded in the lock file at path. It does not
// check that the process is alive; pair it with a lock probe for that.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(string(trimNewline(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	return pid, nil
}

func trimNewline(data []byte) []byte {
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r' || data[len(data)-1] == ' ') {
		data = data[:len(data)-1]
	}
	return data
}
