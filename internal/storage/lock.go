package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrLockHeld is returned by AcquireLock when a live process holds the lock.
var ErrLockHeld = errors.New("publish lock is held by another process")

// LockInfo is the content of a publish lock file. Any process that wants to
// change the work tree writes one before starting and removes it when done.
type LockInfo struct {
	Holder    string    `json:"holder"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
	Version   string    `json:"version"`
}

// Lock is a held publish lock.
type Lock struct {
	path string
	info LockInfo
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Info returns what was written to the lock file.
func (l *Lock) Info() LockInfo { return l.info }

// LockPath returns the lock file used for the work tree at repoPath.
func LockPath(repoPath string) string {
	return filepath.Join(repoPath, ".postbot", "publish.lock")
}

// AcquireLock creates the lock file at path. A lock left behind by a dead
// process on this host is replaced; a live or remote holder yields an error
// wrapping ErrLockHeld.
func AcquireLock(path, holder, version string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to get hostname: %w", err)
	}
	info := LockInfo{
		Holder:    holder,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		Version:   version,
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	// Two tries: the second follows removal of a stale lock
	for i := 0; i < 2; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("failed to write lock: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, info: info}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create lock: %w", err)
		}

		existing, rerr := ReadLock(path)
		if rerr == nil && isProcessAlive(existing.PID, existing.Hostname) {
			return nil, fmt.Errorf("%w: %s (PID %d on %s, started %s)", ErrLockHeld,
				existing.Holder, existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
		}
		if errors.Is(rerr, fs.ErrNotExist) {
			// Released between our create and read
			continue
		}
		// Stale or unreadable lock: replace it
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: lock at %s changed while acquiring", ErrLockHeld, path)
}

// ReadLock reads the lock file at path.
func ReadLock(path string) (*LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("invalid lock file %s: %w", path, err)
	}
	return &info, nil
}

// Release removes the lock file if this process still owns it.
// Should be called when the publish finishes (use defer).
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	current, err := ReadLock(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err == nil && (current.PID != l.info.PID || !current.StartedAt.Equal(l.info.StartedAt)) {
		return fmt.Errorf("lock at %s was taken over by PID %d", l.path, current.PID)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock: %w", err)
	}
	return nil
}

// isProcessAlive checks if a process with the given PID exists on the given hostname.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		// Can't check hostname, assume remote/alive
		return true
	}

	if !strings.EqualFold(hostname, currentHost) {
		// Remote host - can't check, assume alive
		return true
	}

	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Send signal 0 to check if process exists
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM: process exists but we don't have permission
	if errors.Is(err, syscall.EPERM) {
		return true
	}

	return false
}
