package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	path := LockPath(t.TempDir())

	lock, err := AcquireLock(path, "postbot publish", "test")
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), lock.Info().PID)

	info, err := ReadLock(path)
	require.NoError(t, err)
	assert.Equal(t, "postbot publish", info.Holder)

	// Held by a live process (us)
	_, err = AcquireLock(path, "second", "test")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockHeld))

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Releasing twice is fine
	require.NoError(t, lock.Release())

	again, err := AcquireLock(path, "third", "test")
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func writeLockFile(t *testing.T, path string, info LockInfo) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestAcquireLock_ReplacesStaleLock(t *testing.T) {
	path := LockPath(t.TempDir())
	hostname, err := os.Hostname()
	require.NoError(t, err)

	// PIDs near the max are almost never in use
	writeLockFile(t, path, LockInfo{Holder: "crashed", PID: 4194303, Hostname: hostname, StartedAt: time.Now().Add(-time.Hour)})

	lock, err := AcquireLock(path, "postbot publish", "test")
	require.NoError(t, err)
	defer lock.Release()

	info, err := ReadLock(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
}

func TestAcquireLock_RemoteHolderIsRespected(t *testing.T) {
	path := LockPath(t.TempDir())
	writeLockFile(t, path, LockInfo{Holder: "other", PID: 1, Hostname: "some-other-host.invalid", StartedAt: time.Now()})

	_, err := AcquireLock(path, "postbot publish", "test")
	assert.ErrorIs(t, err, ErrLockHeld)
}

func TestAcquireLock_CorruptLockIsReplaced(t *testing.T) {
	path := LockPath(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	lock, err := AcquireLock(path, "postbot publish", "test")
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestRelease_DoesNotRemoveForeignLock(t *testing.T) {
	path := LockPath(t.TempDir())
	lock, err := AcquireLock(path, "postbot publish", "test")
	require.NoError(t, err)

	hostname, _ := os.Hostname()
	writeLockFile(t, path, LockInfo{Holder: "other", PID: 1, Hostname: hostname, StartedAt: time.Now()})

	assert.Error(t, lock.Release())
	_, err = os.Stat(path)
	assert.NoError(t, err, "foreign lock must stay")
}
