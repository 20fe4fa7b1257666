package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// lockTimeout bounds how long a writer waits for another process.
const lockTimeout = 2 * time.Second

var (
	errLockTimeout  = errors.New("lock timeout")
	errLockFileOpen = errors.New("failed to open lock file")
)

// withFileLock runs fn while holding an exclusive flock on path+".lock".
func withFileLock(path string, fn func() error) error {
	return withFileLockTimeout(path, lockTimeout, fn)
}

func withFileLockTimeout(path string, timeout time.Duration, fn func() error) error {
	lock, err := acquireFileLock(path+".lock", timeout)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}

	defer lock.release()

	return fn()
}

type fileLock struct {
	path string
	file *os.File
}

// release removes the lock file while still holding the lock, then unlocks.
func (l *fileLock) release() {
	if l.file != nil {
		_ = os.Remove(l.path)
		_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		_ = l.file.Close()
		l.file = nil
	}
}

// acquireFileLock takes an exclusive flock on lockPath. A holder removes the
// file on release, so after locking the inode is compared with the path and
// the attempt is retried when the file was replaced in between.
func acquireFileLock(lockPath string, timeout time.Duration) (*fileLock, error) {
	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: %s", errLockTimeout, lockPath)
		}

		file, openErr := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
		if openErr != nil {
			return nil, fmt.Errorf("%w: %w", errLockFileOpen, openErr)
		}

		var openStat unix.Stat_t

		err := unix.Fstat(int(file.Fd()), &openStat)
		if err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("fstat lock file: %w", err)
		}

		fd := int(file.Fd())
		done := make(chan error, 1)

		go func() {
			done <- unix.Flock(fd, unix.LOCK_EX)
		}()

		select {
		case err := <-done:
			if err != nil {
				_ = file.Close()

				return nil, fmt.Errorf("flock: %w", err)
			}

			var pathStat unix.Stat_t

			statErr := unix.Stat(lockPath, &pathStat)
			if statErr != nil || pathStat.Ino != openStat.Ino {
				_ = unix.Flock(fd, unix.LOCK_UN)
				_ = file.Close()

				continue
			}

			return &fileLock{path: lockPath, file: file}, nil
		case <-time.After(remaining):
			// The goroutine is still blocked in flock on fd; closing the file
			// releases it with an error.
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", errLockTimeout, lockPath)
		}
	}
}
