package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

// Locker guarantees a single periodic-commit loop per repository. Two loops
// staging and committing the same index would race on `git add` / `git commit`.
type Locker struct {
	lockFile string
	lockFd   *os.File
	pid      int
	acquired bool
}

// New creates a Locker for repoPath with its lock file in the system temp dir.
func New(repoPath string) (*Locker, error) {
	return NewInDir(repoPath, os.TempDir())
}

// NewInDir creates a Locker whose lock file lives in dir.
func NewInDir(repoPath, dir string) (*Locker, error) {
	if runtime.GOOS == "windows" {
		return nil, pcErrors.NewLockError("", 0,
			pcErrors.Wrap(pcErrors.ErrLockAcquisitionFailure,
				"repository locking requires flock(2) and is only available on Unix-like systems"))
	}

	return &Locker{
		lockFile: filepath.Join(dir, LockFileName(repoPath)),
		pid:      os.Getpid(),
	}, nil
}

// LockFileName returns the lock file name used for repoPath.
func LockFileName(repoPath string) string {
	sum := sha256.Sum256([]byte(repoPath))
	return fmt.Sprintf("periodic-commit-%x.lock", sum[:8])
}

// Path returns the lock file path.
func (l *Locker) Path() string {
	return l.lockFile
}

// Acquire takes the lock, recovering it from a dead process if needed.
func (l *Locker) Acquire() error {
	if l.acquired {
		return nil
	}

	err := l.createLockFile()
	if err == nil {
		return nil
	}
	if os.IsExist(err) {
		return l.acquireExisting()
	}
	return err
}

// createLockFile creates the lock file atomically and flocks it.
func (l *Locker) createLockFile() error {
	fd, err := os.OpenFile(l.lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return err
		}
		return pcErrors.NewLockError(l.lockFile, 0, pcErrors.Wrap(err, "failed to create lock file"))
	}
	l.lockFd = fd

	return l.lockAndStamp("failed to lock newly created lock file")
}

// acquireExisting opens a lock file left behind by another run.
func (l *Locker) acquireExisting() error {
	fd, err := os.OpenFile(l.lockFile, os.O_RDWR, 0o600)
	if err != nil {
		return pcErrors.NewLockError(l.lockFile, 0, pcErrors.Wrap(err, "failed to open existing lock file"))
	}
	l.lockFd = fd

	if err := l.flock(); err != nil {
		l.closeFd()

		// Older Unix systems report EWOULDBLOCK and EAGAIN as distinct codes.
		if pcErrors.Is(err, syscall.EWOULDBLOCK) || pcErrors.Is(err, syscall.EAGAIN) {
			return l.handleHeldLock()
		}
		return pcErrors.NewLockError(l.lockFile, 0, pcErrors.Wrap(err, "failed to acquire lock"))
	}

	if err := l.lockFd.Truncate(0); err != nil {
		_ = l.Release()
		return pcErrors.NewLockError(l.lockFile, l.pid, pcErrors.Wrap(err, "failed to truncate lock file"))
	}
	if err := l.writePid(); err != nil {
		_ = l.Release()
		return err
	}

	l.acquired = true
	return nil
}

// handleHeldLock decides whether a held lock belongs to a live process.
func (l *Locker) handleHeldLock() error {
	otherPid, err := l.readPid()
	if err != nil {
		return pcErrors.NewLockError(l.lockFile, 0,
			pcErrors.Wrap(pcErrors.ErrAlreadyRunning, fmt.Sprintf("lock holder unknown: %v", err)))
	}

	if isProcessRunning(otherPid) {
		return pcErrors.NewLockError(l.lockFile, otherPid, pcErrors.ErrAlreadyRunning)
	}

	return l.recoverStaleLock(otherPid)
}

// recoverStaleLock removes a lock left by a dead process and takes it over.
func (l *Locker) recoverStaleLock(otherPid int) error {
	if err := os.Remove(l.lockFile); err != nil {
		return pcErrors.NewLockError(l.lockFile, otherPid,
			pcErrors.Wrap(err, fmt.Sprintf("found stale lock file from PID %d, but failed to remove it", otherPid)))
	}

	fd, err := os.OpenFile(l.lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return pcErrors.NewLockError(l.lockFile, 0,
				pcErrors.Wrap(pcErrors.ErrAlreadyRunning, "another instance took the lock after the stale one was removed"))
		}
		return pcErrors.NewLockError(l.lockFile, 0, pcErrors.Wrap(err, "failed to recreate lock file"))
	}
	l.lockFd = fd

	return l.lockAndStamp("failed to lock recreated lock file")
}

// lockAndStamp flocks the open lock file and writes our PID into it.
func (l *Locker) lockAndStamp(failure string) error {
	if err := l.flock(); err != nil {
		l.closeFd()
		return pcErrors.NewLockError(l.lockFile, 0, pcErrors.Wrap(err, failure))
	}

	if err := l.writePid(); err != nil {
		if releaseErr := l.Release(); releaseErr != nil {
			return pcErrors.Wrap(err, fmt.Sprintf("failed to write PID and failed to release lock: %v", releaseErr))
		}
		return err
	}

	l.acquired = true
	return nil
}

func (l *Locker) flock() error {
	return syscall.Flock(int(l.lockFd.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func (l *Locker) writePid() error {
	if _, err := l.lockFd.WriteAt([]byte(strconv.Itoa(l.pid)), 0); err != nil {
		return pcErrors.NewLockError(l.lockFile, l.pid, pcErrors.Wrap(err, "failed to write PID to lock file"))
	}
	return nil
}

func (l *Locker) readPid() (int, error) {
	data, err := os.ReadFile(l.lockFile)
	if err != nil {
		return 0, pcErrors.Wrap(err, "failed to read lock file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, pcErrors.Wrap(err, "invalid PID in lock file")
	}
	return pid, nil
}

func (l *Locker) closeFd() {
	if l.lockFd != nil {
		_ = l.lockFd.Close()
		l.lockFd = nil
	}
}

// isProcessRunning checks if a process exists using signal 0
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Release unlocks and removes the lock file. Releasing an unheld lock is a no-op.
func (l *Locker) Release() error {
	if l.lockFd == nil {
		return nil
	}

	var err error
	if flockErr := syscall.Flock(int(l.lockFd.Fd()), syscall.LOCK_UN); flockErr != nil {
		err = pcErrors.NewLockError(l.lockFile, l.pid, pcErrors.Wrap(flockErr, "failed to release lock"))
	}

	if closeErr := l.lockFd.Close(); closeErr != nil && err == nil {
		err = pcErrors.NewLockError(l.lockFile, l.pid, pcErrors.Wrap(closeErr, "failed to close lock file"))
	}
	l.lockFd = nil
	l.acquired = false

	if removeErr := os.Remove(l.lockFile); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = pcErrors.NewLockError(l.lockFile, l.pid, pcErrors.Wrap(removeErr, "failed to remove lock file"))
	}

	return err
}
