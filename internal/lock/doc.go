// Package lock keeps one periodic-commit loop per repository.
//
// The lock is a file in the temp directory named after a hash of the
// repository path, held with an exclusive non-blocking flock(2) and stamped
// with the owner's PID. A lock file whose owner is gone is removed and taken
// over; a lock held by a live process yields errors.ErrAlreadyRunning.
package lock
