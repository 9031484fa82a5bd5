// Package errors provides error handling utilities for periodic-commit.
//
// The package defines the sentinel errors every other package wraps, plus a
// few typed errors that carry extra context:
//
//   - GitError: the git operation, its arguments and captured stderr
//   - LockError: the lock file and the PID holding it
//   - ConfigError: the offending parameter and value
//   - ModelError: the model name and HTTP status of a failed summary request
//
// # Usage
//
//	if err != nil {
//	    return errors.NewGitError("add", []string{"."},
//	        errors.Wrap(errors.ErrGitOperationFailed, err.Error()), stderr)
//	}
//
// Callers decide how to react with errors.Is against the sentinels:
//
//	if errors.Is(err, errors.ErrNothingToCommit) {
//	    logger.Info("Nothing to commit.")
//	}
//
// The helpers are thin wrappers over the standard library errors package, so
// values created here unwrap normally with errors.Is and errors.As.
package errors
