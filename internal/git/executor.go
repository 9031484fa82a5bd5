package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

// CommandExecutor defines an interface for executing commands
type CommandExecutor interface {
	// ExecuteWithContext runs a command bound to ctx.
	ExecuteWithContext(ctx context.Context, name string, args ...string) error

	// ExecuteWithContextAndOutput runs a command bound to ctx and returns its stdout.
	ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error)
}

// ExecExecutor is the default implementation of CommandExecutor
// that delegates to the os/exec package
type ExecExecutor struct{}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// ExecuteWithContext implements CommandExecutor.ExecuteWithContext
func (e *ExecExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := e.ExecuteWithContextAndOutput(ctx, name, args...)
	return err
}

// ExecuteWithContextAndOutput implements CommandExecutor.ExecuteWithContextAndOutput.
// On failure the returned GitError carries whatever the command printed:
// git reports some refusals, "nothing to commit" among them, on stdout.
func (e *ExecExecutor) ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	// #nosec G204 - the program is always git and arguments come from this package
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		output := strings.TrimSpace(strings.TrimSpace(stderr.String()) + "\n" + strings.TrimSpace(stdout.String()))
		// Both the sentinel and the *exec.ExitError stay reachable for errors.Is / errors.As.
		wrapped := fmt.Errorf("%w: %w", pcErrors.ErrGitOperationFailed, err)
		return "", pcErrors.NewGitError(operationName(args), args, wrapped, output)
	}

	return stdout.String(), nil
}

// operationName picks the git subcommand out of an argument list,
// skipping the global "-C <path>" option.
func operationName(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-C" {
			i++
			continue
		}
		if !strings.HasPrefix(args[i], "-") {
			return args[i]
		}
	}
	return "git"
}
