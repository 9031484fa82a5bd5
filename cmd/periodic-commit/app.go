package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/bashhack/periodic-commit/internal/config"
	"github.com/bashhack/periodic-commit/internal/constants"
	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
	"github.com/bashhack/periodic-commit/internal/git"
	"github.com/bashhack/periodic-commit/internal/llm"
	"github.com/bashhack/periodic-commit/internal/lock"
	"github.com/bashhack/periodic-commit/internal/logger"
)

// Committer runs the commit loop
type Committer interface {
	PrintSummary()
	Run(ctx context.Context) error
}

// Locker manages file locking
type Locker interface {
	Acquire() error
	Release() error
}

// AppOptions contains app configuration and dependencies.
// Optional dependencies left nil are created during initialization.
type AppOptions struct {
	// Config holds the application configuration settings (required).
	Config *config.Config

	// Logger provides logging functionality (optional).
	Logger logger.Logger

	// Locker prevents two loops on the same repository (optional).
	Locker Locker

	// Committer runs the commit loop (optional). The default one talks to
	// git and the configured Ollama server.
	Committer Committer

	// Stdout is the writer for standard output (optional, defaults to os.Stdout).
	Stdout io.Writer

	// Stderr is the writer for error output (optional, defaults to os.Stderr).
	Stderr io.Writer

	// Exit is the function to terminate the application (optional, defaults to os.Exit).
	Exit func(code int)

	// ExecLookPath is used to find executables in PATH (optional, defaults to exec.LookPath).
	ExecLookPath func(file string) (string, error)

	// IsRepository checks if a path is a valid Git repository (optional, defaults to git.IsRepository).
	IsRepository func(string) (bool, error)
}

// App is the periodic-commit application.
// It wires configuration, logging, locking and the commit loop together and
// manages their lifecycle.
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Locker    Locker
	Committer Committer

	Stdout io.Writer
	Stderr io.Writer

	exit         func(code int)
	execLookPath func(file string) (string, error)
	isRepository func(string) (bool, error)
}

// NewDefaultApp creates an App with standard dependencies.
func NewDefaultApp(versionInfo config.VersionInfo) *App {
	cfg := config.New()
	cfg.VersionInfo = versionInfo

	return NewApp(AppOptions{
		Config:       cfg,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Exit:         os.Exit,
		ExecLookPath: exec.LookPath,
		IsRepository: git.IsRepository,
	})
}

// NewApp creates an App with custom dependencies specified in opts.
// It panics if opts.Config is nil.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:       opts.Config,
		Logger:       opts.Logger,
		Locker:       opts.Locker,
		Committer:    opts.Committer,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		exit:         opts.Exit,
		execLookPath: opts.ExecLookPath,
		isRepository: opts.IsRepository,
	}

	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.isRepository == nil {
		app.isRepository = git.IsRepository
	}

	return app
}

// Initialize validates the configuration and sets up the logger and locker.
// The committer is created in Run, once the repository has been verified.
func (a *App) Initialize() error {
	if err := a.Config.Finalize(); err != nil {
		if pcErrors.Is(err, pcErrors.ErrInvalidConfiguration) {
			return err
		}
		return pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		a.Logger = logger.New(logger.Options{
			Level:   a.Config.LogLevel,
			Handler: a.Config.LogHandler,
			Format:  a.Config.LogFormat,
			File:    a.Config.LogFile,
			Verbose: a.Config.Verbose,
			Stdout:  a.Stdout,
			Stderr:  a.Stderr,
		})
	}

	if a.Locker == nil {
		locker, err := lock.New(a.Config.RepoPath)
		if err != nil {
			return pcErrors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}

	return nil
}

// Run executes the application with the given context.
// --version and --logo print and return without touching the repository.
func (a *App) Run(ctx context.Context) error {
	if a.Config.Version {
		a.ShowVersion()
		return nil
	}

	if a.Config.ShowLogo {
		a.ShowLogo()
		return nil
	}

	if err := a.Initialize(); err != nil {
		return err
	}

	for _, path := range a.Config.LoadedFiles {
		a.Logger.Debug("Loaded config file %s", path)
	}
	a.Logger.Debug("Started with period: %d, prefix_regex: %s, model_name: %s",
		a.Config.Period, a.Config.PrefixRegex, a.Config.ModelName)

	if err := a.checkRequiredCommands(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error: %v. Please install it and try again.\n", err)
		return err
	}

	isRepo, err := a.isRepository(a.Config.RepoPath)
	if err != nil {
		a.Logger.Warning("Failed to check if path is a git repository: %v", err)
		return pcErrors.Wrap(pcErrors.ErrGitOperationFailed, err.Error())
	}
	if !isRepo {
		return pcErrors.Wrap(pcErrors.ErrNotGitRepository, a.Config.RepoPath)
	}
	a.Logger.Info("Git repository verified")

	if err := a.Locker.Acquire(); err != nil {
		if pcErrors.Is(err, pcErrors.ErrAlreadyRunning) {
			return err
		}
		return pcErrors.Wrap(pcErrors.ErrLockAcquisitionFailure, err.Error())
	}

	if a.Committer == nil {
		committer, err := a.newCommitter()
		if err != nil {
			return err
		}
		a.Committer = committer
	}

	return a.Committer.Run(ctx)
}

// newCommitter builds the git committer backed by the Ollama client.
func (a *App) newCommitter() (Committer, error) {
	summarizer, err := llm.NewOllamaClient(llm.Options{
		Model:       a.Config.ModelName,
		BaseURL:     a.Config.ModelBaseURL,
		Temperature: a.Config.ModelTemperature,
		Timeout:     a.Config.ModelTimeout,
		Prompt:      a.Config.Prompt,
	}, a.Logger)
	if err != nil {
		return nil, pcErrors.Wrap(pcErrors.ErrInvalidConfiguration, err.Error())
	}

	committer, err := git.NewCommitter(git.CommitterConfig{
		RepoPath:    a.Config.RepoPath,
		Period:      a.Config.PeriodDuration(),
		PrefixRegex: a.Config.Prefix,
		Once:        a.Config.Once,
		MaxRetries:  a.Config.MaxRetries,
		Verbose:     a.Config.Verbose,
	}, a.Logger, summarizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create committer: %w", err)
	}
	return committer, nil
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "periodic-commit %s (%s) built on %s\n",
		a.Config.VersionInfo.Version,
		a.Config.VersionInfo.Commit,
		a.Config.VersionInfo.Date)
}

// ShowLogo displays ASCII art logo
func (a *App) ShowLogo() {
	_, _ = fmt.Fprint(a.Stdout, constants.Logo+"\n")

	padding := max((constants.LogoWidth-len(constants.Tagline))/2, 0)
	_, _ = fmt.Fprintf(a.Stdout, "%s%s\n", strings.Repeat(" ", padding), constants.Tagline)
}

// checkRequiredCommands verifies git is available in PATH
func (a *App) checkRequiredCommands() error {
	if _, err := a.execLookPath("git"); err != nil {
		return fmt.Errorf("git is not found in PATH")
	}
	return nil
}

// Close releases resources held by the App
func (a *App) Close() error {
	var errs []error

	if a.Locker != nil {
		if err := a.Locker.Release(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("Failed to release lock during cleanup: %v", err)
			} else {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to release lock during cleanup: %v\n", err)
			}
			errs = append(errs, err)
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return pcErrors.Join(errs...)
	}
	return nil
}

// PrintSummary shows the session summary if the commit loop was started.
func (a *App) PrintSummary() {
	if a.Config.ShowLogo || a.Config.Version || a.Committer == nil {
		return
	}
	a.Committer.PrintSummary()
}

// CleanupOnSignal shows the summary and releases resources when the loop
// does not stop on its own after a signal.
func (a *App) CleanupOnSignal() {
	a.PrintSummary()

	if err := a.Close(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
	}
}
