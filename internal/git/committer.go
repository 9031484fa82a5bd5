package git

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
	"github.com/bashhack/periodic-commit/internal/logger"
)

// MessageGenerator turns a staged diff into a commit message body.
type MessageGenerator interface {
	Summarize(ctx context.Context, diff string) (string, error)
}

// CommitterConfig contains configuration for a Committer.
type CommitterConfig struct {
	// RepoPath is the work tree every git command runs in (git -C).
	RepoPath string

	// Period is the wait before each cycle.
	Period time.Duration

	// PrefixRegex extracts the ticket ID from the branch name (group 1).
	PrefixRegex *regexp.Regexp

	// Once runs a single cycle immediately and returns.
	Once bool

	// MaxRetries is how many consecutive identical failures are tolerated.
	// Zero means the first failure stops the loop.
	MaxRetries int

	// Verbose reports no-change cycles on stdout.
	Verbose bool
}

// Validate sanity-checks the config and returns an error if something is wrong.
func (c *CommitterConfig) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("RepoPath must not be empty")
	}
	if c.Period <= 0 {
		return fmt.Errorf("Period must be > 0 (got %s)", c.Period)
	}
	if c.PrefixRegex == nil {
		return fmt.Errorf("PrefixRegex must not be nil")
	}
	if c.PrefixRegex.NumSubexp() < 1 {
		return fmt.Errorf("PrefixRegex %q has no capture group", c.PrefixRegex.String())
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MaxRetries cannot be negative (got %d)", c.MaxRetries)
	}
	return nil
}

// sessionStats tracks what a run has done, for the closing summary.
type sessionStats struct {
	cycles    int
	commits   int
	noChanges int
	branch    string
	messages  []string
}

// Committer stages, summarizes and commits changes on a fixed period.
type Committer struct {
	config    CommitterConfig
	logger    logger.Logger
	executor  CommandExecutor
	inspector Inspector
	generator MessageGenerator
	stats     sessionStats
	startTime time.Time
}

// NewCommitter creates a Committer using the git binary for index operations
// and go-git for reading the branch.
func NewCommitter(config CommitterConfig, log logger.Logger, generator MessageGenerator) (*Committer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid committer configuration: %w", err)
	}

	repo, err := OpenRepository(config.RepoPath)
	if err != nil {
		return nil, err
	}

	return NewCommitterWithDeps(config, log, NewExecExecutor(), repo, generator)
}

// NewCommitterWithDeps creates a Committer with custom dependencies
func NewCommitterWithDeps(
	config CommitterConfig,
	log logger.Logger,
	executor CommandExecutor,
	inspector Inspector,
	generator MessageGenerator,
) (*Committer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid committer configuration: %w", err)
	}
	if generator == nil {
		return nil, fmt.Errorf("invalid committer configuration: message generator is required")
	}

	return &Committer{
		config:    config,
		logger:    log,
		executor:  executor,
		inspector: inspector,
		generator: generator,
		startTime: time.Now(),
	}, nil
}

// Run waits one period, runs a cycle, and repeats until ctx is done or a
// cycle fails more often than MaxRetries allows. With Once it runs a single
// cycle right away.
func (c *Committer) Run(ctx context.Context) error {
	c.startTime = time.Now()
	c.displayStartupInfo()

	if c.config.Once {
		if err := c.CommitOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		return nil
	}

	ticker := time.NewTicker(c.config.Period)
	defer ticker.Stop()

	errorState := struct {
		consecutiveErrors int
		lastErrorMsg      string
	}{}

	for {
		c.logger.Debug("Sleeping for %s", c.config.Period)

		select {
		case <-ctx.Done():
			c.logger.Info("Received cancellation signal, shutting down gracefully...")
			return ctx.Err()

		case <-ticker.C:
			if err := c.tryOperation(&errorState, func() error { return c.CommitOnce(ctx) }); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
		}
	}
}

// tryOperation runs one cycle and applies the retry budget. It returns an
// error only when the loop must stop.
func (c *Committer) tryOperation(
	errorState *struct {
		consecutiveErrors int
		lastErrorMsg      string
	},
	operation func() error,
) error {
	err := operation()
	if err == nil {
		errorState.consecutiveErrors = 0
		errorState.lastErrorMsg = ""
		return nil
	}

	c.logger.Error("Error in commit cycle: %v", err)

	currentErrorMsg := err.Error()
	if currentErrorMsg == errorState.lastErrorMsg {
		errorState.consecutiveErrors++
	} else {
		errorState.consecutiveErrors = 1
		errorState.lastErrorMsg = currentErrorMsg
	}

	if errorState.consecutiveErrors > c.config.MaxRetries {
		if c.config.MaxRetries > 0 {
			c.logger.WarningToUser("Same error %d times in a row. Stopping.", errorState.consecutiveErrors)
			return pcErrors.Wrapf(err, "maximum retries (%d) exceeded", c.config.MaxRetries)
		}
		return err
	}

	c.logger.WarningToUser("Will retry in %s (%d/%d).", c.config.Period, errorState.consecutiveErrors, c.config.MaxRetries)
	return nil
}

// CommitOnce runs one pipeline cycle: branch, ticket, stage, diff, summarize,
// commit. An empty diff and git's "nothing to commit" end the cycle without
// error.
func (c *Committer) CommitOnce(ctx context.Context) error {
	c.stats.cycles++

	branch, err := c.currentBranch()
	if err != nil {
		return err
	}

	ticketID, err := ExtractTicketID(branch, c.config.PrefixRegex)
	if err != nil {
		c.logger.Error("Could not extract ticket ID from branch name %q.", branch)
		return err
	}
	c.logger.Debug("Ticket ID: %s", ticketID)

	if err := c.stageAll(ctx); err != nil {
		return err
	}

	diff, err := c.stagedDiff(ctx)
	if err != nil {
		return err
	}
	if diff == "" {
		c.stats.noChanges++
		if c.config.Verbose {
			c.logger.InfoToUser("No changes detected at %s. Continuing to next iteration.", time.Now().Format("15:04:05"))
		} else {
			c.logger.Info("No changes detected. Continuing to next iteration.")
		}
		return nil
	}

	body, err := c.generator.Summarize(ctx, diff)
	if err != nil {
		return err
	}

	message := FormatCommitMessage(ticketID, body)
	if err := c.commit(ctx, message); err != nil {
		if pcErrors.Is(err, pcErrors.ErrNothingToCommit) {
			c.logger.Info("Nothing to commit.")
			return nil
		}
		return err
	}

	c.stats.commits++
	c.stats.messages = append(c.stats.messages, message)
	c.logger.Success("Committed changes with message: %s", message)
	return nil
}

// currentBranch reads the branch HEAD points to.
func (c *Committer) currentBranch() (string, error) {
	c.logger.Debug("Reading current branch")

	branch, err := c.inspector.CurrentBranch()
	if err != nil {
		c.logger.Error("Error getting current branch: %v", err)
		if pcErrors.Is(err, pcErrors.ErrGitOperationFailed) {
			return "", err
		}
		return "", pcErrors.NewGitError("rev-parse", []string{"--abbrev-ref", "HEAD"},
			pcErrors.Wrap(pcErrors.ErrGitOperationFailed, err.Error()), "")
	}

	c.stats.branch = branch
	c.logger.Debug("Current branch: %s", branch)
	return branch, nil
}

// stageAll stages every change in the work tree.
func (c *Committer) stageAll(ctx context.Context) error {
	c.logger.Debug("Staging all changes")

	if err := c.runGitCommand(ctx, "add", "."); err != nil {
		c.logger.Error("Error staging changes: %v", err)
		return err
	}
	return nil
}

// stagedDiff returns the index compared against HEAD, trimmed.
func (c *Committer) stagedDiff(ctx context.Context) (string, error) {
	output, err := c.runGitCommandWithOutput(ctx, "diff", "--cached", "--no-color")
	if err != nil {
		c.logger.Error("Error getting git diff: %v", err)
		return "", err
	}

	diff := strings.TrimSpace(output)
	c.logger.Debug("Staged diff length: %d", len(diff))
	return diff, nil
}

// commit records the index with message. git's refusal to create an empty
// commit comes back as ErrNothingToCommit.
func (c *Committer) commit(ctx context.Context, message string) error {
	c.logger.Debug("Committing: %s", message)

	err := c.runGitCommand(ctx, "commit", "-m", message)
	if err == nil {
		return nil
	}

	var gitErr *pcErrors.GitError
	if pcErrors.As(err, &gitErr) && strings.Contains(gitErr.Output, "nothing to commit") {
		return pcErrors.Wrap(pcErrors.ErrNothingToCommit, gitErr.Output)
	}

	c.logger.Error("Error committing changes: %v", err)
	return err
}

// runGitCommand executes a git command in the repository directory with context.
func (c *Committer) runGitCommand(ctx context.Context, args ...string) error {
	allArgs := append([]string{"-C", c.config.RepoPath}, args...)
	return c.executor.ExecuteWithContext(ctx, "git", allArgs...)
}

// runGitCommandWithOutput executes a git command and returns its output with context.
func (c *Committer) runGitCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	allArgs := append([]string{"-C", c.config.RepoPath}, args...)
	return c.executor.ExecuteWithContextAndOutput(ctx, "git", allArgs...)
}

// displayStartupInfo outputs the active configuration to the user
func (c *Committer) displayStartupInfo() {
	c.logger.StatusMessage("🔄 periodic-commit started at %s", c.startTime.Format("2006-01-02 15:04:05"))
	c.logger.StatusMessage("📂 Repository: %s", c.config.RepoPath)
	if c.config.Once {
		c.logger.StatusMessage("⏱️  Period: single run")
	} else {
		c.logger.StatusMessage("⏱️  Period: %s", c.config.Period)
	}
	c.logger.StatusMessage("🎫 Ticket pattern: %s", c.config.PrefixRegex.String())
	c.logger.StatusMessage("❓ Press Ctrl+C to stop and view session summary")
}

var (
	summaryBox   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	summaryTitle = lipgloss.NewStyle().Bold(true)
)

// PrintSummary prints a summary of the session
func (c *Committer) PrintSummary() {
	duration := time.Since(c.startTime)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	lines := []string{
		summaryTitle.Render("📊 periodic-commit session summary"),
		"",
		fmt.Sprintf("✅ Commits made: %d", c.stats.commits),
		fmt.Sprintf("🔁 Cycles run: %d (%d without changes)", c.stats.cycles, c.stats.noChanges),
		fmt.Sprintf("⏱️  Session duration: %dh %dm %ds", hours, minutes, seconds),
	}
	if c.stats.branch != "" {
		lines = append(lines, fmt.Sprintf("🌿 Branch: %s", c.stats.branch))
	}
	if n := len(c.stats.messages); n > 0 {
		lines = append(lines, fmt.Sprintf("📝 Last message: %s", c.stats.messages[n-1]))
	}

	if c.inspector != nil && c.stats.commits > 0 {
		recent, err := c.inspector.RecentCommits(min(c.stats.commits, 5))
		if err != nil {
			c.logger.Warning("Failed to read recent commits: %v", err)
		} else if len(recent) > 0 {
			lines = append(lines, "", "🔍 Latest commits:")
			for _, commit := range recent {
				lines = append(lines, fmt.Sprintf("  %s %s", commit.Hash, commit.Subject))
			}
		}
	}

	c.logger.StatusMessage("")
	c.logger.StatusMessage("%s", summaryBox.Render(strings.Join(lines, "\n")))
	c.logger.StatusMessage("🛑 periodic-commit terminated at %s", time.Now().Format("2006-01-02 15:04:05"))
}

// Stats returns the number of cycles run and commits created so far.
func (c *Committer) Stats() (cycles, commits int) {
	return c.stats.cycles, c.stats.commits
}
