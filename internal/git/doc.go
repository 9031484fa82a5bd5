// Package git provides the repository operations behind periodic-commit.
//
// Index operations (staging, diffing, committing) run the git binary through
// a CommandExecutor so they behave exactly like the user's own git. Read-only
// queries (current branch, recent history) go through go-git.
//
// # Core Components
//
// - Committer: runs the stage, diff, summarize, commit cycle on a period
// - CommandExecutor: interface for executing git commands
// - Inspector: interface for reading the branch and recent commits
// - ExtractTicketID / FormatCommitMessage: ticket prefix handling
//
// # Usage
//
//	re, _ := git.CompilePrefixRegex(`(INSTA-\d+)`)
//	config := git.CommitterConfig{
//	    RepoPath:    "/path/to/repo",
//	    Period:      5 * time.Minute,
//	    PrefixRegex: re,
//	}
//
//	committer, err := git.NewCommitter(config, logger, summarizer)
//	if err != nil {
//	    // Handle error
//	}
//
//	err = committer.Run(ctx)
//	committer.PrintSummary()
//
// # Error Handling
//
// Failures are returned wrapped in the sentinel errors of
// internal/errors. An empty diff and git's "nothing to commit" are not
// failures. Any other error stops Run unless MaxRetries allows it to be
// retried on the next tick.
package git
