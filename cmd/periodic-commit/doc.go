// Package main implements periodic-commit, a commit loop that lets a local
// language model write the messages.
//
// Every <period> seconds periodic-commit stages all changes in the
// repository, sends the staged diff to an Ollama model, and commits with
// the model's one-line summary prefixed by the ticket ID found at the start
// of the branch name:
//
//	[INSTA-123] Fix login issue by correcting variable typo
//
// # Basic Usage
//
//	periodic-commit 300                                  # commit every 5 minutes
//	periodic-commit --prefix-regex '(PROJ-\d+)' 120      # different ticket scheme
//	periodic-commit --model-name mistral --temperature 0.2 60
//	periodic-commit --once 1                             # one cycle right now
//
// # Configuration
//
// Defaults are overridden by config files, then by environment variables,
// then by flags. Run periodic-commit --help for the full list.
//
// # Failure Handling
//
// A branch without a ticket ID, a failing git command or an unreachable
// model stops the loop with exit status 1. An empty diff and git's
// "nothing to commit" are reported and the loop continues. --max-retries
// tolerates a number of identical consecutive failures.
//
// A second instance on the same repository is refused through a lock file.
// SIGINT, SIGTERM and SIGHUP stop the loop and print a session summary.
package main
