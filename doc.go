// Package periodiccommit documents periodic-commit, a loop that commits your
// work on a fixed period with commit messages written by a local language
// model.
//
// Each cycle stages every change in the repository, sends the staged diff
// to an Ollama model, and commits with the returned summary prefixed by the
// ticket ID taken from the start of the current branch name:
//
//	$ git switch -c INSTA-123-password-reset
//	$ periodic-commit 300
//	...
//	$ git log --oneline
//	9f2c1ab [INSTA-123] Implement password reset feature via email
//
// # Quick Start
//
//	# Pull the default model once
//	ollama pull llama3.1:8b
//
//	# Commit every five minutes
//	periodic-commit 300
//
//	# A different ticket scheme and model
//	periodic-commit --prefix-regex '(PROJ-\d+)' --model-name mistral 120
//
// # Layout
//
//   - cmd/periodic-commit: command-line entry point and application wiring
//   - internal/config: defaults, config files, environment and flags
//   - internal/git: the commit cycle, git command execution, go-git queries
//   - internal/llm: the Ollama client and prompt template
//   - internal/lock: one loop per repository
//   - internal/logger: structured logs and terminal messages
//   - internal/errors: sentinel and typed errors
package periodiccommit
