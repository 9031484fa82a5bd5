// Package config loads periodic-commit settings.
//
// Settings are merged from four layers, each overriding the previous one:
//
//  1. built-in defaults (New)
//  2. config files: $XDG_CONFIG_HOME/periodic-commit/config.toml, then
//     .periodic-commit.toml / .periodic-commit.yaml in the repository, or a
//     single file named by --config / PERIODIC_COMMIT_CONFIG
//  3. environment variables (LoadFromEnvironment)
//  4. command-line flags the user set, and the positional period
//
// Finalize validates the merged result and compiles the ticket expression
// and the prompt template.
package config
