// Package logger provides the structured log and the terminal output used by
// periodic-commit.
//
// Structured records go through log/slog. Where they go is controlled by
// Options.Handler ("stream" for stderr, "file", or a path) and their shape by
// Options.Format ("text" or "json"). The level defaults to info; the CLI
// defaults it to debug so every pipeline step is traced.
//
// Messages meant for the person watching the loop (InfoToUser, Success,
// WarningToUser, StatusMessage) are printed to stdout with an icon and
// colour from github.com/fatih/color. Colour is dropped when stdout is not a
// terminal or Options.NoColor is set.
package logger
