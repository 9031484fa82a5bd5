package git

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/bashhack/periodic-commit/internal/logger"
)

// mockExecutor answers git commands by subcommand and records every call.
type mockExecutor struct {
	mu      sync.Mutex
	calls   [][]string
	outputs map[string]string
	errs    map[string]error

	// hook, when set, replaces the canned answers.
	hook func(sub string, args []string) (string, error)
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		outputs: map[string]string{},
		errs:    map[string]error{},
	}
}

func (m *mockExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := m.ExecuteWithContextAndOutput(ctx, name, args...)
	return err
}

func (m *mockExecutor) ExecuteWithContextAndOutput(_ context.Context, _ string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	trimmed := args
	if len(trimmed) >= 2 && trimmed[0] == "-C" {
		trimmed = trimmed[2:]
	}
	m.calls = append(m.calls, append([]string(nil), trimmed...))

	sub := operationName(args)
	if m.hook != nil {
		return m.hook(sub, trimmed)
	}
	return m.outputs[sub], m.errs[sub]
}

// subcommands returns the git subcommands called so far, in order.
func (m *mockExecutor) subcommands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		subs = append(subs, c[0])
	}
	return subs
}

func (m *mockExecutor) count(sub string) int {
	n := 0
	for _, s := range m.subcommands() {
		if s == sub {
			n++
		}
	}
	return n
}

func (m *mockExecutor) lastCall(sub string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i][0] == sub {
			return m.calls[i]
		}
	}
	return nil
}

type mockInspector struct {
	branch    string
	branchErr error
	commits   []CommitSummary
}

func (m *mockInspector) CurrentBranch() (string, error) {
	return m.branch, m.branchErr
}

func (m *mockInspector) RecentCommits(n int) ([]CommitSummary, error) {
	if n < len(m.commits) {
		return m.commits[:n], nil
	}
	return m.commits, nil
}

type mockGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	diffs    []string
}

func (m *mockGenerator) Summarize(_ context.Context, diff string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.diffs = append(m.diffs, diff)
	return m.response, m.err
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.diffs)
}

// syncBuffer is a bytes.Buffer safe for the logger and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Contains(s string) bool {
	return strings.Contains(b.String(), s)
}

// newTestLogger returns a debug-level logger whose user output goes to
// stdout and whose structured log goes to stderr.
func newTestLogger() (logger.Logger, *syncBuffer, *syncBuffer) {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	log := logger.NewWithOptions(logger.Options{
		Level:   "debug",
		Handler: logger.HandlerStream,
		NoColor: true,
		Stdout:  stdout,
		Stderr:  stderr,
	})
	return log, stdout, stderr
}
