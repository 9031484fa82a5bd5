package main

import (
	"context"
	"errors"
	"sync"
)

// MockLocker is a mock implementation of the Locker interface
type MockLocker struct {
	AcquireErr    error
	ReleaseErr    error
	AcquireCalled bool
	ReleaseCalled bool
}

func (m *MockLocker) Acquire() error {
	m.AcquireCalled = true
	return m.AcquireErr
}

func (m *MockLocker) Release() error {
	m.ReleaseCalled = true
	return m.ReleaseErr
}

// MockCommitter is a mock implementation of the Committer interface
type MockCommitter struct {
	mu            sync.Mutex
	RunErr        error
	RunCalled     bool
	SummaryCalled bool

	// BlockUntilCancel makes Run wait for ctx like the real loop.
	BlockUntilCancel bool
}

func (m *MockCommitter) Run(ctx context.Context) error {
	m.mu.Lock()
	m.RunCalled = true
	m.mu.Unlock()

	if m.BlockUntilCancel {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.RunErr
}

func (m *MockCommitter) PrintSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryCalled = true
}

// MockLogger records calls and discards messages
type MockLogger struct {
	mu          sync.Mutex
	Messages    []string
	CloseErr    error
	CloseCalled bool
}

func (m *MockLogger) record(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, level)
}

func (m *MockLogger) Debug(string, ...any)         { m.record("debug") }
func (m *MockLogger) Info(string, ...any)          { m.record("info") }
func (m *MockLogger) Warning(string, ...any)       { m.record("warning") }
func (m *MockLogger) Error(string, ...any)         { m.record("error") }
func (m *MockLogger) InfoToUser(string, ...any)    { m.record("info") }
func (m *MockLogger) WarningToUser(string, ...any) { m.record("warning") }
func (m *MockLogger) Success(string, ...any)       { m.record("success") }
func (m *MockLogger) StatusMessage(string, ...any) { m.record("status") }

func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return m.CloseErr
}

var errMock = errors.New("mock failure")
