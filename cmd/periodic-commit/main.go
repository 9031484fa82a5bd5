package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bashhack/periodic-commit/internal/config"
	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// shutdownGrace is how long a signalled run has to stop on its own.
const shutdownGrace = 5 * time.Second

func main() {
	app := NewDefaultApp(config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		select {
		case sig := <-c:
			_, _ = fmt.Fprintf(app.Stdout, "\nReceived signal %v, stopping periodic-commit...\n", sig)
			cancel()
		case <-done:
			return
		}

		// A git or model call that ignores cancellation gets a grace period.
		select {
		case <-done:
		case <-time.After(shutdownGrace):
			app.CleanupOnSignal()
			app.exit(0)
		}
	}()

	err := execute(ctx, app, os.Args[1:])
	signal.Stop(c)
	close(done)

	app.PrintSummary()

	// Cancellation is the normal signal shutdown path.
	if err != nil && !pcErrors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintf(app.Stderr, "❌ Error: %v\n", err)
		_ = app.Close()
		app.exit(1)
		return
	}

	_ = app.Close()
}
