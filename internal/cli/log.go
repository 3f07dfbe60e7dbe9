// Package cli implements the netgraph command-line interface.
//
// Commands build connectivity graphs from netlist descriptions, render them,
// load them into graph and document stores, serve them over HTTP and manage
// the build cache. The CLI is built using cobra and logs through
// charmbracelet/log; --verbose (-v) enables debug output.
//
// # Commands
//
//   - build: write the graph as gt, GraphML, JSON or DOT
//   - check: report every invalid net
//   - render: draw the graph as SVG, PNG or PDF
//   - load: store the graph in Neo4j, SQLite or MongoDB
//   - serve: run the HTTP API
//   - watch: rebuild whenever the netlist changes
//   - explore: browse nets interactively
//   - cache: manage the build cache
//
// # Logging
//
// Loggers are passed through context.Context so helpers can report progress
// without holding a reference to the CLI.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing timestamped ("15:04:05.00") lines to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a command stage took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Built top (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
