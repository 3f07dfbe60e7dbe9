package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		debug bool
	}{
		{"info hides debug", LogInfo, false},
		{"debug shows debug", LogDebug, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)
			l.Debug("skipped special net", "net", "VDD")
			l.Info("built", "vertices", 4)

			out := buf.String()
			if !strings.Contains(out, "built") {
				t.Errorf("info message missing: %q", out)
			}
			if got := strings.Contains(out, "skipped special net"); got != tt.debug {
				t.Errorf("debug output = %v, want %v", got, tt.debug)
			}
		})
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Info("loaded")

	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("line %q does not start with a HH:MM:SS.ms timestamp", buf.String())
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	time.Sleep(5 * time.Millisecond)
	prog.done("Built top")

	out := buf.String()
	if !strings.Contains(out, "Built top (") || !strings.Contains(out, "ms)") {
		t.Errorf("progress line = %q, want message with elapsed time", out)
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should yield the default logger")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, LogInfo)
	ctx := withLogger(context.Background(), l)
	if loggerFromContext(ctx) != l {
		t.Fatal("loggerFromContext did not return the attached logger")
	}
	loggerFromContext(ctx).Warn("watch error")
	if !strings.Contains(buf.String(), "watch error") {
		t.Errorf("attached logger not used: %q", buf.String())
	}
}
