package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer, level Level) *Logger {
	return New(
		WithOutput(buf),
		WithLevel(level),
		WithCaller(false),
		WithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		" warn ":  WARN,
		"error":   ERROR,
		"verbose": INFO,
		"":        INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "UNKNOWN", Level(9).String())
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, WARN)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown %d", 1)
	log.Error("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "2025-01-02 03:04:05.000 WARN  shown 1", lines[0])
	assert.False(t, log.Enabled(INFO))
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, DEBUG).
		WithPrefix("store").
		WithFields(map[string]any{"zeta": 1, "alpha": "a"}).
		WithError(errors.New("boom"))

	log.Info("saved")

	assert.Equal(t, "2025-01-02 03:04:05.000 INFO  [store] saved alpha=a error=boom zeta=1\n", buf.String())
}

func TestLogger_DerivedDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newTestLogger(&buf, DEBUG).WithField("a", 1)
	_ = parent.WithField("b", 2)
	assert.Same(t, parent, parent.WithError(nil))

	parent.Info("x")
	assert.NotContains(t, buf.String(), "b=2")
}

func TestLogger_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf, DEBUG).Error("plain")
	assert.NotContains(t, buf.String(), "\033[")

	buf.Reset()
	New(WithOutput(&buf), WithColors(true), WithCaller(false)).Error("tinted")
	assert.Contains(t, buf.String(), "\033[31m")
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, DEBUG)

	ctx := NewContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.Same(t, Default(), FromContext(context.Background()))
}
