package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestNewLogger_LevelFromEnv(t *testing.T) {
	t.Setenv("TREB_LOG_LEVEL", "warn")
	var buf bytes.Buffer
	log := newLogger(&config.RuntimeConfig{}, &buf)

	log.Info("hidden")
	log.Warn("shown", "run", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "run=abc")
	assert.NotContains(t, out, "time=")
}

func TestNewLogger_DebugForcesDebugLevel(t *testing.T) {
	t.Setenv("TREB_LOG_LEVEL", "error")
	var buf bytes.Buffer
	log := newLogger(&config.RuntimeConfig{Debug: true}, &buf)

	log.Debug("tracing")

	out := buf.String()
	assert.Contains(t, out, "msg=tracing")
	assert.Contains(t, out, "source=")
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/capture/session.go", shortPath("/home/ci/src/treb-vote/internal/capture/session.go"))
	assert.Equal(t, "main.go", shortPath("/elsewhere/main.go"))
}
