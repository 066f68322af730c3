package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleHandler(t *testing.T) {
	t.Parallel()
	buf := new(bytes.Buffer)
	log := slog.New(NewConsoleHandlerWriter(buf, slog.LevelInfo))

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.With("host", "example.com").WithGroup("cookie").Warn("rejected", "name", "sid")
	assert.Contains(t, buf.String(), "WARN rejected")
	assert.Contains(t, buf.String(), "host: example.com")
	assert.Contains(t, buf.String(), "cookie.name: sid")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
