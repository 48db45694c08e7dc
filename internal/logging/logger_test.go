package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewLogger(t *testing.T) {
	t.Run("info drops debug and time", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, &config.RuntimeConfig{LogLevel: "info"})
		log.Debug("hidden")
		log.Info("submitted", "hash", "0x01")

		assert.NotContains(t, buf.String(), "hidden")
		assert.NotContains(t, buf.String(), "time=")
		assert.Contains(t, buf.String(), `msg=submitted hash=0x01`)
	})

	t.Run("debug flag overrides level", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, &config.RuntimeConfig{LogLevel: "error", Debug: true})
		log.Debug("connecting")

		assert.Contains(t, buf.String(), "msg=connecting")
		assert.Contains(t, buf.String(), "time=")
		assert.Contains(t, buf.String(), "source=")
	})
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/deploy_proxy.go", shortPath("/home/ci/src/proxyops/internal/usecase/deploy_proxy.go"))
	assert.Equal(t, "main.go", shortPath("/elsewhere/main.go"))
}
