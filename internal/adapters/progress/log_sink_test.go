package progress

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: string(domain.TxSubmitted), Message: "Submitted 0xabc"})
	sink.Error("replay failed")

	assert.Contains(t, buf.String(), `level=DEBUG msg="Submitted 0xabc" component=progress stage=submitted`)
	assert.Contains(t, buf.String(), `level=ERROR msg="replay failed" component=progress`)
}

func TestNewProgressSink_NonInteractive(t *testing.T) {
	sink := NewProgressSink(&config.RuntimeConfig{NonInteractive: true}, slog.Default())
	assert.IsType(t, &LogSink{}, sink)
}
