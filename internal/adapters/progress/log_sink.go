package progress

import (
	"context"
	"log/slog"

	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// LogSink reports submission progress through the logger, for runs
// without a terminal
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a progress sink that logs each transition
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With("component", "progress")}
}

// OnProgress logs the stage change at debug level
func (s *LogSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	s.log.DebugContext(ctx, event.Message, "stage", event.Stage)
}

func (s *LogSink) Info(message string) {
	s.log.Info(message)
}

func (s *LogSink) Error(message string) {
	s.log.Error(message)
}

var _ usecase.ProgressSink = (*LogSink)(nil)
