package audit

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/DataSweeper/internal/logging"
)

// LogRecorder writes events to the structured log.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder logs through logger, or through the request-scoped default
// logger when logger is nil.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

// Record implements Recorder.
func (r *LogRecorder) Record(ctx context.Context, ev Event) error {
	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "activity",
		slog.String("event_id", ev.ID),
		slog.String("action", string(ev.Action)),
		slog.String("severity", string(ev.Severity)),
		slog.String("session", ev.SessionID),
		slog.String("file", ev.FileName),
		slog.Int("rows", ev.Rows),
		slog.String("detail", ev.Detail),
	)
	return nil
}
