package diag

import (
	"context"
	"log/slog"
)

// SlogRecorder writes diagnostic events to an slog.Logger at the
// matching severity. Useful when events should land in the same
// console stream as the application's operational log.
type SlogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder creates a SlogRecorder writing to logger.
func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	return &SlogRecorder{logger: logger}
}

// Record writes the event at its level.
func (r *SlogRecorder) Record(event Event) {
	attrs := []slog.Attr{
		slog.String("code", event.Code.String()),
	}

	if event.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", event.Endpoint))
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.NodeID != "" {
		attrs = append(attrs, slog.String("node_id", event.NodeID))
	}
	if event.MaxAttempts != 0 {
		attrs = append(attrs,
			slog.Int("attempt", event.Attempt),
			slog.Int("max_attempts", event.MaxAttempts),
		)
	}
	if event.Wait != 0 {
		attrs = append(attrs, slog.Duration("wait", event.Wait))
	}
	if event.Elapsed != 0 {
		attrs = append(attrs, slog.Duration("elapsed", event.Elapsed))
	}
	if event.Err != "" {
		attrs = append(attrs, slog.String("err", event.Err))
	}

	msg := event.Message
	if msg == "" {
		msg = event.Code.String()
	}

	r.logger.LogAttrs(context.Background(), slogLevel(event.Level), msg, attrs...)
}

// slogLevel maps an event level onto the slog scale.
func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Compile-time interface satisfaction check.
var _ Recorder = (*SlogRecorder)(nil)
