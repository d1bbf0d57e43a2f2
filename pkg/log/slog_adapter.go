package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger. Useful for development
// when you want to see domain events in console output.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given
// slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level (Warn for
// error events).
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("component", event.Component.String()),
		slog.String("category", event.Category.String()),
	}

	level := slog.LevelDebug

	switch {
	case event.ModeChange != nil:
		attrs = append(attrs,
			slog.String("old_mode", event.ModeChange.OldMode),
			slog.String("new_mode", event.ModeChange.NewMode),
		)
		if event.ModeChange.Cause != "" {
			attrs = append(attrs, slog.String("cause", event.ModeChange.Cause))
		}
	case event.Supervisor != nil:
		attrs = append(attrs,
			slog.String("old_state", event.Supervisor.OldState),
			slog.String("new_state", event.Supervisor.NewState),
		)
		if event.Supervisor.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Supervisor.Reason))
		}
	case event.Hardware != nil:
		attrs = append(attrs,
			slog.String("call", event.Hardware.Call),
			slog.String("status", event.Hardware.Status),
		)
	case event.Recovery != nil:
		attrs = append(attrs,
			slog.String("reason", event.Recovery.Reason),
			slog.Bool("severe", event.Recovery.Severe),
			slog.Bool("applied", event.Recovery.Applied),
		)
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("context", event.Error.Context),
			slog.String("error_msg", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
