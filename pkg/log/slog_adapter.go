package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.LocalRole != RoleNode || event.NodeID != 0 {
		attrs = append(attrs, slog.String("role", event.LocalRole.String()))
	}
	if event.NodeID != 0 {
		attrs = append(attrs, slog.Uint64("node_id", uint64(event.NodeID)))
	}
	if event.Addr != 0 {
		attrs = append(attrs, slog.Uint64("addr", uint64(event.Addr)))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.String("msg_type", event.Message.Type.String()),
			slog.Uint64("from_addr", uint64(event.Message.FromAddr)),
			slog.Uint64("to_addr", uint64(event.Message.ToAddr)),
		)
		if event.Message.PayloadSize != 0 {
			attrs = append(attrs, slog.Int("payload_size", event.Message.PayloadSize))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Kind != 0 {
			attrs = append(attrs, slog.String("error_kind", event.Error.Kind.String()))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "mesh", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
