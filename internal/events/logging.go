package events

import (
	"context"

	"go.uber.org/zap"
)

// RegisterLoggingSubscriber attaches a structured-log handler to every
// pipeline event type.
func RegisterLoggingSubscriber(dispatcher Dispatcher, logger *zap.Logger) {
	handler := func(_ context.Context, event Event) error {
		fields := []zap.Field{
			zap.String("event", string(event.Type)),
			zap.String("run_id", event.RunID),
		}
		if event.TicketID != 0 {
			fields = append(fields, zap.Int64("ticket_id", event.TicketID))
		}
		switch event.Type {
		case EventTicketFailed:
			logger.Warn("pipeline event", fields...)
		default:
			logger.Debug("pipeline event", fields...)
		}
		return nil
	}

	for _, eventType := range []EventType{
		EventRunStarted,
		EventRunCompleted,
		EventTicketProcessed,
		EventTicketFailed,
		EventDegradedMode,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
