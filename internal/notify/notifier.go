package notify

import (
	"context"

	"go.uber.org/zap"
)

// Events emitted by the booking coordinator.
const (
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentRejected  = "APPOINTMENT_REJECTED"
)

// Notifier is the fire-and-forget delivery hook. Implementations must
// never block a booking on delivery; failures are theirs to swallow.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]any)
}

// LogNotifier records events in the log stream. It stands in for a real
// delivery channel in deployments that have none configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event string, payload map[string]any) {
	n.logger.Info("notification",
		zap.String("event", event),
		zap.Any("payload", payload))
}
