package notifier

import (
	"context"

	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/kafka"
	"go.uber.org/zap"
)

// Notifier consumes payment events from the stream and delivers the
// user-facing message. Delivery channels (email, push) hang off here;
// the engine only guarantees the event arrives exactly once per committed
// transition.
type Notifier struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, event kafka.PaymentEvent) error {
	n.logger.Info("delivering payment notification",
		zap.String("type", event.Type),
		zap.String("order_ref", event.OrderRef),
		zap.Int64("user_id", event.UserID),
		zap.String("to_status", event.ToStatus),
	)
	return nil
}
