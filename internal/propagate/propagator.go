package propagate

import (
	"context"
	"fmt"
	"time"

	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/kafka"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/realtime"
	"go.uber.org/zap"
)

type CacheInvalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

type RealtimePublisher interface {
	PublishBranch(ctx context.Context, branchID int64, event realtime.ChangeEvent) error
	PublishUser(ctx context.Context, userID int64, event realtime.ChangeEvent) error
	PublishAvailability(ctx context.Context, fieldID int64, date string, event realtime.ChangeEvent) error
}

type EventProducer interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Change describes one committed reservation or payment state change.
type Change struct {
	Kind       string
	BookingID  int64
	PaymentID  int64
	FieldID    int64
	BranchID   int64
	UserID     int64
	Date       string
	OrderRef   string
	Amount     int64
	FromStatus domain.PaymentStatus
	ToStatus   domain.PaymentStatus
}

// Propagator keeps caches and realtime subscribers consistent with the
// authoritative store. Every step is best-effort: failures are logged and
// swallowed, never bubbled up to roll back a committed change.
type Propagator struct {
	cache    CacheInvalidator
	rt       RealtimePublisher
	producer EventProducer
	topic    string
	logger   *zap.Logger
}

func NewPropagator(cache CacheInvalidator, rt RealtimePublisher, producer EventProducer, topic string, logger *zap.Logger) *Propagator {
	return &Propagator{cache: cache, rt: rt, producer: producer, topic: topic, logger: logger}
}

func (p *Propagator) Propagate(ctx context.Context, ch Change) {
	p.invalidate(ctx, ch)
	p.publishRealtime(ctx, ch)
	p.emitEvent(ctx, ch)
}

func (p *Propagator) invalidate(ctx context.Context, ch Change) {
	if p.cache == nil {
		return
	}
	prefixes := []string{
		fmt.Sprintf("cache:availability:%d:%s", ch.FieldID, ch.Date),
		fmt.Sprintf("cache:field:%d", ch.FieldID),
		fmt.Sprintf("cache:user:%d", ch.UserID),
		"cache:report",
	}
	for _, prefix := range prefixes {
		if err := p.cache.InvalidatePrefix(ctx, prefix); err != nil {
			p.logger.Warn("cache invalidation failed",
				zap.String("prefix", prefix), zap.Int64("booking_id", ch.BookingID), zap.Error(err))
		}
	}
}

func (p *Propagator) publishRealtime(ctx context.Context, ch Change) {
	if p.rt == nil {
		return
	}
	event := realtime.ChangeEvent{
		Kind:      ch.Kind,
		BookingID: ch.BookingID,
		PaymentID: ch.PaymentID,
		FieldID:   ch.FieldID,
		Date:      ch.Date,
		Status:    string(ch.ToStatus),
	}
	if err := p.rt.PublishBranch(ctx, ch.BranchID, event); err != nil {
		p.logger.Warn("branch channel publish failed", zap.Int64("branch_id", ch.BranchID), zap.Error(err))
	}
	if err := p.rt.PublishUser(ctx, ch.UserID, event); err != nil {
		p.logger.Warn("user channel publish failed", zap.Int64("user_id", ch.UserID), zap.Error(err))
	}
	if err := p.rt.PublishAvailability(ctx, ch.FieldID, ch.Date, event); err != nil {
		p.logger.Warn("availability channel publish failed", zap.Int64("field_id", ch.FieldID), zap.Error(err))
	}
}

func (p *Propagator) emitEvent(ctx context.Context, ch Change) {
	if p.producer == nil || p.topic == "" {
		return
	}
	event := kafka.PaymentEvent{
		Type:       ch.Kind,
		PaymentID:  ch.PaymentID,
		BookingID:  ch.BookingID,
		UserID:     ch.UserID,
		OrderRef:   ch.OrderRef,
		FieldID:    ch.FieldID,
		Date:       ch.Date,
		Amount:     ch.Amount,
		FromStatus: string(ch.FromStatus),
		ToStatus:   string(ch.ToStatus),
		OccurredAt: time.Now().UTC(),
	}
	if err := p.producer.Publish(ctx, p.topic, ch.OrderRef, event); err != nil {
		p.logger.Warn("payment event publish failed", zap.String("order_ref", ch.OrderRef), zap.Error(err))
	}
}
