package payment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/gateway"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/metrics"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/propagate"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/repository"
	"go.uber.org/zap"
)

type PaymentUseCase interface {
	ProcessNotification(ctx context.Context, n gateway.Notification, clientIP string) (*domain.Payment, error)
	SweepExpired(ctx context.Context) (int, error)
	RefundPayment(ctx context.Context, paymentID int64) (*domain.Payment, error)
}

// Locker is the cluster-wide per-payment mutual exclusion primitive. The
// lease TTL bounds how long a crashed holder can block a payment.
type Locker interface {
	AcquirePaymentLock(ctx context.Context, paymentID int64, ttl time.Duration) (bool, error)
	ReleasePaymentLock(ctx context.Context, paymentID int64) error
}

// AbuseTracker records failed payment attempts so repeat offenders can be
// throttled. Implemented elsewhere; a nil tracker disables tracking.
type AbuseTracker interface {
	RecordFailedAttempt(ctx context.Context, userID, bookingID int64, clientIP string) error
}

type Propagator interface {
	Propagate(ctx context.Context, ch propagate.Change)
}

type PaymentService struct {
	payments      repository.PaymentRepository
	bookings      repository.BookingRepository
	locker        Locker
	propagator    Propagator
	abuse         AbuseTracker
	serverKey     string
	trustUnsigned bool
	lockTTL       time.Duration
	logger        *zap.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	locker Locker,
	propagator Propagator,
	abuse AbuseTracker,
	serverKey string,
	trustUnsigned bool,
	lockTTL time.Duration,
	logger *zap.Logger,
) *PaymentService {
	if lockTTL == 0 {
		lockTTL = 30 * time.Second
	}
	return &PaymentService{
		payments:      payments,
		bookings:      bookings,
		locker:        locker,
		propagator:    propagator,
		abuse:         abuse,
		serverKey:     serverKey,
		trustUnsigned: trustUnsigned,
		lockTTL:       lockTTL,
		logger:        logger,
	}
}

// ProcessNotification ingests one gateway callback. Delivery is
// at-least-once: a duplicate or out-of-order notification resolves to a
// no-op success, never an error. A notification arriving while another
// transition for the same payment is in flight fails with
// ErrLockContention so the gateway retries later.
func (s *PaymentService) ProcessNotification(ctx context.Context, n gateway.Notification, clientIP string) (*domain.Payment, error) {
	if !gateway.VerifySignature(n, s.serverKey, s.trustUnsigned) {
		s.logger.Warn("notification signature mismatch", zap.String("order_ref", n.OrderRef))
		return nil, domain.ErrUnauthorized
	}

	p, err := s.payments.GetByOrderRef(ctx, n.OrderRef)
	if err != nil {
		return nil, err
	}

	ok, err := s.locker.AcquirePaymentLock(ctx, p.ID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire payment lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrLockContention
	}
	// Release with a detached context: the lease must not be stranded
	// until its TTL because the request context ended first.
	defer func() {
		if err := s.locker.ReleasePaymentLock(context.WithoutCancel(ctx), p.ID); err != nil {
			s.logger.Error("release payment lock failed", zap.Int64("payment_id", p.ID), zap.Error(err))
		}
	}()

	// Re-read under the lock: the status may have moved between the
	// lookup and the lock grant.
	p, err = s.payments.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	event := n.Event()
	received, parsed := parseGrossAmount(n.GrossAmount)
	if !parsed && event == domain.EventGatewayConfirmed {
		// A confirm whose amount cannot be read must not settle as a
		// partial payment; hold the payment until a readable callback.
		s.logger.Warn("unparseable gross_amount on confirm",
			zap.Int64("payment_id", p.ID), zap.String("gross_amount", n.GrossAmount))
		event = domain.EventGatewayPending
	}

	next, applied := domain.Transition(p.Status, event, received, p.Amount)
	if !applied {
		if event == domain.EventGatewayPending && p.Status == domain.PaymentStatusPending {
			s.refreshExpiry(ctx, p, n.ExpiryTime)
		}
		s.logger.Info("notification resolved as no-op",
			zap.Int64("payment_id", p.ID),
			zap.String("status", string(p.Status)),
			zap.String("event", string(event)))
		return p, nil
	}

	updated, err := s.payments.CommitTransition(ctx, p.ID, next, n.TransactionID, gateway.MethodTag(n.PaymentType))
	if err != nil {
		return nil, err
	}

	s.runSideEffects(ctx, updated, p.Status, transitionDetail(event, n.TransactionStatus), clientIP)
	return updated, nil
}

// SweepExpired reclaims PENDING payments whose window lapsed. Safe to run
// from multiple instances at once: each candidate is taken under the same
// per-payment lock the notification path uses, so a sweep can never race
// a late confirmation into a double transition.
func (s *PaymentService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.payments.ListExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, candidate := range expired {
		if s.sweepOne(ctx, candidate.ID) {
			swept++
		}
	}
	return swept, nil
}

func (s *PaymentService) sweepOne(ctx context.Context, paymentID int64) bool {
	ok, err := s.locker.AcquirePaymentLock(ctx, paymentID, s.lockTTL)
	if err != nil || !ok {
		// A notification or a sibling sweeper owns this payment; it will
		// be resolved there or retried next sweep.
		return false
	}
	defer func() {
		if err := s.locker.ReleasePaymentLock(context.WithoutCancel(ctx), paymentID); err != nil {
			s.logger.Error("release payment lock failed", zap.Int64("payment_id", paymentID), zap.Error(err))
		}
	}()

	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		s.logger.Error("sweep read failed", zap.Int64("payment_id", paymentID), zap.Error(err))
		return false
	}

	next, applied := domain.Transition(p.Status, domain.EventSweeperTimeout, 0, p.Amount)
	if !applied {
		return false
	}

	updated, err := s.payments.CommitTransition(ctx, p.ID, next, "", "")
	if err != nil {
		s.logger.Error("sweep commit failed", zap.Int64("payment_id", p.ID), zap.Error(err))
		return false
	}

	metrics.RecordPaymentSwept()
	s.runSideEffects(ctx, updated, p.Status, "payment window expired", "")
	return true
}

// RefundPayment drives a settled payment to REFUNDED through the same
// lock-protected path as every other transition.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	ok, err := s.locker.AcquirePaymentLock(ctx, paymentID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire payment lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrLockContention
	}
	defer func() {
		if err := s.locker.ReleasePaymentLock(context.WithoutCancel(ctx), paymentID); err != nil {
			s.logger.Error("release payment lock failed", zap.Int64("payment_id", paymentID), zap.Error(err))
		}
	}()

	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	next, applied := domain.Transition(p.Status, domain.EventManualRefund, 0, p.Amount)
	if !applied {
		return p, nil
	}

	updated, err := s.payments.CommitTransition(ctx, p.ID, next, "", "")
	if err != nil {
		return nil, err
	}

	s.runSideEffects(ctx, updated, p.Status, "manual refund", "")
	return updated, nil
}

// runSideEffects performs the post-commit side-effect set: audit record,
// user notification, propagation, abuse tracking on failure. All of it is
// best-effort; the transition is already durable.
func (s *PaymentService) runSideEffects(ctx context.Context, p *domain.Payment, from domain.PaymentStatus, detail, clientIP string) {
	metrics.RecordPaymentTransition(string(p.Status))

	if err := s.payments.InsertActivityLog(ctx, p.ID, from, p.Status, detail); err != nil {
		s.logger.Warn("activity log write failed", zap.Int64("payment_id", p.ID), zap.Error(err))
	}
	if err := s.payments.InsertUserNotification(ctx, p.UserID, notificationTitle(p.Status), notificationMessage(p)); err != nil {
		s.logger.Warn("user notification write failed", zap.Int64("payment_id", p.ID), zap.Error(err))
	}

	bc, err := s.bookings.GetContext(ctx, p.BookingID)
	if err != nil {
		s.logger.Warn("booking context lookup failed", zap.Int64("booking_id", p.BookingID), zap.Error(err))
		return
	}

	if s.propagator != nil {
		s.propagator.Propagate(ctx, propagate.Change{
			Kind:       "payment_transition",
			BookingID:  p.BookingID,
			PaymentID:  p.ID,
			FieldID:    bc.FieldID,
			BranchID:   bc.BranchID,
			UserID:     p.UserID,
			Date:       bc.Date.Format("2006-01-02"),
			OrderRef:   p.OrderRef,
			Amount:     p.Amount,
			FromStatus: from,
			ToStatus:   p.Status,
		})
	}

	if p.Status == domain.PaymentStatusFailed && s.abuse != nil {
		if err := s.abuse.RecordFailedAttempt(ctx, p.UserID, p.BookingID, clientIP); err != nil {
			s.logger.Warn("abuse tracking failed", zap.Int64("user_id", p.UserID), zap.Error(err))
		}
	}
}

func (s *PaymentService) refreshExpiry(ctx context.Context, p *domain.Payment, expiry string) {
	if expiry == "" {
		return
	}
	t, err := time.Parse("2006-01-02 15:04:05", expiry)
	if err != nil {
		s.logger.Warn("unparseable expiry in notification", zap.Int64("payment_id", p.ID), zap.String("expiry", expiry))
		return
	}
	if err := s.payments.RefreshExpiry(ctx, p.ID, t); err != nil {
		s.logger.Warn("expiry refresh failed", zap.Int64("payment_id", p.ID), zap.Error(err))
	}
}

// parseGrossAmount tolerates the gateway's decimal formatting ("250000.00").
// The second return reports whether the amount was readable at all.
func parseGrossAmount(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f + 0.5), true
}

func transitionDetail(event domain.PaymentEvent, rawStatus string) string {
	return fmt.Sprintf("gateway status %q mapped to %s", rawStatus, event)
}

func notificationTitle(status domain.PaymentStatus) string {
	switch status {
	case domain.PaymentStatusPaid:
		return "Payment confirmed"
	case domain.PaymentStatusDPPaid:
		return "Down payment received"
	case domain.PaymentStatusFailed:
		return "Payment failed"
	case domain.PaymentStatusRefunded:
		return "Payment refunded"
	}
	return "Payment updated"
}

func notificationMessage(p *domain.Payment) string {
	return fmt.Sprintf("Payment %s for booking #%d is now %s", p.OrderRef, p.BookingID, p.Status)
}

var _ PaymentUseCase = (*PaymentService)(nil)
