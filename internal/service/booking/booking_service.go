package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/gateway"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/pricing"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/propagate"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/repository"
	"go.uber.org/zap"
)

// Window is a conflicting interval reported back to a caller. It exposes
// the occupied bounds for debuggability but never the other requester.
type Window struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type BookingUseCase interface {
	CheckAvailability(ctx context.Context, fieldID int64, date, start, end time.Time) (bool, []Window, error)
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, *domain.Payment, error)
	CancelBooking(ctx context.Context, bookingID int64) error
}

type Cache interface {
	GetAvailability(ctx context.Context, fieldID int64, date string) ([]repository.ActiveBooking, error)
	SetAvailability(ctx context.Context, fieldID int64, date string, active []repository.ActiveBooking) error
}

type Propagator interface {
	Propagate(ctx context.Context, ch propagate.Change)
}

// Locker serializes a cancellation with payment transitions for the same
// payment. Shared with the notification processor and the sweeper.
type Locker interface {
	AcquirePaymentLock(ctx context.Context, paymentID int64, ttl time.Duration) (bool, error)
	ReleasePaymentLock(ctx context.Context, paymentID int64) error
}

type CreateBookingInput struct {
	FieldID       int64
	UserID        int64
	Date          time.Time
	StartTime     time.Time
	EndTime       time.Time
	Method        domain.PaymentMethod
	CustomerName  string
	CustomerEmail string
}

type BookingService struct {
	bookings      repository.BookingRepository
	fields        repository.FieldRepository
	payments      repository.PaymentRepository
	cache         Cache
	gateway       gateway.Client
	propagator    Propagator
	locker        Locker
	dayWindow     pricing.DayWindow
	expiryMinutes int
	lockTTL       time.Duration
	logger        *zap.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	fields repository.FieldRepository,
	payments repository.PaymentRepository,
	cache Cache,
	gw gateway.Client,
	propagator Propagator,
	locker Locker,
	dayWindow pricing.DayWindow,
	expiryMinutes int,
	lockTTL time.Duration,
	logger *zap.Logger,
) *BookingService {
	if lockTTL == 0 {
		lockTTL = 30 * time.Second
	}
	return &BookingService{
		bookings:      bookings,
		fields:        fields,
		payments:      payments,
		cache:         cache,
		gateway:       gw,
		propagator:    propagator,
		locker:        locker,
		dayWindow:     dayWindow,
		expiryMinutes: expiryMinutes,
		lockTTL:       lockTTL,
		logger:        logger,
	}
}

// CheckAvailability reports whether [start, end) is free on the field for
// the given date, together with the occupied windows it collides with.
// The answer is advisory; CreateBooking re-checks inside its transaction.
func (s *BookingService) CheckAvailability(ctx context.Context, fieldID int64, date, start, end time.Time) (bool, []Window, error) {
	if !end.After(start) {
		return false, nil, domain.ErrInvalidInterval
	}

	active, err := s.activeBookings(ctx, fieldID, date)
	if err != nil {
		return false, nil, err
	}

	var conflicts []Window
	for _, a := range active {
		if domain.Overlaps(start, end, a.StartTime, a.EndTime) {
			conflicts = append(conflicts, Window{StartTime: a.StartTime, EndTime: a.EndTime})
		}
	}
	return len(conflicts) == 0, conflicts, nil
}

func (s *BookingService) activeBookings(ctx context.Context, fieldID int64, date time.Time) ([]repository.ActiveBooking, error) {
	dateKey := date.Format("2006-01-02")
	if s.cache != nil {
		if cached, err := s.cache.GetAvailability(ctx, fieldID, dateKey); err == nil && cached != nil {
			return cached, nil
		}
	}

	active, err := s.bookings.ListActive(ctx, fieldID, date)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetAvailability(ctx, fieldID, dateKey, active)
	}
	return active, nil
}

// CreateBooking prices the interval, writes the reservation together with
// its PENDING payment, and submits the payment intent to the gateway. A
// gateway failure leaves the committed reservation in place: the booking
// and payment are returned alongside the error so the caller can retry
// obtaining a redirect.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, *domain.Payment, error) {
	if !input.EndTime.After(input.StartTime) {
		return nil, nil, domain.ErrInvalidInterval
	}

	field, err := s.fields.GetByID(ctx, input.FieldID)
	if err != nil {
		return nil, nil, err
	}

	available, conflicts, err := s.CheckAvailability(ctx, input.FieldID, input.Date, input.StartTime, input.EndTime)
	if err != nil {
		return nil, nil, err
	}
	if !available {
		return nil, nil, &domain.SlotConflictError{
			FieldID:   input.FieldID,
			Date:      input.Date.Format("2006-01-02"),
			StartTime: conflicts[0].StartTime,
			EndTime:   conflicts[0].EndTime,
		}
	}

	total := pricing.Calculate(input.StartTime, input.EndTime, field.DayPrice, field.NightPrice, s.dayWindow)

	b := &domain.Booking{
		FieldID:     input.FieldID,
		UserID:      input.UserID,
		BookingDate: input.Date,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
	}
	p := &domain.Payment{
		UserID:   input.UserID,
		OrderRef: "PAY-" + uuid.NewString(),
		Amount:   total,
		Method:   input.Method,
	}

	if err := s.bookings.CreateWithPayment(ctx, b, p); err != nil {
		return nil, nil, err
	}

	s.propagateChange(ctx, b, p, "booking_created", domain.PaymentStatusPending, domain.PaymentStatusPending, field.BranchID)

	result, err := s.gateway.Submit(ctx, gateway.SubmitRequest{
		OrderRef:      p.OrderRef,
		Amount:        total,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		ItemName:      fmt.Sprintf("%s %s %s-%s", field.Name, input.Date.Format("2006-01-02"), input.StartTime.Format("15:04"), input.EndTime.Format("15:04")),
		ExpiryMinutes: s.expiryMinutes,
	})
	if err != nil {
		// Reservation stays PENDING; without an expiry on record the
		// sweeper leaves it alone until a redirect retry succeeds.
		s.logger.Error("gateway submit failed",
			zap.Int64("booking_id", b.ID), zap.String("order_ref", p.OrderRef), zap.Error(err))
		return b, p, err
	}

	if err := s.payments.SetGatewayResult(ctx, p.ID, result.ExternalRef, result.RedirectURL, result.ExpiresAt); err != nil {
		s.logger.Error("persist gateway result failed", zap.Int64("payment_id", p.ID), zap.Error(err))
		return b, p, err
	}
	p.ExternalRef = &result.ExternalRef
	p.RedirectURL = &result.RedirectURL
	p.ExpiresAt = &result.ExpiresAt

	return b, p, nil
}

// CancelBooking removes an unsettled booking and frees its slot. Paid and
// down-paid bookings can only leave through the refund path. The delete is
// taken under the same per-payment lock the notification processor and
// sweeper use, so a settlement landing mid-cancel cannot be destroyed.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) error {
	bc, err := s.bookings.GetContext(ctx, bookingID)
	if err != nil {
		return err
	}
	p, err := s.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if p.Status.Settled() {
		return domain.ErrBookingPaid
	}

	ok, err := s.locker.AcquirePaymentLock(ctx, p.ID, s.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire payment lock: %w", err)
	}
	if !ok {
		return domain.ErrLockContention
	}
	defer func() {
		if err := s.locker.ReleasePaymentLock(context.WithoutCancel(ctx), p.ID); err != nil {
			s.logger.Error("release payment lock failed", zap.Int64("payment_id", p.ID), zap.Error(err))
		}
	}()

	// Re-read under the lock: a settlement may have committed between the
	// lookup and the lock grant.
	p, err = s.payments.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if p.Status.Settled() {
		return domain.ErrBookingPaid
	}

	if err := s.bookings.DeleteWithPayment(ctx, bookingID); err != nil {
		return err
	}

	if s.propagator != nil {
		s.propagator.Propagate(ctx, propagate.Change{
			Kind:       "booking_cancelled",
			BookingID:  bookingID,
			PaymentID:  p.ID,
			FieldID:    bc.FieldID,
			BranchID:   bc.BranchID,
			UserID:     bc.UserID,
			Date:       bc.Date.Format("2006-01-02"),
			OrderRef:   p.OrderRef,
			Amount:     p.Amount,
			FromStatus: p.Status,
			ToStatus:   p.Status,
		})
	}
	return nil
}

func (s *BookingService) propagateChange(ctx context.Context, b *domain.Booking, p *domain.Payment, kind string, from, to domain.PaymentStatus, branchID int64) {
	if s.propagator == nil {
		return
	}
	s.propagator.Propagate(ctx, propagate.Change{
		Kind:       kind,
		BookingID:  b.ID,
		PaymentID:  p.ID,
		FieldID:    b.FieldID,
		BranchID:   branchID,
		UserID:     b.UserID,
		Date:       b.BookingDate.Format("2006-01-02"),
		OrderRef:   p.OrderRef,
		Amount:     p.Amount,
		FromStatus: from,
		ToStatus:   to,
	})
}

var _ BookingUseCase = (*BookingService)(nil)
