package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
)

// ActiveBooking is a booking interval that still occupies its slot,
// i.e. its payment is in a non-terminated status.
type ActiveBooking struct {
	BookingID int64
	StartTime time.Time
	EndTime   time.Time
}

// BookingContext carries the identifiers the propagation layer needs
// after a payment transition.
type BookingContext struct {
	BookingID int64
	FieldID   int64
	BranchID  int64
	UserID    int64
	Date      time.Time
}

type BookingRepository interface {
	ListActive(ctx context.Context, fieldID int64, date time.Time) ([]ActiveBooking, error)
	CreateWithPayment(ctx context.Context, booking *domain.Booking, payment *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetContext(ctx context.Context, bookingID int64) (*BookingContext, error)
	DeleteWithPayment(ctx context.Context, bookingID int64) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const activeBookingsQuery = `SELECT b.id, b.start_time, b.end_time
	FROM bookings b
	JOIN payments p ON p.booking_id = b.id
	WHERE b.field_id=$1 AND b.booking_date=$2 AND p.status = ANY($3)
	ORDER BY b.start_time`

func (r *PGBookingRepository) ListActive(ctx context.Context, fieldID int64, date time.Time) ([]ActiveBooking, error) {
	return listActive(ctx, r.db, fieldID, date)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listActive(ctx context.Context, q querier, fieldID int64, date time.Time) ([]ActiveBooking, error) {
	statuses := make([]string, 0, len(domain.ConflictStatuses))
	for _, s := range domain.ConflictStatuses {
		statuses = append(statuses, string(s))
	}

	rows, err := q.Query(ctx, activeBookingsQuery, fieldID, date, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	active := make([]ActiveBooking, 0)
	for rows.Next() {
		var b ActiveBooking
		if err := rows.Scan(&b.BookingID, &b.StartTime, &b.EndTime); err != nil {
			return nil, err
		}
		active = append(active, b)
	}
	return active, rows.Err()
}

// CreateWithPayment inserts a booking and its initial PENDING payment in
// one transaction. The field row is locked first so concurrent writers for
// the same field serialize, then availability is re-checked inside the
// transaction; the availability check callers ran beforehand is advisory
// only. Exactly one of N racing writers for an overlapping slot commits.
func (r *PGBookingRepository) CreateWithPayment(ctx context.Context, booking *domain.Booking, payment *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var fieldID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM fields WHERE id=$1 FOR UPDATE`, booking.FieldID).Scan(&fieldID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrFieldNotFound
		}
		return err
	}

	active, err := listActive(ctx, tx, booking.FieldID, booking.BookingDate)
	if err != nil {
		return err
	}
	for _, a := range active {
		if domain.Overlaps(booking.StartTime, booking.EndTime, a.StartTime, a.EndTime) {
			return &domain.SlotConflictError{
				FieldID:   booking.FieldID,
				Date:      booking.BookingDate.Format("2006-01-02"),
				StartTime: a.StartTime,
				EndTime:   a.EndTime,
			}
		}
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (field_id, user_id, booking_date, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		booking.FieldID, booking.UserID, booking.BookingDate, booking.StartTime, booking.EndTime).
		Scan(&booking.ID, &booking.CreatedAt); err != nil {
		return err
	}

	payment.BookingID = booking.ID
	payment.Status = domain.PaymentStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO payments (booking_id, user_id, order_ref, amount, method, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		payment.BookingID, payment.UserID, payment.OrderRef, payment.Amount, payment.Method, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT id, field_id, user_id, booking_date, start_time, end_time, created_at FROM bookings WHERE id=$1`, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.FieldID, &b.UserID, &b.BookingDate, &b.StartTime, &b.EndTime, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetContext(ctx context.Context, bookingID int64) (*BookingContext, error) {
	row := r.db.QueryRow(ctx, `SELECT b.id, b.field_id, f.branch_id, b.user_id, b.booking_date
		FROM bookings b
		JOIN fields f ON f.id = b.field_id
		WHERE b.id=$1`, bookingID)
	var bc BookingContext
	if err := row.Scan(&bc.BookingID, &bc.FieldID, &bc.BranchID, &bc.UserID, &bc.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &bc, nil
}

// DeleteWithPayment removes a booking and its payment. The payment delete
// refuses settled rows, so even a caller holding a stale status read cannot
// destroy a paid reservation.
func (r *PGBookingRepository) DeleteWithPayment(ctx context.Context, bookingID int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmdPayments, err := tx.Exec(ctx, `DELETE FROM payments WHERE booking_id=$1 AND status NOT IN ($2, $3)`,
		bookingID, domain.PaymentStatusPaid, domain.PaymentStatusDPPaid)
	if err != nil {
		return err
	}
	if cmdPayments.RowsAffected() == 0 {
		return domain.ErrBookingPaid
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, bookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}

	return tx.Commit(ctx)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
