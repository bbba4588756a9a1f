package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
)

type PaymentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByOrderRef(ctx context.Context, orderRef string) (*domain.Payment, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	SetGatewayResult(ctx context.Context, id int64, externalRef, redirectURL string, expiresAt time.Time) error
	RefreshExpiry(ctx context.Context, id int64, expiresAt time.Time) error
	CommitTransition(ctx context.Context, id int64, status domain.PaymentStatus, externalRef string, method domain.PaymentMethod) (*domain.Payment, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Payment, error)
	InsertActivityLog(ctx context.Context, paymentID int64, from, to domain.PaymentStatus, detail string) error
	InsertUserNotification(ctx context.Context, userID int64, title, message string) error
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, user_id, order_ref, amount, method, status, external_ref, redirect_url, expires_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.UserID, &p.OrderRef, &p.Amount, &p.Method, &p.Status,
		&p.ExternalRef, &p.RedirectURL, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownPayment
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
}

func (r *PGPaymentRepository) GetByOrderRef(ctx context.Context, orderRef string) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_ref=$1`, orderRef))
}

func (r *PGPaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1`, bookingID))
}

func (r *PGPaymentRepository) SetGatewayResult(ctx context.Context, id int64, externalRef, redirectURL string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET external_ref=$1, redirect_url=$2, expires_at=$3, updated_at=now() WHERE id=$4`,
		externalRef, redirectURL, expiresAt, id)
	return err
}

// RefreshExpiry resets the payment window. Used when the gateway reports
// the payment is still pending with a new deadline.
func (r *PGPaymentRepository) RefreshExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET expires_at=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		expiresAt, id, domain.PaymentStatusPending)
	return err
}

func (r *PGPaymentRepository) CommitTransition(ctx context.Context, id int64, status domain.PaymentStatus, externalRef string, method domain.PaymentMethod) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `UPDATE payments SET status=$1,
			external_ref=COALESCE(NULLIF($2,''), external_ref),
			method=COALESCE(NULLIF($3,''), method),
			updated_at=now()
		WHERE id=$4
		RETURNING `+paymentColumns, status, externalRef, string(method), id)
	return scanPayment(row)
}

// ListExpiredPending returns PENDING payments whose window has lapsed.
// Payments without a gateway-confirmed expiry are never eligible.
func (r *PGPaymentRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE status=$1 AND expires_at IS NOT NULL AND expires_at < $2
		ORDER BY expires_at`, domain.PaymentStatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *PGPaymentRepository) InsertActivityLog(ctx context.Context, paymentID int64, from, to domain.PaymentStatus, detail string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO activity_logs (payment_id, from_status, to_status, detail) VALUES ($1, $2, $3, $4)`,
		paymentID, from, to, detail)
	return err
}

func (r *PGPaymentRepository) InsertUserNotification(ctx context.Context, userID int64, title, message string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO notifications (user_id, title, message) VALUES ($1, $2, $3)`,
		userID, title, message)
	return err
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
