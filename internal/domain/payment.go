package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusDPPaid   PaymentStatus = "DP_PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// ConflictStatuses are the payment statuses whose bookings occupy their
// slot. FAILED and REFUNDED payments free the interval.
var ConflictStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusDPPaid,
	PaymentStatusPaid,
}

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodEWallet      PaymentMethod = "EWALLET"
	MethodQRIS         PaymentMethod = "QRIS"
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodCash         PaymentMethod = "CASH"
	MethodUnknown      PaymentMethod = "UNKNOWN"
)

type Payment struct {
	ID          int64         `json:"id"`
	BookingID   int64         `json:"booking_id"`
	UserID      int64         `json:"user_id"`
	OrderRef    string        `json:"order_ref"`
	Amount      int64         `json:"amount"`
	Method      PaymentMethod `json:"method"`
	Status      PaymentStatus `json:"status"`
	ExternalRef *string       `json:"external_ref,omitempty"`
	RedirectURL *string       `json:"redirect_url,omitempty"`
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PaymentEvent is an input to the payment state machine.
type PaymentEvent string

const (
	EventGatewayConfirmed PaymentEvent = "GATEWAY_CONFIRMED"
	EventGatewayPending   PaymentEvent = "GATEWAY_PENDING"
	EventGatewayDenied    PaymentEvent = "GATEWAY_DENIED"
	EventGatewayExpired   PaymentEvent = "GATEWAY_EXPIRED"
	EventSweeperTimeout   PaymentEvent = "SWEEPER_TIMEOUT"
	EventManualRefund     PaymentEvent = "MANUAL_REFUND"
)

// Transition maps (current status, event) to the next status. It is total:
// every combination yields a result, and applied=false means the event is
// a no-op for the current status (duplicate delivery, late notification,
// or an attempt to regress a terminal state). amountReceived and total are
// only consulted for EventGatewayConfirmed, where a partial settlement
// lands on DP_PAID instead of PAID.
func Transition(status PaymentStatus, event PaymentEvent, amountReceived, total int64) (PaymentStatus, bool) {
	switch status {
	case PaymentStatusPending:
		switch event {
		case EventGatewayConfirmed:
			if amountReceived >= total {
				return PaymentStatusPaid, true
			}
			return PaymentStatusDPPaid, true
		case EventGatewayPending:
			// Valid but stationary: used to refresh the expiry window.
			return PaymentStatusPending, false
		case EventGatewayDenied, EventGatewayExpired, EventSweeperTimeout:
			return PaymentStatusFailed, true
		}
	case PaymentStatusPaid, PaymentStatusDPPaid:
		if event == EventManualRefund {
			return PaymentStatusRefunded, true
		}
	case PaymentStatusFailed, PaymentStatusRefunded:
		// Terminal states absorb every event.
	}
	return status, false
}

// IsTerminal reports whether no event except the refund path can move the
// status. REFUNDED and FAILED accept nothing at all.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// Settled reports whether the payment blocks cancellation: a fully paid or
// down-paid booking may only leave through a refund.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusDPPaid
}
