package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInterval    = errors.New("invalid booking interval")
	ErrUnauthorized       = errors.New("notification signature mismatch")
	ErrUnknownPayment     = errors.New("payment not found")
	ErrLockContention     = errors.New("another transition for this payment is in flight")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrFieldNotFound      = errors.New("field not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrBookingPaid        = errors.New("paid booking cannot be deleted, refund it instead")
)

// SlotConflictError reports the window of an existing reservation that
// blocks a candidate interval. It carries no requester identity.
type SlotConflictError struct {
	FieldID   int64
	Date      string
	StartTime time.Time
	EndTime   time.Time
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot conflict on field %d (%s): occupied %s-%s",
		e.FieldID, e.Date, e.StartTime.Format("15:04"), e.EndTime.Format("15:04"))
}

// ErrSlotConflict matches any SlotConflictError via errors.Is.
var ErrSlotConflict = errors.New("slot conflict")

func (e *SlotConflictError) Is(target error) bool { return target == ErrSlotConflict }
