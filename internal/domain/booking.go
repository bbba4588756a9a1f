package domain

import "time"

// Booking is a claimed [StartTime, EndTime) interval on a field. A booking
// is created together with exactly one PENDING payment in the same
// transaction and counts toward conflict checks while that payment is in
// a non-terminated status.
type Booking struct {
	ID          int64     `json:"id"`
	FieldID     int64     `json:"field_id"`
	UserID      int64     `json:"user_id"`
	BookingDate time.Time `json:"booking_date"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
}
