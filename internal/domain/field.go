package domain

import "time"

type FieldStatus string

const (
	FieldStatusAvailable   FieldStatus = "AVAILABLE"
	FieldStatusMaintenance FieldStatus = "MAINTENANCE"
	FieldStatusClosed      FieldStatus = "CLOSED"
)

// Field is a bookable court. Rates are snapshotted into the booking price
// at reservation time; later changes never reprice existing bookings.
type Field struct {
	ID         int64       `json:"id"`
	BranchID   int64       `json:"branch_id"`
	Name       string      `json:"name"`
	DayPrice   int64       `json:"day_price"`
	NightPrice int64       `json:"night_price"`
	Status     FieldStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
