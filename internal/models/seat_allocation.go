package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	AllocationConfirmed = "CONFIRMED"
	AllocationHeld      = "HELD"
)

// SeatAllocation is the inventory ledger. The composite primary key on
// (show_id, seat_number) is what makes double-booking impossible at the
// storage layer, whatever the service layer gets wrong.
type SeatAllocation struct {
	bun.BaseModel `bun:"table:seat_allocations"`

	ShowID     string    `bun:"show_id,pk" json:"show_id"`
	SeatNumber int64     `bun:"seat_number,pk" json:"seat_number"`
	State      string    `bun:"state,notnull" json:"state"`
	BookingID  string    `bun:"booking_id,nullzero" json:"booking_id,omitempty"`
	HoldID     string    `bun:"hold_id,nullzero" json:"hold_id,omitempty"`
	HoldName   string    `bun:"hold_name,nullzero" json:"hold_name,omitempty"`
	ExpiresAt  time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

type CreateHoldRequest struct {
	UserName string  `json:"user_name"`
	Seats    []int64 `json:"seats"`
}

// SeatHold is returned to a client that soft-reserved seats. The hold id is
// the ticket back in: a booking created with it converts the held seats.
type SeatHold struct {
	HoldID    string    `json:"hold_id"`
	ShowID    string    `json:"show_id"`
	UserName  string    `json:"user_name"`
	Seats     []int64   `json:"seats"`
	ExpiresAt time.Time `json:"expires_at"`
}
