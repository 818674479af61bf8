package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingFailed    = "FAILED"
)

// SeatList stores a booking's seat numbers as a JSON column so the same
// model works against both Postgres and the SQLite test database.
type SeatList []int64

func (s SeatList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *SeatList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into SeatList", src)
	}
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID         string    `bun:"id,pk" json:"id"`
	ShowID     string    `bun:"show_id,notnull" json:"show_id"`
	UserName   string    `bun:"user_name,notnull" json:"user_name"`
	Seats      SeatList  `bun:"seats,type:jsonb" json:"seats"`
	Status     string    `bun:"status,notnull" json:"status"`
	TotalPrice float64   `bun:"total_price" json:"total_price"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type FoodItemRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type CreateBookingRequest struct {
	ShowID    string            `json:"show_id"`
	UserName  string            `json:"user_name"`
	Seats     []int64           `json:"seats"`
	FoodItems []FoodItemRequest `json:"food_items,omitempty"`
	HoldID    string            `json:"hold_id,omitempty"`
}

type ReleaseSeatsRequest struct {
	Seats []int64 `json:"seats"`
}

// BookingWithAddons is the API shape for a booking plus its add-on lines.
type BookingWithAddons struct {
	Booking
	Addons []BookingAddon `json:"food_items"`
}
