package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AddonItem is a catalog entry for food and other extras sold with a booking.
type AddonItem struct {
	bun.BaseModel `bun:"table:addon_items"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Price     float64   `bun:"price,notnull" json:"price"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// BookingAddon is an add-on line attached to a booking, priced at booking time.
type BookingAddon struct {
	bun.BaseModel `bun:"table:booking_addons"`

	ID        string  `bun:"id,pk" json:"id"`
	BookingID string  `bun:"booking_id,notnull" json:"booking_id"`
	AddonID   string  `bun:"addon_id,notnull" json:"addon_id"`
	Name      string  `bun:"name,notnull" json:"name"`
	Price     float64 `bun:"price,notnull" json:"price"`
	Quantity  int     `bun:"quantity,notnull" json:"quantity"`
}

type AddonItemRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
