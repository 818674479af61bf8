package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Show struct {
	bun.BaseModel `bun:"table:shows"`

	ID             string    `bun:"id,pk" json:"id"`
	Name           string    `bun:"name,notnull" json:"name"`
	StartTime      time.Time `bun:"start_time,notnull" json:"start_time"`
	TotalSeats     int       `bun:"total_seats,notnull" json:"total_seats"`
	AvailableSeats int       `bun:"available_seats,notnull" json:"available_seats"`
	TicketPrice    float64   `bun:"ticket_price" json:"ticket_price"`
	PosterURL      string    `bun:"poster_url,nullzero" json:"poster_url,omitempty"`
	TrailerURL     string    `bun:"trailer_url,nullzero" json:"trailer_url,omitempty"`
	Description    string    `bun:"description,nullzero" json:"description,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type CreateShowRequest struct {
	Name        string   `json:"name"`
	StartTime   string   `json:"start_time"`
	TotalSeats  int      `json:"total_seats"`
	TicketPrice *float64 `json:"ticket_price,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty"`
	TrailerURL  string   `json:"trailer_url,omitempty"`
	Description string   `json:"description,omitempty"`
}
