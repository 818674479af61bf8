package booking

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel and typed errors for every failure class the allocator can
// produce. Handlers map these onto HTTP status codes; the typed ones carry
// the details (counts, seat numbers) the API contract promises.

var ErrShowNotFound = errors.New("show not found")

var ErrBookingNotFound = errors.New("booking not found")

var ErrHoldNotFound = errors.New("hold not found or expired")

type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return e.Reason
}

type InsufficientInventoryError struct {
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("Not enough seats available. Available: %d, Requested: %d", e.Available, e.Requested)
}

type InvalidSeatError struct {
	Seat       int64
	TotalSeats int
}

func (e *InvalidSeatError) Error() string {
	return fmt.Sprintf("Invalid seat number: %d. Must be between 1 and %d", e.Seat, e.TotalSeats)
}

// SeatConflictError names every conflicting seat, not just the first.
type SeatConflictError struct {
	Seats []int64
}

func (e *SeatConflictError) Error() string {
	parts := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return "Seats already booked: " + strings.Join(parts, ", ")
}

// HTTPStatus maps a service error onto the status code the API returns for
// it. Anything unrecognized is a 500.
func HTTPStatus(err error) int {
	var invalidReq *InvalidRequestError
	var insufficient *InsufficientInventoryError
	var invalidSeat *InvalidSeatError
	var conflict *SeatConflictError

	switch {
	case errors.Is(err, ErrShowNotFound), errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrHoldNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalidReq), errors.As(err, &insufficient), errors.As(err, &invalidSeat):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
