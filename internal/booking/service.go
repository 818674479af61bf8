package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-showbooking/internal/booking/db"
	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/models"
)

const maxAddonQuantity = 10

// EventPublisher streams booking lifecycle events to whoever listens.
type EventPublisher interface {
	PublishBookingConfirmed(booking models.Booking) error
	PublishBookingFailed(booking models.Booking) error
	PublishSeatsReleased(booking models.Booking) error
}

// CacheInvalidator drops cached show state after a mutation. The cache is
// never consulted for availability decisions, so a missed invalidation only
// costs staleness, never correctness.
type CacheInvalidator interface {
	InvalidateShow(ctx context.Context, showID string)
}

// Service is the booking allocator. Reserve, Release and Hold serialize per
// show through Locks and run their read-check-write sequence inside a single
// transaction; the composite key on seat_allocations backstops both.
type Service struct {
	DB      *db.DB
	Events  EventPublisher
	Cache   CacheInvalidator
	Locks   *ShowLocks
	Logger  *logger.Logger
	HoldTTL time.Duration
}

func NewService(database *db.DB, events EventPublisher, cache CacheInvalidator, log *logger.Logger, holdTTL time.Duration) *Service {
	if holdTTL <= 0 {
		holdTTL = 10 * time.Minute
	}
	return &Service{
		DB:      database,
		Events:  events,
		Cache:   cache,
		Locks:   NewShowLocks(),
		Logger:  log,
		HoldTTL: holdTTL,
	}
}

// Reserve atomically books the requested seats or books none of them.
//
// Validation order is part of the contract: show existence, non-empty seat
// list, seat count vs availability, seat number bounds, then per-seat
// conflicts. The first failing check aborts the whole attempt, and any
// failure inside the transactional attempt leaves a durable FAILED booking
// behind for audit.
func (s *Service) Reserve(ctx context.Context, req models.CreateBookingRequest) (*models.BookingWithAddons, error) {
	if req.ShowID == "" {
		return nil, &InvalidRequestError{Reason: "show_id is required"}
	}
	if strings.TrimSpace(req.UserName) == "" {
		return nil, &InvalidRequestError{Reason: "user_name is required"}
	}

	unlock := s.Locks.Acquire(req.ShowID)
	defer unlock()

	booking := &models.Booking{
		ID:       uuid.NewString(),
		ShowID:   req.ShowID,
		UserName: req.UserName,
		Seats:    models.SeatList(req.Seats),
		Status:   models.BookingPending,
	}
	var addonLines []models.BookingAddon

	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()

		show, err := s.DB.GetShowForUpdate(ctx, tx, req.ShowID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowNotFound
			}
			return err
		}

		if len(req.Seats) == 0 {
			return &InvalidRequestError{Reason: "seats must be a non-empty list"}
		}
		if hasDuplicates(req.Seats) {
			return &InvalidRequestError{Reason: "seats must not contain duplicates"}
		}

		if err := s.DB.PurgeExpiredHolds(ctx, tx, req.ShowID, now); err != nil {
			return err
		}
		if req.HoldID != "" {
			held, err := s.DB.ConsumeHold(ctx, tx, req.ShowID, req.HoldID, req.Seats, now)
			if err != nil {
				return err
			}
			if len(held) == 0 {
				return ErrHoldNotFound
			}
		}

		if len(req.Seats) > show.AvailableSeats {
			return &InsufficientInventoryError{Requested: len(req.Seats), Available: show.AvailableSeats}
		}
		for _, seat := range req.Seats {
			if seat < 1 || seat > int64(show.TotalSeats) {
				return &InvalidSeatError{Seat: seat, TotalSeats: show.TotalSeats}
			}
		}

		conflicts, err := s.DB.ConflictingSeats(ctx, tx, req.ShowID, req.Seats, now)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &SeatConflictError{Seats: conflicts}
		}

		addonLines, err = s.buildAddonLines(ctx, tx, booking.ID, req.FoodItems)
		if err != nil {
			return err
		}
		booking.TotalPrice = float64(len(req.Seats)) * show.TicketPrice
		for _, line := range addonLines {
			booking.TotalPrice += line.Price * float64(line.Quantity)
		}

		booking.CreatedAt = now
		booking.UpdatedAt = now
		if err := s.DB.InsertBooking(ctx, tx, booking); err != nil {
			return err
		}

		allocations := make([]models.SeatAllocation, 0, len(req.Seats))
		for _, seat := range req.Seats {
			allocations = append(allocations, models.SeatAllocation{
				ShowID:     req.ShowID,
				SeatNumber: seat,
				State:      models.AllocationConfirmed,
				BookingID:  booking.ID,
				CreatedAt:  now,
			})
		}
		if err := s.DB.InsertAllocations(ctx, tx, allocations); err != nil {
			return err
		}
		if err := s.DB.InsertBookingAddons(ctx, tx, addonLines); err != nil {
			return err
		}
		if err := s.DB.AdjustAvailableSeats(ctx, tx, req.ShowID, -len(req.Seats), now); err != nil {
			return err
		}

		booking.Status = models.BookingConfirmed
		booking.UpdatedAt = time.Now().UTC()
		return s.DB.UpdateBookingStatus(ctx, tx, booking)
	})
	if err != nil {
		s.auditFailure(ctx, req, err)
		return nil, err
	}

	s.Logger.LogBooking("CONFIRMED", booking.ID,
		fmt.Sprintf("show=%s seats=%v user=%s", booking.ShowID, booking.Seats, booking.UserName))
	if pubErr := s.Events.PublishBookingConfirmed(*booking); pubErr != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking.confirmed for %s: %v", booking.ID, pubErr))
	}
	s.invalidateShow(ctx, booking.ShowID)

	return &models.BookingWithAddons{Booking: *booking, Addons: addonLines}, nil
}

// auditFailure writes the FAILED booking record after the reservation
// transaction rolled back. Best effort only: a failed audit write is logged
// and must never mask the error the caller is about to see. Nothing is
// written when the show itself does not exist, there is no row to reference.
func (s *Service) auditFailure(ctx context.Context, req models.CreateBookingRequest, cause error) {
	if errors.Is(cause, ErrShowNotFound) {
		return
	}
	now := time.Now().UTC()
	failed := models.Booking{
		ID:        uuid.NewString(),
		ShowID:    req.ShowID,
		UserName:  req.UserName,
		Seats:     models.SeatList(req.Seats),
		Status:    models.BookingFailed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.InsertFailedBooking(ctx, &failed); err != nil {
		s.Logger.Error("BOOKING", fmt.Sprintf("failed to record FAILED booking for show %s: %v", req.ShowID, err))
		return
	}
	s.Logger.LogBooking("FAILED", failed.ID, fmt.Sprintf("show=%s seats=%v cause=%v", req.ShowID, req.Seats, cause))
	if pubErr := s.Events.PublishBookingFailed(failed); pubErr != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking.failed for %s: %v", failed.ID, pubErr))
	}
}

func (s *Service) buildAddonLines(ctx context.Context, tx bun.Tx, bookingID string, requested []models.FoodItemRequest) ([]models.BookingAddon, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(requested))
	for _, item := range requested {
		if item.Quantity < 1 || item.Quantity > maxAddonQuantity {
			return nil, &InvalidRequestError{Reason: fmt.Sprintf("food item quantity must be between 1 and %d", maxAddonQuantity)}
		}
		ids = append(ids, item.ID)
	}
	items, err := s.DB.AddonItemsByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]models.AddonItem, len(items))
	for _, item := range items {
		catalog[item.ID] = item
	}
	lines := make([]models.BookingAddon, 0, len(requested))
	for _, item := range requested {
		entry, ok := catalog[item.ID]
		if !ok {
			return nil, &InvalidRequestError{Reason: fmt.Sprintf("unknown food item: %s", item.ID)}
		}
		lines = append(lines, models.BookingAddon{
			ID:        uuid.NewString(),
			BookingID: bookingID,
			AddonID:   entry.ID,
			Name:      entry.Name,
			Price:     entry.Price,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

// Get returns the booking exactly as last persisted. Pure read.
func (s *Service) Get(ctx context.Context, bookingID string) (*models.BookingWithAddons, error) {
	booking, err := s.DB.GetBooking(ctx, s.DB.Bun, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	addons, err := s.DB.AddonsByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &models.BookingWithAddons{Booking: *booking, Addons: addons}, nil
}

// Release gives seats owned by a CONFIRMED booking back to the show's
// inventory. Same locking discipline as Reserve: per-show mutex around one
// transaction, so the counter and the ledger never drift apart.
func (s *Service) Release(ctx context.Context, bookingID string, seats []int64) (*models.BookingWithAddons, error) {
	if len(seats) == 0 {
		return nil, &InvalidRequestError{Reason: "seats must be a non-empty list"}
	}
	if hasDuplicates(seats) {
		return nil, &InvalidRequestError{Reason: "seats must not contain duplicates"}
	}

	current, err := s.DB.GetBooking(ctx, s.DB.Bun, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	unlock := s.Locks.Acquire(current.ShowID)
	defer unlock()

	var updated *models.Booking
	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()

		booking, err := s.DB.GetBooking(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookingNotFound
			}
			return err
		}
		if booking.Status != models.BookingConfirmed {
			return &InvalidRequestError{Reason: fmt.Sprintf("cannot release seats of a %s booking", booking.Status)}
		}

		owned := make(map[int64]bool, len(booking.Seats))
		for _, seat := range booking.Seats {
			owned[seat] = true
		}
		for _, seat := range seats {
			if !owned[seat] {
				return &InvalidRequestError{Reason: fmt.Sprintf("seat %d is not part of booking %s", seat, bookingID)}
			}
		}

		deleted, err := s.DB.DeleteBookingAllocations(ctx, tx, bookingID, seats)
		if err != nil {
			return err
		}
		if err := s.DB.AdjustAvailableSeats(ctx, tx, booking.ShowID, deleted, now); err != nil {
			return err
		}

		show, err := s.DB.GetShowForUpdate(ctx, tx, booking.ShowID)
		if err != nil {
			return err
		}

		releasing := make(map[int64]bool, len(seats))
		for _, seat := range seats {
			releasing[seat] = true
		}
		remaining := make(models.SeatList, 0, len(booking.Seats))
		for _, seat := range booking.Seats {
			if !releasing[seat] {
				remaining = append(remaining, seat)
			}
		}
		booking.Seats = remaining
		booking.TotalPrice -= float64(deleted) * show.TicketPrice
		booking.UpdatedAt = now
		if err := s.DB.UpdateBookingSeats(ctx, tx, booking); err != nil {
			return err
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.LogBooking("RELEASED", updated.ID, fmt.Sprintf("show=%s released=%v", updated.ShowID, seats))
	if pubErr := s.Events.PublishSeatsReleased(*updated); pubErr != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking.released for %s: %v", updated.ID, pubErr))
	}
	s.invalidateShow(ctx, updated.ShowID)

	addons, err := s.DB.AddonsByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &models.BookingWithAddons{Booking: *updated, Addons: addons}, nil
}

// Hold soft-reserves seats for HoldTTL. Held seats block other customers but
// do not touch available_seats: the counter tracks CONFIRMED seats only.
// Expired holds are swept lazily by the next attempt on the same show.
func (s *Service) Hold(ctx context.Context, showID string, req models.CreateHoldRequest) (*models.SeatHold, error) {
	if strings.TrimSpace(req.UserName) == "" {
		return nil, &InvalidRequestError{Reason: "user_name is required"}
	}
	if len(req.Seats) == 0 {
		return nil, &InvalidRequestError{Reason: "seats must be a non-empty list"}
	}
	if hasDuplicates(req.Seats) {
		return nil, &InvalidRequestError{Reason: "seats must not contain duplicates"}
	}

	unlock := s.Locks.Acquire(showID)
	defer unlock()

	hold := &models.SeatHold{
		HoldID:   uuid.NewString(),
		ShowID:   showID,
		UserName: req.UserName,
		Seats:    req.Seats,
	}

	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()

		show, err := s.DB.GetShowForUpdate(ctx, tx, showID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowNotFound
			}
			return err
		}
		for _, seat := range req.Seats {
			if seat < 1 || seat > int64(show.TotalSeats) {
				return &InvalidSeatError{Seat: seat, TotalSeats: show.TotalSeats}
			}
		}

		if err := s.DB.PurgeExpiredHolds(ctx, tx, showID, now); err != nil {
			return err
		}
		conflicts, err := s.DB.ConflictingSeats(ctx, tx, showID, req.Seats, now)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &SeatConflictError{Seats: conflicts}
		}

		hold.ExpiresAt = now.Add(s.HoldTTL)
		allocations := make([]models.SeatAllocation, 0, len(req.Seats))
		for _, seat := range req.Seats {
			allocations = append(allocations, models.SeatAllocation{
				ShowID:     showID,
				SeatNumber: seat,
				State:      models.AllocationHeld,
				HoldID:     hold.HoldID,
				HoldName:   req.UserName,
				ExpiresAt:  hold.ExpiresAt,
				CreatedAt:  now,
			})
		}
		return s.DB.InsertAllocations(ctx, tx, allocations)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.LogBooking("HELD", hold.HoldID,
		fmt.Sprintf("show=%s seats=%v until=%s", showID, hold.Seats, hold.ExpiresAt.Format(time.RFC3339)))
	return hold, nil
}

func (s *Service) invalidateShow(ctx context.Context, showID string) {
	if s.Cache != nil {
		s.Cache.InvalidateShow(ctx, showID)
	}
}

func hasDuplicates(seats []int64) bool {
	seen := make(map[int64]bool, len(seats))
	for _, seat := range seats {
		if seen[seat] {
			return true
		}
		seen[seat] = true
	}
	return false
}
