package shows

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-showbooking/internal/booking"
	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/models"
	"ms-showbooking/internal/shows/db"
)

// EventPublisher streams show lifecycle events.
type EventPublisher interface {
	PublishShowCreated(show models.Show) error
	PublishShowDeleted(show models.Show) error
}

// SeatView is one occupied seat in the seat map.
type SeatView struct {
	SeatNumber int64  `json:"seat_number"`
	State      string `json:"state"`
	BookingID  string `json:"booking_id,omitempty"`
	HoldID     string `json:"hold_id,omitempty"`
}

// SeatMap is the full occupancy picture for a show.
type SeatMap struct {
	ShowID         string     `json:"show_id"`
	TotalSeats     int        `json:"total_seats"`
	AvailableSeats int        `json:"available_seats"`
	Allocated      []SeatView `json:"allocated"`
}

// Service owns the show directory: create, list, get, delete-with-cascade,
// plus the operator views (seat map, booking list, CSV export).
type Service struct {
	DB     *db.DB
	Cache  *Cache
	Events EventPublisher
	Logger *logger.Logger
}

func NewService(database *db.DB, cache *Cache, events EventPublisher, log *logger.Logger) *Service {
	return &Service{DB: database, Cache: cache, Events: events, Logger: log}
}

func (s *Service) Create(ctx context.Context, req models.CreateShowRequest) (*models.Show, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &booking.InvalidRequestError{Reason: "name is required"}
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, &booking.InvalidRequestError{Reason: "start_time must be RFC3339, e.g. 2026-09-01T19:30:00Z"}
	}
	if req.TotalSeats < 1 {
		return nil, &booking.InvalidRequestError{Reason: "total_seats must be at least 1"}
	}
	price := 0.0
	if req.TicketPrice != nil {
		if *req.TicketPrice < 0 {
			return nil, &booking.InvalidRequestError{Reason: "ticket_price cannot be negative"}
		}
		price = *req.TicketPrice
	}
	if req.PosterURL != "" {
		if _, err := url.ParseRequestURI(req.PosterURL); err != nil {
			return nil, &booking.InvalidRequestError{Reason: "poster_url is not a valid URL"}
		}
	}
	if req.TrailerURL != "" {
		if _, err := url.ParseRequestURI(req.TrailerURL); err != nil {
			return nil, &booking.InvalidRequestError{Reason: "trailer_url is not a valid URL"}
		}
	}

	now := time.Now().UTC()
	show := &models.Show{
		ID:             uuid.New().String(),
		Name:           req.Name,
		StartTime:      startTime.UTC(),
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		TicketPrice:    price,
		PosterURL:      req.PosterURL,
		TrailerURL:     req.TrailerURL,
		Description:    req.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.DB.CreateShow(ctx, show); err != nil {
		return nil, fmt.Errorf("create show: %w", err)
	}

	s.Logger.LogShow("CREATED", show.ID, fmt.Sprintf("%q seats=%d start=%s", show.Name, show.TotalSeats, show.StartTime.Format(time.RFC3339)))
	if s.Events != nil {
		if pubErr := s.Events.PublishShowCreated(*show); pubErr != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish show.created for %s: %v", show.ID, pubErr))
		}
	}
	s.Cache.InvalidateShow(ctx, show.ID)
	return show, nil
}

func (s *Service) List(ctx context.Context) ([]models.Show, error) {
	if cached, ok := s.Cache.GetShowList(ctx); ok {
		return cached, nil
	}
	shows, err := s.DB.ListShows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	s.Cache.SetShowList(ctx, shows)
	return shows, nil
}

func (s *Service) Get(ctx context.Context, showID string) (*models.Show, error) {
	if cached, ok := s.Cache.GetShow(ctx, showID); ok {
		return cached, nil
	}
	show, err := s.DB.GetShow(ctx, showID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrShowNotFound
		}
		return nil, fmt.Errorf("get show: %w", err)
	}
	s.Cache.SetShow(ctx, show)
	return show, nil
}

// Delete removes a show and cascades through its allocations, addon lines and
// bookings. FAILED audit rows for the show go with it.
func (s *Service) Delete(ctx context.Context, showID string) error {
	show, err := s.DB.GetShow(ctx, showID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrShowNotFound
		}
		return fmt.Errorf("get show: %w", err)
	}

	if err := s.DB.DeleteShowCascade(ctx, showID); err != nil {
		return fmt.Errorf("delete show: %w", err)
	}

	s.Logger.LogShow("DELETED", showID, fmt.Sprintf("%q and its bookings removed", show.Name))
	if s.Events != nil {
		if pubErr := s.Events.PublishShowDeleted(*show); pubErr != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish show.deleted for %s: %v", showID, pubErr))
		}
	}
	s.Cache.InvalidateShow(ctx, showID)
	return nil
}

// AllocatedSeatNumbers returns the ascending seat numbers currently taken
// for a show: CONFIRMED allocations plus holds that have not expired.
func (s *Service) AllocatedSeatNumbers(ctx context.Context, showID string) ([]int64, error) {
	if _, err := s.DB.GetShow(ctx, showID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrShowNotFound
		}
		return nil, fmt.Errorf("get show: %w", err)
	}

	allocations, err := s.DB.AllocatedSeats(ctx, showID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("allocated seats: %w", err)
	}

	seats := make([]int64, 0, len(allocations))
	for _, a := range allocations {
		seats = append(seats, a.SeatNumber)
	}
	return seats, nil
}

// SeatMapView reads the occupancy map straight from the database. No cache
// here: callers polling a seat picker want the live picture.
func (s *Service) SeatMapView(ctx context.Context, showID string) (*SeatMap, error) {
	show, err := s.DB.GetShow(ctx, showID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrShowNotFound
		}
		return nil, fmt.Errorf("get show: %w", err)
	}

	allocations, err := s.DB.AllocatedSeats(ctx, showID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("allocated seats: %w", err)
	}

	views := make([]SeatView, 0, len(allocations))
	for _, a := range allocations {
		views = append(views, SeatView{
			SeatNumber: a.SeatNumber,
			State:      a.State,
			BookingID:  a.BookingID,
			HoldID:     a.HoldID,
		})
	}

	return &SeatMap{
		ShowID:         show.ID,
		TotalSeats:     show.TotalSeats,
		AvailableSeats: show.AvailableSeats,
		Allocated:      views,
	}, nil
}

func (s *Service) Bookings(ctx context.Context, showID string) ([]models.Booking, error) {
	if _, err := s.DB.GetShow(ctx, showID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrShowNotFound
		}
		return nil, fmt.Errorf("get show: %w", err)
	}
	bookings, err := s.DB.BookingsForShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("bookings for show: %w", err)
	}
	return bookings, nil
}

// ExportBookingsCSV writes a show's bookings as CSV, one row per booking with
// seats joined by spaces.
func (s *Service) ExportBookingsCSV(ctx context.Context, showID string, w io.Writer) error {
	bookings, err := s.Bookings(ctx, showID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"booking_id", "user_name", "seats", "status", "total_price", "created_at"}); err != nil {
		return err
	}
	for _, b := range bookings {
		seatStrs := make([]string, len(b.Seats))
		for i, seat := range b.Seats {
			seatStrs[i] = strconv.FormatInt(seat, 10)
		}
		row := []string{
			b.ID,
			b.UserName,
			strings.Join(seatStrs, " "),
			b.Status,
			strconv.FormatFloat(b.TotalPrice, 'f', 2, 64),
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
