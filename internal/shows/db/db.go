package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"ms-showbooking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) CreateShow(ctx context.Context, show *models.Show) error {
	_, err := d.Bun.NewInsert().Model(show).Exec(ctx)
	return err
}

// ListShows returns every show ordered by start time, soonest first.
func (d *DB) ListShows(ctx context.Context) ([]models.Show, error) {
	shows := make([]models.Show, 0)
	err := d.Bun.NewSelect().
		Model(&shows).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return shows, nil
}

func (d *DB) GetShow(ctx context.Context, showID string) (*models.Show, error) {
	var show models.Show
	err := d.Bun.NewSelect().
		Model(&show).
		Where("id = ?", showID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &show, nil
}

// DeleteShowCascade removes a show and everything hanging off it in one
// transaction. Order matters: allocations and addon lines first, then
// bookings, then the show row itself.
func (d *DB) DeleteShowCascade(ctx context.Context, showID string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.SeatAllocation)(nil)).
			Where("show_id = ?", showID).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*models.BookingAddon)(nil)).
			Where("booking_id IN (SELECT id FROM bookings WHERE show_id = ?)", showID).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*models.Booking)(nil)).
			Where("show_id = ?", showID).
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewDelete().
			Model((*models.Show)(nil)).
			Where("id = ?", showID).
			Exec(ctx)
		return err
	})
}

// AllocatedSeats returns the occupied seat numbers for a show in ascending
// order: CONFIRMED allocations plus holds that are still alive.
func (d *DB) AllocatedSeats(ctx context.Context, showID string, now time.Time) ([]models.SeatAllocation, error) {
	allocations := make([]models.SeatAllocation, 0)
	err := d.Bun.NewSelect().
		Model(&allocations).
		Where("show_id = ?", showID).
		Where("(state = ? OR (state = ? AND expires_at > ?))",
			models.AllocationConfirmed, models.AllocationHeld, now).
		OrderExpr("seat_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

// BookingsForShow lists a show's bookings, newest first. Includes FAILED
// audit rows so operators can see rejected attempts alongside real bookings.
func (d *DB) BookingsForShow(ctx context.Context, showID string) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0)
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("show_id = ?", showID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
