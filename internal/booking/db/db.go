package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ms-showbooking/internal/models"
)

// DB is the allocator's storage layer. Everything that takes a bun.IDB can
// run either on the root connection or inside a transaction; the allocator
// always calls the mutating helpers through RunInTx.
type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, fn)
}

// GetShowForUpdate reads the show row that the availability check is based
// on. On Postgres the row is locked with FOR UPDATE so the read and the
// later counter update happen against one consistent snapshot; SQLite
// serializes writers on its own.
func (d *DB) GetShowForUpdate(ctx context.Context, idb bun.IDB, showID string) (*models.Show, error) {
	var show models.Show
	q := idb.NewSelect().Model(&show).Where("id = ?", showID)
	if d.Bun.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return &show, nil
}

// PurgeExpiredHolds drops lapsed HELD rows for a show. It runs inside the
// same transaction as the availability check, so expiry is lazy: nobody
// sweeps in the background, the next booking attempt cleans up.
func (d *DB) PurgeExpiredHolds(ctx context.Context, idb bun.IDB, showID string, now time.Time) error {
	_, err := idb.NewDelete().
		Model((*models.SeatAllocation)(nil)).
		Where("show_id = ?", showID).
		Where("state = ?", models.AllocationHeld).
		Where("expires_at <= ?", now).
		Exec(ctx)
	return err
}

// ConsumeHold converts a hold's HELD rows for the requested seats only,
// deleting them so the booking can take their place. Held seats outside the
// request stay held for the rest of the hold's lifetime. Returns the seat
// numbers that were still actively held, empty when the hold is gone.
func (d *DB) ConsumeHold(ctx context.Context, idb bun.IDB, showID, holdID string, seats []int64, now time.Time) ([]int64, error) {
	var held []int64
	err := idb.NewSelect().
		Model((*models.SeatAllocation)(nil)).
		Column("seat_number").
		Where("show_id = ?", showID).
		Where("hold_id = ?", holdID).
		Where("expires_at > ?", now).
		Scan(ctx, &held)
	if err != nil {
		return nil, err
	}
	if len(held) == 0 {
		return nil, nil
	}
	_, err = idb.NewDelete().
		Model((*models.SeatAllocation)(nil)).
		Where("show_id = ?", showID).
		Where("hold_id = ?", holdID).
		Where("seat_number IN (?)", bun.In(seats)).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return held, nil
}

// ConflictingSeats returns, in ascending order, every requested seat number
// that is already taken for the show, counting CONFIRMED allocations and
// holds that have not expired yet.
func (d *DB) ConflictingSeats(ctx context.Context, idb bun.IDB, showID string, seats []int64, now time.Time) ([]int64, error) {
	var taken []int64
	err := idb.NewSelect().
		Model((*models.SeatAllocation)(nil)).
		Column("seat_number").
		Where("show_id = ?", showID).
		Where("seat_number IN (?)", bun.In(seats)).
		Where("(state = ? OR (state = ? AND expires_at > ?))",
			models.AllocationConfirmed, models.AllocationHeld, now).
		OrderExpr("seat_number ASC").
		Scan(ctx, &taken)
	if err != nil {
		return nil, err
	}
	return taken, nil
}

func (d *DB) InsertBooking(ctx context.Context, idb bun.IDB, booking *models.Booking) error {
	_, err := idb.NewInsert().Model(booking).Exec(ctx)
	return err
}

func (d *DB) UpdateBookingStatus(ctx context.Context, idb bun.IDB, booking *models.Booking) error {
	_, err := idb.NewUpdate().
		Model(booking).
		Column("status", "updated_at").
		Where("id = ?", booking.ID).
		Exec(ctx)
	return err
}

func (d *DB) UpdateBookingSeats(ctx context.Context, idb bun.IDB, booking *models.Booking) error {
	_, err := idb.NewUpdate().
		Model(booking).
		Column("seats", "total_price", "updated_at").
		Where("id = ?", booking.ID).
		Exec(ctx)
	return err
}

func (d *DB) InsertAllocations(ctx context.Context, idb bun.IDB, allocations []models.SeatAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&allocations).Exec(ctx)
	return err
}

// DeleteBookingAllocations removes specific seats owned by a booking and
// returns how many rows went away.
func (d *DB) DeleteBookingAllocations(ctx context.Context, idb bun.IDB, bookingID string, seats []int64) (int, error) {
	res, err := idb.NewDelete().
		Model((*models.SeatAllocation)(nil)).
		Where("booking_id = ?", bookingID).
		Where("seat_number IN (?)", bun.In(seats)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// AdjustAvailableSeats moves the show's availability counter by delta. Only
// ever called inside the same transaction as the allocation insert/delete.
func (d *DB) AdjustAvailableSeats(ctx context.Context, idb bun.IDB, showID string, delta int, now time.Time) error {
	_, err := idb.NewUpdate().
		Model((*models.Show)(nil)).
		Set("available_seats = available_seats + ?", delta).
		Set("updated_at = ?", now).
		Where("id = ?", showID).
		Exec(ctx)
	return err
}

func (d *DB) GetBooking(ctx context.Context, idb bun.IDB, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	err := idb.NewSelect().
		Model(&booking).
		Where("id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (d *DB) AllocationsByBooking(ctx context.Context, idb bun.IDB, bookingID string) ([]models.SeatAllocation, error) {
	var allocations []models.SeatAllocation
	err := idb.NewSelect().
		Model(&allocations).
		Where("booking_id = ?", bookingID).
		OrderExpr("seat_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

// InsertFailedBooking writes the audit record for a reservation attempt that
// rolled back. Deliberately not transactional: it must survive the rollback
// of the attempt it describes.
func (d *DB) InsertFailedBooking(ctx context.Context, booking *models.Booking) error {
	_, err := d.Bun.NewInsert().Model(booking).Exec(ctx)
	return err
}

func (d *DB) AddonItemsByIDs(ctx context.Context, idb bun.IDB, ids []string) ([]models.AddonItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.AddonItem
	err := idb.NewSelect().
		Model(&items).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) InsertBookingAddons(ctx context.Context, idb bun.IDB, addons []models.BookingAddon) error {
	if len(addons) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&addons).Exec(ctx)
	return err
}

func (d *DB) AddonsByBooking(ctx context.Context, bookingID string) ([]models.BookingAddon, error) {
	addons := make([]models.BookingAddon, 0)
	err := d.Bun.NewSelect().
		Model(&addons).
		Where("booking_id = ?", bookingID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return addons, nil
}
