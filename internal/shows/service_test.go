package shows_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-showbooking/internal/booking"
	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/models"
	"ms-showbooking/internal/shows"
	showdb "ms-showbooking/internal/shows/db"
)

type MockShowPublisher struct {
	mock.Mock
}

func (m *MockShowPublisher) PublishShowCreated(show models.Show) error {
	args := m.Called(show)
	return args.Error(0)
}

func (m *MockShowPublisher) PublishShowDeleted(show models.Show) error {
	args := m.Called(show)
	return args.Error(0)
}

func setupService(t *testing.T) (*shows.Service, *MockShowPublisher, *bun.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Show)(nil),
		(*models.Booking)(nil),
		(*models.SeatAllocation)(nil),
		(*models.BookingAddon)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(ctx); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	pub := new(MockShowPublisher)
	pub.On("PublishShowCreated", mock.Anything).Return(nil).Maybe()
	pub.On("PublishShowDeleted", mock.Anything).Return(nil).Maybe()

	svc := shows.NewService(showdb.New(bunDB), nil, pub, logger.NewNop())
	return svc, pub, bunDB
}

func validCreateRequest() models.CreateShowRequest {
	price := 12.5
	return models.CreateShowRequest{
		Name:        "Hamlet",
		StartTime:   time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339),
		TotalSeats:  40,
		TicketPrice: &price,
	}
}

func TestCreateShow(t *testing.T) {
	svc, pub, bunDB := setupService(t)
	defer bunDB.Close()

	show, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, show.ID)
	assert.Equal(t, 40, show.TotalSeats)
	// A new show starts fully available.
	assert.Equal(t, 40, show.AvailableSeats)
	assert.Equal(t, 12.5, show.TicketPrice)

	pub.AssertCalled(t, "PublishShowCreated", mock.Anything)
}

func TestCreateShowValidation(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*models.CreateShowRequest)
	}{
		{"missing name", func(r *models.CreateShowRequest) { r.Name = "  " }},
		{"bad start time", func(r *models.CreateShowRequest) { r.StartTime = "tomorrow at eight" }},
		{"zero seats", func(r *models.CreateShowRequest) { r.TotalSeats = 0 }},
		{"negative price", func(r *models.CreateShowRequest) { p := -1.0; r.TicketPrice = &p }},
		{"bad poster url", func(r *models.CreateShowRequest) { r.PosterURL = "not a url" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(&req)
			_, err := svc.Create(ctx, req)
			var invalidReq *booking.InvalidRequestError
			assert.ErrorAs(t, err, &invalidReq)
		})
	}
}

func TestGetShow(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, uuid.New().String())
	assert.ErrorIs(t, err, booking.ErrShowNotFound)
}

func TestDeleteShow(t *testing.T) {
	svc, pub, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	pub.AssertCalled(t, "PublishShowDeleted", mock.Anything)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, booking.ErrShowNotFound)

	// Deleting twice reports not found.
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), booking.ErrShowNotFound)
}

func TestAllocatedSeatNumbers(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()
	now := time.Now().UTC()

	created, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	allocations := []models.SeatAllocation{
		{ShowID: created.ID, SeatNumber: 12, State: models.AllocationConfirmed, BookingID: uuid.New().String(), CreatedAt: now},
		{ShowID: created.ID, SeatNumber: 3, State: models.AllocationHeld, HoldID: "h1", ExpiresAt: now.Add(time.Minute), CreatedAt: now},
		{ShowID: created.ID, SeatNumber: 8, State: models.AllocationHeld, HoldID: "h2", ExpiresAt: now.Add(-time.Minute), CreatedAt: now},
	}
	_, err = bunDB.NewInsert().Model(&allocations).Exec(ctx)
	require.NoError(t, err)

	// A plain ascending array, expired holds excluded.
	seats, err := svc.AllocatedSeatNumbers(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 12}, seats)

	_, err = svc.AllocatedSeatNumbers(ctx, uuid.New().String())
	assert.ErrorIs(t, err, booking.ErrShowNotFound)
}

func TestSeatMapView(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()
	now := time.Now().UTC()

	created, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	bookingID := uuid.New().String()
	allocations := []models.SeatAllocation{
		{ShowID: created.ID, SeatNumber: 12, State: models.AllocationConfirmed, BookingID: bookingID, CreatedAt: now},
		{ShowID: created.ID, SeatNumber: 3, State: models.AllocationHeld, HoldID: "h1", ExpiresAt: now.Add(time.Minute), CreatedAt: now},
	}
	_, err = bunDB.NewInsert().Model(&allocations).Exec(ctx)
	require.NoError(t, err)

	seatMap, err := svc.SeatMapView(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, seatMap.TotalSeats)
	require.Len(t, seatMap.Allocated, 2)
	assert.Equal(t, int64(3), seatMap.Allocated[0].SeatNumber)
	assert.Equal(t, models.AllocationHeld, seatMap.Allocated[0].State)
	assert.Equal(t, int64(12), seatMap.Allocated[1].SeatNumber)
	assert.Equal(t, bookingID, seatMap.Allocated[1].BookingID)
}

func TestExportBookingsCSV(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	created, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	b := models.Booking{
		ID: uuid.New().String(), ShowID: created.ID, UserName: "alice",
		Seats: models.SeatList{4, 7}, Status: models.BookingConfirmed,
		TotalPrice: 25.0, CreatedAt: now, UpdatedAt: now,
	}
	_, err = bunDB.NewInsert().Model(&b).Exec(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportBookingsCSV(ctx, created.ID, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"booking_id", "user_name", "seats", "status", "total_price", "created_at"}, records[0])
	assert.Equal(t, b.ID, records[1][0])
	assert.Equal(t, "alice", records[1][1])
	assert.Equal(t, "4 7", records[1][2])
	assert.Equal(t, "CONFIRMED", records[1][3])
	assert.Equal(t, "25.00", records[1][4])

	// Unknown show is a clean error, not an empty file.
	err = svc.ExportBookingsCSV(ctx, uuid.New().String(), &buf)
	assert.ErrorIs(t, err, booking.ErrShowNotFound)
}
