package addons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-showbooking/internal/addons/db"
	"ms-showbooking/internal/booking"
	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/models"
)

var ErrItemNotFound = errors.New("addon item not found")

// Service manages the food and beverage catalog that bookings can attach
// line items from.
type Service struct {
	DB     *db.DB
	Logger *logger.Logger
}

func NewService(database *db.DB, log *logger.Logger) *Service {
	return &Service{DB: database, Logger: log}
}

func (s *Service) Create(ctx context.Context, req models.AddonItemRequest) (*models.AddonItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &booking.InvalidRequestError{Reason: "name is required"}
	}
	if req.Price < 0 {
		return nil, &booking.InvalidRequestError{Reason: "price cannot be negative"}
	}

	now := time.Now().UTC()
	item := &models.AddonItem{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create addon item: %w", err)
	}
	s.Logger.Info("ADDONS", fmt.Sprintf("created item %s (%q)", item.ID, item.Name))
	return item, nil
}

func (s *Service) List(ctx context.Context) ([]models.AddonItem, error) {
	items, err := s.DB.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list addon items: %w", err)
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, id string, req models.AddonItemRequest) (*models.AddonItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &booking.InvalidRequestError{Reason: "name is required"}
	}
	if req.Price < 0 {
		return nil, &booking.InvalidRequestError{Reason: "price cannot be negative"}
	}

	item, err := s.DB.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get addon item: %w", err)
	}

	item.Name = req.Name
	item.Price = req.Price
	item.UpdatedAt = time.Now().UTC()
	if err := s.DB.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update addon item: %w", err)
	}
	return item, nil
}

// Delete removes a catalog item. Booking addon lines keep their copied name
// and price, so history survives catalog changes.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.DB.DeleteItem(ctx, id)
	if err != nil {
		return fmt.Errorf("delete addon item: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	s.Logger.Info("ADDONS", "deleted item "+id)
	return nil
}
