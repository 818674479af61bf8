package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-showbooking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) CreateItem(ctx context.Context, item *models.AddonItem) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(ctx)
	return err
}

func (d *DB) ListItems(ctx context.Context) ([]models.AddonItem, error) {
	items := make([]models.AddonItem, 0)
	err := d.Bun.NewSelect().
		Model(&items).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) GetItem(ctx context.Context, id string) (*models.AddonItem, error) {
	var item models.AddonItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) UpdateItem(ctx context.Context, item *models.AddonItem) error {
	_, err := d.Bun.NewUpdate().
		Model(item).
		Column("name", "price", "updated_at").
		Where("id = ?", item.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteItem(ctx context.Context, id string) (int, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.AddonItem)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
