// AngelaMos | 2026
// repository.go

package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/shelflife/internal/core"
)

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	ListByStore(ctx context.Context, storeID string) ([]Item, error)
	ListAll(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountExpiredBefore(ctx context.Context, day time.Time) (int, error)
}

type repository struct {
	db core.DBTX
}

// NewRepository binds inventory storage to db, which may be a transaction.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const itemColumns = `
	i.id, i.store_id, i.franchise_id, i.product_code, i.quantity,
	i.expiry_date, i.total_cost, i.created_at, i.updated_at`

func (r *repository) Create(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO inventory_items
			(id, store_id, franchise_id, product_code, quantity, expiry_date, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, item, query,
		item.ID,
		item.StoreID,
		item.FranchiseID,
		item.ProductCode,
		item.Quantity,
		item.ExpiryDate,
		item.TotalCost,
	)
	if err != nil {
		return core.WrapDBError("create inventory item", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Item, error) {
	query := `
		SELECT ` + itemColumns + `, p.description AS product_description
		FROM inventory_items i
		LEFT JOIN products p ON p.code = i.product_code
		WHERE i.id = $1`

	var item Item
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, core.WrapDBError("get inventory item", err)
	}

	return &item, nil
}

func (r *repository) ListByStore(ctx context.Context, storeID string) ([]Item, error) {
	query := `
		SELECT ` + itemColumns + `, p.description AS product_description
		FROM inventory_items i
		LEFT JOIN products p ON p.code = i.product_code
		WHERE i.store_id = $1
		ORDER BY i.expiry_date ASC, i.created_at ASC`

	items := []Item{}
	if err := r.db.SelectContext(ctx, &items, query, storeID); err != nil {
		return nil, fmt.Errorf("list store inventory: %w", err)
	}

	return items, nil
}

// ListAll includes items whose store was deleted; their store_name is null.
func (r *repository) ListAll(ctx context.Context) ([]Item, error) {
	query := `
		SELECT ` + itemColumns + `,
		       p.description AS product_description,
		       s.name AS store_name
		FROM inventory_items i
		LEFT JOIN products p ON p.code = i.product_code
		LEFT JOIN stores s ON s.id = i.store_id
		ORDER BY i.expiry_date ASC, i.created_at ASC`

	items := []Item{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list all inventory: %w", err)
	}

	return items, nil
}

func (r *repository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE inventory_items
		SET quantity = $2, expiry_date = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &item.UpdatedAt, query,
		item.ID,
		item.Quantity,
		item.ExpiryDate,
	)
	if err != nil {
		return core.WrapDBError("update inventory item", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete inventory item: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM inventory_items`); err != nil {
		return 0, fmt.Errorf("count inventory: %w", err)
	}
	return n, nil
}

func (r *repository) CountExpiredBefore(ctx context.Context, day time.Time) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM inventory_items WHERE expiry_date < $1`
	if err := r.db.GetContext(ctx, &n, query, day); err != nil {
		return 0, fmt.Errorf("count expired inventory: %w", err)
	}
	return n, nil
}
