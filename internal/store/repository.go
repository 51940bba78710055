// AngelaMos | 2026
// repository.go

package store

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/shelflife/internal/core"
)

type Repository interface {
	Create(ctx context.Context, s *Store) error
	GetByID(ctx context.Context, id string) (*Store, error)
	List(ctx context.Context) ([]Store, error)
	ListByFranchise(ctx context.Context, franchiseID string) ([]Store, error)
	Update(ctx context.Context, s *Store) error
	Delete(ctx context.Context, id string) error
	CountInventory(ctx context.Context, id string) (int, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const storeColumns = `id, name, franchise_id, contact_email, created_at, updated_at`

func (r *repository) Create(ctx context.Context, s *Store) error {
	query := `
		INSERT INTO stores (id, name, franchise_id, contact_email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, s, query,
		s.ID,
		s.Name,
		s.FranchiseID,
		s.ContactEmail,
	)
	if err != nil {
		return core.WrapDBError("create store", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`

	var s Store
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, core.WrapDBError("get store", err)
	}

	return &s, nil
}

func (r *repository) List(ctx context.Context) ([]Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores ORDER BY name`

	stores := []Store{}
	if err := r.db.SelectContext(ctx, &stores, query); err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	return stores, nil
}

func (r *repository) ListByFranchise(
	ctx context.Context,
	franchiseID string,
) ([]Store, error) {
	query := `
		SELECT ` + storeColumns + `
		FROM stores
		WHERE franchise_id = $1
		ORDER BY name`

	stores := []Store{}
	if err := r.db.SelectContext(ctx, &stores, query, franchiseID); err != nil {
		return nil, fmt.Errorf("list franchise stores: %w", err)
	}

	return stores, nil
}

func (r *repository) Update(ctx context.Context, s *Store) error {
	query := `
		UPDATE stores
		SET name = $2, contact_email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &s.UpdatedAt, query,
		s.ID,
		s.Name,
		s.ContactEmail,
	)
	if err != nil {
		return core.WrapDBError("update store", err)
	}

	return nil
}

// Delete removes the store row only. Inventory items that still point at
// it are left in place.
func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete store: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CountInventory(ctx context.Context, id string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM inventory_items WHERE store_id = $1`
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return 0, fmt.Errorf("count store inventory: %w", err)
	}
	return n, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM stores`); err != nil {
		return 0, fmt.Errorf("count stores: %w", err)
	}
	return n, nil
}
