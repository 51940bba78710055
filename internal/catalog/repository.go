// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/shelflife/internal/core"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Product, error)
	Upsert(ctx context.Context, code string, changes Changes) (*Product, bool, error)
}

type repository struct {
	db core.DBTX
}

// NewRepository binds the catalog to db, which may be a transaction.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Product, error) {
	query := `
		SELECT code, description, unit_cost, created_at, updated_at
		FROM products
		WHERE code = $1`

	var p Product
	if err := r.db.GetContext(ctx, &p, query, code); err != nil {
		return nil, core.WrapDBError("get product", err)
	}

	return &p, nil
}

// Upsert creates the product with the supplied fields, missing ones
// defaulting to empty, or updates only the supplied fields of an existing
// one. The bool reports whether a row was created.
func (r *repository) Upsert(
	ctx context.Context,
	code string,
	changes Changes,
) (*Product, bool, error) {
	insert := `
		INSERT INTO products (code, description, unit_cost)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
		RETURNING code, description, unit_cost, created_at, updated_at`

	description := ""
	if changes.Description != nil {
		description = *changes.Description
	}
	var unitCost float64
	if changes.UnitCost != nil {
		unitCost = *changes.UnitCost
	}

	var p Product
	err := r.db.GetContext(ctx, &p, insert, code, description, unitCost)
	if err == nil {
		return &p, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert product: %w", err)
	}

	if changes.Empty() {
		existing, getErr := r.GetByCode(ctx, code)
		return existing, false, getErr
	}

	sets := make([]string, 0, 2)
	args := []any{code}
	if changes.Description != nil {
		args = append(args, *changes.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if changes.UnitCost != nil {
		args = append(args, *changes.UnitCost)
		sets = append(sets, fmt.Sprintf("unit_cost = $%d", len(args)))
	}

	update := fmt.Sprintf(`
		UPDATE products
		SET %s, updated_at = NOW()
		WHERE code = $1
		RETURNING code, description, unit_cost, created_at, updated_at`,
		strings.Join(sets, ", "))

	if err := r.db.GetContext(ctx, &p, update, args...); err != nil {
		return nil, false, core.WrapDBError("update product", err)
	}

	return &p, false, nil
}
