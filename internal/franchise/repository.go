// AngelaMos | 2026
// repository.go

package franchise

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/shelflife/internal/core"
)

type Repository interface {
	Create(ctx context.Context, f *Franchise) error
	GetByID(ctx context.Context, id string) (*Franchise, error)
	List(ctx context.Context) ([]Franchise, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, f *Franchise) error {
	query := `
		INSERT INTO franchises (id, name)
		VALUES ($1, $2)
		RETURNING created_at`

	if err := r.db.GetContext(ctx, &f.CreatedAt, query, f.ID, f.Name); err != nil {
		return core.WrapDBError("create franchise", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Franchise, error) {
	query := `SELECT id, name, created_at FROM franchises WHERE id = $1`

	var f Franchise
	if err := r.db.GetContext(ctx, &f, query, id); err != nil {
		return nil, core.WrapDBError("get franchise", err)
	}

	return &f, nil
}

func (r *repository) List(ctx context.Context) ([]Franchise, error) {
	query := `SELECT id, name, created_at FROM franchises ORDER BY name`

	franchises := []Franchise{}
	if err := r.db.SelectContext(ctx, &franchises, query); err != nil {
		return nil, fmt.Errorf("list franchises: %w", err)
	}

	return franchises, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM franchises`); err != nil {
		return 0, fmt.Errorf("count franchises: %w", err)
	}
	return n, nil
}
