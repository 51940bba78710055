// AngelaMos | 2026
// service.go

package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/shelflife/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("get product: empty code: %w", core.ErrInvalidInput)
	}
	return s.repo.GetByCode(ctx, code)
}

// Upsert applies changes to the product identified by code. An empty
// description counts as not supplied so it never blanks an existing one.
func (s *Service) Upsert(
	ctx context.Context,
	code string,
	changes Changes,
) (*Product, bool, error) {
	return Upsert(ctx, s.repo, code, changes)
}

// Upsert runs the catalog upsert against repo, which lets callers bind it
// to their own transaction.
func Upsert(
	ctx context.Context,
	repo Repository,
	code string,
	changes Changes,
) (*Product, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false, fmt.Errorf("upsert product: empty code: %w", core.ErrInvalidInput)
	}

	if changes.Description != nil && strings.TrimSpace(*changes.Description) == "" {
		changes.Description = nil
	}
	if changes.UnitCost != nil && *changes.UnitCost < 0 {
		return nil, false, fmt.Errorf("upsert product: negative unit cost: %w", core.ErrInvalidInput)
	}

	return repo.Upsert(ctx, code, changes)
}
