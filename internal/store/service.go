// AngelaMos | 2026
// service.go

package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/realtime"
)

type Service struct {
	repo   Repository
	events realtime.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, events realtime.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, events: events, logger: logger}
}

// List returns every store. It backs the self-service join screen, so any
// approved user may read it.
func (s *Service) List(ctx context.Context) ([]Store, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByFranchise(
	ctx context.Context,
	actor *access.Actor,
	franchiseID string,
) ([]Store, error) {
	if !access.CanViewFranchise(actor, franchiseID) {
		return nil, fmt.Errorf("list franchise stores: %w", core.ErrForbidden)
	}
	return s.repo.ListByFranchise(ctx, franchiseID)
}

func (s *Service) Get(ctx context.Context, actor *access.Actor, id string) (*Store, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanAccessStore(actor, st.ID, st.FranchiseID) {
		return nil, fmt.Errorf("get store: %w", core.ErrForbidden)
	}

	return st, nil
}

// Lookup returns a store without an actor check, for services that run
// their own.
func (s *Service) Lookup(ctx context.Context, id string) (*Store, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(
	ctx context.Context,
	actor *access.Actor,
	req CreateStoreRequest,
) (*Store, error) {
	franchiseID := req.FranchiseID
	if franchiseID == "" && actor != nil && actor.Role == access.RoleManager {
		franchiseID = actor.FranchiseID
	}

	if franchiseID == "" {
		return nil, core.ValidationError("franchise_id is required")
	}

	if !access.CanManageFranchise(actor, franchiseID) {
		return nil, fmt.Errorf("create store: %w", core.ErrForbidden)
	}

	st := &Store{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		FranchiseID:  franchiseID,
		ContactEmail: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
	}

	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}

	s.publish(ctx, st.FranchiseID, realtime.OpInsert, st.ID)
	return st, nil
}

func (s *Service) Update(
	ctx context.Context,
	actor *access.Actor,
	id string,
	req UpdateStoreRequest,
) (*Store, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanManageFranchise(actor, st.FranchiseID) {
		return nil, fmt.Errorf("update store: %w", core.ErrForbidden)
	}

	if req.Name == nil && req.ContactEmail == nil {
		return st, nil
	}

	if req.Name != nil {
		st.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactEmail != nil {
		st.ContactEmail = strings.ToLower(strings.TrimSpace(*req.ContactEmail))
	}

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}

	s.publish(ctx, st.FranchiseID, realtime.OpUpdate, st.ID)
	return st, nil
}

// Delete removes a store unconditionally. Inventory items that reference
// it are orphaned, not cascaded; the count is logged so it can be cleaned
// up by hand.
func (s *Service) Delete(ctx context.Context, actor *access.Actor, id string) error {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !access.CanManageFranchise(actor, st.FranchiseID) {
		return fmt.Errorf("delete store: %w", core.ErrForbidden)
	}

	orphaned, countErr := s.repo.CountInventory(ctx, id)
	if countErr != nil {
		s.logger.WarnContext(ctx, "could not count store inventory before delete",
			"store_id", id,
			"error", countErr,
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if orphaned > 0 {
		s.logger.WarnContext(ctx, "store deleted with inventory still attached",
			"store_id", id,
			"franchise_id", st.FranchiseID,
			"orphaned_items", orphaned,
		)
	}

	s.publish(ctx, st.FranchiseID, realtime.OpDelete, st.ID)
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) publish(ctx context.Context, franchiseID, op, id string) {
	realtime.Notify(ctx, s.events, franchiseID, realtime.Event{
		Table: realtime.TableStores,
		Op:    op,
		RowID: id,
	})
}
