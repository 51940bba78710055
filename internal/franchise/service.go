// AngelaMos | 2026
// service.go

package franchise

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/realtime"
	"github.com/carterperez-dev/shelflife/internal/store"
	"github.com/carterperez-dev/shelflife/internal/user"
)

type StoreLister interface {
	ListByFranchise(ctx context.Context, actor *access.Actor, franchiseID string) ([]store.Store, error)
}

type PendingLister interface {
	ListPending(ctx context.Context, actor *access.Actor, franchiseID string) ([]user.Profile, error)
}

// ActorLoader rebuilds an actor from the stored profile.
type ActorLoader interface {
	LoadActor(ctx context.Context, userID string) (*access.Actor, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, franchiseID string) (*realtime.Subscription, error)
}

type ServiceConfig struct {
	Repo    Repository
	Stores  StoreLister
	Pending PendingLister
	Changes Subscriber
	Actors  ActorLoader
	Logger  *slog.Logger
}

type Service struct {
	repo    Repository
	stores  StoreLister
	pending PendingLister
	changes Subscriber
	actors  ActorLoader
	logger  *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:    cfg.Repo,
		stores:  cfg.Stores,
		pending: cfg.Pending,
		changes: cfg.Changes,
		actors:  cfg.Actors,
		logger:  logger,
	}
}

// List is public; the sign-up form needs it before anyone is signed in.
func (s *Service) List(ctx context.Context) ([]Franchise, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, actor *access.Actor, id string) (*Franchise, error) {
	if !access.CanViewFranchise(actor, id) {
		return nil, fmt.Errorf("get franchise: %w", core.ErrForbidden)
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(
	ctx context.Context,
	actor *access.Actor,
	req CreateFranchiseRequest,
) (*Franchise, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("create franchise: %w", core.ErrForbidden)
	}

	f := &Franchise{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(req.Name),
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "franchise created",
		"franchise_id", f.ID,
		"actor_id", actor.ID,
	)
	return f, nil
}

// Dashboard fetches the franchise with its stores and pending profiles.
func (s *Service) Dashboard(ctx context.Context, actor *access.Actor, id string) (*Dashboard, error) {
	f, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	stores, err := s.stores.ListByFranchise(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	pending, err := s.pending.ListPending(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Franchise:    ToFranchiseResponse(f),
		Stores:       store.ToStoreResponseList(stores),
		PendingUsers: user.ToProfileResponseList(pending),
	}, nil
}

// Watch checks access and subscribes to the franchise's change events.
func (s *Service) Watch(
	ctx context.Context,
	actor *access.Actor,
	id string,
) (*realtime.Subscription, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	return s.changes.Subscribe(ctx, id)
}

// Refresh reloads the actor from its profile and fetches the dashboard
// again with it. A role or status change since the stream opened yields
// ErrForbidden.
func (s *Service) Refresh(
	ctx context.Context,
	actor *access.Actor,
	id string,
) (*access.Actor, *Dashboard, error) {
	if s.actors != nil {
		fresh, err := s.actors.LoadActor(ctx, actor.ID)
		if err != nil {
			return actor, nil, fmt.Errorf("reload actor: %w", err)
		}
		actor = fresh
	}

	d, err := s.Dashboard(ctx, actor, id)
	return actor, d, err
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
