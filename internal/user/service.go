// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/auth"
	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/notify"
	"github.com/carterperez-dev/shelflife/internal/realtime"
	"github.com/carterperez-dev/shelflife/internal/store"
)

var transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "user_workflow_transitions_total",
	Help: "Profile workflow transitions by action.",
}, []string{"action"})

type StoreLookup interface {
	Lookup(ctx context.Context, id string) (*store.Store, error)
}

type ServiceConfig struct {
	DB        *sqlx.DB
	Stores    StoreLookup
	Events    realtime.Publisher
	Mailer    notify.Mailer
	Templates notify.Templates
	Logger    *slog.Logger
}

type Service struct {
	db        *sqlx.DB
	repo      Repository
	stores    StoreLookup
	events    realtime.Publisher
	mailer    notify.Mailer
	templates notify.Templates
	logger    *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		db:        cfg.DB,
		repo:      NewRepository(cfg.DB),
		stores:    cfg.Stores,
		events:    cfg.Events,
		mailer:    cfg.Mailer,
		templates: cfg.Templates,
		logger:    logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(p), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	p, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(p), nil
}

// Create registers a pending store user inside franchiseID. An unknown
// franchise surfaces as core.ErrInvalidInput from the foreign key.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, fullName, franchiseID string,
) (*auth.UserInfo, error) {
	p := &Profile{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(fullName),
		Role:         access.RoleStoreUser,
		Status:       access.StatusPending,
		FranchiseID:  ptr(franchiseID),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, p, realtime.OpInsert)
	return toUserInfo(p), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID string) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// LoadActor rebuilds the request session from the stored profile.
func (s *Service) LoadActor(ctx context.Context, userID string) (*access.Actor, error) {
	p, err := s.withStores(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.Actor(), nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (*Profile, error) {
	return s.withStores(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	actor *access.Actor,
	req UpdateProfileRequest,
) (*Profile, error) {
	return s.EditUser(ctx, actor, actor.ID, req)
}

func (s *Service) ListPending(
	ctx context.Context,
	actor *access.Actor,
	franchiseID string,
) ([]Profile, error) {
	if !access.CanViewFranchise(actor, franchiseID) {
		return nil, fmt.Errorf("list pending users: %w", core.ErrForbidden)
	}

	return s.repo.ListPending(ctx, franchiseID)
}

// ListFranchiseUsers returns the franchise's non-pending profiles with
// their linked stores attached.
func (s *Service) ListFranchiseUsers(
	ctx context.Context,
	actor *access.Actor,
	franchiseID string,
) ([]Profile, error) {
	if !access.CanViewFranchise(actor, franchiseID) {
		return nil, fmt.Errorf("list franchise users: %w", core.ErrForbidden)
	}

	profiles, err := s.repo.ListByFranchise(ctx, franchiseID)
	if err != nil {
		return nil, err
	}

	links, err := s.repo.FranchiseStoreLinks(ctx, franchiseID)
	if err != nil {
		return nil, err
	}

	for i := range profiles {
		profiles[i].Stores = links[profiles[i].ID]
	}

	return profiles, nil
}

// Approve moves a pending profile to approved as a store user, or as a
// manager when an admin asks for it. Managers hold no default store.
func (s *Service) Approve(
	ctx context.Context,
	actor *access.Actor,
	targetID string,
	role access.Role,
) (*Profile, error) {
	if role == "" {
		role = access.RoleStoreUser
	}

	switch role {
	case access.RoleStoreUser:
	case access.RoleManager:
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("approve as manager: %w", core.ErrForbidden)
		}
	default:
		return nil, core.ValidationError("role must be store_user or manager")
	}

	p, err := s.transition(ctx, actor, targetID, access.ActionApprove, func(p *Profile) {
		p.Status = access.StatusApproved
		p.Role = role
		if role == access.RoleManager {
			p.StoreID = nil
		}
	})
	if err != nil {
		return nil, err
	}

	s.sendApproval(ctx, p)
	return p, nil
}

// Reject removes access. The profile row is kept.
func (s *Service) Reject(ctx context.Context, actor *access.Actor, targetID string) (*Profile, error) {
	return s.transition(ctx, actor, targetID, access.ActionReject, func(p *Profile) {
		p.Status = access.StatusRejected
	})
}

func (s *Service) Promote(ctx context.Context, actor *access.Actor, targetID string) (*Profile, error) {
	return s.transition(ctx, actor, targetID, access.ActionPromote, func(p *Profile) {
		p.Role = access.RoleManager
		p.StoreID = nil
	})
}

// Demote leaves store_id as is; a demoted manager gets a store only through
// an explicit assignment.
func (s *Service) Demote(ctx context.Context, actor *access.Actor, targetID string) (*Profile, error) {
	return s.transition(ctx, actor, targetID, access.ActionDemote, func(p *Profile) {
		p.Role = access.RoleStoreUser
	})
}

func (s *Service) transition(
	ctx context.Context,
	actor *access.Actor,
	targetID string,
	action access.Action,
	apply func(p *Profile),
) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !access.Can(actor, action, p.Target()) {
		return nil, fmt.Errorf("%s: %w", action, core.ErrForbidden)
	}

	apply(p)

	// Concurrent transitions on one profile are last-write-wins; the update
	// does not re-check the status read above.
	if err := s.repo.UpdateWorkflow(ctx, p); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "profile workflow transition",
		"action", string(action),
		"actor_id", actor.ID,
		"target_id", p.ID,
		"role", string(p.Role),
		"status", string(p.Status),
	)

	transitions.WithLabelValues(string(action)).Inc()
	s.publish(ctx, p, realtime.OpUpdate)
	return p, nil
}

// AssignStore sets the target's default store and links it. The store must
// belong to the target's franchise.
func (s *Service) AssignStore(
	ctx context.Context,
	actor *access.Actor,
	targetID, storeID string,
) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !access.Can(actor, access.ActionAssignStore, p.Target()) {
		return nil, fmt.Errorf("assign store: %w", core.ErrForbidden)
	}

	st, err := s.stores.Lookup(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if st.FranchiseID != deref(p.FranchiseID) {
		return nil, core.ValidationError("store belongs to another franchise")
	}

	if err := s.setStoreAndLink(ctx, p.ID, st.ID); err != nil {
		return nil, err
	}

	transitions.WithLabelValues(string(access.ActionAssignStore)).Inc()
	s.publish(ctx, p, realtime.OpUpdate)
	return s.withStores(ctx, p.ID)
}

// UnlinkStore drops a link record. When the unlinked store is the target's
// default store the default is cleared too.
func (s *Service) UnlinkStore(
	ctx context.Context,
	actor *access.Actor,
	targetID, storeID string,
) error {
	p, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if !access.Can(actor, access.ActionUnlinkStore, p.Target()) {
		return fmt.Errorf("unlink store: %w", core.ErrForbidden)
	}

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)
		if err := repo.UnlinkStore(ctx, p.ID, storeID); err != nil {
			return err
		}
		if deref(p.StoreID) == storeID {
			return repo.SetStore(ctx, p.ID, nil)
		}
		return nil
	})
	if err != nil {
		return err
	}

	transitions.WithLabelValues(string(access.ActionUnlinkStore)).Inc()
	s.publish(ctx, p, realtime.OpUpdate)
	return nil
}

func (s *Service) EditUser(
	ctx context.Context,
	actor *access.Actor,
	targetID string,
	req UpdateProfileRequest,
) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !access.Can(actor, access.ActionEditProfile, p.Target()) {
		return nil, fmt.Errorf("edit profile: %w", core.ErrForbidden)
	}

	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, core.ValidationError("full_name is required")
	}

	if err := s.repo.UpdateFullName(ctx, p.ID, name); err != nil {
		return nil, err
	}

	s.publish(ctx, p, realtime.OpUpdate)
	return s.withStores(ctx, p.ID)
}

// JoinStore lets a store user without any store pick one. Linking a store
// that is already linked counts as success.
func (s *Service) JoinStore(
	ctx context.Context,
	actor *access.Actor,
	storeID string,
) (*Profile, error) {
	if !access.CanJoinStore(actor) {
		return nil, fmt.Errorf("join store: %w", core.ErrForbidden)
	}

	st, err := s.stores.Lookup(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if err := s.setStoreAndLink(ctx, actor.ID, st.ID); err != nil {
		return nil, err
	}

	p, err := s.withStores(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	transitions.WithLabelValues("join_store").Inc()
	s.publish(ctx, p, realtime.OpUpdate)
	return p, nil
}

// SwitchStore changes the default store among the actor's linked stores.
func (s *Service) SwitchStore(
	ctx context.Context,
	actor *access.Actor,
	storeID string,
) (*Profile, error) {
	if !actor.IsApproved() || !actor.LinkedTo(storeID) {
		return nil, fmt.Errorf("switch store: %w", core.ErrForbidden)
	}

	if err := s.repo.SetStore(ctx, actor.ID, &storeID); err != nil {
		return nil, err
	}

	return s.withStores(ctx, actor.ID)
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, access.StatusPending)
}

func (s *Service) setStoreAndLink(ctx context.Context, userID, storeID string) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)
		if err := repo.SetStore(ctx, userID, &storeID); err != nil {
			return err
		}
		return repo.LinkStore(ctx, userID, storeID)
	})
}

func (s *Service) withStores(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stores, err := s.repo.LinkedStores(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Stores = stores

	return p, nil
}

func (s *Service) sendApproval(ctx context.Context, p *Profile) {
	if s.mailer == nil {
		return
	}

	if err := s.mailer.Send(ctx, s.templates.Approved(p.Email, p.FullName)); err != nil {
		s.logger.WarnContext(ctx, "approval e-mail not sent",
			"user_id", p.ID,
			"error", err,
		)
	}
}

func (s *Service) publish(ctx context.Context, p *Profile, op string) {
	realtime.Notify(ctx, s.events, deref(p.FranchiseID), realtime.Event{
		Table: realtime.TableUserProfiles,
		Op:    op,
		RowID: p.ID,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(p *Profile) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		PasswordHash: p.PasswordHash,
		Role:         string(p.Role),
		Status:       string(p.Status),
		FranchiseID:  deref(p.FranchiseID),
		TokenVersion: p.TokenVersion,
		CreatedAt:    p.CreatedAt,
	}
}
