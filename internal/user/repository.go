// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	UpdateFullName(ctx context.Context, id, fullName string) error
	UpdateWorkflow(ctx context.Context, p *Profile) error
	SetStore(ctx context.Context, id string, storeID *string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	ListPending(ctx context.Context, franchiseID string) ([]Profile, error)
	ListByFranchise(ctx context.Context, franchiseID string) ([]Profile, error)
	LinkedStores(ctx context.Context, id string) ([]StoreRef, error)
	FranchiseStoreLinks(ctx context.Context, franchiseID string) (map[string][]StoreRef, error)
	LinkStore(ctx context.Context, id, storeID string) error
	UnlinkStore(ctx context.Context, id, storeID string) error
	CountByStatus(ctx context.Context, status access.Status) (int, error)
}

type repository struct {
	db core.DBTX
}

// NewRepository binds profile storage to db, which may be a transaction.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const profileColumns = `
	id, email, password_hash, full_name, role, status,
	franchise_id, store_id, token_version, created_at, updated_at`

func (r *repository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO user_profiles
			(id, email, password_hash, full_name, role, status, franchise_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING token_version, created_at, updated_at`

	err := r.db.GetContext(ctx, p, query,
		p.ID,
		p.Email,
		p.PasswordHash,
		p.FullName,
		p.Role,
		p.Status,
		p.FranchiseID,
	)
	if err != nil {
		return core.WrapDBError("create profile", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1`

	var p Profile
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, core.WrapDBError("get profile", err)
	}

	return &p, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE email = $1`

	var p Profile
	if err := r.db.GetContext(ctx, &p, query, email); err != nil {
		return nil, core.WrapDBError("get profile by email", err)
	}

	return &p, nil
}

func (r *repository) UpdateFullName(ctx context.Context, id, fullName string) error {
	query := `
		UPDATE user_profiles
		SET full_name = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update profile", query, id, fullName)
}

func (r *repository) UpdateWorkflow(ctx context.Context, p *Profile) error {
	query := `
		UPDATE user_profiles
		SET role = $2, status = $3, store_id = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.Role,
		p.Status,
		p.StoreID,
	)
	if err != nil {
		return core.WrapDBError("update profile workflow", err)
	}

	return nil
}

func (r *repository) SetStore(ctx context.Context, id string, storeID *string) error {
	query := `
		UPDATE user_profiles
		SET store_id = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "set default store", query, id, storeID)
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE user_profiles
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) IncrementTokenVersion(ctx context.Context, id string) error {
	query := `
		UPDATE user_profiles
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "increment token version", query, id)
}

func (r *repository) ListPending(ctx context.Context, franchiseID string) ([]Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM user_profiles
		WHERE franchise_id = $1 AND status = 'pending'
		ORDER BY created_at`

	profiles := []Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, franchiseID); err != nil {
		return nil, fmt.Errorf("list pending profiles: %w", err)
	}

	return profiles, nil
}

func (r *repository) ListByFranchise(ctx context.Context, franchiseID string) ([]Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM user_profiles
		WHERE franchise_id = $1 AND status <> 'pending'
		ORDER BY full_name, email`

	profiles := []Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, franchiseID); err != nil {
		return nil, fmt.Errorf("list franchise profiles: %w", err)
	}

	return profiles, nil
}

func (r *repository) LinkedStores(ctx context.Context, id string) ([]StoreRef, error) {
	query := `
		SELECT s.id, s.name
		FROM user_stores us
		JOIN stores s ON s.id = us.store_id
		WHERE us.user_id = $1
		ORDER BY s.name`

	stores := []StoreRef{}
	if err := r.db.SelectContext(ctx, &stores, query, id); err != nil {
		return nil, fmt.Errorf("list linked stores: %w", err)
	}

	return stores, nil
}

type storeLink struct {
	UserID string `db:"user_id"`
	StoreRef
}

// FranchiseStoreLinks returns the linked stores of every profile in the
// franchise keyed by profile id.
func (r *repository) FranchiseStoreLinks(
	ctx context.Context,
	franchiseID string,
) (map[string][]StoreRef, error) {
	query := `
		SELECT us.user_id, s.id, s.name
		FROM user_stores us
		JOIN stores s ON s.id = us.store_id
		JOIN user_profiles u ON u.id = us.user_id
		WHERE u.franchise_id = $1
		ORDER BY s.name`

	var links []storeLink
	if err := r.db.SelectContext(ctx, &links, query, franchiseID); err != nil {
		return nil, fmt.Errorf("list franchise store links: %w", err)
	}

	byUser := make(map[string][]StoreRef, len(links))
	for _, l := range links {
		byUser[l.UserID] = append(byUser[l.UserID], l.StoreRef)
	}

	return byUser, nil
}

// LinkStore is idempotent: linking an already linked store is a no-op.
func (r *repository) LinkStore(ctx context.Context, id, storeID string) error {
	query := `
		INSERT INTO user_stores (user_id, store_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, store_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, id, storeID); err != nil {
		return core.WrapDBError("link store", err)
	}

	return nil
}

func (r *repository) UnlinkStore(ctx context.Context, id, storeID string) error {
	query := `DELETE FROM user_stores WHERE user_id = $1 AND store_id = $2`
	return r.execOne(ctx, "unlink store", query, id, storeID)
}

func (r *repository) CountByStatus(ctx context.Context, status access.Status) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM user_profiles WHERE status = $1`
	if err := r.db.GetContext(ctx, &n, query, status); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func (r *repository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.WrapDBError(op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
