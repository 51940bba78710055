// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/shelflife/internal/access"
)

// Profile is a user account together with its workflow state. Profiles are
// never deleted; removing access sets the status to rejected.
type Profile struct {
	ID           string        `db:"id"`
	Email        string        `db:"email"`
	PasswordHash string        `db:"password_hash"`
	FullName     string        `db:"full_name"`
	Role         access.Role   `db:"role"`
	Status       access.Status `db:"status"`
	FranchiseID  *string       `db:"franchise_id"`
	StoreID      *string       `db:"store_id"`
	TokenVersion int           `db:"token_version"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`

	Stores []StoreRef `db:"-"`
}

// StoreRef is a store linked to a profile.
type StoreRef struct {
	ID   string `db:"id"   json:"id"`
	Name string `db:"name" json:"name"`
}

func (p *Profile) Target() access.Target {
	return access.Target{
		ID:          p.ID,
		Role:        p.Role,
		Status:      p.Status,
		FranchiseID: deref(p.FranchiseID),
	}
}

func (p *Profile) Actor() *access.Actor {
	ids := make([]string, 0, len(p.Stores))
	for _, s := range p.Stores {
		ids = append(ids, s.ID)
	}

	return &access.Actor{
		ID:           p.ID,
		Email:        p.Email,
		Role:         p.Role,
		Status:       p.Status,
		FranchiseID:  deref(p.FranchiseID),
		StoreID:      deref(p.StoreID),
		StoreIDs:     ids,
		TokenVersion: p.TokenVersion,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
