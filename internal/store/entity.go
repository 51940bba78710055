// AngelaMos | 2026
// entity.go

package store

import (
	"time"
)

// Store is one retail location. ContactEmail names the responsible user by
// e-mail rather than by profile id.
type Store struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	FranchiseID  string    `db:"franchise_id"`
	ContactEmail string    `db:"contact_email"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
