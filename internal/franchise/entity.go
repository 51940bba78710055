// AngelaMos | 2026
// entity.go

package franchise

import (
	"time"
)

// Franchise is the tenant. Every store and every non-admin profile belongs
// to exactly one.
type Franchise struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
