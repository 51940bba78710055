// AngelaMos | 2026
// entity.go

package catalog

import (
	"time"
)

// Product is a global catalog entry keyed by its code. It is shared by
// every franchise.
type Product struct {
	Code        string    `db:"code"`
	Description string    `db:"description"`
	UnitCost    float64   `db:"unit_cost"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Changes holds the fields a caller supplied. Nil means leave as is.
type Changes struct {
	Description *string
	UnitCost    *float64
}

func (c Changes) Empty() bool {
	return c.Description == nil && c.UnitCost == nil
}
