// AngelaMos | 2026
// entity.go

package inventory

import (
	"database/sql"
	"time"
)

// Item is one batch of a product in a store. ProductDescription and
// StoreName are filled by joins and are never written.
type Item struct {
	ID          string    `db:"id"`
	StoreID     string    `db:"store_id"`
	FranchiseID string    `db:"franchise_id"`
	ProductCode string    `db:"product_code"`
	Quantity    int       `db:"quantity"`
	ExpiryDate  time.Time `db:"expiry_date"`
	TotalCost   float64   `db:"total_cost"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	ProductDescription sql.NullString `db:"product_description"`
	StoreName          sql.NullString `db:"store_name"`
}
