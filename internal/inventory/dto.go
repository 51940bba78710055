// AngelaMos | 2026
// dto.go

package inventory

import (
	"time"
)

type AddItemRequest struct {
	ProductCode        string   `json:"product_code"                  validate:"required,min=1,max=64"`
	ProductDescription *string  `json:"product_description,omitempty" validate:"omitempty,max=255"`
	UnitCost           *float64 `json:"unit_cost,omitempty"           validate:"omitempty,gte=0"`
	Quantity           int      `json:"quantity"                      validate:"gte=0"`
	ExpiryDate         string   `json:"expiry_date"                   validate:"required,datetime=2006-01-02"`
	TotalCost          *float64 `json:"total_cost,omitempty"          validate:"omitempty,gte=0"`
	FranchiseID        string   `json:"franchise_id,omitempty"        validate:"omitempty,uuid"`
}

type UpdateItemRequest struct {
	Quantity   int    `json:"quantity"    validate:"gte=0"`
	ExpiryDate string `json:"expiry_date" validate:"required,datetime=2006-01-02"`
}

type ListQuery struct {
	Search string
	Filter Filter
}

type ItemResponse struct {
	ID                 string    `json:"id"`
	StoreID            string    `json:"store_id"`
	StoreName          string    `json:"store_name,omitempty"`
	FranchiseID        string    `json:"franchise_id"`
	ProductCode        string    `json:"product_code"`
	ProductDescription string    `json:"product_description"`
	Quantity           int       `json:"quantity"`
	ExpiryDate         string    `json:"expiry_date"`
	TotalCost          float64   `json:"total_cost"`
	Status             Status    `json:"status"`
	DaysUntilExpiry    int       `json:"days_until_expiry"`
	CreatedAt          time.Time `json:"created_at"`
}

// View is an item classified against a given day.
type View struct {
	Item        Item
	Description string
	Days        int
	Status      Status
}

func ToItemResponse(v View) ItemResponse {
	return ItemResponse{
		ID:                 v.Item.ID,
		StoreID:            v.Item.StoreID,
		StoreName:          v.Item.StoreName.String,
		FranchiseID:        v.Item.FranchiseID,
		ProductCode:        v.Item.ProductCode,
		ProductDescription: v.Description,
		Quantity:           v.Item.Quantity,
		ExpiryDate:         v.Item.ExpiryDate.Format(DateLayout),
		TotalCost:          v.Item.TotalCost,
		Status:             v.Status,
		DaysUntilExpiry:    v.Days,
		CreatedAt:          v.Item.CreatedAt,
	}
}

func ToItemResponseList(views []View) []ItemResponse {
	responses := make([]ItemResponse, 0, len(views))
	for _, v := range views {
		responses = append(responses, ToItemResponse(v))
	}
	return responses
}
