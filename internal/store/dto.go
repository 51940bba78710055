// AngelaMos | 2026
// dto.go

package store

import (
	"time"
)

type CreateStoreRequest struct {
	Name         string `json:"name"          validate:"required,min=1,max=120"`
	FranchiseID  string `json:"franchise_id"  validate:"omitempty,uuid"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email,max=255"`
}

type UpdateStoreRequest struct {
	Name         *string `json:"name,omitempty"          validate:"omitempty,min=1,max=120"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email,max=255"`
}

type StoreResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FranchiseID  string    `json:"franchise_id"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToStoreResponse(s *Store) StoreResponse {
	return StoreResponse{
		ID:           s.ID,
		Name:         s.Name,
		FranchiseID:  s.FranchiseID,
		ContactEmail: s.ContactEmail,
		CreatedAt:    s.CreatedAt,
	}
}

func ToStoreResponseList(stores []Store) []StoreResponse {
	responses := make([]StoreResponse, 0, len(stores))
	for i := range stores {
		responses = append(responses, ToStoreResponse(&stores[i]))
	}
	return responses
}
