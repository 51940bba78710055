// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/shelflife/internal/access"
)

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=120"`
}

type ApproveRequest struct {
	Role access.Role `json:"role,omitempty" validate:"omitempty,oneof=store_user manager"`
}

type StoreRequest struct {
	StoreID string `json:"store_id" validate:"required,uuid"`
}

type ProfileResponse struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	FullName    string        `json:"full_name"`
	Role        access.Role   `json:"role"`
	Status      access.Status `json:"status"`
	FranchiseID *string       `json:"franchise_id"`
	StoreID     *string       `json:"store_id"`
	Stores      []StoreRef    `json:"stores"`
	CreatedAt   time.Time     `json:"created_at"`
}

func ToProfileResponse(p *Profile) ProfileResponse {
	stores := p.Stores
	if stores == nil {
		stores = []StoreRef{}
	}

	return ProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		FullName:    p.FullName,
		Role:        p.Role,
		Status:      p.Status,
		FranchiseID: p.FranchiseID,
		StoreID:     p.StoreID,
		Stores:      stores,
		CreatedAt:   p.CreatedAt,
	}
}

func ToProfileResponseList(profiles []Profile) []ProfileResponse {
	responses := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, ToProfileResponse(&profiles[i]))
	}
	return responses
}
