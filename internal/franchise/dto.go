// AngelaMos | 2026
// dto.go

package franchise

import (
	"time"

	"github.com/carterperez-dev/shelflife/internal/store"
	"github.com/carterperez-dev/shelflife/internal/user"
)

type CreateFranchiseRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type FranchiseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Dashboard is the manager's view of a franchise. The event stream resends
// it whole on every change.
type Dashboard struct {
	Franchise    FranchiseResponse      `json:"franchise"`
	Stores       []store.StoreResponse  `json:"stores"`
	PendingUsers []user.ProfileResponse `json:"pending_users"`
}

func ToFranchiseResponse(f *Franchise) FranchiseResponse {
	return FranchiseResponse{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
	}
}

func ToFranchiseResponseList(franchises []Franchise) []FranchiseResponse {
	responses := make([]FranchiseResponse, 0, len(franchises))
	for i := range franchises {
		responses = append(responses, ToFranchiseResponse(&franchises[i]))
	}
	return responses
}
