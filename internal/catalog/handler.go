// AngelaMos | 2026
// handler.go

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticated)
		r.Use(middleware.RequireApproved)

		r.Get("/products/{code}", h.GetByCode)
	})
}

// GetByCode is used to prefill the description when scanning a code.
func (h *Handler) GetByCode(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		core.ServiceError(w, err, "product")
		return
	}

	core.OK(w, ToProductResponse(p))
}
