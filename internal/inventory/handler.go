// AngelaMos | 2026
// handler.go

package inventory

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireApproved)

			r.Get("/stores/{storeID}/inventory", h.List)
			r.Post("/stores/{storeID}/inventory", h.Add)
			r.Patch("/inventory/{itemID}", h.Update)
			r.Delete("/inventory/{itemID}", h.Delete)
		})

		r.With(middleware.RequireAdmin).Get("/admin/inventory", h.ListAll)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		core.BadRequest(w, "filter must be one of: all, today, week, month")
		return
	}

	views, err := h.service.List(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "storeID"),
		ListQuery{
			Search: r.URL.Query().Get("search"),
			Filter: filter,
		},
	)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.OK(w, ToItemResponseList(views))
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListAll(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.ServiceError(w, err, "inventory")
		return
	}

	core.OK(w, ToItemResponseList(views))
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	v, err := h.service.Add(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "storeID"),
		req,
	)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.Created(w, ToItemResponse(*v))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	v, err := h.service.Update(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "itemID"),
		req,
	)
	if err != nil {
		core.ServiceError(w, err, "inventory item")
		return
	}

	core.OK(w, ToItemResponse(*v))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "itemID"),
	)
	if err != nil {
		core.ServiceError(w, err, "inventory item")
		return
	}

	core.NoContent(w)
}
