// AngelaMos | 2026
// handler.go

package store

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

			r.Get("/stores", h.List)
			r.Get("/stores/{storeID}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireManager)

			r.Get("/franchises/{franchiseID}/stores", h.ListByFranchise)
			r.Post("/stores", h.Create)
			r.Patch("/stores/{storeID}", h.Update)
			r.Delete("/stores/{storeID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToStoreResponseList(stores))
}

func (h *Handler) ListByFranchise(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListByFranchise(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "franchiseID"),
	)
	if err != nil {
		core.ServiceError(w, err, "franchise")
		return
	}

	core.OK(w, ToStoreResponseList(stores))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "storeID"),
	)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.OK(w, ToStoreResponse(st))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	st, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.Created(w, ToStoreResponse(st))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	st, err := h.service.Update(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "storeID"),
		req,
	)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.OK(w, ToStoreResponse(st))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "storeID"),
	)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.NoContent(w)
}
