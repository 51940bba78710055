// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/shelflife/internal/access"
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

		r.Get("/me", h.GetMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireApproved)

			r.Patch("/me", h.UpdateMe)
			r.Post("/me/store", h.JoinStore)
			r.Put("/me/store", h.SwitchStore)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireManager)

			r.Get("/franchises/{franchiseID}/users/pending", h.ListPending)
			r.Get("/franchises/{franchiseID}/users", h.ListFranchiseUsers)
			r.Post("/users/{userID}/approve", h.Approve)
			r.Post("/users/{userID}/reject", h.Reject)
			r.Put("/users/{userID}/store", h.AssignStore)
			r.Delete("/users/{userID}/stores/{storeID}", h.UnlinkStore)
			r.Patch("/users/{userID}", h.EditUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/users/{userID}/promote", h.Promote)
			r.Post("/users/{userID}/demote", h.Demote)
		})
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetMe(r.Context(), middleware.GetActor(r.Context()).ID)
	if err != nil {
		core.ServiceError(w, err, "profile")
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.UpdateMe(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		core.ServiceError(w, err, "profile")
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) JoinStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.JoinStore(r.Context(), middleware.GetActor(r.Context()), req.StoreID)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) SwitchStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.SwitchStore(r.Context(), middleware.GetActor(r.Context()), req.StoreID)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListPending(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "franchiseID"),
	)
	if err != nil {
		core.ServiceError(w, err, "franchise")
		return
	}

	core.OK(w, ToProfileResponseList(profiles))
}

func (h *Handler) ListFranchiseUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListFranchiseUsers(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "franchiseID"),
	)
	if err != nil {
		core.ServiceError(w, err, "franchise")
		return
	}

	core.OK(w, ToProfileResponseList(profiles))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Approve(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		core.ServiceError(w, err, "user")
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, h.service.Reject)
}

func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, h.service.Promote)
}

func (h *Handler) Demote(w http.ResponseWriter, r *http.Request) {
	h.workflow(w, r, h.service.Demote)
}

func (h *Handler) workflow(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, actor *access.Actor, targetID string) (*Profile, error),
) {
	p, err := fn(r.Context(), middleware.GetActor(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		core.ServiceError(w, err, "user")
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) AssignStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.AssignStore(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "userID"),
		req.StoreID,
	)
	if err != nil {
		core.ServiceError(w, err, "store")
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) UnlinkStore(w http.ResponseWriter, r *http.Request) {
	err := h.service.UnlinkStore(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "userID"),
		chi.URLParam(r, "storeID"),
	)
	if err != nil {
		core.ServiceError(w, err, "store link")
		return
	}

	core.NoContent(w)
}

func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.EditUser(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "userID"),
		req,
	)
	if err != nil {
		core.ServiceError(w, err, "user")
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}
