// AngelaMos | 2026
// handler.go

package franchise

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/middleware"
)

const defaultKeepAlive = 15 * time.Second

type Handler struct {
	service   *Service
	validator *validator.Validate
	keepAlive time.Duration
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		keepAlive: defaultKeepAlive,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.Get("/franchises", h.List)

	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireManager)

			r.Get("/franchises/{franchiseID}", h.Get)
			r.Get("/franchises/{franchiseID}/dashboard", h.Dashboard)
			r.Get("/franchises/{franchiseID}/events", h.Events)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/franchises", h.Create)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	franchises, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToFranchiseResponseList(franchises))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Get(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "franchiseID"),
	)
	if err != nil {
		core.ServiceError(w, err, "franchise")
		return
	}

	core.OK(w, ToFranchiseResponse(f))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFranchiseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	f, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		core.ServiceError(w, err, "franchise")
		return
	}

	core.Created(w, ToFranchiseResponse(f))
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "franchiseID"),
	)
	if err != nil {
		core.ServiceError(w, err, "franchise")
		return
	}

	core.OK(w, d)
}

// Events streams the dashboard as Server-Sent Events. The snapshot is sent
// on connect and fetched again after every change event for the
// franchise. Snapshots replace each other whole; nothing is merged. The
// actor is reloaded before every refetch and the stream ends with a
// "closed" event once it may no longer view the franchise.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	franchiseID := chi.URLParam(r, "franchiseID")

	sub, err := h.service.Watch(ctx, actor, franchiseID)
	if err != nil {
		core.ServiceError(w, err, "franchise")
		return
	}
	defer sub.Close()

	snapshot, err := h.service.Dashboard(ctx, actor, franchiseID)
	if err != nil {
		core.ServiceError(w, err, "franchise")
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.DebugContext(ctx, "event stream write deadline not cleared", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, "snapshot", snapshot); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	drain := core.Drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-drain:
			return

		case ev, ok := <-sub.Events():
			if !ok {
				return
			}

			var snapshot *Dashboard
			actor, snapshot, err = h.service.Refresh(ctx, actor, franchiseID)
			if errors.Is(err, core.ErrForbidden) || errors.Is(err, core.ErrNotFound) {
				slog.InfoContext(ctx, "event stream closed, access revoked",
					"franchise_id", franchiseID,
					"user_id", actor.ID,
				)
				//nolint:errcheck // the stream ends either way
				_ = writeEvent(w, rc, "closed", streamClosed{Reason: "access_revoked"})
				return
			}
			if err != nil {
				slog.WarnContext(ctx, "dashboard refetch failed",
					"franchise_id", franchiseID,
					"table", ev.Table,
					"error", err,
				)
				continue
			}

			if err := writeEvent(w, rc, "snapshot", snapshot); err != nil {
				return
			}

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

type streamClosed struct {
	Reason string `json:"reason"`
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}

	return rc.Flush()
}
