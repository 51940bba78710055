// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/inventory"
	"github.com/carterperez-dev/shelflife/internal/middleware"
)

type CountFunc func(ctx context.Context) (int, error)

type InventorySummary interface {
	Summary(ctx context.Context) (inventory.Summary, error)
}

type HandlerConfig struct {
	DBStats      func() sql.DBStats
	RedisStats   func() *redis.PoolStats
	DBPing       func(ctx context.Context) error
	RedisPing    func(ctx context.Context) error
	Franchises   CountFunc
	Stores       CountFunc
	PendingUsers CountFunc
	Inventory    InventorySummary
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticated)
		r.Use(middleware.RequireAdmin)

		r.Get("/admin/stats", h.GetSystemStats)
		r.Get("/admin/overview", h.GetOverview)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: ping(ctx, h.cfg.DBPing),
			Stats:   h.dbStats(),
		},
		Redis: RedisStatus{
			Healthy: ping(ctx, h.cfg.RedisPing),
			Stats:   h.redisStats(),
		},
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     memStats.Alloc,
			NumGC:        memStats.NumGC,
		},
	})
}

// GetOverview counts franchises, stores, pending profiles and inventory
// across the whole system. The counts run concurrently.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	var resp OverviewResponse

	g, ctx := errgroup.WithContext(r.Context())

	count := func(dst *int, fn CountFunc, what string) {
		g.Go(func() error {
			if fn == nil {
				return nil
			}
			n, err := fn(ctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", what, err)
			}
			*dst = n
			return nil
		})
	}

	count(&resp.Franchises, h.cfg.Franchises, "franchises")
	count(&resp.Stores, h.cfg.Stores, "stores")
	count(&resp.PendingUsers, h.cfg.PendingUsers, "pending users")

	if h.cfg.Inventory != nil {
		g.Go(func() error {
			sum, err := h.cfg.Inventory.Summary(ctx)
			if err != nil {
				return fmt.Errorf("inventory summary: %w", err)
			}
			resp.InventoryItems = sum.Total
			resp.ExpiredItems = sum.Expired
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func ping(ctx context.Context, fn func(ctx context.Context) error) bool {
	return fn != nil && fn(ctx) == nil
}

func (h *Handler) dbStats() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}

	stats := h.cfg.DBStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) redisStats() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}

	stats := h.cfg.RedisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}
