// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/shelflife/internal/inventory"
)

type fakeInventory struct {
	sum inventory.Summary
	err error
}

func (f fakeInventory) Summary(context.Context) (inventory.Summary, error) {
	return f.sum, f.err
}

func constant(n int) CountFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func TestGetOverview(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Franchises:   constant(2),
		Stores:       constant(7),
		PendingUsers: constant(3),
		Inventory:    fakeInventory{sum: inventory.Summary{Total: 120, Expired: 4}},
	})

	rec := httptest.NewRecorder()
	h.GetOverview(rec, httptest.NewRequest(http.MethodGet, "/admin/overview", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data OverviewResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, OverviewResponse{
		Franchises:     2,
		Stores:         7,
		PendingUsers:   3,
		InventoryItems: 120,
		ExpiredItems:   4,
	}, body.Data)
}

func TestGetOverviewCountFailure(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Franchises: constant(2),
		Inventory:  fakeInventory{err: errors.New("connection refused")},
	})

	rec := httptest.NewRecorder()
	h.GetOverview(rec, httptest.NewRequest(http.MethodGet, "/admin/overview", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetSystemStatsReportsPing(t *testing.T) {
	h := NewHandler(HandlerConfig{
		DBPing:    func(context.Context) error { return nil },
		RedisPing: func(context.Context) error { return errors.New("down") },
	})

	rec := httptest.NewRecorder()
	h.GetSystemStats(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Data.Database.Healthy)
	assert.False(t, body.Data.Redis.Healthy)
	assert.Nil(t, body.Data.Database.Stats)
}
