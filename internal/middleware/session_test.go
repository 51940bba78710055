// AngelaMos | 2026
// session_test.go

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/core"
)

type stubLoader struct {
	actor *access.Actor
	err   error
}

func (s stubLoader) LoadActor(_ context.Context, _ string) (*access.Actor, error) {
	return s.actor, s.err
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	if body.Error == nil {
		return ""
	}
	return body.Error.Code
}

func serveWithSession(
	claims *AccessTokenClaims,
	loader ActorLoader,
	level access.Level,
) *httptest.ResponseRecorder {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := Session(loader)(Require(level)(final))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		req = req.WithContext(withClaims(req.Context(), claims))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionAndRequire(t *testing.T) {
	claims := &AccessTokenClaims{UserID: "u1", TokenVersion: 0}

	approvedUser := &access.Actor{
		ID:     "u1",
		Role:   access.RoleStoreUser,
		Status: access.StatusApproved,
	}
	pendingUser := &access.Actor{
		ID:     "u1",
		Role:   access.RoleStoreUser,
		Status: access.StatusPending,
	}
	manager := &access.Actor{
		ID:          "u1",
		Role:        access.RoleManager,
		Status:      access.StatusApproved,
		FranchiseID: "f1",
	}

	tests := []struct {
		name     string
		claims   *AccessTokenClaims
		loader   stubLoader
		level    access.Level
		wantCode int
		wantErr  string
	}{
		{"no claims", nil, stubLoader{actor: approvedUser}, access.LevelApproved, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"profile missing", claims, stubLoader{err: fmt.Errorf("get: %w", core.ErrNotFound)}, access.LevelApproved, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"loader failure", claims, stubLoader{err: fmt.Errorf("boom")}, access.LevelApproved, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"approved store user", claims, stubLoader{actor: approvedUser}, access.LevelApproved, http.StatusOK, ""},
		{"pending may reach authenticated routes", claims, stubLoader{actor: pendingUser}, access.LevelAuthenticated, http.StatusOK, ""},
		{"pending gets waiting response", claims, stubLoader{actor: pendingUser}, access.LevelApproved, http.StatusForbidden, "PENDING_APPROVAL"},
		{"pending on admin route", claims, stubLoader{actor: pendingUser}, access.LevelAdmin, http.StatusForbidden, "PENDING_APPROVAL"},
		{"store user on manager route", claims, stubLoader{actor: approvedUser}, access.LevelManager, http.StatusForbidden, "FORBIDDEN"},
		{"manager on manager route", claims, stubLoader{actor: manager}, access.LevelManager, http.StatusOK, ""},
		{"manager on admin route", claims, stubLoader{actor: manager}, access.LevelAdmin, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWithSession(tt.claims, tt.loader, tt.level)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeCode(t, rec))
			}
		})
	}
}

func TestSessionRejectsStaleTokenVersion(t *testing.T) {
	actor := &access.Actor{
		ID:           "u1",
		Role:         access.RoleAdmin,
		Status:       access.StatusApproved,
		TokenVersion: 3,
	}
	claims := &AccessTokenClaims{UserID: "u1", TokenVersion: 2}

	rec := serveWithSession(claims, stubLoader{actor: actor}, access.LevelApproved)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_REVOKED", decodeCode(t, rec))
}

func TestGetActor(t *testing.T) {
	assert.Nil(t, GetActor(context.Background()))

	actor := &access.Actor{ID: "u1"}
	ctx := WithActor(context.Background(), actor)
	assert.Same(t, actor, GetActor(ctx))
}
