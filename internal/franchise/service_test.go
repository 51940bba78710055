// AngelaMos | 2026
// service_test.go

package franchise

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/middleware"
	"github.com/carterperez-dev/shelflife/internal/realtime"
	"github.com/carterperez-dev/shelflife/internal/store"
	"github.com/carterperez-dev/shelflife/internal/user"
)

type fakeRepo struct {
	franchises map[string]*Franchise
	created    []*Franchise
}

func (f *fakeRepo) Create(_ context.Context, fr *Franchise) error {
	fr.CreatedAt = time.Now()
	f.created = append(f.created, fr)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Franchise, error) {
	if fr, ok := f.franchises[id]; ok {
		return fr, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) List(context.Context) ([]Franchise, error) {
	out := []Franchise{}
	for _, fr := range f.franchises {
		out = append(out, *fr)
	}
	return out, nil
}

func (f *fakeRepo) Count(context.Context) (int, error) {
	return len(f.franchises), nil
}

type fakeStores struct {
	mu     sync.Mutex
	stores []store.Store
}

func (f *fakeStores) ListByFranchise(_ context.Context, _ *access.Actor, _ string) ([]store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Store(nil), f.stores...), nil
}

func (f *fakeStores) add(s store.Store) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores = append(f.stores, s)
}

type fakePending struct{}

func (fakePending) ListPending(_ context.Context, _ *access.Actor, _ string) ([]user.Profile, error) {
	return []user.Profile{{ID: "p1", Email: "p1@loja.com", Status: access.StatusPending}}, nil
}

type fakeActors struct {
	mu     sync.Mutex
	actors map[string]*access.Actor
}

func (f *fakeActors) LoadActor(_ context.Context, userID string) (*access.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.actors[userID]; ok {
		return a, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeActors) set(a *access.Actor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actors[a.ID] = a
}

var (
	admin    = &access.Actor{ID: "admin", Role: access.RoleAdmin, Status: access.StatusApproved}
	managerA = &access.Actor{ID: "m-a", Role: access.RoleManager, Status: access.StatusApproved, FranchiseID: "f-a"}
)

type fixture struct {
	svc    *Service
	repo   *fakeRepo
	stores *fakeStores
	actors *fakeActors
	broker *realtime.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		repo: &fakeRepo{franchises: map[string]*Franchise{
			"f-a": {ID: "f-a", Name: "Perfumaria Norte"},
			"f-b": {ID: "f-b", Name: "Perfumaria Sul"},
		}},
		stores: &fakeStores{stores: []store.Store{{ID: "s1", Name: "Loja 1", FranchiseID: "f-a"}}},
		actors: &fakeActors{actors: map[string]*access.Actor{}},
		broker: realtime.NewBroker(rdb),
	}
	f.actors.set(managerA)

	f.svc = NewService(ServiceConfig{
		Repo:    f.repo,
		Stores:  f.stores,
		Pending: fakePending{},
		Changes: f.broker,
		Actors:  f.actors,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return f
}

func TestGetIsFranchiseScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fr, err := f.svc.Get(ctx, managerA, "f-a")
	require.NoError(t, err)
	assert.Equal(t, "Perfumaria Norte", fr.Name)

	_, err = f.svc.Get(ctx, managerA, "f-b")
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.Get(ctx, admin, "f-b")
	require.NoError(t, err)
}

func TestCreateIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, managerA, CreateFranchiseRequest{Name: "Nova"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	fr, err := f.svc.Create(ctx, admin, CreateFranchiseRequest{Name: "  Nova  "})
	require.NoError(t, err)
	assert.Equal(t, "Nova", fr.Name)
	assert.NotEmpty(t, fr.ID)
	assert.Len(t, f.repo.created, 1)
}

func TestDashboardSnapshot(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Dashboard(context.Background(), managerA, "f-a")
	require.NoError(t, err)
	assert.Equal(t, "f-a", d.Franchise.ID)
	require.Len(t, d.Stores, 1)
	require.Len(t, d.PendingUsers, 1)
	assert.Equal(t, access.StatusPending, d.PendingUsers[0].Status)
}

func readEvent(t *testing.T, r *bufio.Reader) (string, Dashboard) {
	t.Helper()

	var name string
	var d Dashboard
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &d))
		case line == "" && name != "":
			return name, d
		}
	}
}

func openStream(t *testing.T, f *fixture, ctx context.Context) *bufio.Reader {
	t.Helper()
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithActor(req.Context(), managerA)))
		})
	})
	r.Get("/franchises/{franchiseID}/events", h.Events)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/franchises/f-a/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return bufio.NewReader(resp.Body)
}

func TestEventsResendsSnapshotOnChange(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body := openStream(t, f, ctx)

	name, d := readEvent(t, body)
	assert.Equal(t, "snapshot", name)
	assert.Len(t, d.Stores, 1)

	f.stores.add(store.Store{ID: "s2", Name: "Loja 2", FranchiseID: "f-a"})
	require.NoError(t, f.broker.Publish(ctx, "f-a", realtime.Event{
		Table: realtime.TableStores,
		Op:    realtime.OpInsert,
		RowID: "s2",
	}))

	_, d = readEvent(t, body)
	assert.Len(t, d.Stores, 2)
}

func TestEventsClosesWhenManagerIsDemoted(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body := openStream(t, f, ctx)

	name, _ := readEvent(t, body)
	assert.Equal(t, "snapshot", name)

	demoted := *managerA
	demoted.Role = access.RoleStoreUser
	f.actors.set(&demoted)

	require.NoError(t, f.broker.Publish(ctx, "f-a", realtime.Event{
		Table: realtime.TableUserProfiles,
		Op:    realtime.OpUpdate,
		RowID: managerA.ID,
	}))

	name, _ = readEvent(t, body)
	assert.Equal(t, "closed", name)

	_, err := body.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestEventsForOtherFranchiseForbidden(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	req := httptest.NewRequest(http.MethodGet, "/franchises/f-b/events", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("franchiseID", "f-b")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	req = req.WithContext(middleware.WithActor(ctx, managerA))

	rec := httptest.NewRecorder()
	h.Events(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
