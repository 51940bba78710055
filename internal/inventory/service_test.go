// AngelaMos | 2026
// service_test.go

package inventory

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/config"
	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/realtime"
	"github.com/carterperez-dev/shelflife/internal/store"
)

type fakeStores map[string]*store.Store

func (f fakeStores) Lookup(_ context.Context, id string) (*store.Store, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, core.ErrNotFound
}

type fakePublisher struct {
	events []realtime.Event
}

func (f *fakePublisher) Publish(_ context.Context, _ string, ev realtime.Event) error {
	f.events = append(f.events, ev)
	return nil
}

var (
	productCols = []string{"code", "description", "unit_cost", "created_at", "updated_at"}
	itemCols    = []string{
		"id", "store_id", "franchise_id", "product_code", "quantity",
		"expiry_date", "total_cost", "created_at", "updated_at", "product_description",
	}

	clerk = &access.Actor{
		ID:       "u1",
		Role:     access.RoleStoreUser,
		Status:   access.StatusApproved,
		StoreID:  "s1",
		StoreIDs: []string{"s1"},
	}
	outsider = &access.Actor{
		ID:       "u2",
		Role:     access.RoleStoreUser,
		Status:   access.StatusApproved,
		StoreIDs: []string{"s2"},
	}
	adminActor = &access.Actor{ID: "a1", Role: access.RoleAdmin, Status: access.StatusApproved}
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *fakePublisher) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pub := &fakePublisher{}
	svc := NewService(ServiceConfig{
		DB: sqlx.NewDb(db, "sqlmock"),
		Stores: fakeStores{
			"s1": {ID: "s1", Name: "Loja Centro", FranchiseID: "f1"},
			"s2": {ID: "s2", Name: "Loja Sul", FranchiseID: "f1"},
		},
		Events: pub,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Inventory: config.InventoryConfig{
			Timezone:           "UTC",
			MissingDescription: "Produto não encontrado",
		},
	})
	svc.now = func() time.Time {
		return time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	}

	return svc, mock, pub
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestAddCreatesCatalogEntryAndItemInOneTransaction(t *testing.T) {
	svc, mock, pub := newTestService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO products").
		WithArgs("7891000", "Iogurte natural", 2.5).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("7891000", "Iogurte natural", 2.5, now, now))
	mock.ExpectQuery("INSERT INTO inventory_items").
		WithArgs(sqlmock.AnyArg(), "s1", "f1", "7891000", 4, sqlmock.AnyArg(), 10.0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	v, err := svc.Add(context.Background(), clerk, "s1", AddItemRequest{
		ProductCode:        "7891000",
		ProductDescription: strPtr("Iogurte natural"),
		UnitCost:           floatPtr(2.5),
		Quantity:           4,
		ExpiryDate:         "2024-06-17",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "Iogurte natural", v.Description)
	assert.Equal(t, "f1", v.Item.FranchiseID)
	assert.InDelta(t, 10.0, v.Item.TotalCost, 0.0001)
	assert.Equal(t, 7, v.Days)
	assert.Equal(t, StatusWeek, v.Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, realtime.TableInventory, pub.events[0].Table)
}

func TestAddExistingProductKeepsDescriptionAndUsesCatalogCost(t *testing.T) {
	svc, mock, _ := newTestService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO products").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM products").
		WithArgs("7891000").
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("7891000", "Iogurte natural", 3.0, now, now))
	mock.ExpectQuery("INSERT INTO inventory_items").
		WithArgs(sqlmock.AnyArg(), "s1", "f1", "7891000", 2, sqlmock.AnyArg(), 6.0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	v, err := svc.Add(context.Background(), clerk, "s1", AddItemRequest{
		ProductCode: "7891000",
		Quantity:    2,
		ExpiryDate:  "2024-06-18",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "Iogurte natural", v.Description)
	assert.Equal(t, StatusMonth, v.Status)
}

func TestAddUsesSuppliedTotalCost(t *testing.T) {
	svc, mock, _ := newTestService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO products").
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("1", "", 0.0, now, now))
	mock.ExpectQuery("INSERT INTO inventory_items").
		WithArgs(sqlmock.AnyArg(), "s1", "f1", "1", 3, sqlmock.AnyArg(), 99.9).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	_, err := svc.Add(context.Background(), adminActor, "s1", AddItemRequest{
		ProductCode: "1",
		Quantity:    3,
		ExpiryDate:  "2024-06-10",
		TotalCost:   floatPtr(99.9),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRollsBackWhenItemInsertFails(t *testing.T) {
	svc, mock, pub := newTestService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO products").
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("1", "Novo", 1.0, now, now))
	mock.ExpectQuery("INSERT INTO inventory_items").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Add(context.Background(), clerk, "s1", AddItemRequest{
		ProductCode:        "1",
		ProductDescription: strPtr("Novo"),
		Quantity:           1,
		ExpiryDate:         "2024-06-20",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, pub.events)
}

func TestAddRejectsUnlinkedUserAndFranchiseMismatch(t *testing.T) {
	svc, mock, _ := newTestService(t)

	_, err := svc.Add(context.Background(), outsider, "s1", AddItemRequest{
		ProductCode: "1",
		ExpiryDate:  "2024-06-20",
	})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Add(context.Background(), adminActor, "s1", AddItemRequest{
		ProductCode: "1",
		ExpiryDate:  "2024-06-20",
		FranchiseID: "f9",
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	require.NoError(t, mock.ExpectationsWereMet())
}

func inventoryRows() *sqlmock.Rows {
	now := time.Now()
	day := func(s string) time.Time {
		d, _ := time.Parse(DateLayout, s)
		return d
	}
	return sqlmock.NewRows(itemCols).
		AddRow("i1", "s1", "f1", "111", 1, day("2024-06-09"), 1.0, now, now, "Leite integral").
		AddRow("i2", "s1", "f1", "222", 1, day("2024-06-10"), 1.0, now, now, "Pão de forma").
		AddRow("i3", "s1", "f1", "333", 1, day("2024-06-17"), 1.0, now, now, nil).
		AddRow("i4", "s1", "f1", "444", 1, day("2024-06-18"), 1.0, now, now, "Leite desnatado").
		AddRow("i5", "s1", "f1", "555", 1, day("2024-09-01"), 1.0, now, now, "Queijo")
}

func ids(views []View) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Item.ID)
	}
	return out
}

func TestListFiltersAndSearches(t *testing.T) {
	tests := []struct {
		name string
		q    ListQuery
		want []string
	}{
		{"all", ListQuery{Filter: FilterAll}, []string{"i1", "i2", "i3", "i4", "i5"}},
		{"today", ListQuery{Filter: FilterToday}, []string{"i2"}},
		{"week", ListQuery{Filter: FilterWeek}, []string{"i2", "i3"}},
		{"month", ListQuery{Filter: FilterMonth}, []string{"i2", "i3", "i4"}},
		{"description search is case insensitive", ListQuery{Search: "LEITE", Filter: FilterAll}, []string{"i1", "i4"}},
		{"code search", ListQuery{Search: "33", Filter: FilterAll}, []string{"i3"}},
		{"search and filter combine", ListQuery{Search: "leite", Filter: FilterMonth}, []string{"i4"}},
		{"missing description is searchable", ListQuery{Search: "não encontrado", Filter: FilterAll}, []string{"i3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newTestService(t)
			mock.ExpectQuery("FROM inventory_items i").
				WithArgs("s1").
				WillReturnRows(inventoryRows())

			views, err := svc.List(context.Background(), clerk, "s1", tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(views))
		})
	}
}

func TestListClassifiesItems(t *testing.T) {
	svc, mock, _ := newTestService(t)
	mock.ExpectQuery("FROM inventory_items i").
		WithArgs("s1").
		WillReturnRows(inventoryRows())

	views, err := svc.List(context.Background(), clerk, "s1", ListQuery{Filter: FilterAll})
	require.NoError(t, err)
	require.Len(t, views, 5)

	assert.Equal(t, StatusExpired, views[0].Status)
	assert.Equal(t, StatusToday, views[1].Status)
	assert.Equal(t, StatusWeek, views[2].Status)
	assert.Equal(t, "Produto não encontrado", views[2].Description)
	assert.Equal(t, StatusMonth, views[3].Status)
	assert.Equal(t, StatusNormal, views[4].Status)
}

func TestListFetchFailureYieldsEmptyList(t *testing.T) {
	svc, mock, _ := newTestService(t)
	mock.ExpectQuery("FROM inventory_items i").
		WillReturnError(errors.New("timeout"))

	views, err := svc.List(context.Background(), clerk, "s1", ListQuery{Filter: FilterAll})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListAllRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ListAll(context.Background(), clerk)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestDeleteItemOutsideStoreForbidden(t *testing.T) {
	svc, mock, pub := newTestService(t)
	now := time.Now()

	mock.ExpectQuery("FROM inventory_items i").
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("i1", "s1", "f1", "111", 1, now, 1.0, now, now, "Leite"))

	err := svc.Delete(context.Background(), outsider, "i1")
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Empty(t, pub.events)
}

func TestUpdateItem(t *testing.T) {
	svc, mock, pub := newTestService(t)
	now := time.Now()

	mock.ExpectQuery("FROM inventory_items i").
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("i1", "s1", "f1", "111", 1, now, 1.0, now, now, "Leite"))
	mock.ExpectQuery("UPDATE inventory_items").
		WithArgs("i1", 8, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	v, err := svc.Update(context.Background(), clerk, "i1", UpdateItemRequest{
		Quantity:   8,
		ExpiryDate: "2024-06-11",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, v.Item.Quantity)
	assert.Equal(t, 1, v.Days)
	require.Len(t, pub.events, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
