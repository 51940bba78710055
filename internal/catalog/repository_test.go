// AngelaMos | 2026
// repository_test.go

package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/shelflife/internal/core"
)

var productCols = []string{"code", "description", "unit_cost", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestUpsertCreatesMissingProduct(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("789", "Leite integral", 4.5).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("789", "Leite integral", 4.5, now, now))

	p, created, err := Upsert(context.Background(), repo, "789", Changes{
		Description: strPtr("Leite integral"),
		UnitCost:    floatPtr(4.5),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Leite integral", p.Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCreatesWithDefaults(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("789", "", float64(0)).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("789", "", 0.0, now, now))

	_, created, err := Upsert(context.Background(), repo, "789", Changes{})
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertExistingWithoutFieldsWritesNothing(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM products").
		WithArgs("789").
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("789", "Leite integral", 4.5, now, now))

	p, created, err := Upsert(context.Background(), repo, "789", Changes{
		Description: strPtr("   "),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Leite integral", p.Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertExistingUpdatesOnlySuppliedFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SET unit_cost = \$2, updated_at`).
		WithArgs("789", 5.25).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("789", "Leite integral", 5.25, now, now))

	p, created, err := Upsert(context.Background(), repo, "789", Changes{
		UnitCost: floatPtr(5.25),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Leite integral", p.Description)
	assert.InDelta(t, 5.25, p.UnitCost, 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectsBadInput(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, _, err := Upsert(context.Background(), repo, " ", Changes{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, _, err = Upsert(context.Background(), repo, "1", Changes{UnitCost: floatPtr(-1)})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestGetByCodeNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM products").
		WithArgs("000").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByCode(context.Background(), "000")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
