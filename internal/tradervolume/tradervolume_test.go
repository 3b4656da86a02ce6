package tradervolume

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOp_NeverErrorsAndAlwaysZero(t *testing.T) {
	var s Store = NoOp{}
	require.NoError(t, s.Observe(context.Background(), "trader1", 1000, time.Unix(0, 0)))
	v, err := s.RollingVolume(context.Background(), "trader1", time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestNewPostgresStore_DisabledReturnsNoOp(t *testing.T) {
	s, err := NewPostgresStore(DefaultConfig())
	require.NoError(t, err)
	_, ok := s.(NoOp)
	assert.True(t, ok)
}

func TestNewPostgresStore_EnabledWithoutDSNErrors(t *testing.T) {
	_, err := NewPostgresStore(Config{Enabled: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
}

func TestPostgresStore_ObserveUpserts(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	store := &postgresStore{db: sqlx.NewDb(mockDB, "postgres"), timeout: time.Second}

	mock.ExpectExec("INSERT INTO trader_volume").
		WithArgs("trader1", sqlmock.AnyArg(), uint64(500)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Observe(context.Background(), "trader1", 500, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RollingVolumeSums(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	store := &postgresStore{db: sqlx.NewDb(mockDB, "postgres"), timeout: time.Second}

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(uint64(1_500))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("trader1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	total, err := store.RollingVolume(context.Background(), "trader1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500), total)
	require.NoError(t, mock.ExpectationsWereMet())
}
