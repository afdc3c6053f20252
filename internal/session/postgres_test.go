package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db, time.Hour)

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[{"productId":"p1"}]`))
		mock.ExpectQuery("SELECT value FROM session_entries").
			WithArgs("sid", "orderId-7").
			WillReturnRows(rows)

		got, err := store.Get(context.Background(), "sid", "orderId-7")
		assert.NoError(t, err)
		assert.Equal(t, `[{"productId":"p1"}]`, string(got))
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT value FROM session_entries").
			WithArgs("sid", "cart").
			WillReturnError(sql.ErrNoRows)

		_, err := store.Get(context.Background(), "sid", "cart")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock.ExpectQuery("SELECT value FROM session_entries").
			WillReturnError(errors.New("connection reset"))

		_, err := store.Get(context.Background(), "sid", "cart")
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Put(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db, 24*time.Hour)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO session_entries").
			WithArgs("sid", "cart", []byte("{}"), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Put(context.Background(), "sid", "cart", []byte("{}")))
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO session_entries").
			WillReturnError(errors.New("db error"))

		assert.Error(t, store.Put(context.Background(), "sid", "cart", []byte("{}")))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteAndPurge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db, 0)

	mock.ExpectExec("DELETE FROM session_entries WHERE session_id").
		WithArgs("sid", "cart").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, store.Delete(context.Background(), "sid", "cart"))

	mock.ExpectExec("DELETE FROM session_entries WHERE expires_at").
		WillReturnResult(sqlmock.NewResult(0, 5))
	n, err := store.PurgeExpired(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(5), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
