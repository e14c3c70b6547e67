package cache_test

import (
	"context"
	"testing"
	"time"

	"seatly/pkg/cache"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGet_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := cache.NewService(db)

	mock.ExpectGet("seatly:test:key").SetVal(`{"name":"table-9","count":4}`)

	var got payload
	err := service.Get(context.Background(), "seatly:test:key", &got)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "table-9", Count: 4}, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := cache.NewService(db)

	mock.ExpectGet("seatly:test:missing").RedisNil()

	var got payload
	err := service.Get(context.Background(), "seatly:test:missing", &got)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := cache.NewService(db)

	mock.ExpectSet("seatly:test:key", []byte(`{"name":"table-9","count":4}`), 5*time.Second).SetVal("OK")

	err := service.Set(context.Background(), "seatly:test:key", payload{Name: "table-9", Count: 4}, 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := cache.NewService(db)

	mock.ExpectDel("seatly:test:key").SetVal(1)

	require.NoError(t, service.Delete(context.Background(), "seatly:test:key"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePattern(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := cache.NewService(db)

	mock.ExpectScan(0, "seatly:snapshot:*", 100).SetVal([]string{"seatly:snapshot:a", "seatly:snapshot:b"}, 0)
	mock.ExpectDel("seatly:snapshot:a", "seatly:snapshot:b").SetVal(2)

	require.NoError(t, service.DeletePattern(context.Background(), "seatly:snapshot:*"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePattern_NoMatches(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := cache.NewService(db)

	mock.ExpectScan(0, "seatly:snapshot:*", 100).SetVal([]string{}, 0)

	require.NoError(t, service.DeletePattern(context.Background(), "seatly:snapshot:*"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := cache.NewService(db)

	mock.ExpectExists("seatly:test:key").SetVal(1)
	assert.True(t, service.Exists(context.Background(), "seatly:test:key"))

	mock.ExpectExists("seatly:test:other").SetVal(0)
	assert.False(t, service.Exists(context.Background(), "seatly:test:other"))

	require.NoError(t, mock.ExpectationsWereMet())
}
