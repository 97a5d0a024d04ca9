package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func TestGetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(db)

	mock.ExpectGet("k").RedisNil()

	var dest payload
	err := svc.Get(context.Background(), "k", &dest)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetThenGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(db)
	ctx := context.Background()

	mock.ExpectSet("k", `{"name":"concert"}`, time.Minute).SetVal("OK")
	mock.ExpectGet("k").SetVal(`{"name":"concert"}`)

	require.NoError(t, svc.Set(ctx, "k", payload{Name: "concert"}, time.Minute))

	var dest payload
	require.NoError(t, svc.Get(ctx, "k", &dest))
	assert.Equal(t, "concert", dest.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetFetchesOnMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(db)

	mock.ExpectGet("k").RedisNil()
	mock.ExpectSet("k", `{"name":"fresh"}`, time.Minute).SetVal("OK")

	calls := 0
	var dest payload
	err := svc.GetOrSet(context.Background(), "k", time.Minute, &dest, func() (interface{}, error) {
		calls++
		return payload{Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "fresh", dest.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetPropagatesFetchError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(db)

	mock.ExpectGet("k").RedisNil()

	boom := errors.New("boom")
	var dest payload
	err := svc.GetOrSet(context.Background(), "k", time.Minute, &dest, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestDeletePatternScansAllPages(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(db)

	mock.ExpectScan(0, EventListPattern(), 100).SetVal([]string{"a", "b"}, 7)
	mock.ExpectDel("a", "b").SetVal(2)
	mock.ExpectScan(7, EventListPattern(), 100).SetVal([]string{}, 0)

	require.NoError(t, svc.DeletePattern(context.Background(), EventListPattern()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopAlwaysFetches(t *testing.T) {
	svc := NewNoop()
	var dest payload
	require.NoError(t, svc.GetOrSet(context.Background(), "k", time.Minute, &dest, func() (interface{}, error) {
		return payload{Name: "direct"}, nil
	}))
	assert.Equal(t, "direct", dest.Name)
	assert.ErrorIs(t, svc.Get(context.Background(), "k", &dest), ErrCacheMiss)
}

func TestMaxTTLCapsEntries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(db, WithMaxTTL(10*time.Minute))
	ctx := context.Background()

	mock.ExpectSet("short", `{"name":"a"}`, time.Minute).SetVal("OK")
	mock.ExpectSet("long", `{"name":"b"}`, 10*time.Minute).SetVal("OK")
	mock.ExpectSet("forever", `{"name":"c"}`, 10*time.Minute).SetVal("OK")

	require.NoError(t, svc.Set(ctx, "short", payload{Name: "a"}, time.Minute))
	require.NoError(t, svc.Set(ctx, "long", payload{Name: "b"}, TTLEventDetail))
	require.NoError(t, svc.Set(ctx, "forever", payload{Name: "c"}, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}
