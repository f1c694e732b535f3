package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls   int
	reading Reading
	err     error
}

func (p *countingProvider) Fetch(context.Context, string, Source) (Reading, error) {
	p.calls++
	return p.reading, p.err
}

func TestRedisCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	inner := &countingProvider{}
	c := NewRedisCache(db, inner, 15*time.Minute, zerolog.Nop())

	mock.ExpectGet("sentiment:AAPL:news").SetVal(`{"score":0.25,"count":8}`)

	r, err := c.Fetch(context.Background(), "AAPL", News)
	require.NoError(t, err)
	assert.Equal(t, Reading{Score: 0.25, Count: 8}, r)
	assert.Zero(t, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMissStoresReading(t *testing.T) {
	db, mock := redismock.NewClientMock()
	inner := &countingProvider{reading: Reading{Score: -0.5, Count: 3}}
	c := NewRedisCache(db, inner, 15*time.Minute, zerolog.Nop())

	mock.ExpectGet("sentiment:TSLA:reddit").RedisNil()
	mock.ExpectSet("sentiment:TSLA:reddit", `{"score":-0.5,"count":3}`, 15*time.Minute).SetVal("OK")

	r, err := c.Fetch(context.Background(), "TSLA", Reddit)
	require.NoError(t, err)
	assert.Equal(t, Reading{Score: -0.5, Count: 3}, r)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheDownFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	inner := &countingProvider{reading: Reading{Score: 0.1, Count: 1}}
	c := NewRedisCache(db, inner, time.Minute, zerolog.Nop())

	mock.ExpectGet("sentiment:MSFT:social").SetErr(errors.New("connection refused"))
	mock.ExpectSet("sentiment:MSFT:social", `{"score":0.1,"count":1}`, time.Minute).SetErr(errors.New("connection refused"))

	r, err := c.Fetch(context.Background(), "MSFT", Social)
	require.NoError(t, err)
	assert.Equal(t, Reading{Score: 0.1, Count: 1}, r)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheInnerErrorIsReturned(t *testing.T) {
	db, mock := redismock.NewClientMock()
	boom := errors.New("news api quota exhausted")
	c := NewRedisCache(db, &countingProvider{err: boom}, time.Minute, zerolog.Nop())

	mock.ExpectGet("sentiment:AMZN:news").RedisNil()

	_, err := c.Fetch(context.Background(), "AMZN", News)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
