package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsParseable(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := ulid.Parse(s)
	require.NoError(t, err)
	assert.Len(t, s, 26)
}

func TestAtIsMonotonic(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	prev := At(ts)
	for i := 0; i < 100; i++ {
		next := At(ts)
		assert.Greater(t, next, prev)
		prev = next
	}

	parsed, err := ulid.Parse(prev)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(ts), parsed.Time())
}
