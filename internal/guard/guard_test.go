package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoPassesThroughResult(t *testing.T) {
	t.Parallel()

	g := New("test", DefaultSettings(), zerolog.Nop())
	called := false
	err := g.Do(context.Background(), func(ctx context.Context) error {
		called = true
		_, ok := ctx.Deadline()
		assert.True(t, ok, "call context should carry a deadline")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "closed", g.State())
}

func TestDoEnforcesTimeout(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.Timeout = 20 * time.Millisecond
	g := New("slow", s, zerolog.Nop())

	block := make(chan struct{})
	defer close(block)

	start := time.Now()
	err := g.Do(context.Background(), func(ctx context.Context) error {
		<-block
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.MaxFailures = 3
	s.OpenFor = time.Minute
	g := New("flaky", s, zerolog.Nop())

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		err := g.Do(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", g.State())

	calls := 0
	err := g.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls)
}
