package ticker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_Await(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	// Settled futures keep their result.
	v, ok, err := f.Poll()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFuture_DeadlineThenLateResult(t *testing.T) {
	release := make(chan struct{})
	f := Go(context.Background(), func(context.Context) (string, error) {
		<-release
		return "late", nil
	})

	_, err := f.Await(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrDeadline)

	_, ok, _ := f.Poll()
	assert.False(t, ok)

	close(release)
	assert.Eventually(t, func() bool {
		_, ok, _ := f.Poll()
		return ok
	}, time.Second, 5*time.Millisecond)

	v, _, err := f.Poll()
	assert.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestFuture_ErrorAndPanic(t *testing.T) {
	boom := errors.New("boom")
	_, err := Go(context.Background(), func(context.Context) (int, error) {
		return 0, boom
	}).Await(context.Background(), time.Second)
	assert.ErrorIs(t, err, boom)

	_, err = Go(context.Background(), func(context.Context) (int, error) {
		panic("kaboom")
	}).Await(context.Background(), time.Second)
	assert.ErrorContains(t, err, "kaboom")
}

func TestFuture_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := Go(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	cancel()

	_, err := f.Await(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
