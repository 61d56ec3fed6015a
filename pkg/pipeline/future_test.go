package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_Await(t *testing.T) {
	f := NewFuture[int]()
	_, err := f.Await(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = f.Await(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotReady)

	f.Resolve(7, nil)
	f.Resolve(8, errors.New("ignored"))

	v, err := f.Await(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFuture_ResolvesWithinGrace(t *testing.T) {
	f := Go(func() (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "done", nil
	})
	v, err := f.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestFuture_Panic(t *testing.T) {
	f := Go(func() (int, error) {
		panic("boom")
	})
	<-f.Done()
	_, err := f.Await(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestFuture_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFuture[int]().Await(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
