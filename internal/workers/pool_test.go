package workers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubmitRunsTasks(t *testing.T) {
	pool := New(discardLogger(), 4)

	var counter int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		ok := pool.Submit(func(ctx context.Context) {
			defer wg.Done()
			atomic.AddInt32(&counter, 1)
		})
		require.True(t, ok)
	}
	wg.Wait()

	assert.Equal(t, int32(10), atomic.LoadInt32(&counter))
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestSubmitAfterShutdown(t *testing.T) {
	pool := New(discardLogger(), 1)
	require.NoError(t, pool.Shutdown(context.Background()))

	ok := pool.Submit(func(ctx context.Context) {
		t.Error("task should not run after shutdown")
	})
	assert.False(t, ok)
}

func TestShutdownWaitsForTasks(t *testing.T) {
	pool := New(discardLogger(), 2)

	var finished int32
	started := make(chan struct{})
	ok := pool.Submit(func(ctx context.Context) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	})
	require.True(t, ok)
	<-started

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}

func TestShutdownDoesNotCancelRunningTasks(t *testing.T) {
	pool := New(discardLogger(), 1)

	var cancelled int32
	started := make(chan struct{})
	ok := pool.Submit(func(ctx context.Context) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		if ctx.Err() != nil {
			atomic.StoreInt32(&cancelled, 1)
		}
	})
	require.True(t, ok)
	<-started

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int32(0), atomic.LoadInt32(&cancelled),
		"задача в полете доживает до конца при штатной остановке")
}

func TestShutdownTimeout(t *testing.T) {
	pool := New(discardLogger(), 1)

	release := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestPanicDoesNotKillPool(t *testing.T) {
	pool := New(discardLogger(), 1)

	done := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		defer close(done)
		panic("boom")
	})
	<-done

	var ran int32
	var wg sync.WaitGroup
	wg.Add(1)
	ok := pool.Submit(func(ctx context.Context) {
		defer wg.Done()
		atomic.StoreInt32(&ran, 1)
	})
	require.True(t, ok)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
	require.NoError(t, pool.Shutdown(context.Background()))
}
