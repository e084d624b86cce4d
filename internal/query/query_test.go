package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/cache"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newCache() *Cache {
	return NewCache(cache.NewMemoryStore(16, time.Minute), time.Minute, zap.NewNop())
}

func TestFetchCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	c := newCache()

	var calls int32
	load := func(context.Context) ([]row, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return []row{{ID: "1", Name: "first"}}, nil
		}
		return []row{{ID: "1", Name: "second"}}, nil
	}

	got, err := Fetch(ctx, c, Invoices, "u1", load)
	require.NoError(t, err)
	assert.Equal(t, "first", got[0].Name)

	got, err = Fetch(ctx, c, Invoices, "u1", load)
	require.NoError(t, err)
	assert.Equal(t, "first", got[0].Name)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	require.NoError(t, c.Invalidate(ctx, Invoices, "u1"))

	got, err = Fetch(ctx, c, Invoices, "u1", load)
	require.NoError(t, err)
	assert.Equal(t, "second", got[0].Name)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	c := newCache()

	_, err := Fetch(ctx, c, Invoices, "alice", func(context.Context) ([]row, error) {
		return []row{{ID: "a"}}, nil
	})
	require.NoError(t, err)

	got, err := Fetch(ctx, c, Invoices, "bob", func(context.Context) ([]row, error) {
		return []row{{ID: "b"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "b", got[0].ID)

	require.NoError(t, c.Invalidate(ctx, SalesOrders, "alice"))
	got, err = Fetch(ctx, c, Invoices, "alice", func(context.Context) ([]row, error) {
		t.Fatal("invoices for alice should still be cached")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].ID)
}

func TestFetchErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c := newCache()
	boom := errors.New("backend down")

	_, err := Fetch(ctx, c, SalesOrders, "u", func(context.Context) ([]row, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := Fetch(ctx, c, SalesOrders, "u", func(context.Context) ([]row, error) {
		return []row{{ID: "ok"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got[0].ID)
}

func TestFetchCoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	c := NewCache(nil, time.Minute, zap.NewNop())

	release := make(chan struct{})
	var calls int32
	load := func(context.Context) ([]row, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []row{{ID: "x"}}, nil
	}

	var wg sync.WaitGroup
	started := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			got, err := Fetch(ctx, c, Branding, "u", load)
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	for i := 0; i < 5; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestFetchSharedLoadSurvivesCallerCancellation(t *testing.T) {
	c := newCache()

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) ([]row, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []row{{ID: "1", Name: "shared"}}, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := Fetch(leaderCtx, c, Invoices, "u1", load)
		leaderErr <- err
	}()
	<-started

	type result struct {
		rows []row
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		rows, err := Fetch(context.Background(), c, Invoices, "u1", load)
		follower <- result{rows, err}
	}()

	cancel()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, []row{{ID: "1", Name: "shared"}}, got.rows)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchDropsUnreadableEntries(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(4, time.Minute)
	c := NewCache(store, time.Minute, zap.NewNop())

	require.NoError(t, store.Set(ctx, Key(Invoices, "u"), []byte("{not json"), 0))

	got, err := Fetch(ctx, c, Invoices, "u", func(context.Context) ([]row, error) {
		return []row{{ID: "fresh"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got[0].ID)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "portal:invoices:42", Key(Invoices, "42"))
}
