package mutation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

func increment(n int) (int, error) { return n + 1, nil }

// blockingCommit parks in commit until release is closed.
type blockingCommit struct {
	started chan struct{}
	release chan struct{}
	err     error
	calls   atomic.Int32
	seen    chan int
}

func newBlockingCommit(err error) *blockingCommit {
	return &blockingCommit{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
		err:     err,
		seen:    make(chan int, 8),
	}
}

func (b *blockingCommit) commit(ctx context.Context, v int) error {
	b.calls.Add(1)
	b.seen <- v
	b.started <- struct{}{}
	<-b.release
	return b.err
}

type result struct {
	value int
	err   error
}

func mutateAsync(c *Controller[string, int], key string, commit func(context.Context, int) error) <-chan result {
	out := make(chan result, 1)
	go func() {
		v, err := c.Mutate(context.Background(), key, increment, commit)
		out <- result{v, err}
	}()
	return out
}

func waitStarted(t *testing.T, b *blockingCommit) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(time.Second):
		t.Fatal("commit did not start")
	}
}

func TestSeedAndGet(t *testing.T) {
	c := New[string, int]()

	_, ok := c.Get("sku-1")
	assert.False(t, ok)

	c.Seed("sku-1", 3)
	snap, ok := c.Get("sku-1")
	require.True(t, ok)
	assert.Equal(t, Snapshot[int]{Value: 3, Server: 3, State: Idle}, snap)

	assert.False(t, c.SeedIfAbsent("sku-1", 9))
	snap, _ = c.Get("sku-1")
	assert.Equal(t, 3, snap.Value)
}

func TestMutateSuccessAdoptsCandidate(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 3)

	got, err := c.Mutate(context.Background(), "sku-1", increment, func(context.Context, int) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	snap, _ := c.Get("sku-1")
	assert.Equal(t, Snapshot[int]{Value: 4, Server: 4, State: Idle}, snap)
}

func TestPendingShowsOptimisticThenRevertsOnFailure(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 3)
	b := newBlockingCommit(errRejected)

	res := mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)

	snap, _ := c.Get("sku-1")
	assert.Equal(t, Snapshot[int]{Value: 4, Server: 3, State: Pending}, snap)
	assert.True(t, c.Pending("sku-1"))

	close(b.release)
	r := <-res
	assert.ErrorIs(t, r.err, errRejected)

	snap, _ = c.Get("sku-1")
	assert.Equal(t, Snapshot[int]{Value: 3, Server: 3, State: Idle}, snap)
}

func TestNextErrorSendsNothing(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 1)
	called := false

	_, err := c.Mutate(context.Background(), "sku-1",
		func(int) (int, error) { return 0, errRejected },
		func(context.Context, int) error { called = true; return nil },
	)
	assert.ErrorIs(t, err, errRejected)
	assert.False(t, called)
	assert.False(t, c.Pending("sku-1"))
}

func TestRejectPolicyAllowsOneInFlight(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 3)
	b := newBlockingCommit(nil)

	first := mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)

	_, err := c.Mutate(context.Background(), "sku-1", increment, b.commit)
	assert.ErrorIs(t, err, ErrInFlight)

	close(b.release)
	r := <-first
	require.NoError(t, r.err)
	assert.Equal(t, 4, r.value)
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestQueuePolicySerialisesCommits(t *testing.T) {
	c := New[string, int](WithPolicy(Queue))
	c.Seed("sku-1", 3)

	var inFlight, maxInFlight atomic.Int32
	commit := func(ctx context.Context, v int) error {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Mutate(context.Background(), "sku-1", increment, commit)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	snap, _ := c.Get("sku-1")
	assert.Equal(t, 8, snap.Value)
}

func TestQueuedMutationBuildsOnFirstOutcome(t *testing.T) {
	c := New[string, int](WithPolicy(Queue))
	c.Seed("sku-1", 3)
	b := newBlockingCommit(nil)

	first := mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)
	second := mutateAsync(c, "sku-1", b.commit)

	assert.Equal(t, 4, <-b.seen)
	close(b.release)

	require.NoError(t, (<-first).err)
	r := <-second
	require.NoError(t, r.err)
	assert.Equal(t, 5, r.value)
	assert.Equal(t, 5, <-b.seen)
}

func TestQueuedMutationHonoursContext(t *testing.T) {
	c := New[string, int](WithPolicy(Queue))
	c.Seed("sku-1", 3)
	b := newBlockingCommit(nil)
	defer close(b.release)

	mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Mutate(ctx, "sku-1", increment, b.commit)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 3)
	b := newBlockingCommit(nil)

	res := mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)

	c.Reset()
	close(b.release)

	r := <-res
	assert.ErrorIs(t, r.err, ErrDiscarded)
	_, ok := c.Get("sku-1")
	assert.False(t, ok)
}

func TestResetThenReseedIgnoresStaleCommit(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 3)
	b := newBlockingCommit(nil)

	res := mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)

	c.Reset()
	c.Seed("sku-1", 10)
	close(b.release)

	assert.ErrorIs(t, (<-res).err, ErrDiscarded)
	snap, _ := c.Get("sku-1")
	assert.Equal(t, 10, snap.Value)
}

func TestForgetDiscardsInFlightResult(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 3)
	b := newBlockingCommit(nil)

	res := mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)

	c.Forget("sku-1")
	close(b.release)

	assert.ErrorIs(t, (<-res).err, ErrDiscarded)
}

func TestSeedWhilePendingMovesRollbackBaseline(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 3)
	b := newBlockingCommit(errRejected)

	res := mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)

	c.Seed("sku-1", 7)
	snap, _ := c.Get("sku-1")
	assert.Equal(t, 4, snap.Value)
	assert.Equal(t, 7, snap.Server)

	close(b.release)
	<-res

	snap, _ = c.Get("sku-1")
	assert.Equal(t, 7, snap.Value)
}

func TestUnknownKey(t *testing.T) {
	c := New[string, int]()
	_, err := c.Mutate(context.Background(), "missing", increment, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeysAreIndependent(t *testing.T) {
	c := New[string, int]()
	c.Seed("sku-1", 1)
	c.Seed("sku-2", 1)
	b := newBlockingCommit(nil)

	res := mutateAsync(c, "sku-1", b.commit)
	waitStarted(t, b)

	got, err := c.Mutate(context.Background(), "sku-2", increment, func(context.Context, int) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	close(b.release)
	require.NoError(t, (<-res).err)
	assert.ElementsMatch(t, []string{"sku-1", "sku-2"}, c.Keys())
}

func TestPanickingCommitLeavesKeyIdle(t *testing.T) {
	c := New[string, int](WithPolicy(Queue))
	c.Seed("sku-1", 3)

	assert.Panics(t, func() {
		_, _ = c.Mutate(context.Background(), "sku-1", increment, func(context.Context, int) error {
			panic("boom")
		})
	})

	snap, ok := c.Get("sku-1")
	require.True(t, ok)
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, 3, snap.Value)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := c.Mutate(ctx, "sku-1", increment, func(context.Context, int) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestGuard(t *testing.T) {
	g := NewGuard[string]()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- g.Do(context.Background(), "account", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.True(t, g.Busy("account"))
	err := g.Do(context.Background(), "account", func(context.Context) error {
		t.Error("second call must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, g.Busy("account"))

	err = g.Do(context.Background(), "account", func(context.Context) error { return errRejected })
	assert.ErrorIs(t, err, errRejected)
}
