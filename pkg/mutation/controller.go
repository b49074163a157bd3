// Package mutation keeps a locally displayed value in sync with a
// server-owned one while a mutation is in flight.
//
// Every key is a small state machine:
//
//	Idle(server) --Mutate--> Pending(server, optimistic)
//	Pending --commit ok-->   Idle(optimistic)
//	Pending --commit err-->  Idle(server)
//
// At most one commit per key runs at a time. Keys are independent.
package mutation

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrInFlight is returned under the Reject policy when the key already
	// has a pending mutation.
	ErrInFlight = errors.New("mutation already in flight")
	// ErrUnknownKey is returned for keys that were never seeded or have
	// been forgotten.
	ErrUnknownKey = errors.New("unknown mutation key")
	// ErrDiscarded is returned when the key was reset or forgotten while
	// its commit ran. The commit outcome was not applied.
	ErrDiscarded = errors.New("mutation result discarded")
)

type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Policy decides what a Mutate call does when the key is already Pending.
type Policy int

const (
	// Reject fails fast with ErrInFlight.
	Reject Policy = iota
	// Queue waits for the in-flight mutation to settle, then runs on top of
	// its outcome.
	Queue
)

// Snapshot is a read-only view of one key.
type Snapshot[V any] struct {
	// Value is what should be displayed: the optimistic value while
	// Pending, the server value otherwise.
	Value  V
	Server V
	State  State
}

type Option func(*options)

type options struct {
	policy Policy
}

func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

type Controller[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	policy  Policy
	epoch   uint64
}

type entry[V any] struct {
	server     V
	optimistic V
	state      State
	done       chan struct{} // closed when the pending commit settles
}

func New[K comparable, V any](opts ...Option) *Controller[K, V] {
	o := options{policy: Reject}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[K, V]{
		entries: make(map[K]*entry[V]),
		policy:  o.policy,
	}
}

// Seed records server as the authoritative value for key. On a Pending key
// only the rollback baseline moves; the optimistic value stays displayed.
func (c *Controller[K, V]) Seed(key K, server V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.server = server
		return
	}
	c.entries[key] = &entry[V]{server: server}
}

// SeedIfAbsent seeds key unless it is already tracked. It reports whether
// it seeded.
func (c *Controller[K, V]) SeedIfAbsent(key K, server V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return false
	}
	c.entries[key] = &entry[V]{server: server}
	return true
}

// Forget stops tracking key. A commit still running for it is discarded.
func (c *Controller[K, V]) Forget(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Reset drops every key and discards all in-flight commits.
func (c *Controller[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[V])
	c.epoch++
}

func (c *Controller[K, V]) Get(key K) (Snapshot[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot[V]{}, false
	}
	return e.snapshot(), true
}

// Keys returns the tracked keys in no particular order.
func (c *Controller[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *Controller[K, V]) Pending(key K) bool {
	snap, ok := c.Get(key)
	return ok && snap.State == Pending
}

// Mutate runs one optimistic mutation on key.
//
// next computes the candidate from the current server value. An error from
// next aborts before anything is sent. Otherwise the key turns Pending with
// the candidate displayed and commit is called exactly once. On success the
// candidate becomes the server value and is returned; on failure the key
// reverts to the server value and commit's error is returned.
func (c *Controller[K, V]) Mutate(
	ctx context.Context,
	key K,
	next func(current V) (V, error),
	commit func(ctx context.Context, candidate V) error,
) (V, error) {
	var zero V

	c.mu.Lock()
	e, err := c.acquire(ctx, key)
	if err != nil {
		return zero, err
	}

	candidate, err := next(e.server)
	if err != nil {
		c.mu.Unlock()
		return zero, err
	}

	e.state = Pending
	e.optimistic = candidate
	e.done = make(chan struct{})
	epoch := c.epoch
	c.mu.Unlock()

	finished := false
	defer func() {
		if finished {
			return
		}
		// commit panicked: revert before the panic unwinds further.
		c.mu.Lock()
		e.settle()
		c.mu.Unlock()
	}()

	err = commit(ctx, candidate)
	finished = true

	c.mu.Lock()
	defer c.mu.Unlock()
	e.settle()

	if c.epoch != epoch || c.entries[key] != e {
		return zero, ErrDiscarded
	}
	if err != nil {
		return zero, err
	}
	e.server = candidate
	return candidate, nil
}

// acquire is called with c.mu held. It returns the Idle entry for key with
// the lock still held, or an error with the lock released.
func (c *Controller[K, V]) acquire(ctx context.Context, key K) (*entry[V], error) {
	for {
		e, ok := c.entries[key]
		if !ok {
			c.mu.Unlock()
			return nil, ErrUnknownKey
		}
		if e.state == Idle {
			return e, nil
		}
		if c.policy == Reject {
			c.mu.Unlock()
			return nil, ErrInFlight
		}

		done := e.done
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.mu.Lock()
	}
}

// settle returns e to Idle on its server value and wakes queued callers.
func (e *entry[V]) settle() {
	var zero V
	e.state = Idle
	e.optimistic = zero
	close(e.done)
}

func (e *entry[V]) snapshot() Snapshot[V] {
	snap := Snapshot[V]{Value: e.server, Server: e.server, State: e.state}
	if e.state == Pending {
		snap.Value = e.optimistic
	}
	return snap
}
