package mutation

import "context"

// Guard serialises side-effecting calls per key when there is no value to
// display optimistically, e.g. a redemption whose effect is only known after
// a refetch.
type Guard[K comparable] struct {
	c *Controller[K, struct{}]
}

func NewGuard[K comparable](opts ...Option) *Guard[K] {
	return &Guard[K]{c: New[K, struct{}](opts...)}
}

// Do runs fn unless another call for key is in flight (see Policy).
func (g *Guard[K]) Do(ctx context.Context, key K, fn func(ctx context.Context) error) error {
	g.c.SeedIfAbsent(key, struct{}{})
	_, err := g.c.Mutate(ctx, key,
		func(struct{}) (struct{}, error) { return struct{}{}, nil },
		func(ctx context.Context, _ struct{}) error { return fn(ctx) },
	)
	return err
}

func (g *Guard[K]) Busy(key K) bool {
	return g.c.Pending(key)
}

func (g *Guard[K]) Reset() {
	g.c.Reset()
}
