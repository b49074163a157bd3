package session

import (
	"context"
	"sync"

	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/mutation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is a cart line as it should be displayed.
type Line struct {
	dto.CartItem
	Pending bool
}

type CartController struct {
	api       CartAPI
	notify    Notifier
	reconcile bool
	lines     *mutation.Controller[uuid.UUID, int]

	mu      sync.RWMutex
	gen     uint64
	seq     uint64 // bumped when a mutation request completes
	details map[uuid.UUID]dto.CartItem
	order   []uuid.UUID
}

func newCartController(api CartAPI, notify Notifier, reconcile bool, policy mutation.Policy) *CartController {
	return &CartController{
		api:       api,
		notify:    notify,
		reconcile: reconcile,
		lines:     mutation.New[uuid.UUID, int](mutation.WithPolicy(policy)),
		details:   make(map[uuid.UUID]dto.CartItem),
	}
}

// Load replaces the local cart with the server's. A response to a fetch
// that started before the latest mutation completed is dropped.
func (c *CartController) Load(ctx context.Context) error {
	c.mu.RLock()
	gen, seq := c.gen, c.seq
	c.mu.RUnlock()

	cart, err := c.api.FetchCart(ctx)
	if err != nil {
		return err
	}
	c.apply(gen, seq, cart)
	return nil
}

func (c *CartController) apply(gen, seq uint64, cart *dto.Cart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || seq != c.seq {
		return
	}

	order := make([]uuid.UUID, 0, len(cart.Items))
	details := make(map[uuid.UUID]dto.CartItem, len(cart.Items))
	for _, it := range cart.Items {
		order = append(order, it.ProductID)
		details[it.ProductID] = it
		c.lines.Seed(it.ProductID, it.Quantity)
	}

	// Lines missing from the server cart are dropped unless still being saved.
	for _, id := range c.order {
		if _, ok := details[id]; ok {
			continue
		}
		if c.lines.Pending(id) {
			order = append(order, id)
			details[id] = c.details[id]
			continue
		}
		c.lines.Forget(id)
	}

	c.order = order
	c.details = details
}

func (c *CartController) Items() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lines := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		snap, ok := c.lines.Get(id)
		if !ok || snap.Value < 1 {
			continue
		}
		it := c.details[id]
		it.Quantity = snap.Value
		it.LineTotal = it.Price.Mul(decimal.NewFromInt(int64(snap.Value)))
		lines = append(lines, Line{CartItem: it, Pending: snap.State == mutation.Pending})
	}
	return lines
}

// Totals sums the displayed lines.
func (c *CartController) Totals() dto.Cart {
	lines := c.Items()
	items := make([]dto.CartItem, len(lines))
	for i, l := range lines {
		items[i] = l.CartItem
	}
	return dto.NewCart(items)
}

// Quantity is the displayed quantity of productID.
func (c *CartController) Quantity(productID uuid.UUID) (int, bool) {
	snap, ok := c.lines.Get(productID)
	if !ok || snap.Value < 1 {
		return 0, false
	}
	return snap.Value, true
}

func (c *CartController) Increment(ctx context.Context, productID uuid.UUID) (int, error) {
	limit := c.stockLimit(productID)
	return c.mutate(ctx, "increase quantity", productID, func(q int) (int, error) {
		return limit(q + 1)
	})
}

// Decrement at quantity one removes the line.
func (c *CartController) Decrement(ctx context.Context, productID uuid.UUID) (int, error) {
	return c.mutate(ctx, "decrease quantity", productID, func(q int) (int, error) {
		return q - 1, nil
	})
}

// SetQuantity sets an absolute quantity. Zero removes the line.
func (c *CartController) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	if quantity < 0 {
		return 0, apperror.ValidationFailure(apperror.ErrInvalidQuantity)
	}
	limit := c.stockLimit(productID)
	return c.mutate(ctx, "update quantity", productID, func(int) (int, error) {
		return limit(quantity)
	})
}

func (c *CartController) Remove(ctx context.Context, productID uuid.UUID) error {
	_, err := c.mutate(ctx, "remove item", productID, func(int) (int, error) {
		return 0, nil
	})
	return err
}

// stockLimit captures the known stock of productID up front; the returned
// check runs under the mutation lock and must not take c.mu.
func (c *CartController) stockLimit(productID uuid.UUID) func(q int) (int, error) {
	c.mu.RLock()
	d, ok := c.details[productID]
	c.mu.RUnlock()

	known := ok && d.Product.ID != uuid.Nil
	stock := d.Product.Stock
	return func(q int) (int, error) {
		if known && q > stock {
			return 0, apperror.ValidationFailure(apperror.ErrOutOfStock)
		}
		return q, nil
	}
}

// mutate runs one optimistic change of a line. A candidate below one is
// sent as a removal, never as a zero quantity.
func (c *CartController) mutate(ctx context.Context, op string, productID uuid.UUID, next func(int) (int, error)) (int, error) {
	sent := false
	qty, err := c.lines.Mutate(ctx, productID, next, func(ctx context.Context, q int) error {
		sent = true
		defer c.settled()
		if q < 1 {
			return c.api.RemoveCartItem(ctx, productID)
		}
		item, err := c.api.UpdateCartItemQuantity(ctx, productID, q)
		if err != nil {
			return err
		}
		c.mu.Lock()
		if d, ok := c.details[productID]; ok {
			d.Price = item.Price
			c.details[productID] = d
		}
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		report(c.notify, op, productID, err, sent)
		return 0, err
	}

	if qty < 1 {
		c.mu.Lock()
		c.lines.Forget(productID)
		delete(c.details, productID)
		c.mu.Unlock()
	}

	if c.reconcile {
		if err := c.Load(ctx); err != nil {
			c.notify(Notice{Operation: "refresh cart", Key: productID, Err: err})
		}
	}
	return qty, nil
}

func (c *CartController) settled() {
	c.mu.Lock()
	c.seq++
	c.mu.Unlock()
}

func (c *CartController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lines.Reset()
	c.details = make(map[uuid.UUID]dto.CartItem)
	c.order = nil
}
