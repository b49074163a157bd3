package session

import (
	"context"
	"fmt"
	"sync"

	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/mutation"
	"anoa.com/storefront/pkg/redemption"
	"anoa.com/storefront/pkg/tier"
	"github.com/google/uuid"
)

type RewardController struct {
	api    RewardAPI
	notify Notifier
	guard  *mutation.Guard[uuid.UUID]

	mu      sync.RWMutex
	gen     uint64
	seq     uint64 // bumped when a redemption request completes
	account *dto.RewardAccount
	catalog []dto.Reward
}

func newRewardController(api RewardAPI, notify Notifier) *RewardController {
	return &RewardController{
		api:    api,
		notify: notify,
		guard:  mutation.NewGuard[uuid.UUID](),
	}
}

// Load fetches the account and the catalog.
func (c *RewardController) Load(ctx context.Context) error {
	if err := c.LoadAccount(ctx); err != nil {
		return err
	}
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	catalog, err := c.api.FetchRewardCatalog(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.catalog = catalog
	}
	return nil
}

// LoadAccount refetches the balance. A response to a fetch that started
// before the latest redemption completed is dropped.
func (c *RewardController) LoadAccount(ctx context.Context) error {
	c.mu.RLock()
	gen, seq := c.gen, c.seq
	c.mu.RUnlock()

	acc, err := c.api.FetchRewardAccount(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen && seq == c.seq {
		c.account = acc
	}
	return nil
}

func (c *RewardController) Account() (dto.RewardAccount, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.account == nil {
		return dto.RewardAccount{}, false
	}
	return *c.account, true
}

// Tier derives the tier status from the loaded point total. The tier sent
// by the server is not trusted.
func (c *RewardController) Tier() (tier.Status, bool) {
	acc, ok := c.Account()
	if !ok {
		return tier.Status{}, false
	}
	return tier.StatusFor(acc.TotalPoints), true
}

func (c *RewardController) Catalog() []dto.Reward {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]dto.Reward, len(c.catalog))
	copy(out, c.catalog)
	return out
}

func (c *RewardController) reward(id uuid.UUID) (dto.Reward, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.catalog {
		if r.ID == id {
			return r, true
		}
	}
	return dto.Reward{}, false
}

// CanRedeem reports whether the redeem action for rewardID is enabled: the
// balance covers it and no redemption is already in flight.
func (c *RewardController) CanRedeem(rewardID uuid.UUID) bool {
	acc, ok := c.Account()
	if !ok {
		return false
	}
	r, ok := c.reward(rewardID)
	if !ok {
		return false
	}
	return redemption.CanRedeem(r.PointsRequired, acc.TotalPoints) && !c.guard.Busy(acc.UserID)
}

// Redeem issues exactly one redemption request and then refetches the
// account. The balance is never adjusted locally.
func (c *RewardController) Redeem(ctx context.Context, rewardID uuid.UUID) (*dto.Redemption, error) {
	acc, ok := c.Account()
	if !ok {
		return nil, apperror.ValidationFailure(fmt.Errorf("reward account not loaded"))
	}
	r, ok := c.reward(rewardID)
	if !ok {
		return nil, apperror.ValidationFailure(apperror.ErrNotFound)
	}
	if !redemption.CanRedeem(r.PointsRequired, acc.TotalPoints) {
		short := redemption.Shortfall(r.PointsRequired, acc.TotalPoints)
		return nil, apperror.ValidationFailure(fmt.Errorf("%w: %d more points needed", apperror.ErrInsufficientPoints, short))
	}

	var out *dto.Redemption
	err := c.guard.Do(ctx, acc.UserID, func(ctx context.Context) error {
		defer c.settled()
		res, err := c.api.RedeemReward(ctx, rewardID)
		if err != nil {
			return err
		}
		out = &res.Redemption
		return nil
	})
	if err != nil {
		if reportable(err) {
			c.notify(Notice{Operation: "redeem " + r.Name, Key: rewardID, Err: err})
		}
		return nil, err
	}

	if err := c.LoadAccount(ctx); err != nil {
		c.notify(Notice{Operation: "refresh reward account", Key: acc.UserID, Err: err})
	}
	return out, nil
}

func (c *RewardController) settled() {
	c.mu.Lock()
	c.seq++
	c.mu.Unlock()
}

func (c *RewardController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.guard.Reset()
	c.account = nil
	c.catalog = nil
}
