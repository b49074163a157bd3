package session

import (
	"context"
	"sync"

	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/follow"
	"anoa.com/storefront/pkg/mutation"
	"github.com/google/uuid"
)

type FollowController struct {
	api    FollowAPI
	notify Notifier
	status *mutation.Controller[uuid.UUID, follow.Status]

	mu        sync.RWMutex
	gen       uint64
	seq       uint64 // bumped when a follow request completes
	relations map[uuid.UUID]dto.Relationship
}

func newFollowController(api FollowAPI, notify Notifier) *FollowController {
	return &FollowController{
		api:       api,
		notify:    notify,
		status:    mutation.New[uuid.UUID, follow.Status](),
		relations: make(map[uuid.UUID]dto.Relationship),
	}
}

// Load fetches both request directions for userID and re-derives the status.
func (c *FollowController) Load(ctx context.Context, userID uuid.UUID) error {
	c.mu.RLock()
	gen, seq := c.gen, c.seq
	c.mu.RUnlock()

	rel, err := c.api.FetchRelationship(ctx, userID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || seq != c.seq {
		return nil
	}
	c.relations[userID] = *rel
	c.status.Seed(userID, follow.StatusFor(rel.Sent, rel.Received))
	return nil
}

// Status is the label to display for userID. A local change wins over the
// derived label until the next Load.
func (c *FollowController) Status(userID uuid.UUID) (follow.Status, bool) {
	snap, ok := c.status.Get(userID)
	return snap.Value, ok
}

func (c *FollowController) Pending(userID uuid.UUID) bool {
	return c.status.Pending(userID)
}

// Toggle performs the action the current label offers: send, cancel or
// unfollow. A failure reverts to the label derived from the request pair.
func (c *FollowController) Toggle(ctx context.Context, userID uuid.UUID) (follow.Status, error) {
	rel, loaded := c.relation(userID)
	if !loaded {
		if err := c.Load(ctx, userID); err != nil {
			return "", err
		}
		rel, _ = c.relation(userID)
	}

	// next runs under the mutation lock and must not take c.mu.
	var action follow.Action
	next := func(cur follow.Status) (follow.Status, error) {
		action = follow.NextAction(cur)
		return follow.StatusFor(follow.Apply(action, rel.Sent), rel.Received), nil
	}
	sent := false
	commit := func(ctx context.Context, _ follow.Status) error {
		sent = true
		defer c.settled()
		switch action {
		case follow.ActionUnfollow:
			return c.api.Unfollow(ctx, userID)
		case follow.ActionCancel:
			return c.api.CancelFollowRequest(ctx, userID)
		default:
			return c.api.SendFollowRequest(ctx, userID)
		}
	}

	st, err := c.status.Mutate(ctx, userID, next, commit)
	if err != nil {
		report(c.notify, string(action), userID, err, sent)
		return "", err
	}

	c.mu.Lock()
	if rel, ok := c.relations[userID]; ok {
		rel.Sent = follow.Apply(action, rel.Sent)
		rel.Status = st
		c.relations[userID] = rel
	}
	c.mu.Unlock()

	if err := c.Load(ctx, userID); err != nil {
		c.notify(Notice{Operation: "refresh relationship", Key: userID, Err: err})
	}
	return st, nil
}

func (c *FollowController) relation(userID uuid.UUID) (dto.Relationship, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rel, ok := c.relations[userID]
	return rel, ok
}

func (c *FollowController) settled() {
	c.mu.Lock()
	c.seq++
	c.mu.Unlock()
}

func (c *FollowController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.status.Reset()
	c.relations = make(map[uuid.UUID]dto.Relationship)
}
