// Package session holds the signed-in user's client-side copy of their
// reward account, cart and follow relationships.
//
// A Session is created per login and passed to whatever needs it. Reset on
// logout drops all state and discards responses still in flight.
package session

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/mutation"
	"github.com/google/uuid"
)

type RewardAPI interface {
	FetchRewardAccount(ctx context.Context) (*dto.RewardAccount, error)
	FetchRewardCatalog(ctx context.Context) ([]dto.Reward, error)
	RedeemReward(ctx context.Context, rewardID uuid.UUID) (*dto.RedeemResponse, error)
}

type CartAPI interface {
	FetchCart(ctx context.Context) (*dto.Cart, error)
	UpdateCartItemQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*dto.CartItem, error)
	RemoveCartItem(ctx context.Context, productID uuid.UUID) error
}

type FollowAPI interface {
	FetchRelationship(ctx context.Context, userID uuid.UUID) (*dto.Relationship, error)
	SendFollowRequest(ctx context.Context, userID uuid.UUID) error
	CancelFollowRequest(ctx context.Context, userID uuid.UUID) error
	Unfollow(ctx context.Context, userID uuid.UUID) error
}

// API is satisfied by *apiclient.Client.
type API interface {
	RewardAPI
	CartAPI
	FollowAPI
}

// Notice reports a failed action to the user. It never blocks the action
// that produced it.
type Notice struct {
	Operation string
	Key       uuid.UUID
	Err       error
	// RolledBack is set when a displayed optimistic value was reverted.
	RolledBack bool
}

func (n Notice) String() string {
	var ce *apperror.ClientError
	if errors.As(n.Err, &ce) && ce.Message != "" {
		return fmt.Sprintf("%s failed: %s", n.Operation, ce.Message)
	}
	return fmt.Sprintf("%s failed: %v", n.Operation, n.Err)
}

type Notifier func(Notice)

type Option func(*options)

type options struct {
	notifier  Notifier
	reconcile bool
	policy    mutation.Policy
}

func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithReconcileAfterMutation controls whether a successful cart mutation is
// followed by a full cart refetch. Enabled by default.
func WithReconcileAfterMutation(enabled bool) Option {
	return func(o *options) { o.reconcile = enabled }
}

// WithCartPolicy sets what a cart action does while the same line is still
// being saved. Defaults to mutation.Reject.
func WithCartPolicy(p mutation.Policy) Option {
	return func(o *options) { o.policy = p }
}

type Session struct {
	Rewards *RewardController
	Cart    *CartController
	Follows *FollowController
}

func New(api API, opts ...Option) *Session {
	o := options{reconcile: true, policy: mutation.Reject}
	for _, opt := range opts {
		opt(&o)
	}
	notify := o.notifier
	if notify == nil {
		notify = func(Notice) {}
	}

	return &Session{
		Rewards: newRewardController(api, notify),
		Cart:    newCartController(api, notify, o.reconcile, o.policy),
		Follows: newFollowController(api, notify),
	}
}

// Reset clears every controller. Mutations still in flight finish on the
// server but their results are not applied.
func (s *Session) Reset() {
	s.Rewards.Reset()
	s.Cart.Reset()
	s.Follows.Reset()
}

// reportable tells whether err should reach the user as a notice. Rejected
// duplicate clicks and discarded results are silent.
func reportable(err error) bool {
	return apperror.Rollback(err) || errors.Is(err, apperror.ErrAuthenticationRequired)
}

// report notifies the user of a failed optimistic action. sent tells whether
// the commit ran, in which case the displayed value has been reverted.
func report(notify Notifier, op string, key uuid.UUID, err error, sent bool) {
	rolledBack := sent && !errors.Is(err, mutation.ErrDiscarded)
	if rolledBack || reportable(err) {
		notify(Notice{Operation: op, Key: key, Err: err, RolledBack: rolledBack})
	}
}
