package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"anoa.com/storefront/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) FetchRewardAccount(ctx context.Context) (*dto.RewardAccount, error) {
	args := m.Called(ctx)
	acc, _ := args.Get(0).(*dto.RewardAccount)
	return acc, args.Error(1)
}

func (m *mockAPI) FetchRewardCatalog(ctx context.Context) ([]dto.Reward, error) {
	args := m.Called(ctx)
	rewards, _ := args.Get(0).([]dto.Reward)
	return rewards, args.Error(1)
}

func (m *mockAPI) RedeemReward(ctx context.Context, rewardID uuid.UUID) (*dto.RedeemResponse, error) {
	args := m.Called(ctx, rewardID)
	res, _ := args.Get(0).(*dto.RedeemResponse)
	return res, args.Error(1)
}

func (m *mockAPI) FetchCart(ctx context.Context) (*dto.Cart, error) {
	args := m.Called(ctx)
	cart, _ := args.Get(0).(*dto.Cart)
	return cart, args.Error(1)
}

func (m *mockAPI) UpdateCartItemQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*dto.CartItem, error) {
	args := m.Called(ctx, productID, quantity)
	item, _ := args.Get(0).(*dto.CartItem)
	return item, args.Error(1)
}

func (m *mockAPI) RemoveCartItem(ctx context.Context, productID uuid.UUID) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *mockAPI) FetchRelationship(ctx context.Context, userID uuid.UUID) (*dto.Relationship, error) {
	args := m.Called(ctx, userID)
	rel, _ := args.Get(0).(*dto.Relationship)
	return rel, args.Error(1)
}

func (m *mockAPI) SendFollowRequest(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockAPI) CancelFollowRequest(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockAPI) Unfollow(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// gate blocks a mocked call until released.
type gate struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) run(mock.Arguments) {
	g.once.Do(func() { close(g.started) })
	<-g.release
}

func (g *gate) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(time.Second):
		require.FailNow(t, "call did not start")
	}
}

// noticeLog collects notices.
type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *noticeLog) notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) all() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notice(nil), l.notices...)
}
