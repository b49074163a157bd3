package session

import (
	"context"
	"net/http"
	"testing"

	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/mutation"
	"anoa.com/storefront/pkg/tier"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func loadedRewards(t *testing.T, api *mockAPI, userID uuid.UUID, points int, catalog []dto.Reward) (*Session, *noticeLog) {
	t.Helper()
	acc := dto.NewRewardAccount(userID, points, nil)
	api.On("FetchRewardAccount", mock.Anything).Return(&acc, nil).Once()
	api.On("FetchRewardCatalog", mock.Anything).Return(catalog, nil).Once()

	log := &noticeLog{}
	s := New(api, WithNotifier(log.notify))
	require.NoError(t, s.Rewards.Load(context.Background()))
	return s, log
}

func TestRewards_TierIsDerivedFromPoints(t *testing.T) {
	api := &mockAPI{}
	acc := dto.RewardAccount{UserID: uuid.New(), TotalPoints: 5500, Tier: tier.Bronze}
	api.On("FetchRewardAccount", mock.Anything).Return(&acc, nil).Once()

	s := New(api)
	require.NoError(t, s.Rewards.LoadAccount(context.Background()))

	st, ok := s.Rewards.Tier()
	require.True(t, ok)
	assert.Equal(t, tier.Gold, st.Tier)
	assert.Equal(t, float64(100), st.Progress)
}

func TestRewards_RedeemInsufficientSendsNothing(t *testing.T) {
	api := &mockAPI{}
	reward := dto.Reward{ID: uuid.New(), Name: "Tote bag", PointsRequired: 100}
	s, log := loadedRewards(t, api, uuid.New(), 99, []dto.Reward{reward})

	assert.False(t, s.Rewards.CanRedeem(reward.ID))

	_, err := s.Rewards.Redeem(context.Background(), reward.ID)
	assert.ErrorIs(t, err, apperror.ErrValidationFailure)
	assert.ErrorIs(t, err, apperror.ErrInsufficientPoints)
	assert.Contains(t, err.Error(), "1 more points")

	api.AssertNotCalled(t, "RedeemReward", mock.Anything, mock.Anything)
	assert.Empty(t, log.all())
}

func TestRewards_RedeemRefetchesAccount(t *testing.T) {
	api := &mockAPI{}
	userID := uuid.New()
	reward := dto.Reward{ID: uuid.New(), Name: "Tote bag", PointsRequired: 100}
	s, _ := loadedRewards(t, api, userID, 100, []dto.Reward{reward})
	require.True(t, s.Rewards.CanRedeem(reward.ID))

	api.On("RedeemReward", mock.Anything, reward.ID).
		Return(&dto.RedeemResponse{Redemption: dto.Redemption{ID: uuid.New(), RewardID: reward.ID, PointsSpent: 100}}, nil).
		Once()
	after := dto.NewRewardAccount(userID, 0, nil)
	api.On("FetchRewardAccount", mock.Anything).Return(&after, nil).Once()

	red, err := s.Rewards.Redeem(context.Background(), reward.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, red.PointsSpent)

	acc, ok := s.Rewards.Account()
	require.True(t, ok)
	assert.Zero(t, acc.TotalPoints)
	assert.False(t, s.Rewards.CanRedeem(reward.ID))
	api.AssertNumberOfCalls(t, "FetchRewardAccount", 2)
}

func TestRewards_RedeemDoubleClickIssuesOneRequest(t *testing.T) {
	api := &mockAPI{}
	userID := uuid.New()
	reward := dto.Reward{ID: uuid.New(), Name: "Mug", PointsRequired: 10}
	s, _ := loadedRewards(t, api, userID, 500, []dto.Reward{reward})

	g := newGate()
	api.On("RedeemReward", mock.Anything, reward.ID).
		Run(g.run).
		Return(&dto.RedeemResponse{}, nil).
		Once()
	after := dto.NewRewardAccount(userID, 490, nil)
	api.On("FetchRewardAccount", mock.Anything).Return(&after, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := s.Rewards.Redeem(context.Background(), reward.ID)
		done <- err
	}()
	g.waitStarted(t)

	assert.False(t, s.Rewards.CanRedeem(reward.ID))
	_, err := s.Rewards.Redeem(context.Background(), reward.ID)
	assert.ErrorIs(t, err, mutation.ErrInFlight)

	close(g.release)
	require.NoError(t, <-done)
	api.AssertNumberOfCalls(t, "RedeemReward", 1)
	assert.True(t, s.Rewards.CanRedeem(reward.ID))
}

func TestRewards_StaleBalanceAfterRedeemIsDropped(t *testing.T) {
	api := &mockAPI{}
	userID := uuid.New()
	reward := dto.Reward{ID: uuid.New(), Name: "Mug", PointsRequired: 100}
	s, _ := loadedRewards(t, api, userID, 100, []dto.Reward{reward})

	g := newGate()
	before := dto.NewRewardAccount(userID, 100, nil)
	api.On("FetchRewardAccount", mock.Anything).Run(g.run).Return(&before, nil).Once()
	slow := make(chan error, 1)
	go func() { slow <- s.Rewards.LoadAccount(context.Background()) }()
	g.waitStarted(t)

	api.On("RedeemReward", mock.Anything, reward.ID).Return(&dto.RedeemResponse{}, nil).Once()
	after := dto.NewRewardAccount(userID, 0, nil)
	api.On("FetchRewardAccount", mock.Anything).Return(&after, nil).Once()

	_, err := s.Rewards.Redeem(context.Background(), reward.ID)
	require.NoError(t, err)

	close(g.release)
	require.NoError(t, <-slow)

	acc, ok := s.Rewards.Account()
	require.True(t, ok)
	assert.Zero(t, acc.TotalPoints)
	assert.False(t, s.Rewards.CanRedeem(reward.ID))
}

func TestRewards_ServerRejectionNotifies(t *testing.T) {
	api := &mockAPI{}
	reward := dto.Reward{ID: uuid.New(), Name: "Mug", PointsRequired: 10}
	s, log := loadedRewards(t, api, uuid.New(), 500, []dto.Reward{reward})

	api.On("RedeemReward", mock.Anything, reward.ID).
		Return(nil, apperror.ServerRejected(http.StatusUnprocessableEntity, apperror.CodeInsufficientPoints, "insufficient points")).
		Once()

	_, err := s.Rewards.Redeem(context.Background(), reward.ID)
	assert.ErrorIs(t, err, apperror.ErrInsufficientPoints)

	notices := log.all()
	require.Len(t, notices, 1)
	assert.Equal(t, reward.ID, notices[0].Key)
	api.AssertNumberOfCalls(t, "FetchRewardAccount", 1)
}

func TestSession_ResetDiscardsInFlightRedemption(t *testing.T) {
	api := &mockAPI{}
	reward := dto.Reward{ID: uuid.New(), Name: "Mug", PointsRequired: 10}
	s, _ := loadedRewards(t, api, uuid.New(), 500, []dto.Reward{reward})

	g := newGate()
	api.On("RedeemReward", mock.Anything, reward.ID).Run(g.run).Return(&dto.RedeemResponse{}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := s.Rewards.Redeem(context.Background(), reward.ID)
		done <- err
	}()
	g.waitStarted(t)

	s.Reset()
	close(g.release)

	assert.ErrorIs(t, <-done, mutation.ErrDiscarded)
	_, ok := s.Rewards.Account()
	assert.False(t, ok)
	assert.Empty(t, s.Rewards.Catalog())
	api.AssertNumberOfCalls(t, "FetchRewardAccount", 1)
}
