package service

import (
	"context"
	"testing"

	"anoa.com/storefront/internal/entity"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/follow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Find(ctx context.Context, requesterID, targetID uuid.UUID) (*entity.FollowRequest, error) {
	args := m.Called(ctx, requesterID, targetID)
	r, _ := args.Get(0).(*entity.FollowRequest)
	return r, args.Error(1)
}

func (m *mockRepo) Create(ctx context.Context, req *entity.FollowRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockRepo) DeleteWithStatus(ctx context.Context, requesterID, targetID uuid.UUID, status string) (bool, error) {
	args := m.Called(ctx, requesterID, targetID, status)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) Accept(ctx context.Context, requesterID, targetID uuid.UUID) (bool, error) {
	args := m.Called(ctx, requesterID, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ListIncoming(ctx context.Context, targetID uuid.UUID, status string) ([]entity.FollowRequest, error) {
	args := m.Called(ctx, targetID, status)
	r, _ := args.Get(0).([]entity.FollowRequest)
	return r, args.Error(1)
}

func (m *mockRepo) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) CreateNotification(ctx context.Context, n *entity.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func TestSend_DuplicateIsAlreadyExists(t *testing.T) {
	repo := &mockRepo{}
	viewer, target := uuid.New(), uuid.New()
	repo.On("UserExists", mock.Anything, target).Return(true, nil)
	repo.On("Find", mock.Anything, viewer, target).Return(&entity.FollowRequest{Status: entity.FollowPending}, nil)

	svc := NewFollowService(repo, nil)
	err := svc.Send(context.Background(), viewer, target)

	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
	assert.Equal(t, 409, apperror.MapErrorToStatus(err))
	assert.Equal(t, apperror.CodeAlreadyExists, apperror.Code(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSend_RaceOnUniqueIndexIsAlreadyExists(t *testing.T) {
	repo := &mockRepo{}
	viewer, target := uuid.New(), uuid.New()
	repo.On("UserExists", mock.Anything, target).Return(true, nil)
	repo.On("Find", mock.Anything, viewer, target).Return(nil, apperror.ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(apperror.ErrAlreadyExists)

	svc := NewFollowService(repo, nil)
	err := svc.Send(context.Background(), viewer, target)
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
}

func TestSend_SelfIsBadRequest(t *testing.T) {
	repo := &mockRepo{}
	id := uuid.New()

	svc := NewFollowService(repo, nil)
	err := svc.Send(context.Background(), id, id)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
	repo.AssertNotCalled(t, "UserExists", mock.Anything, mock.Anything)
}

func TestSend_UnknownTargetIsNotFound(t *testing.T) {
	repo := &mockRepo{}
	target := uuid.New()
	repo.On("UserExists", mock.Anything, target).Return(false, nil)

	svc := NewFollowService(repo, nil)
	err := svc.Send(context.Background(), uuid.New(), target)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSend_CreatesPendingAndNotifies(t *testing.T) {
	repo := &mockRepo{}
	notifier := &mockNotifier{}
	viewer, target := uuid.New(), uuid.New()
	repo.On("UserExists", mock.Anything, target).Return(true, nil)
	repo.On("Find", mock.Anything, viewer, target).Return(nil, apperror.ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *entity.FollowRequest) bool {
		return r.RequesterID == viewer && r.TargetID == target && r.Status == entity.FollowPending
	})).Return(nil)
	notifier.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *entity.Notification) bool {
		return n.UserID == target && n.Type == entity.NotificationFollowRequest && *n.ActorID == viewer
	})).Return(nil)

	svc := NewFollowService(repo, notifier)
	require.NoError(t, svc.Send(context.Background(), viewer, target))
	notifier.AssertExpectations(t)
}

func TestRelationship_DerivesStatus(t *testing.T) {
	repo := &mockRepo{}
	viewer, other := uuid.New(), uuid.New()
	repo.On("Find", mock.Anything, viewer, other).Return(nil, apperror.ErrNotFound)
	repo.On("Find", mock.Anything, other, viewer).Return(&entity.FollowRequest{Status: entity.FollowAccepted}, nil)

	svc := NewFollowService(repo, nil)
	rel, err := svc.Relationship(context.Background(), viewer, other)

	require.NoError(t, err)
	assert.Nil(t, rel.Sent)
	require.NotNil(t, rel.Received)
	assert.Equal(t, follow.RequestAccepted, rel.Received.Status)
	assert.Equal(t, follow.StatusFollowBack, rel.Status)
}

func TestCancel_OnlyPending(t *testing.T) {
	repo := &mockRepo{}
	viewer, target := uuid.New(), uuid.New()
	repo.On("DeleteWithStatus", mock.Anything, viewer, target, entity.FollowPending).Return(false, nil)

	svc := NewFollowService(repo, nil)
	err := svc.Cancel(context.Background(), viewer, target)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUnfollow_OnlyAccepted(t *testing.T) {
	repo := &mockRepo{}
	viewer, target := uuid.New(), uuid.New()
	repo.On("DeleteWithStatus", mock.Anything, viewer, target, entity.FollowAccepted).Return(true, nil)

	svc := NewFollowService(repo, nil)
	require.NoError(t, svc.Unfollow(context.Background(), viewer, target))
	repo.AssertExpectations(t)
}

func TestAccept_NotifiesRequester(t *testing.T) {
	repo := &mockRepo{}
	notifier := &mockNotifier{}
	viewer, requester := uuid.New(), uuid.New()
	repo.On("Accept", mock.Anything, requester, viewer).Return(true, nil)
	notifier.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *entity.Notification) bool {
		return n.UserID == requester && n.Type == entity.NotificationFollowAccepted
	})).Return(nil)

	svc := NewFollowService(repo, notifier)
	require.NoError(t, svc.Accept(context.Background(), viewer, requester))
	notifier.AssertExpectations(t)
}

func TestPendingRequests_IncludesRequester(t *testing.T) {
	repo := &mockRepo{}
	viewer := uuid.New()
	requester := entity.User{ID: uuid.New(), Username: "rina", Role: entity.Role{Name: entity.RoleMember}}
	repo.On("ListIncoming", mock.Anything, viewer, entity.FollowPending).Return([]entity.FollowRequest{
		{ID: uuid.New(), RequesterID: requester.ID, TargetID: viewer, Status: entity.FollowPending, Requester: requester},
	}, nil)

	svc := NewFollowService(repo, nil)
	reqs, err := svc.PendingRequests(context.Background(), viewer)

	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Requester)
	assert.Equal(t, "rina", reqs[0].Requester.Username)
	assert.Equal(t, follow.RequestPending, reqs[0].Status)
}
