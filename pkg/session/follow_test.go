package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/follow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func relationship(userID uuid.UUID, sent, received *follow.Request) *dto.Relationship {
	rel := dto.NewRelationship(userID, sent, received)
	return &rel
}

func TestFollow_StatusIsDerived(t *testing.T) {
	tests := []struct {
		name     string
		sent     *follow.Request
		received *follow.Request
		want     follow.Status
	}{
		{"accepted sent", &follow.Request{Status: follow.RequestAccepted}, nil, follow.StatusFollowing},
		{"only received", nil, &follow.Request{Status: follow.RequestPending}, follow.StatusFollowBack},
		{"neither", nil, nil, follow.StatusFollow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			userID := uuid.New()
			// The server label is ignored in favour of the request pair.
			rel := relationship(userID, tt.sent, tt.received)
			rel.Status = follow.StatusRequested
			api.On("FetchRelationship", mock.Anything, userID).Return(rel, nil).Once()

			s := New(api)
			require.NoError(t, s.Follows.Load(context.Background(), userID))
			got, ok := s.Follows.Status(userID)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFollow_UnfollowFailureRollsBackToDerivedStatus(t *testing.T) {
	api := &mockAPI{}
	log := &noticeLog{}
	userID := uuid.New()
	sent := &follow.Request{Status: follow.RequestAccepted}
	received := &follow.Request{Status: follow.RequestAccepted}
	api.On("FetchRelationship", mock.Anything, userID).Return(relationship(userID, sent, received), nil).Once()

	s := New(api, WithNotifier(log.notify))
	require.NoError(t, s.Follows.Load(context.Background(), userID))

	g := newGate()
	api.On("Unfollow", mock.Anything, userID).Run(g.run).
		Return(apperror.NetworkFailure(errors.New("connection reset"))).Once()

	done := make(chan error, 1)
	go func() {
		_, err := s.Follows.Toggle(context.Background(), userID)
		done <- err
	}()
	g.waitStarted(t)

	// They still follow us, so the optimistic label is followBack.
	st, _ := s.Follows.Status(userID)
	assert.Equal(t, follow.StatusFollowBack, st)
	assert.True(t, s.Follows.Pending(userID))

	close(g.release)
	assert.ErrorIs(t, <-done, apperror.ErrNetworkFailure)

	st, _ = s.Follows.Status(userID)
	assert.Equal(t, follow.StatusFollowing, st)
	require.Len(t, log.all(), 1)
	assert.Equal(t, string(follow.ActionUnfollow), log.all()[0].Operation)
}

func TestFollow_SendThenReload(t *testing.T) {
	api := &mockAPI{}
	userID := uuid.New()
	api.On("FetchRelationship", mock.Anything, userID).Return(relationship(userID, nil, nil), nil).Once()
	api.On("SendFollowRequest", mock.Anything, userID).Return(nil).Once()
	// Public profiles accept immediately.
	api.On("FetchRelationship", mock.Anything, userID).
		Return(relationship(userID, &follow.Request{Status: follow.RequestAccepted}, nil), nil).Once()

	s := New(api)
	st, err := s.Follows.Toggle(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, follow.StatusRequested, st)

	st, _ = s.Follows.Status(userID)
	assert.Equal(t, follow.StatusFollowing, st)
	api.AssertExpectations(t)
}

func TestFollow_CancelPendingRequest(t *testing.T) {
	api := &mockAPI{}
	userID := uuid.New()
	pending := &follow.Request{Status: follow.RequestPending}
	received := &follow.Request{Status: follow.RequestPending}
	api.On("FetchRelationship", mock.Anything, userID).Return(relationship(userID, pending, received), nil).Once()
	api.On("CancelFollowRequest", mock.Anything, userID).
		Return(apperror.ServerRejected(http.StatusNotFound, apperror.CodeNotFound, "no pending request")).Once()

	s := New(api)
	require.NoError(t, s.Follows.Load(context.Background(), userID))

	_, err := s.Follows.Toggle(context.Background(), userID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	st, _ := s.Follows.Status(userID)
	assert.Equal(t, follow.StatusRequested, st)
	api.AssertNotCalled(t, "SendFollowRequest", mock.Anything, mock.Anything)
}

func TestFollow_UnauthenticatedRevertsAndReports(t *testing.T) {
	api := &mockAPI{}
	log := &noticeLog{}
	userID := uuid.New()
	api.On("FetchRelationship", mock.Anything, userID).Return(relationship(userID, nil, nil), nil).Once()
	api.On("SendFollowRequest", mock.Anything, userID).Return(apperror.AuthenticationRequired("sign in first")).Once()

	s := New(api, WithNotifier(log.notify))
	require.NoError(t, s.Follows.Load(context.Background(), userID))

	_, err := s.Follows.Toggle(context.Background(), userID)
	assert.ErrorIs(t, err, apperror.ErrAuthenticationRequired)

	st, _ := s.Follows.Status(userID)
	assert.Equal(t, follow.StatusFollow, st)
	notices := log.all()
	require.Len(t, notices, 1)
	assert.True(t, notices[0].RolledBack)
}

func TestFollow_StaleLoadAfterToggleIsDropped(t *testing.T) {
	api := &mockAPI{}
	userID := uuid.New()
	api.On("FetchRelationship", mock.Anything, userID).Return(relationship(userID, nil, nil), nil).Once()

	s := New(api)
	require.NoError(t, s.Follows.Load(context.Background(), userID))

	g := newGate()
	api.On("FetchRelationship", mock.Anything, userID).Run(g.run).Return(relationship(userID, nil, nil), nil).Once()
	slow := make(chan error, 1)
	go func() { slow <- s.Follows.Load(context.Background(), userID) }()
	g.waitStarted(t)

	api.On("SendFollowRequest", mock.Anything, userID).Return(nil).Once()
	api.On("FetchRelationship", mock.Anything, userID).
		Return(relationship(userID, &follow.Request{Status: follow.RequestPending}, nil), nil).Once()
	st, err := s.Follows.Toggle(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, follow.StatusRequested, st)

	close(g.release)
	require.NoError(t, <-slow)

	st, _ = s.Follows.Status(userID)
	assert.Equal(t, follow.StatusRequested, st)
}
