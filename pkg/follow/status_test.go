package follow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	accepted := &Request{Status: RequestAccepted}
	pending := &Request{Status: RequestPending}

	tests := []struct {
		name     string
		sent     *Request
		received *Request
		want     Status
	}{
		{"neither", nil, nil, StatusFollow},
		{"sent accepted", accepted, nil, StatusFollowing},
		{"sent pending", pending, nil, StatusRequested},
		{"only received pending", nil, pending, StatusFollowBack},
		{"only received accepted", nil, accepted, StatusFollowBack},
		{"sent accepted wins over received", accepted, pending, StatusFollowing},
		{"sent pending wins over received", pending, accepted, StatusRequested},
		{"unknown sent status falls through", &Request{Status: "declined"}, nil, StatusFollow},
		{"unknown sent status with received", &Request{Status: "declined"}, pending, StatusFollowBack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.sent, tt.received))
		})
	}
}

func TestNextAction(t *testing.T) {
	assert.Equal(t, ActionSend, NextAction(StatusFollow))
	assert.Equal(t, ActionSend, NextAction(StatusFollowBack))
	assert.Equal(t, ActionCancel, NextAction(StatusRequested))
	assert.Equal(t, ActionUnfollow, NextAction(StatusFollowing))
}

func TestApplyThenDerive(t *testing.T) {
	pending := &Request{Status: RequestPending}
	accepted := &Request{Status: RequestAccepted}

	assert.Equal(t, StatusRequested, StatusFor(Apply(ActionSend, nil), nil))
	assert.Equal(t, StatusRequested, StatusFor(Apply(ActionSend, nil), pending))
	assert.Equal(t, StatusFollow, StatusFor(Apply(ActionCancel, pending), nil))
	// Unfollowing someone who follows the viewer falls back to followBack.
	assert.Equal(t, StatusFollowBack, StatusFor(Apply(ActionUnfollow, accepted), accepted))
}

func TestValid(t *testing.T) {
	assert.True(t, StatusFollowBack.Valid())
	assert.False(t, Status("blocked").Valid())
}
