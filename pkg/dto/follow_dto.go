package dto

import (
	"time"

	"anoa.com/storefront/pkg/follow"
	"github.com/google/uuid"
)

// Relationship carries both one-directional facts between the viewer and
// UserID. Status is derived from them for convenience; clients re-derive it.
type Relationship struct {
	UserID   uuid.UUID       `json:"user_id"`
	Sent     *follow.Request `json:"sent_request"`
	Received *follow.Request `json:"received_request"`
	Status   follow.Status   `json:"status"`
}

type FollowRequest struct {
	ID          uuid.UUID            `json:"id"`
	RequesterID uuid.UUID            `json:"requester_id"`
	TargetID    uuid.UUID            `json:"target_id"`
	Status      follow.RequestStatus `json:"status"`
	Requester   *UserSummary         `json:"requester,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

func NewRelationship(userID uuid.UUID, sent, received *follow.Request) Relationship {
	return Relationship{
		UserID:   userID,
		Sent:     sent,
		Received: received,
		Status:   follow.StatusFor(sent, received),
	}
}
