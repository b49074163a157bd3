package dto

import "github.com/google/uuid"

type CreateRewardInput struct {
	Name           string `json:"name" form:"name" binding:"required,max=150"`
	Description    string `json:"description" form:"description" binding:"max=2000"`
	PointsRequired int    `json:"points_required" form:"points_required" binding:"min=0"`
}

// AwardPointsRequest credits or adjusts a user's balance. Adjustments may be
// negative but never take the balance below zero.
type AwardPointsRequest struct {
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	Points      int       `json:"points" binding:"required"`
	EventType   string    `json:"event_type" binding:"required,oneof=earn adjust"`
	Description string    `json:"description" binding:"max=500"`
}
