package dto

import (
	"time"

	"anoa.com/storefront/pkg/tier"
	"github.com/google/uuid"
)

// RewardAccount is the full reconciliation read of a user's loyalty state.
// Tier fields are derived from TotalPoints at response time.
type RewardAccount struct {
	UserID           uuid.UUID           `json:"user_id"`
	TotalPoints      int                 `json:"total_points"`
	Tier             tier.Tier           `json:"tier"`
	NextTier         tier.Tier           `json:"next_tier,omitempty"`
	PointsToNextTier int                 `json:"points_to_next_tier"`
	Progress         float64             `json:"progress"`
	Transactions     []RewardTransaction `json:"transactions"`
}

type RewardTransaction struct {
	ID          uuid.UUID `json:"id"`
	Points      int       `json:"points"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Reward struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	PointsRequired int       `json:"points_required"`
	ImageURL       *string   `json:"image_url,omitempty"`
}

type Redemption struct {
	ID          uuid.UUID `json:"id"`
	RewardID    uuid.UUID `json:"reward_id"`
	PointsSpent int       `json:"points_spent"`
	CreatedAt   time.Time `json:"created_at"`
}

type RedeemResponse struct {
	Redemption Redemption    `json:"redemption"`
	Account    RewardAccount `json:"account"`
}

// NewRewardAccount builds the account view for totalPoints, deriving the
// tier fields.
func NewRewardAccount(userID uuid.UUID, totalPoints int, txs []RewardTransaction) RewardAccount {
	status := tier.StatusFor(totalPoints)
	if txs == nil {
		txs = []RewardTransaction{}
	}
	return RewardAccount{
		UserID:           userID,
		TotalPoints:      status.CurrentPoints,
		Tier:             status.Tier,
		NextTier:         status.NextTier,
		PointsToNextTier: status.PointsToNextTier,
		Progress:         status.Progress,
		Transactions:     txs,
	}
}
