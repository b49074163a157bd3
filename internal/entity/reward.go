package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventEarn   = "earn"
	EventRedeem = "redeem"
	EventAdjust = "adjust"
)

// RewardTransaction is one entry of a user's append-only points ledger.
// Redemptions are negative.
type RewardTransaction struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_reward_tx_user,priority:1" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Points      int        `gorm:"not null" json:"points"`
	EventType   string     `gorm:"size:20;not null" json:"event_type"`
	Description string     `gorm:"type:text" json:"description"`
	ReferenceID *uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index:idx_reward_tx_user,priority:2" json:"created_at"`
}

func (t *RewardTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}

type Reward struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	Slug           string    `gorm:"size:180;uniqueIndex;not null" json:"slug"`
	Description    string    `gorm:"type:text" json:"description"`
	PointsRequired int       `gorm:"not null;check:points_required >= 0" json:"points_required"`
	ImageURL       *string   `gorm:"type:text" json:"image_url,omitempty"`
	Active         bool      `gorm:"default:true;index" json:"active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Reward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Redemption struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RewardID      uuid.UUID `gorm:"type:uuid;not null;index" json:"reward_id"`
	Reward        Reward    `gorm:"foreignKey:RewardID" json:"-"`
	PointsSpent   int       `gorm:"not null" json:"points_spent"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null" json:"transaction_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Redemption) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
