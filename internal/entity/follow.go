package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FollowPending  = "pending"
	FollowAccepted = "accepted"
)

// FollowRequest is one direction of a follow relationship. The label shown
// to users is derived from the pair of requests and never stored.
type FollowRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair,priority:1" json:"requester_id"`
	Requester   User      `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"-"`
	TargetID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair,priority:2;index" json:"target_id"`
	Target      User      `gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE" json:"-"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *FollowRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}
