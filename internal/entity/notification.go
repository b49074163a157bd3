package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTierUp         = "tier_up"
	NotificationFollowRequest  = "follow_request"
	NotificationFollowAccepted = "follow_accepted"
	NotificationRedemption     = "redemption"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null" json:"entity_id"`
	EntityType string     `gorm:"type:varchar(50);not null" json:"entity_type"`
	Type       string     `gorm:"type:varchar(50);not null" json:"type"`
	Message    string     `gorm:"type:text" json:"message"`
	IsRead     bool       `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
