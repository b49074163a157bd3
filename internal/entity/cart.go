package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"size:150;not null" json:"name"`
	Slug      string          `gorm:"size:180;uniqueIndex;not null" json:"slug"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
	ImageURL  *string         `gorm:"type:text" json:"image_url,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CartItem rows always hold a quantity of at least one; removing a line
// deletes the row.
type CartItem struct {
	UserID    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"user_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;primaryKey" json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product"`
	Quantity  int             `gorm:"not null;check:quantity >= 1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
