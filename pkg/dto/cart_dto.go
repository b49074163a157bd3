package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductSummary struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	ImageURL *string         `json:"image_url,omitempty"`
}

type CartItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Product   ProductSummary  `json:"product"`
}

type Cart struct {
	Items     []CartItem      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
}

// UpdateCartItemRequest carries no binding rule on Quantity so that a
// non-positive value reaches the service and is reported as
// invalid_quantity rather than a generic binding error.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// NewCart totals items.
func NewCart(items []CartItem) Cart {
	if items == nil {
		items = []CartItem{}
	}
	cart := Cart{Items: items, Subtotal: decimal.Zero}
	for _, it := range items {
		cart.ItemCount += it.Quantity
		cart.Subtotal = cart.Subtotal.Add(it.LineTotal)
	}
	return cart
}
