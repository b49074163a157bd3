package dto

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Envelope is the body of every API response. Exactly one of Data and Error
// is meaningful, selected by Success.
type Envelope[T any] struct {
	Success bool       `json:"success"`
	Data    T          `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        UserSummary `json:"user"`
}

type Notification struct {
	ID         uuid.UUID    `json:"id"`
	Actor      *UserSummary `json:"actor,omitempty"`
	EntityID   uuid.UUID    `json:"entity_id"`
	EntityType string       `json:"entity_type"`
	Type       string       `json:"type"`
	Message    string       `json:"message"`
	IsRead     bool         `json:"is_read"`
	CreatedAt  time.Time    `json:"created_at"`
}

type NotificationPage struct {
	Items []Notification `json:"items"`
	Meta  PaginationMeta `json:"meta"`
}

type UnreadCount struct {
	Count int64 `json:"count"`
}

// ImageFile is an uploaded image handed to the storage layer.
type ImageFile struct {
	Reader   io.Reader
	FileName string
}
