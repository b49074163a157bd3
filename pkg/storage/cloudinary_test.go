package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/rewards/tote.webp", "rewards/tote"},
		{"https://res.cloudinary.com/demo/image/upload/rewards/tote.webp", "rewards/tote"},
		{"https://res.cloudinary.com/demo/image/upload/voucher.png", "voucher"},
		{"https://res.cloudinary.com/demo/image/upload/", ""},
		{"https://example.com/tote.webp", ""},
		{"::not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, publicIDFromURL(tt.url))
		})
	}
}

func TestIsImage(t *testing.T) {
	assert.True(t, isImage(".webp"))
	assert.True(t, isImage(".jpeg"))
	assert.False(t, isImage(".pdf"))
	assert.False(t, isImage(""))
}
