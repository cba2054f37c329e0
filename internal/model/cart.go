package model

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a pending selection of one class by one user.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	UserEmail string    `json:"user_email"`
	ClassID   uuid.UUID `json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AddToCartRequest selects a class for later purchase.
type AddToCartRequest struct {
	ClassID string `json:"class_id" binding:"required,uuid"`
}
