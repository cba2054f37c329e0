package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Payment is the immutable receipt of a completed purchase.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	UserEmail     string          `json:"user_email"`
	ClassIDs      []uuid.UUID     `json:"classes_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        float64         `json:"amount"`
	Metadata      json.RawMessage `json:"metadata"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PurchaseRequest is the payload a client submits after paying externally.
type PurchaseRequest struct {
	UserEmail     string          `json:"user_email" binding:"omitempty,email"`
	ClassIDs      []string        `json:"classes_id" binding:"required,min=1,dive,uuid"`
	TransactionID string          `json:"transaction_id" binding:"required,max=255,txnid"`
	Amount        float64         `json:"price" binding:"min=0"`
	Metadata      json.RawMessage `json:"metadata"`
	// ScopeClassID limits cart cleanup to one class (single-item purchase).
	ScopeClassID string `json:"-"`
}

// CommitResult reports every store operation of one committed purchase.
type CommitResult struct {
	TransactionID    string         `json:"transaction_id"`
	Classes          []SeatSnapshot `json:"classes"`
	Enrollment       Enrollment     `json:"enrollment"`
	CartItemsRemoved int64          `json:"cart_items_removed"`
	Payment          Payment        `json:"payment"`
	// Replayed is set when the transaction id had already been committed and
	// the stored result is returned without touching any store.
	Replayed bool `json:"replayed"`
}
