package model

import (
	"encoding/json"
	"time"
)

// IntentStatus tracks a purchase through the commit path.
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "PENDING"
	IntentStatusCommitted IntentStatus = "COMMITTED"
	IntentStatusFailed    IntentStatus = "FAILED"
)

// PurchaseIntent is the durable record of a purchase keyed by transaction id.
// A PENDING intent older than the recovery threshold is replayed from Payload.
type PurchaseIntent struct {
	TransactionID string          `json:"transaction_id"`
	UserEmail     string          `json:"user_email"`
	Payload       json.RawMessage `json:"payload"`
	Status        IntentStatus    `json:"status"`
	FailureCode   string          `json:"failure_code,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
