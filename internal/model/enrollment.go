package model

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment links a payer to the classes bought in one transaction.
type Enrollment struct {
	ID            uuid.UUID   `json:"id"`
	UserEmail     string      `json:"user_email"`
	ClassIDs      []uuid.UUID `json:"classes_id"`
	TransactionID string      `json:"transaction_id"`
	CreatedAt     time.Time   `json:"created_at"`
}

// EnrolledClass is one (enrollment, class) row of the enrolled-classes view.
type EnrolledClass struct {
	EnrollmentID  uuid.UUID `json:"enrollment_id"`
	TransactionID string    `json:"transaction_id"`
	EnrolledAt    time.Time `json:"enrolled_at"`
	Class         Class     `json:"class"`
}
