// Package queue carries enrollment domain events over RabbitMQ.
package queue

import "time"

// EnrollmentCommittedEvent is published once per committed purchase. It holds
// enough for downstream consumers to log or notify without querying PostgreSQL.
type EnrollmentCommittedEvent struct {
	TransactionID string       `json:"transaction_id"`
	UserEmail     string       `json:"user_email"`
	EnrollmentID  string       `json:"enrollment_id"`
	PaymentID     string       `json:"payment_id"`
	Amount        float64      `json:"amount"`
	Classes       []ClassSeats `json:"classes"`
	CommittedAt   time.Time    `json:"committed_at"`
}

// ClassSeats is the counter state of one purchased class after the commit.
type ClassSeats struct {
	ClassID        string `json:"class_id"`
	AvailableSeats int    `json:"available_seats"`
	TotalEnrolled  int    `json:"total_enrolled"`
}
