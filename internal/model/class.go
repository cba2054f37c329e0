package model

import (
	"time"

	"github.com/google/uuid"
)

// ClassStatus is the review lifecycle of a class.
type ClassStatus string

const (
	ClassStatusPending  ClassStatus = "pending"
	ClassStatusApproved ClassStatus = "approved"
	ClassStatusRejected ClassStatus = "rejected"
)

// Class is a course offering with capacity and enrollment counters.
// TotalEnrolled + AvailableSeats equals the capacity the class was created with.
type Class struct {
	ID              uuid.UUID   `json:"id"`
	ClassName       string      `json:"class_name"`
	ImageURL        string      `json:"image_url"`
	Description     string      `json:"description"`
	VideoLink       string      `json:"video_link"`
	InstructorName  string      `json:"instructor_name"`
	InstructorEmail string      `json:"instructor_email"`
	AvailableSeats  int         `json:"available_seats"`
	TotalEnrolled   int         `json:"total_enrolled"`
	Price           float64     `json:"price"`
	Status          ClassStatus `json:"status"`
	Reason          *string     `json:"reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// SeatSnapshot is the counter state of one class after a commit.
type SeatSnapshot struct {
	ClassID        uuid.UUID `json:"class_id"`
	AvailableSeats int       `json:"available_seats"`
	TotalEnrolled  int       `json:"total_enrolled"`
}

// CreateClassRequest is the instructor payload for a new class.
type CreateClassRequest struct {
	ClassName      string  `json:"class_name" binding:"required,min=3,max=200"`
	ImageURL       string  `json:"image_url" binding:"omitempty,url"`
	Description    string  `json:"description" binding:"omitempty,max=5000"`
	VideoLink      string  `json:"video_link" binding:"omitempty,url"`
	AvailableSeats int     `json:"available_seats" binding:"required,min=1"`
	Price          float64 `json:"price" binding:"min=0"`
}

// UpdateClassRequest edits the fields an instructor may change.
type UpdateClassRequest struct {
	ClassName      string  `json:"class_name" binding:"required,min=3,max=200"`
	Price          float64 `json:"price" binding:"min=0"`
	InstructorName string  `json:"instructor_name" binding:"required,min=2,max=120"`
}

// ChangeStatusRequest is the admin review decision.
type ChangeStatusRequest struct {
	Status string  `json:"status" binding:"required,oneof=pending approved rejected"`
	Reason *string `json:"reason" binding:"omitempty,max=1000"`
}
