package model

import (
	"time"

	"github.com/google/uuid"
)

// InstructorApplication is a user's request to become an instructor.
type InstructorApplication struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Experience string    `json:"experience"`
	CreatedAt  time.Time `json:"created_at"`
}

// ApplyInstructorRequest is the application payload.
type ApplyInstructorRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=120"`
	Experience string `json:"experience" binding:"required,max=5000"`
}

// UpdateApplicantRequest sets the role granted to an applicant.
type UpdateApplicantRequest struct {
	Role string `json:"role" binding:"required,oneof=student instructor admin"`
}
