package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform account: student, instructor or admin.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	About        string    `json:"about"`
	PhotoURL     string    `json:"photo_url"`
	Skills       *string   `json:"skills"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public projection of a user attached to derived views.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	PhotoURL string    `json:"photo_url"`
	About    string    `json:"about"`
	Skills   *string   `json:"skills"`
}

// ToProfile strips credentials and contact details.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		PhotoURL: u.PhotoURL,
		About:    u.About,
		Skills:   u.Skills,
	}
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Address  string `json:"address" binding:"omitempty,max=255"`
	PhotoURL string `json:"photo_url" binding:"omitempty,url"`
}

// LoginRequest is the payload for issuing a token.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is the admin payload for editing a user.
type UpdateUserRequest struct {
	Name     string  `json:"name" binding:"required,min=2,max=120"`
	Email    string  `json:"email" binding:"required,email"`
	Phone    string  `json:"phone" binding:"omitempty,max=32"`
	Role     string  `json:"role" binding:"required,oneof=student instructor admin"`
	Address  string  `json:"address" binding:"omitempty,max=255"`
	About    string  `json:"about" binding:"omitempty,max=2000"`
	PhotoURL string  `json:"photo_url" binding:"omitempty,url"`
	Skills   *string `json:"skills"`
}
