package domain

import (
	"time"

	"github.com/google/uuid"
)

// User owns sleep sessions. Timezone is the default for rendering local session times.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Timezone  string    `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// CreateUserRequest is the request body for creating a user
// @Description Request payload for registering a sleeper.
type CreateUserRequest struct {
	// Home IANA timezone (defaults to UTC)
	Timezone string `json:"timezone" validate:"omitempty,timezone" example:"Europe/Warsaw"`
}

// UpdateUserRequest is the request body for changing the home timezone
// @Description Request payload for moving a sleeper to another timezone.
type UpdateUserRequest struct {
	// New home IANA timezone
	Timezone string `json:"timezone" validate:"required,timezone" example:"America/New_York"`
}

// UserResponse is the response body for user endpoints
// @Description Registered sleeper.
type UserResponse struct {
	ID        uuid.UUID `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timezone  string    `json:"timezone" example:"Europe/Warsaw"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-01T10:00:00Z"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Timezone:  u.Timezone,
		CreatedAt: u.CreatedAt,
	}
}
