package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the public identity record. It deliberately has no password
// field of any kind; secret material lives on Credential and is never
// attached to a profile.
//
// Email is treated as an exact-match, case-sensitive unique key.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential holds a user's secret material, bound 1:1 to a User.
// The hash is excluded from JSON so a Credential can never leak it
// through a response body or a structured log.
type Credential struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
