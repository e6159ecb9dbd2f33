package types

import (
	"time"

	"github.com/google/uuid"
)

// User is the credential-store record. PasswordHash and the email
// verification token never leave the server.
type User struct {
	ID                     uuid.UUID  `json:"id"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	IsActive               bool       `json:"is_active"`
	IsVerified             bool       `json:"is_verified"`
	EmailVerificationToken *string    `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	LastActiveAt           time.Time  `json:"last_active"`
	LastLoginAt            *time.Time `json:"last_login,omitempty"`
}

// FullName joins first and last name the way the UI renders it.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// NewUserParams carries an already validated and normalized registration.
type NewUserParams struct {
	Email                  string
	PasswordHash           string
	FirstName              string
	LastName               string
	EmailVerificationToken string
}
