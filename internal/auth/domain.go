package auth

import "time"

// User carries the credential-relevant slice of a user account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	RoleID       int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
