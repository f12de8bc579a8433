package domain

import "time"

type UserID string

// User is the principal record owned by the persistence layer. This
// service only ever reads it.
type User struct {
	ID              UserID
	Email           string
	PasswordHash    string
	Name            string
	IsEmailVerified bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
