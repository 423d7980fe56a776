package domain

import "time"

// User is an account provisioned by the identity flow. Its role lives in a
// separate user_roles row, exactly one per user.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
