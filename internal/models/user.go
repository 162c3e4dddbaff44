package models

import "time"

// User represents a registered person who can take part in groups.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name shown next to balances.
	Name string

	// Email is the user's email address (unique).
	Email string

	// ProfilePicture is an optional avatar URL.
	ProfilePicture string

	// CreatedAt is the Unix timestamp when the user was created.
	CreatedAt int64
}

// NewUser creates a user with the creation timestamp set. The ID is assigned by the store.
func NewUser(name, email string) *User {
	return &User{
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}
}
