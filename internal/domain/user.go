// Package domain contains the core business entities for kvitok.
// These are pure Go structs with no persistence concerns, representing
// the fundamental concepts of the ticketing service.
package domain

// User represents a registered seller in the system.
// Users own tickets; a ticket references its owner by ID only.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Nickname is the unique login name.
	Nickname string `json:"nickname"`

	// Name is the unique display name printed on receipts.
	Name string `json:"name"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never exposed in API responses.
	PasswordHash string `json:"-"`
}

// NewUser creates a new User with the given credentials.
// The password must already be hashed by the caller.
func NewUser(name, nickname, passwordHash string) *User {
	return &User{
		Name:         name,
		Nickname:     nickname,
		PasswordHash: passwordHash,
	}
}
