// Package domain contains the core business entities for kvitok.
package domain

import "errors"

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same nickname or name exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidNickname indicates no user with the given nickname exists.
	ErrInvalidNickname = errors.New("invalid nickname")

	// ErrIncorrectPassword indicates the password does not match.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrCredentialsInvalid indicates the bearer credential is missing,
	// malformed or expired.
	ErrCredentialsInvalid = errors.New("could not validate credentials")

	// ErrTicketNotFound indicates the ticket does not exist or belongs to
	// another user. Ownership is never distinguished from absence.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrIncorrectTicketAmount indicates the products total exceeds the
	// payment amount. No writes occur when this is returned.
	ErrIncorrectTicketAmount = errors.New("products total is greater than the payment amount")

	// ErrInvalidPaymentType indicates an unknown payment type in a
	// creation request.
	ErrInvalidPaymentType = errors.New("invalid payment type")
)
