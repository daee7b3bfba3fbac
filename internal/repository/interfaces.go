// Package repository defines data access interfaces for kvitok.
// These interfaces abstract database operations, allowing for different
// implementations (PostgreSQL, SQLite, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prn-tf/kvitok/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user and assigns its ID.
	// Returns domain.ErrUserAlreadyExists if the nickname or name is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByNickname retrieves a user by nickname.
	GetByNickname(ctx context.Context, nickname string) (*domain.User, error)
}

// =============================================================================
// Ticket Repository
// =============================================================================

// TicketRepository defines the interface for ticket data access.
// Tickets are written once, together with their products, and never updated.
type TicketRepository interface {
	// CreateWithProducts inserts the ticket row and all product rows in a
	// single transaction, preserving product input order. On success the
	// ticket and products have their IDs and the server-assigned creation
	// timestamp populated. Any failure rolls the whole transaction back.
	CreateWithProducts(ctx context.Context, ticket *domain.Ticket, products []*domain.TicketProduct) error

	// GetByID retrieves a ticket with its owner and products eagerly loaded.
	// When ownerID is non-nil the lookup is scoped to that owner; a ticket
	// owned by someone else is reported as ErrNotFound, indistinguishable
	// from absence.
	GetByID(ctx context.Context, id int64, ownerID *int64) (*domain.Ticket, error)

	// List returns the owner's tickets with products eagerly loaded,
	// narrowed by the filter, in insertion order. A zero-valued ListOptions
	// returns all matching rows.
	List(ctx context.Context, ownerID int64, filter TicketFilter, opts ListOptions) ([]*domain.Ticket, error)
}

// TicketFilter narrows ticket listings. Nil fields are ignored.
type TicketFilter struct {
	// CreatedAtGTE keeps tickets created at or after this time.
	CreatedAtGTE *time.Time

	// CreatedAtLTE keeps tickets created at or before this time.
	CreatedAtLTE *time.Time

	// TotalGTE keeps tickets with total greater than or equal to this value.
	TotalGTE *decimal.Decimal

	// TotalLTE keeps tickets with total less than or equal to this value.
	TotalLTE *decimal.Decimal

	// PaymentType keeps tickets paid with this payment type.
	PaymentType *domain.PaymentType
}

// ListOptions contains pagination options. Zero values mean "unbounded".
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return; 0 returns all.
	Limit int
}
