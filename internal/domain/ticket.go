// Package domain contains the core business entities for kvitok.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType represents how a ticket was paid for.
type PaymentType string

const (
	// PaymentTypeCash is a cash payment.
	PaymentTypeCash PaymentType = "cash"

	// PaymentTypeCard is a card payment.
	PaymentTypeCard PaymentType = "card"
)

// Valid reports whether the payment type is one of the known values.
func (p PaymentType) Valid() bool {
	return p == PaymentTypeCash || p == PaymentTypeCard
}

// DisplayName returns the receipt label for the payment type.
// Unknown values map to an empty string rather than failing.
func (p PaymentType) DisplayName() string {
	switch p {
	case PaymentTypeCash:
		return "Готівка"
	case PaymentTypeCard:
		return "Картка"
	default:
		return ""
	}
}

// Ticket represents a purchase ticket. Tickets are created atomically with
// their products and are immutable afterwards.
type Ticket struct {
	// ID is the unique identifier for the ticket (auto-generated).
	ID int64 `json:"id"`

	// UserID is the ID of the owning user.
	UserID int64 `json:"user_id"`

	// CreatedAt is the server-assigned creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// PaymentType is how the ticket was paid for.
	PaymentType PaymentType `json:"payment_type"`

	// PaymentAmount is the amount tendered, 2 fractional digits.
	PaymentAmount decimal.Decimal `json:"payment_amount"`

	// Total is the sum of product line totals, computed once at creation.
	// Always less than or equal to PaymentAmount.
	Total decimal.Decimal `json:"total"`

	// User is the owning user, populated on eager fetches.
	User *User `json:"-"`

	// Products are the line items in insertion order.
	Products []*TicketProduct `json:"products"`
}

// Rest returns the change due: payment amount minus total.
func (t *Ticket) Rest() decimal.Decimal {
	return t.PaymentAmount.Sub(t.Total)
}

// TicketProduct is a single line item owned exclusively by its ticket.
type TicketProduct struct {
	// ID is the unique identifier for the product row (auto-generated).
	ID int64 `json:"id"`

	// TicketID is the ID of the parent ticket.
	TicketID int64 `json:"ticket_id"`

	// Name is the free-text product name.
	Name string `json:"name"`

	// Price is the unit price.
	Price decimal.Decimal `json:"price"`

	// Quantity is the purchased quantity; fractional quantities are allowed.
	Quantity decimal.Decimal `json:"quantity"`
}

// LineTotal returns price * quantity rounded to 2 fractional digits,
// half away from zero. This is the value printed on receipts and
// returned by the API.
func (p *TicketProduct) LineTotal() decimal.Decimal {
	return p.Price.Mul(p.Quantity).Round(2)
}

// ProductsTotal sums price * quantity over the given products in full
// precision. Rounding happens only when the result is stored or displayed.
func ProductsTotal(products []*TicketProduct) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price.Mul(p.Quantity))
	}
	return total
}
