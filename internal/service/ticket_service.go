package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prn-tf/kvitok/internal/domain"
	"github.com/prn-tf/kvitok/internal/metrics"
	"github.com/prn-tf/kvitok/internal/repository"
)

// TicketService handles ticket creation and retrieval.
type TicketService struct {
	ticketRepo repository.TicketRepository
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewTicketService creates a new TicketService.
func NewTicketService(ticketRepo repository.TicketRepository, m *metrics.Metrics, logger zerolog.Logger) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		metrics:    m,
		logger:     logger.With().Str("service", "ticket").Logger(),
	}
}

// ProductInput is one purchased item in a ticket creation request.
type ProductInput struct {
	Name     string
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// CreateTicketInput contains the data needed to create a ticket.
type CreateTicketInput struct {
	UserID        int64
	PaymentType   domain.PaymentType
	PaymentAmount decimal.Decimal
	Products      []ProductInput
}

// ListTicketsInput narrows and paginates a ticket listing.
// Nil Page/PageSize return all matching tickets.
type ListTicketsInput struct {
	UserID   int64
	Filter   repository.TicketFilter
	Page     *int
	PageSize *int
}

// Create validates the ticket and persists it with its products.
// The payment must cover the full-precision sum of price times quantity
// over all products; the stored total is that sum rounded to two
// decimal places.
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if !input.PaymentType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPaymentType, input.PaymentType)
	}

	products := make([]*domain.TicketProduct, len(input.Products))
	for i, p := range input.Products {
		products[i] = &domain.TicketProduct{
			Name:     p.Name,
			Price:    p.Price,
			Quantity: p.Quantity,
		}
	}

	total := domain.ProductsTotal(products)
	if total.GreaterThan(input.PaymentAmount) {
		return nil, domain.ErrIncorrectTicketAmount
	}

	ticket := &domain.Ticket{
		UserID:        input.UserID,
		PaymentType:   input.PaymentType,
		PaymentAmount: input.PaymentAmount,
		Total:         total.Round(2),
	}

	if err := s.ticketRepo.CreateWithProducts(ctx, ticket, products); err != nil {
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to create ticket")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.metrics.TicketCreated()
	s.logger.Info().
		Int64("ticket_id", ticket.ID).
		Int64("user_id", input.UserID).
		Str("total", ticket.Total.StringFixed(2)).
		Msg("ticket created")

	return ticket, nil
}

// GetOne retrieves a single ticket owned by the user. Tickets owned by
// other users are reported as not found.
func (s *TicketService) GetOne(ctx context.Context, userID, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID, &userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTicketNotFound
		}
		s.logger.Error().Err(err).Int64("ticket_id", ticketID).Msg("failed to get ticket")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return ticket, nil
}

// List returns the user's tickets narrowed by the filter, in insertion
// order. Pagination applies only when both Page and PageSize are set;
// page numbering starts at 1.
func (s *TicketService) List(ctx context.Context, input ListTicketsInput) ([]*domain.Ticket, error) {
	var opts repository.ListOptions
	if input.Page != nil && input.PageSize != nil && *input.Page > 0 && *input.PageSize > 0 {
		opts.Limit = *input.PageSize
		opts.Offset = (*input.Page - 1) * *input.PageSize
	}

	tickets, err := s.ticketRepo.List(ctx, input.UserID, input.Filter, opts)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to list tickets")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return tickets, nil
}
