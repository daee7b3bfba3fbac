package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/kvitok/internal/domain"
	"github.com/prn-tf/kvitok/internal/repository"
)

// ticketRepository implements repository.TicketRepository.
type ticketRepository struct {
	db *DB
}

// NewTicketRepository creates a new PostgreSQL ticket repository.
func NewTicketRepository(db *DB) repository.TicketRepository {
	return &ticketRepository{db: db}
}

// CreateWithProducts inserts the ticket row and all product rows in a single
// transaction. Either everything is committed or nothing is visible.
func (r *ticketRepository) CreateWithProducts(ctx context.Context, ticket *domain.Ticket, products []*domain.TicketProduct) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		ticketQuery := `
			INSERT INTO tickets (user_id, created_at, payment_type, payment_amount, total)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`

		err := tx.QueryRow(ctx, ticketQuery,
			ticket.UserID,
			time.Now().UTC(),
			string(ticket.PaymentType),
			ticket.PaymentAmount,
			ticket.Total,
		).Scan(&ticket.ID, &ticket.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert ticket: %w", err)
		}

		productQuery := `
			INSERT INTO ticket_products (ticket_id, name, price, quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`

		// Inserted one by one to keep input order; ticket creation payloads
		// are small.
		for _, product := range products {
			product.TicketID = ticket.ID
			if err := tx.QueryRow(ctx, productQuery,
				product.TicketID,
				product.Name,
				product.Price,
				product.Quantity,
			).Scan(&product.ID); err != nil {
				return fmt.Errorf("failed to insert ticket product: %w", err)
			}
		}

		ticket.Products = products
		return nil
	})
}

// GetByID retrieves a ticket with its owner and products eagerly loaded.
func (r *ticketRepository) GetByID(ctx context.Context, id int64, ownerID *int64) (*domain.Ticket, error) {
	query := `
		SELECT t.id, t.user_id, t.created_at, t.payment_type, t.payment_amount, t.total,
		       u.id, u.nickname, u.name, u.password
		FROM tickets t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1
	`

	args := []any{id}
	if ownerID != nil {
		query += " AND t.user_id = $2"
		args = append(args, *ownerID)
	}

	ticket := &domain.Ticket{User: &domain.User{}}
	var paymentType string
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.CreatedAt,
		&paymentType,
		&ticket.PaymentAmount,
		&ticket.Total,
		&ticket.User.ID,
		&ticket.User.Nickname,
		&ticket.User.Name,
		&ticket.User.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket by ID: %w", err)
	}
	ticket.PaymentType = domain.PaymentType(paymentType)

	products, err := r.loadProducts(ctx, []int64{ticket.ID})
	if err != nil {
		return nil, err
	}
	ticket.Products = products[ticket.ID]
	if ticket.Products == nil {
		ticket.Products = []*domain.TicketProduct{}
	}

	return ticket, nil
}

// List returns the owner's tickets in insertion order.
func (r *ticketRepository) List(ctx context.Context, ownerID int64, filter repository.TicketFilter, opts repository.ListOptions) ([]*domain.Ticket, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT id, user_id, created_at, payment_type, payment_amount, total
		FROM tickets
		WHERE user_id = $1`)

	args := []any{ownerID}
	appendCond := func(cond string, value any) {
		args = append(args, value)
		b.WriteString(" AND " + cond + "$" + strconv.Itoa(len(args)))
	}

	if filter.CreatedAtGTE != nil {
		appendCond("created_at >= ", *filter.CreatedAtGTE)
	}
	if filter.CreatedAtLTE != nil {
		appendCond("created_at <= ", *filter.CreatedAtLTE)
	}
	if filter.TotalGTE != nil {
		appendCond("total >= ", *filter.TotalGTE)
	}
	if filter.TotalLTE != nil {
		appendCond("total <= ", *filter.TotalLTE)
	}
	if filter.PaymentType != nil {
		appendCond("payment_type = ", string(*filter.PaymentType))
	}

	b.WriteString(" ORDER BY id ASC")
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	rows, err := r.db.Pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	var ids []int64
	for rows.Next() {
		ticket := &domain.Ticket{}
		var paymentType string
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.CreatedAt,
			&paymentType,
			&ticket.PaymentAmount,
			&ticket.Total,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		ticket.PaymentType = domain.PaymentType(paymentType)
		ticket.Products = []*domain.TicketProduct{}
		tickets = append(tickets, ticket)
		ids = append(ids, ticket.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	if len(ids) == 0 {
		return tickets, nil
	}

	products, err := r.loadProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, ticket := range tickets {
		if p, ok := products[ticket.ID]; ok {
			ticket.Products = p
		}
	}

	return tickets, nil
}

// loadProducts fetches products for the given ticket IDs, grouped by ticket,
// each group in insertion order.
func (r *ticketRepository) loadProducts(ctx context.Context, ticketIDs []int64) (map[int64][]*domain.TicketProduct, error) {
	query := `
		SELECT id, ticket_id, name, price, quantity
		FROM ticket_products
		WHERE ticket_id = ANY($1)
		ORDER BY id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket products: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]*domain.TicketProduct, len(ticketIDs))
	for rows.Next() {
		product := &domain.TicketProduct{}
		if err := rows.Scan(
			&product.ID,
			&product.TicketID,
			&product.Name,
			&product.Price,
			&product.Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket product: %w", err)
		}
		result[product.TicketID] = append(result[product.TicketID], product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket products: %w", err)
	}

	return result, nil
}

// Ensure ticketRepository implements repository.TicketRepository
var _ repository.TicketRepository = (*ticketRepository)(nil)
