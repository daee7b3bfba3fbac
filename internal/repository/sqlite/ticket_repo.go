package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prn-tf/kvitok/internal/domain"
	"github.com/prn-tf/kvitok/internal/repository"
)

// ticketRepository implements repository.TicketRepository for SQLite.
// Decimals are stored as canonical 2dp strings and timestamps as RFC3339,
// which keeps lexical comparison equivalent to value comparison for the
// range filters.
type ticketRepository struct {
	db *DB
}

// NewTicketRepository creates a new SQLite ticket repository.
func NewTicketRepository(db *DB) repository.TicketRepository {
	return &ticketRepository{db: db}
}

// CreateWithProducts inserts the ticket row and all product rows in a single
// transaction. Either everything is committed or nothing is visible.
func (r *ticketRepository) CreateWithProducts(ctx context.Context, ticket *domain.Ticket, products []*domain.TicketProduct) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		createdAt := time.Now().UTC()

		ticketQuery := `
			INSERT INTO tickets (user_id, created_at, payment_type, payment_amount, total)
			VALUES (?, ?, ?, ?, ?)
		`

		result, err := tx.ExecContext(ctx, ticketQuery,
			ticket.UserID,
			createdAt.Format(time.RFC3339),
			string(ticket.PaymentType),
			ticket.PaymentAmount.StringFixed(2),
			ticket.Total.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("failed to insert ticket: %w", err)
		}

		ticketID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get ticket ID: %w", err)
		}
		ticket.ID = ticketID
		ticket.CreatedAt = createdAt

		productQuery := `
			INSERT INTO ticket_products (ticket_id, name, price, quantity)
			VALUES (?, ?, ?, ?)
		`

		for _, product := range products {
			product.TicketID = ticketID
			result, err := tx.ExecContext(ctx, productQuery,
				product.TicketID,
				product.Name,
				product.Price.StringFixed(2),
				product.Quantity.StringFixed(2),
			)
			if err != nil {
				return fmt.Errorf("failed to insert ticket product: %w", err)
			}
			if product.ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get product ID: %w", err)
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
		WHERE t.id = ?
	`

	args := []any{id}
	if ownerID != nil {
		query += " AND t.user_id = ?"
		args = append(args, *ownerID)
	}

	ticket := &domain.Ticket{User: &domain.User{}}
	var createdAt, paymentType, paymentAmount, total string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.UserID,
		&createdAt,
		&paymentType,
		&paymentAmount,
		&total,
		&ticket.User.ID,
		&ticket.User.Nickname,
		&ticket.User.Name,
		&ticket.User.PasswordHash,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket by ID: %w", err)
	}

	if err := fillTicketColumns(ticket, createdAt, paymentType, paymentAmount, total); err != nil {
		return nil, err
	}

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
		WHERE user_id = ?`)

	args := []any{ownerID}
	if filter.CreatedAtGTE != nil {
		b.WriteString(" AND created_at >= ?")
		args = append(args, filter.CreatedAtGTE.UTC().Format(time.RFC3339))
	}
	if filter.CreatedAtLTE != nil {
		b.WriteString(" AND created_at <= ?")
		args = append(args, filter.CreatedAtLTE.UTC().Format(time.RFC3339))
	}
	if filter.TotalGTE != nil {
		b.WriteString(" AND CAST(total AS REAL) >= ?")
		args = append(args, filter.TotalGTE.InexactFloat64())
	}
	if filter.TotalLTE != nil {
		b.WriteString(" AND CAST(total AS REAL) <= ?")
		args = append(args, filter.TotalLTE.InexactFloat64())
	}
	if filter.PaymentType != nil {
		b.WriteString(" AND payment_type = ?")
		args = append(args, string(*filter.PaymentType))
	}

	b.WriteString(" ORDER BY id ASC")
	if opts.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			// SQLite requires LIMIT before OFFSET; -1 means unlimited.
			b.WriteString(" LIMIT -1")
		}
		b.WriteString(" OFFSET ?")
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	var ids []int64
	for rows.Next() {
		ticket := &domain.Ticket{}
		var createdAt, paymentType, paymentAmount, total string
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&createdAt,
			&paymentType,
			&paymentAmount,
			&total,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		if err := fillTicketColumns(ticket, createdAt, paymentType, paymentAmount, total); err != nil {
			return nil, err
		}
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
	placeholders := strings.Repeat("?,", len(ticketIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT id, ticket_id, name, price, quantity
		FROM ticket_products
		WHERE ticket_id IN (%s)
		ORDER BY id ASC
	`, placeholders)

	args := make([]any, len(ticketIDs))
	for i, id := range ticketIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket products: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]*domain.TicketProduct, len(ticketIDs))
	for rows.Next() {
		product := &domain.TicketProduct{}
		var price, quantity string
		if err := rows.Scan(
			&product.ID,
			&product.TicketID,
			&product.Name,
			&price,
			&quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket product: %w", err)
		}
		if product.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid product price %q: %w", price, err)
		}
		if product.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("invalid product quantity %q: %w", quantity, err)
		}
		result[product.TicketID] = append(result[product.TicketID], product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket products: %w", err)
	}

	return result, nil
}

// fillTicketColumns parses the string-encoded sqlite columns into the ticket.
func fillTicketColumns(ticket *domain.Ticket, createdAt, paymentType, paymentAmount, total string) error {
	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return fmt.Errorf("invalid ticket created_at %q: %w", createdAt, err)
	}
	ticket.CreatedAt = parsed
	ticket.PaymentType = domain.PaymentType(paymentType)

	if ticket.PaymentAmount, err = decimal.NewFromString(paymentAmount); err != nil {
		return fmt.Errorf("invalid ticket payment_amount %q: %w", paymentAmount, err)
	}
	if ticket.Total, err = decimal.NewFromString(total); err != nil {
		return fmt.Errorf("invalid ticket total %q: %w", total, err)
	}

	return nil
}

// Ensure ticketRepository implements repository.TicketRepository
var _ repository.TicketRepository = (*ticketRepository)(nil)
