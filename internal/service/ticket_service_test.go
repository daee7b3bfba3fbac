package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/kvitok/internal/domain"
	"github.com/prn-tf/kvitok/internal/metrics"
	"github.com/prn-tf/kvitok/internal/repository"
)

// MockTicketRepository is a mock implementation of repository.TicketRepository.
type MockTicketRepository struct {
	tickets       map[int64]*domain.Ticket
	nextID        int64
	createErr     error
	getErr        error
	lastFilter    repository.TicketFilter
	lastOpts      repository.ListOptions
	lastGetByIDOK bool
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{
		tickets: make(map[int64]*domain.Ticket),
		nextID:  1,
	}
}

func (m *MockTicketRepository) CreateWithProducts(ctx context.Context, ticket *domain.Ticket, products []*domain.TicketProduct) error {
	if m.createErr != nil {
		return m.createErr
	}
	ticket.ID = m.nextID
	m.nextID++
	ticket.CreatedAt = time.Now().UTC()
	for _, p := range products {
		p.ID = m.nextID
		m.nextID++
		p.TicketID = ticket.ID
	}
	ticket.Products = products
	m.tickets[ticket.ID] = ticket
	return nil
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64, ownerID *int64) (*domain.Ticket, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.lastGetByIDOK = ownerID == nil
	ticket, exists := m.tickets[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	if ownerID != nil && ticket.UserID != *ownerID {
		return nil, repository.ErrNotFound
	}
	return ticket, nil
}

func (m *MockTicketRepository) List(ctx context.Context, ownerID int64, filter repository.TicketFilter, opts repository.ListOptions) ([]*domain.Ticket, error) {
	m.lastFilter = filter
	m.lastOpts = opts

	var result []*domain.Ticket
	for id := int64(1); id < m.nextID; id++ {
		if ticket, exists := m.tickets[id]; exists && ticket.UserID == ownerID {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func newTicketService(repo repository.TicketRepository) *TicketService {
	return NewTicketService(repo, metrics.New(), zerolog.Nop())
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTicketService_Create(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	ticket, err := svc.Create(context.Background(), CreateTicketInput{
		UserID:        1,
		PaymentType:   domain.PaymentTypeCash,
		PaymentAmount: dec("250.00"),
		Products: []ProductInput{
			{Name: "test1", Price: dec("50.00"), Quantity: dec("3.00")},
			{Name: "test2", Price: dec("50.00"), Quantity: dec("2.00")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), ticket.ID)
	assert.Equal(t, "250.00", ticket.Total.StringFixed(2))
	assert.Equal(t, "0.00", ticket.Rest().StringFixed(2))
	assert.False(t, ticket.CreatedAt.IsZero())
	require.Len(t, ticket.Products, 2)
	assert.Equal(t, "test1", ticket.Products[0].Name)
	assert.Equal(t, "150.00", ticket.Products[0].LineTotal().StringFixed(2))
}

func TestTicketService_Create_PaymentTooSmall(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	_, err := svc.Create(context.Background(), CreateTicketInput{
		UserID:        1,
		PaymentType:   domain.PaymentTypeCard,
		PaymentAmount: dec("200.00"),
		Products: []ProductInput{
			{Name: "test1", Price: dec("50.00"), Quantity: dec("3.00")},
			{Name: "test2", Price: dec("50.00"), Quantity: dec("2.00")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrIncorrectTicketAmount)
	assert.Empty(t, repo.tickets, "nothing should be persisted on rejection")
}

func TestTicketService_Create_FullPrecisionComparison(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	// The unrounded total 250.005 exceeds the payment even though the
	// rounded total would not.
	_, err := svc.Create(context.Background(), CreateTicketInput{
		UserID:        1,
		PaymentType:   domain.PaymentTypeCash,
		PaymentAmount: dec("250.00"),
		Products: []ProductInput{
			{Name: "test1", Price: dec("100.002"), Quantity: dec("2.5")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrIncorrectTicketAmount)
}

func TestTicketService_Create_TotalRounded(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	ticket, err := svc.Create(context.Background(), CreateTicketInput{
		UserID:        1,
		PaymentType:   domain.PaymentTypeCash,
		PaymentAmount: dec("10.00"),
		Products: []ProductInput{
			{Name: "bulk", Price: dec("1.111"), Quantity: dec("3")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "3.33", ticket.Total.StringFixed(2))
}

func TestTicketService_Create_InvalidPaymentType(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	_, err := svc.Create(context.Background(), CreateTicketInput{
		UserID:        1,
		PaymentType:   domain.PaymentType("crypto"),
		PaymentAmount: dec("10.00"),
		Products: []ProductInput{
			{Name: "test1", Price: dec("1.00"), Quantity: dec("1.00")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentType)
}

func TestTicketService_GetOne(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	created, err := svc.Create(context.Background(), CreateTicketInput{
		UserID:        1,
		PaymentType:   domain.PaymentTypeCash,
		PaymentAmount: dec("10.00"),
		Products: []ProductInput{
			{Name: "test1", Price: dec("1.00"), Quantity: dec("1.00")},
		},
	})
	require.NoError(t, err)

	ticket, err := svc.GetOne(context.Background(), 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, ticket.ID)

	_, err = svc.GetOne(context.Background(), 2, created.ID)
	assert.ErrorIs(t, err, domain.ErrTicketNotFound, "foreign ticket must look absent")

	_, err = svc.GetOne(context.Background(), 1, 999)
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)
}

func TestTicketService_List_Pagination(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	page := 3
	pageSize := 10

	_, err := svc.List(context.Background(), ListTicketsInput{
		UserID:   1,
		Page:     &page,
		PageSize: &pageSize,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, repo.lastOpts.Offset)
	assert.Equal(t, 10, repo.lastOpts.Limit)
}

func TestTicketService_List_NoPagination(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	_, err := svc.List(context.Background(), ListTicketsInput{UserID: 1})
	require.NoError(t, err)

	assert.Equal(t, 0, repo.lastOpts.Offset)
	assert.Equal(t, 0, repo.lastOpts.Limit)
}

func TestTicketService_List_FilterPassedThrough(t *testing.T) {
	repo := NewMockTicketRepository()
	svc := newTicketService(repo)

	paymentType := domain.PaymentTypeCard
	totalGTE := dec("100.00")

	_, err := svc.List(context.Background(), ListTicketsInput{
		UserID: 1,
		Filter: repository.TicketFilter{
			PaymentType: &paymentType,
			TotalGTE:    &totalGTE,
		},
	})
	require.NoError(t, err)

	require.NotNil(t, repo.lastFilter.PaymentType)
	assert.Equal(t, domain.PaymentTypeCard, *repo.lastFilter.PaymentType)
	require.NotNil(t, repo.lastFilter.TotalGTE)
	assert.True(t, repo.lastFilter.TotalGTE.Equal(totalGTE))
}
