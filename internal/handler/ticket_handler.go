package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prn-tf/kvitok/internal/auth"
	"github.com/prn-tf/kvitok/internal/domain"
	"github.com/prn-tf/kvitok/internal/repository"
	"github.com/prn-tf/kvitok/internal/service"
)

// TicketHandler handles ticket creation, retrieval and receipt download.
type TicketHandler struct {
	ticketService  *service.TicketService
	receiptService *service.ReceiptService
	logger         zerolog.Logger
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(ticketService *service.TicketService, receiptService *service.ReceiptService, logger zerolog.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService:  ticketService,
		receiptService: receiptService,
		logger:         logger.With().Str("handler", "ticket").Logger(),
	}
}

// RegisterRoutes registers ticket routes that require authentication.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create_ticket", h.handleCreateTicket)
	r.Get("/tickets", h.handleListTickets)
	r.Get("/tickets/{ticketID}", h.handleGetTicket)
}

// RegisterPublicRoutes registers ticket routes that do not require
// authentication. Receipt links are shareable, so the download endpoint
// stays public.
func (h *TicketHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/download_ticket/{ticketID}", h.handleDownloadTicket)
}

// =============================================================================
// Request / Response Schemas
// =============================================================================

type productCreationRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

type paymentCreationRequest struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type ticketCreationRequest struct {
	Products []productCreationRequest `json:"products"`
	Payment  paymentCreationRequest   `json:"payment"`
}

type ticketProductResponse struct {
	TicketID int64  `json:"ticket_id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Total    string `json:"total"`
}

type ticketPaymentResponse struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

type ticketResponse struct {
	ID        int64                   `json:"id"`
	CreatedAt time.Time               `json:"created_at"`
	Total     string                  `json:"total"`
	Payment   ticketPaymentResponse   `json:"payment"`
	Products  []ticketProductResponse `json:"products"`
	Rest      string                  `json:"rest"`
}

type paginatedTicketResponse struct {
	PageSize *int             `json:"page_size"`
	Page     *int             `json:"page"`
	Items    []ticketResponse `json:"items"`
}

// newTicketResponse converts a domain ticket into its JSON shape.
// Monetary values are rendered as fixed two-decimal strings.
func newTicketResponse(ticket *domain.Ticket) ticketResponse {
	products := make([]ticketProductResponse, len(ticket.Products))
	for i, p := range ticket.Products {
		products[i] = ticketProductResponse{
			TicketID: p.TicketID,
			Name:     p.Name,
			Price:    p.Price.StringFixed(2),
			Quantity: p.Quantity.StringFixed(2),
			Total:    p.LineTotal().StringFixed(2),
		}
	}

	return ticketResponse{
		ID:        ticket.ID,
		CreatedAt: ticket.CreatedAt,
		Total:     ticket.Total.StringFixed(2),
		Payment: ticketPaymentResponse{
			Type:   string(ticket.PaymentType),
			Amount: ticket.PaymentAmount.StringFixed(2),
		},
		Products: products,
		Rest:     ticket.Rest().StringFixed(2),
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (h *TicketHandler) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, domain.ErrCredentialsInvalid)
		return
	}

	var req ticketCreationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if len(req.Products) == 0 {
		respondBadRequest(w, "at least one product is required")
		return
	}

	products := make([]service.ProductInput, len(req.Products))
	for i, p := range req.Products {
		products[i] = service.ProductInput{
			Name:     p.Name,
			Price:    p.Price,
			Quantity: p.Quantity,
		}
	}

	ticket, err := h.ticketService.Create(r.Context(), service.CreateTicketInput{
		UserID:        userID,
		PaymentType:   domain.PaymentType(req.Payment.Type),
		PaymentAmount: req.Payment.Amount,
		Products:      products,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newTicketResponse(ticket))
}

func (h *TicketHandler) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, domain.ErrCredentialsInvalid)
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		respondBadRequest(w, "invalid ticket ID")
		return
	}

	ticket, err := h.ticketService.GetOne(r.Context(), userID, ticketID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTicketResponse(ticket))
}

func (h *TicketHandler) handleListTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, domain.ErrCredentialsInvalid)
		return
	}

	filter, err := parseTicketFilter(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	page, err := parseOptionalInt(r, "page")
	if err != nil {
		respondBadRequest(w, "invalid page")
		return
	}
	pageSize, err := parseOptionalInt(r, "page_size")
	if err != nil {
		respondBadRequest(w, "invalid page_size")
		return
	}

	tickets, err := h.ticketService.List(r.Context(), service.ListTicketsInput{
		UserID:   userID,
		Filter:   filter,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	items := make([]ticketResponse, len(tickets))
	for i, ticket := range tickets {
		items[i] = newTicketResponse(ticket)
	}

	respondJSON(w, http.StatusOK, paginatedTicketResponse{
		PageSize: pageSize,
		Page:     page,
		Items:    items,
	})
}

func (h *TicketHandler) handleDownloadTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		respondBadRequest(w, "invalid ticket ID")
		return
	}

	rawMaxSymbols := r.URL.Query().Get("max_symbols")
	if rawMaxSymbols == "" {
		respondBadRequest(w, "max_symbols is required")
		return
	}
	maxSymbols, err := strconv.Atoi(rawMaxSymbols)
	if err != nil {
		respondBadRequest(w, "invalid max_symbols")
		return
	}

	url, err := h.receiptService.GetDownloadURL(r.Context(), ticketID, maxSymbols)
	if err != nil {
		respondError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// =============================================================================
// Query Parsing
// =============================================================================

// parseTicketFilter reads the listing filter from query parameters.
// All parameters are optional.
func parseTicketFilter(r *http.Request) (repository.TicketFilter, error) {
	var filter repository.TicketFilter
	query := r.URL.Query()

	if raw := query.Get("created_at__gte"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return filter, err
		}
		filter.CreatedAtGTE = &t
	}
	if raw := query.Get("created_at__lte"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return filter, err
		}
		filter.CreatedAtLTE = &t
	}
	if raw := query.Get("total__gte"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errInvalidFilterParam("total__gte")
		}
		filter.TotalGTE = &d
	}
	if raw := query.Get("total__lte"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errInvalidFilterParam("total__lte")
		}
		filter.TotalLTE = &d
	}
	if raw := query.Get("payment_type"); raw != "" {
		paymentType := domain.PaymentType(raw)
		if !paymentType.Valid() {
			return filter, errInvalidFilterParam("payment_type")
		}
		filter.PaymentType = &paymentType
	}

	return filter, nil
}

// parseTimeParam accepts RFC3339 timestamps with or without an offset.
func parseTimeParam(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errInvalidFilterParam("timestamp")
}

func parseOptionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

type filterParamError string

func errInvalidFilterParam(name string) error {
	return filterParamError(name)
}

func (e filterParamError) Error() string {
	return "invalid filter parameter: " + string(e)
}
