package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/kvitok/internal/config"
	"github.com/prn-tf/kvitok/internal/domain"
	"github.com/prn-tf/kvitok/internal/metrics"
	"github.com/prn-tf/kvitok/internal/receipt"
	"github.com/prn-tf/kvitok/internal/repository"
	"github.com/prn-tf/kvitok/internal/storage"
)

// receiptContentType is the content type receipts are stored and served with.
const receiptContentType = "text/plain; charset=utf-8"

// ReceiptService renders receipt documents and hands out presigned
// download links for them.
type ReceiptService struct {
	ticketRepo     repository.TicketRepository
	store          storage.ObjectStore
	cache          repository.Cache
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	linkTTL        time.Duration
	existsCacheTTL time.Duration
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(
	ticketRepo repository.TicketRepository,
	store storage.ObjectStore,
	cache repository.Cache,
	storageCfg config.StorageConfig,
	receiptCfg config.ReceiptConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ReceiptService {
	return &ReceiptService{
		ticketRepo:     ticketRepo,
		store:          store,
		cache:          cache,
		metrics:        m,
		logger:         logger.With().Str("service", "receipt").Logger(),
		linkTTL:        storageCfg.LinkTTL,
		existsCacheTTL: receiptCfg.ExistsCacheTTL,
	}
}

// GetDownloadURL ensures the rendered receipt for the ticket exists in
// object storage and returns a presigned download link for it. The
// first request for a given (ticket, width) pair renders and stores the
// document; later requests reuse it.
func (s *ReceiptService) GetDownloadURL(ctx context.Context, ticketID int64, maxSymbols int) (string, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID, nil)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrTicketNotFound
		}
		s.logger.Error().Err(err).Int64("ticket_id", ticketID).Msg("failed to get ticket")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	key := fmt.Sprintf("%d_%d.txt", ticket.ID, maxSymbols)

	if err := s.ensureObject(ctx, ticket, key, maxSymbols); err != nil {
		return "", err
	}

	url, err := s.store.PresignGet(ctx, key, s.linkTTL, receiptContentType)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to presign receipt")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return url, nil
}

// ensureObject renders and stores the receipt unless it already exists.
// Existence is memoized in the cache so repeated downloads skip the
// storage round trip. Cache failures fall through to the store.
func (s *ReceiptService) ensureObject(ctx context.Context, ticket *domain.Ticket, key string, maxSymbols int) error {
	cacheKey := "receipt:exists:" + key

	if known, err := s.cache.Exists(ctx, cacheKey); err == nil && known {
		return nil
	}

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to check receipt existence")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !exists {
		body := receipt.Format(ticket, maxSymbols)
		if err := s.store.Put(ctx, key, body, receiptContentType); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("failed to store receipt")
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		s.metrics.ReceiptGenerated()
		s.logger.Info().
			Int64("ticket_id", ticket.ID).
			Int("max_symbols", maxSymbols).
			Msg("receipt rendered")
	}

	if err := s.cache.Set(ctx, cacheKey, []byte("1"), s.existsCacheTTL); err != nil {
		// The memo is an optimization, losing it is harmless.
		s.logger.Debug().Err(err).Str("key", key).Msg("failed to memoize receipt existence")
	}

	return nil
}
