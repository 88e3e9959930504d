package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-knowledge-service/internal/api/dto"
	"github.com/spec-kit/ticket-knowledge-service/internal/cache"
	"github.com/spec-kit/ticket-knowledge-service/internal/config"
	"github.com/spec-kit/ticket-knowledge-service/internal/domain"
	"github.com/spec-kit/ticket-knowledge-service/internal/events"
)

// TicketService coordinates the ingest and similarity-search workflows.
type TicketService struct {
	tickets    domain.TicketRepository
	cache      *cache.SearchCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
	similarity config.SimilarityConfig
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  domain.TicketRepository
	SearchCache *cache.SearchCache
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTicketService creates the service.
func NewTicketService(similarity config.SimilarityConfig, deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		cache:      deps.SearchCache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		similarity: similarity,
	}
}

// IngestBatch parses a raw JSON array of tickets, normalizes and validates
// every element, and stores the whole batch in the vector store. The batch
// is all-or-nothing: a non-array payload or any invalid element aborts the
// call before the store is touched, and a store failure is propagated as a
// STORE_ERROR. Accepted tickets are returned unchanged, in input order.
func (s *TicketService) IngestBatch(ctx context.Context, payload []byte) ([]domain.Ticket, error) {
	dtos, err := dto.ParseTicketBatch(payload)
	if err != nil {
		s.logger.Warn("ticket batch rejected", zap.Error(err))
		return nil, err
	}

	tickets := make([]domain.Ticket, 0, len(dtos))
	for _, d := range dtos {
		tickets = append(tickets, d.ToDomain())
	}

	saved, err := s.tickets.SaveTickets(ctx, tickets)
	if err != nil {
		return nil, err
	}

	s.publishIngested(ctx, saved)
	s.logger.Info("ingested ticket batch", zap.Int("count", len(saved)))
	return saved, nil
}

// SearchSimilarCause returns previously stored tickets whose cause text is
// most similar to the given description, most similar first. Underlying
// failures (store unreachable, malformed query) are swallowed and an empty
// list is returned instead: this keeps the tool protocol resilient, at the
// documented cost of callers not seeing search-side errors. Ingest keeps the
// opposite policy on purpose.
func (s *TicketService) SearchSimilarCause(ctx context.Context, cause string) []domain.ScoredTicket {
	cause = strings.TrimSpace(cause)
	if cause == "" {
		return []domain.ScoredTicket{}
	}

	topK := s.similarity.TopK
	threshold := s.similarity.Threshold

	if results, ok := s.cache.Get(ctx, cause, topK, threshold); ok {
		s.logger.Debug("similarity search served from cache", zap.Int("count", len(results)))
		return results
	}

	results, err := s.tickets.SearchByCause(ctx, cause, topK, threshold)
	if err != nil {
		s.logger.Error("similarity search failed, returning empty result", zap.Error(err))
		return []domain.ScoredTicket{}
	}

	s.cache.Set(ctx, cause, topK, threshold, results)
	return results
}

func (s *TicketService) publishIngested(ctx context.Context, tickets []domain.Ticket) {
	if s.dispatcher == nil || len(tickets) == 0 {
		return
	}

	keys := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		keys = append(keys, ticket.TicketKey)
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketsIngested,
		Timestamp: time.Now().UTC(),
		Payload:   events.TicketsIngestedPayload{Count: len(tickets), TicketKeys: keys},
	})
}
