package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-knowledge-service/internal/domain"
	"github.com/spec-kit/ticket-knowledge-service/internal/vectorstore"
	apperrors "github.com/spec-kit/ticket-knowledge-service/pkg/util/errorutil"
)

// Bounds for similarity search parameters. Out-of-range values are clamped.
const (
	MinTopK      = 1
	MaxTopK      = 100
	MinThreshold = 0.0
	MaxThreshold = 1.0
)

// Metadata keys form the explicit field manifest for document round-trips.
const (
	metaTicketKey   = "ticketKey"
	metaChunkID     = "chunkId"
	metaSourceField = "sourceField"
	metaCreated     = "created"
	metaProject     = "project"
	metaStatus      = "status"
	metaLlmCause    = "llmCause"
	metaLlmSolution = "llmSolution"
)

// Point IDs are derived from ticketKey+chunkId so re-ingesting a chunk
// upserts instead of duplicating.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("ticket-knowledge-service"))

// vectorTicketRepository stores tickets in the external vector database,
// embedding the llmCause text and carrying the full field set as metadata.
type vectorTicketRepository struct {
	store  vectorstore.VectorStore
	logger *zap.Logger
}

// NewTicketRepository instantiates the vector-store backed repository.
func NewTicketRepository(store vectorstore.VectorStore, logger *zap.Logger) domain.TicketRepository {
	return &vectorTicketRepository{store: store, logger: logger}
}

func (r *vectorTicketRepository) SaveTicket(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	saved, err := r.SaveTickets(ctx, []domain.Ticket{ticket})
	if err != nil {
		return domain.Ticket{}, err
	}
	return saved[0], nil
}

// SaveTickets validates and maps every ticket, then submits the whole batch.
// An empty batch is a no-op returning the input unchanged. The store assigns
// no further identifiers, so accepted tickets come back as given.
func (r *vectorTicketRepository) SaveTickets(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	if len(tickets) == 0 {
		r.logger.Warn("empty ticket batch, nothing to save")
		return tickets, nil
	}

	documents := make([]vectorstore.Document, 0, len(tickets))
	for _, ticket := range tickets {
		if err := ticket.Validate(); err != nil {
			return nil, err
		}
		documents = append(documents, TicketToDocument(ticket))
	}

	if err := r.store.Add(ctx, documents); err != nil {
		r.logger.Error("vector store add failed", zap.Int("count", len(documents)), zap.Error(err))
		return nil, apperrors.NewStoreError(err)
	}

	r.logger.Info("saved tickets to vector store", zap.Int("count", len(tickets)))
	return tickets, nil
}

// SearchByCause runs a similarity search over stored cause text. topK is
// clamped to 1..100 and threshold to 0..1. Results keep the store's
// relevance order, most similar first; an empty result is not an error.
func (r *vectorTicketRepository) SearchByCause(ctx context.Context, cause string, topK int, threshold float64) ([]domain.ScoredTicket, error) {
	topK = clampTopK(topK)
	threshold = clampThreshold(threshold)

	documents, err := r.store.SimilaritySearch(ctx, cause, topK, threshold)
	if err != nil {
		r.logger.Error("similarity search failed", zap.Error(err))
		return nil, apperrors.NewStoreError(err)
	}

	results := make([]domain.ScoredTicket, 0, len(documents))
	for _, doc := range documents {
		ticket, err := DocumentToTicket(doc)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		results = append(results, domain.ScoredTicket{Ticket: ticket, Score: doc.Score})
	}

	r.logger.Info("similarity search returned tickets",
		zap.Int("count", len(results)), zap.Int("top_k", topK), zap.Float64("threshold", threshold))
	return results, nil
}

// TicketToDocument maps a ticket to a vector-store document. The llmCause
// text is what gets embedded; the metadata carries all eight fields so the
// ticket can be reconstructed exactly.
func TicketToDocument(ticket domain.Ticket) vectorstore.Document {
	return vectorstore.Document{
		ID:   PointID(ticket),
		Text: ticket.LlmCause,
		Metadata: map[string]any{
			metaTicketKey:   ticket.TicketKey,
			metaChunkID:     ticket.ChunkID,
			metaSourceField: ticket.SourceField,
			metaCreated:     ticket.Created.Format(time.RFC3339Nano),
			metaProject:     ticket.Project,
			metaStatus:      ticket.Status,
			metaLlmCause:    ticket.LlmCause,
			metaLlmSolution: ticket.LlmSolution,
		},
	}
}

// DocumentToTicket reconstructs a ticket purely from document metadata. The
// document's own text and score are not carried into the domain object; the
// caller keeps the score separately when ranking matters.
func DocumentToTicket(doc vectorstore.Document) (domain.Ticket, error) {
	created, err := time.Parse(time.RFC3339Nano, stringField(doc.Metadata, metaCreated))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("metadata %s: %w", metaCreated, err)
	}

	return domain.Ticket{
		TicketKey:   stringField(doc.Metadata, metaTicketKey),
		ChunkID:     stringField(doc.Metadata, metaChunkID),
		SourceField: stringField(doc.Metadata, metaSourceField),
		Created:     created,
		Project:     stringField(doc.Metadata, metaProject),
		Status:      stringField(doc.Metadata, metaStatus),
		LlmCause:    stringField(doc.Metadata, metaLlmCause),
		LlmSolution: stringField(doc.Metadata, metaLlmSolution),
	}, nil
}

// PointID derives the stable store identifier for a ticket chunk.
func PointID(ticket domain.Ticket) string {
	return uuid.NewSHA1(pointNamespace, []byte(ticket.TicketKey+"__"+ticket.ChunkID)).String()
}

func stringField(metadata map[string]any, key string) string {
	if value, ok := metadata[key].(string); ok {
		return value
	}
	return ""
}

func clampTopK(topK int) int {
	if topK < MinTopK {
		return MinTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

func clampThreshold(threshold float64) float64 {
	if threshold < MinThreshold {
		return MinThreshold
	}
	if threshold > MaxThreshold {
		return MaxThreshold
	}
	return threshold
}
