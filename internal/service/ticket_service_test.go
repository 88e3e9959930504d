package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-knowledge-service/internal/config"
	"github.com/spec-kit/ticket-knowledge-service/internal/domain"
	"github.com/spec-kit/ticket-knowledge-service/internal/events"
	apperrors "github.com/spec-kit/ticket-knowledge-service/pkg/util/errorutil"
)

// fakeRepo records facade calls.
type fakeRepo struct {
	saved         []domain.Ticket
	saveCalls     int
	searchResults []domain.ScoredTicket
	searchCalls   int
	failWith      error
}

func (f *fakeRepo) SaveTicket(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	saved, err := f.SaveTickets(ctx, []domain.Ticket{ticket})
	if err != nil {
		return domain.Ticket{}, err
	}
	return saved[0], nil
}

func (f *fakeRepo) SaveTickets(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	f.saveCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.saved = append(f.saved, tickets...)
	return tickets, nil
}

func (f *fakeRepo) SearchByCause(ctx context.Context, cause string, topK int, threshold float64) ([]domain.ScoredTicket, error) {
	f.searchCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.searchResults, nil
}

func newService(repo *fakeRepo, dispatcher events.Dispatcher) *TicketService {
	return NewTicketService(config.SimilarityConfig{TopK: 5, Threshold: 0.7}, TicketDependencies{
		TicketRepo: repo,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
}

func ticketJSON(key string) map[string]any {
	return map[string]any{
		"ticketKey":   key,
		"chunkId":     key + "__summary__0",
		"sourceField": "summary",
		"created":     "2025-01-15 10:43",
		"project":     "GDIPROD",
		"status":      "Fermé",
		"llmCause":    "scheduler lost the batch handle",
		"llmSolution": "requeue the job after clearing the lock",
	}
}

func TestIngestBatchHappyPath(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, nil)

	batch := make([]any, 0, 5)
	for i := 1; i <= 5; i++ {
		batch = append(batch, ticketJSON(fmt.Sprintf("GDIPROD-%d", i)))
	}
	payload, err := json.Marshal(batch)
	require.NoError(t, err)

	saved, err := svc.IngestBatch(context.Background(), payload)
	require.NoError(t, err)
	require.Len(t, saved, 5)
	for i, ticket := range saved {
		assert.Equal(t, fmt.Sprintf("GDIPROD-%d", i+1), ticket.TicketKey)
		assert.Equal(t, time.Date(2025, 1, 15, 10, 43, 0, 0, time.UTC), ticket.Created.UTC())
	}
	assert.Equal(t, 1, repo.saveCalls)
}

func TestIngestBatchRejectsObjectPayload(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, nil)

	payload, err := json.Marshal(ticketJSON("GDIPROD-1"))
	require.NoError(t, err)

	_, err = svc.IngestBatch(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "MALFORMED_INPUT"))
	assert.Zero(t, repo.saveCalls, "store must not be touched for malformed input")
}

func TestIngestBatchInvalidTicketAbortsBatch(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, nil)

	bad := ticketJSON("GDIPROD-2")
	bad["status"] = ""
	payload, err := json.Marshal([]any{ticketJSON("GDIPROD-1"), bad})
	require.NoError(t, err)

	_, err = svc.IngestBatch(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Zero(t, repo.saveCalls)
}

func TestIngestBatchPropagatesStoreError(t *testing.T) {
	repo := &fakeRepo{failWith: apperrors.NewStoreError(context.DeadlineExceeded)}
	svc := newService(repo, nil)

	payload, err := json.Marshal([]any{ticketJSON("GDIPROD-1")})
	require.NoError(t, err)

	_, err = svc.IngestBatch(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "STORE_ERROR"))
}

func TestIngestBatchPublishesEvent(t *testing.T) {
	repo := &fakeRepo{}
	dispatcher := events.NewInMemoryDispatcher()

	var received events.Event
	dispatcher.Subscribe(events.EventTicketsIngested, func(ctx context.Context, event events.Event) error {
		received = event
		return nil
	})
	svc := newService(repo, dispatcher)

	payload, err := json.Marshal([]any{ticketJSON("GDIPROD-1"), ticketJSON("GDIPROD-2")})
	require.NoError(t, err)

	_, err = svc.IngestBatch(context.Background(), payload)
	require.NoError(t, err)

	require.Equal(t, events.EventTicketsIngested, received.Type)
	ingestPayload, ok := received.Payload.(events.TicketsIngestedPayload)
	require.True(t, ok)
	assert.Equal(t, 2, ingestPayload.Count)
	assert.Equal(t, []string{"GDIPROD-1", "GDIPROD-2"}, ingestPayload.TicketKeys)
}

func TestSearchSimilarCauseReturnsRankedResults(t *testing.T) {
	repo := &fakeRepo{searchResults: []domain.ScoredTicket{
		{Ticket: domain.Ticket{TicketKey: "GDIPROD-9"}, Score: 0.93},
		{Ticket: domain.Ticket{TicketKey: "GDIPROD-4"}, Score: 0.81},
	}}
	svc := newService(repo, nil)

	results := svc.SearchSimilarCause(context.Background(), "batch handle lost")
	require.Len(t, results, 2)
	assert.Equal(t, "GDIPROD-9", results[0].Ticket.TicketKey)
	assert.Equal(t, "GDIPROD-4", results[1].Ticket.TicketKey)
}

func TestSearchSimilarCauseSwallowsStoreFailure(t *testing.T) {
	repo := &fakeRepo{failWith: apperrors.NewStoreError(context.DeadlineExceeded)}
	svc := newService(repo, nil)

	results := svc.SearchSimilarCause(context.Background(), "anything")
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchSimilarCauseBlankQueryShortCircuits(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, nil)

	results := svc.SearchSimilarCause(context.Background(), "   ")
	assert.Empty(t, results)
	assert.Zero(t, repo.searchCalls)
}
