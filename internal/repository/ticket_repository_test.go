package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-knowledge-service/internal/domain"
	"github.com/spec-kit/ticket-knowledge-service/internal/vectorstore"
	apperrors "github.com/spec-kit/ticket-knowledge-service/pkg/util/errorutil"
)

// fakeStore records calls and returns canned results.
type fakeStore struct {
	added         []vectorstore.Document
	addCalls      int
	searchResults []vectorstore.Document
	lastTopK      int
	lastThreshold float64
	failWith      error
}

func (f *fakeStore) Add(ctx context.Context, documents []vectorstore.Document) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.addCalls++
	f.added = append(f.added, documents...)
	return nil
}

func (f *fakeStore) SimilaritySearch(ctx context.Context, query string, topK int, threshold float64) ([]vectorstore.Document, error) {
	f.lastTopK = topK
	f.lastThreshold = threshold
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.searchResults, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func ticketFixture(key string) domain.Ticket {
	return domain.Ticket{
		TicketKey:   key,
		ChunkID:     key + "__summary__0",
		SourceField: "summary",
		Created:     time.Date(2025, 1, 15, 10, 43, 0, 0, time.UTC),
		Project:     "GDIPROD",
		Status:      "Fermé",
		LlmCause:    "control file missing on inbound transfer",
		LlmSolution: "recreate the transfer definition",
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	ticket := ticketFixture("GDIPROD-3751")

	doc := TicketToDocument(ticket)
	assert.Equal(t, ticket.LlmCause, doc.Text)
	assert.Len(t, doc.Metadata, 8)

	back, err := DocumentToTicket(doc)
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketKey, back.TicketKey)
	assert.Equal(t, ticket.ChunkID, back.ChunkID)
	assert.Equal(t, ticket.SourceField, back.SourceField)
	assert.True(t, ticket.Created.Equal(back.Created))
	assert.Equal(t, ticket.Project, back.Project)
	assert.Equal(t, ticket.Status, back.Status)
	assert.Equal(t, ticket.LlmCause, back.LlmCause)
	assert.Equal(t, ticket.LlmSolution, back.LlmSolution)
}

func TestDocumentRoundTripKeepsZoneOffset(t *testing.T) {
	ticket := ticketFixture("GDIPROD-1")
	ticket.Created = time.Date(2025, 1, 15, 10, 43, 0, 0, time.FixedZone("", 2*3600))

	back, err := DocumentToTicket(TicketToDocument(ticket))
	require.NoError(t, err)
	assert.True(t, ticket.Created.Equal(back.Created))
}

func TestDocumentToTicketRejectsBadCreatedMetadata(t *testing.T) {
	doc := TicketToDocument(ticketFixture("GDIPROD-1"))
	doc.Metadata["created"] = "not-a-timestamp"

	_, err := DocumentToTicket(doc)
	require.Error(t, err)
}

func TestPointIDIsStable(t *testing.T) {
	first := PointID(ticketFixture("GDIPROD-1"))
	second := PointID(ticketFixture("GDIPROD-1"))
	other := PointID(ticketFixture("GDIPROD-2"))

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
}

func TestSaveTicketsEmptyBatchIsNoOp(t *testing.T) {
	store := &fakeStore{}
	repo := NewTicketRepository(store, zap.NewNop())

	saved, err := repo.SaveTickets(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Zero(t, store.addCalls)
}

func TestSaveTicketsValidatesBeforeStore(t *testing.T) {
	store := &fakeStore{}
	repo := NewTicketRepository(store, zap.NewNop())

	invalid := ticketFixture("GDIPROD-1")
	invalid.Project = ""

	_, err := repo.SaveTickets(context.Background(), []domain.Ticket{ticketFixture("GDIPROD-0"), invalid})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Zero(t, store.addCalls, "store must not be touched when any ticket is invalid")
}

func TestSaveTicketsSubmitsWholeBatch(t *testing.T) {
	store := &fakeStore{}
	repo := NewTicketRepository(store, zap.NewNop())

	tickets := []domain.Ticket{ticketFixture("GDIPROD-1"), ticketFixture("GDIPROD-2"), ticketFixture("GDIPROD-3")}
	saved, err := repo.SaveTickets(context.Background(), tickets)
	require.NoError(t, err)
	assert.Equal(t, tickets, saved)
	assert.Equal(t, 1, store.addCalls)
	require.Len(t, store.added, 3)
	assert.Equal(t, PointID(tickets[0]), store.added[0].ID)
}

func TestSaveTicketDelegatesToBatch(t *testing.T) {
	store := &fakeStore{}
	repo := NewTicketRepository(store, zap.NewNop())

	ticket := ticketFixture("GDIPROD-1")
	saved, err := repo.SaveTicket(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, ticket, saved)
	require.Len(t, store.added, 1)
	assert.Equal(t, ticket.LlmCause, store.added[0].Text)
}

func TestSaveTicketsWrapsStoreFailure(t *testing.T) {
	store := &fakeStore{failWith: errors.New("connection refused")}
	repo := NewTicketRepository(store, zap.NewNop())

	_, err := repo.SaveTickets(context.Background(), []domain.Ticket{ticketFixture("GDIPROD-1")})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "STORE_ERROR"))
}

func TestSearchByCauseClampsBounds(t *testing.T) {
	store := &fakeStore{}
	repo := NewTicketRepository(store, zap.NewNop())
	ctx := context.Background()

	_, err := repo.SearchByCause(ctx, "timeout", 0, -0.5)
	require.NoError(t, err)
	assert.Equal(t, MinTopK, store.lastTopK)
	assert.Equal(t, MinThreshold, store.lastThreshold)

	_, err = repo.SearchByCause(ctx, "timeout", 101, 1.5)
	require.NoError(t, err)
	assert.Equal(t, MaxTopK, store.lastTopK)
	assert.Equal(t, MaxThreshold, store.lastThreshold)

	_, err = repo.SearchByCause(ctx, "timeout", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, store.lastTopK)

	_, err = repo.SearchByCause(ctx, "timeout", 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 100, store.lastTopK)
}

func TestSearchByCausePreservesStoreOrder(t *testing.T) {
	store := &fakeStore{}
	for i, score := range []float64{0.97, 0.85, 0.71} {
		ticket := ticketFixture(fmt.Sprintf("GDIPROD-%d", i+1))
		doc := TicketToDocument(ticket)
		doc.Score = score
		store.searchResults = append(store.searchResults, doc)
	}
	repo := NewTicketRepository(store, zap.NewNop())

	results, err := repo.SearchByCause(context.Background(), "transfer failure", 10, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "GDIPROD-1", results[0].Ticket.TicketKey)
	assert.Equal(t, 0.97, results[0].Score)
	assert.Equal(t, "GDIPROD-2", results[1].Ticket.TicketKey)
	assert.Equal(t, "GDIPROD-3", results[2].Ticket.TicketKey)
}

func TestSearchByCauseEmptyResultIsNotError(t *testing.T) {
	repo := NewTicketRepository(&fakeStore{}, zap.NewNop())

	results, err := repo.SearchByCause(context.Background(), "nothing like this", 5, 0.9)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchByCauseWrapsStoreFailure(t *testing.T) {
	repo := NewTicketRepository(&fakeStore{failWith: errors.New("index unavailable")}, zap.NewNop())

	_, err := repo.SearchByCause(context.Background(), "timeout", 5, 0.7)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "STORE_ERROR"))
}
