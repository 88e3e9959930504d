package domain

import (
	"context"
	"time"
	"unicode/utf8"

	apperrors "github.com/spec-kit/ticket-knowledge-service/pkg/util/errorutil"
)

// Field length limits keep oversized payloads away from the embedding layer.
const (
	MaxCauseLength    = 2000
	MaxSolutionLength = 3000
)

// Ticket is a single chunk of a support ticket held in the incident
// knowledge base. Instances are immutable once validated; identity is the
// ticketKey+chunkId pairing, with uniqueness delegated to the vector store.
type Ticket struct {
	TicketKey   string
	ChunkID     string
	SourceField string
	Created     time.Time
	Project     string
	Status      string
	LlmCause    string
	LlmSolution string
}

// ticketRule is one entry in the ordered validation rule list. The first
// failing rule determines the reported field.
type ticketRule struct {
	field   string
	message string
	failed  func(Ticket) bool
}

var ticketRules = []ticketRule{
	{"ticketKey", "ticketKey is required", func(t Ticket) bool { return isBlank(t.TicketKey) }},
	{"chunkId", "chunkId is required", func(t Ticket) bool { return isBlank(t.ChunkID) }},
	{"sourceField", "sourceField is required", func(t Ticket) bool { return isBlank(t.SourceField) }},
	{"created", "created timestamp is required", func(t Ticket) bool { return t.Created.IsZero() }},
	{"project", "project is required", func(t Ticket) bool { return isBlank(t.Project) }},
	{"status", "status is required", func(t Ticket) bool { return isBlank(t.Status) }},
	{"llmCause", "llmCause exceeds max length 2000 characters", func(t Ticket) bool {
		return utf8.RuneCountInString(t.LlmCause) > MaxCauseLength
	}},
	{"llmSolution", "llmSolution exceeds max length 3000 characters", func(t Ticket) bool {
		return utf8.RuneCountInString(t.LlmSolution) > MaxSolutionLength
	}},
}

// Validate checks the ticket against the rule list and returns the first
// violation as a VALIDATION_FAILED error naming the offending field.
func (t Ticket) Validate() error {
	for _, rule := range ticketRules {
		if rule.failed(t) {
			return apperrors.NewValidationError(rule.message, map[string]any{"field": rule.field})
		}
	}
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// ScoredTicket pairs a retrieved ticket with its relevance score so ranking
// information is not silently dropped on the way out of the store.
type ScoredTicket struct {
	Ticket Ticket
	Score  float64
}

// TicketRepository encapsulates ticket storage and similarity retrieval.
type TicketRepository interface {
	SaveTicket(ctx context.Context, ticket Ticket) (Ticket, error)
	SaveTickets(ctx context.Context, tickets []Ticket) ([]Ticket, error)
	SearchByCause(ctx context.Context, cause string, topK int, threshold float64) ([]ScoredTicket, error)
}
