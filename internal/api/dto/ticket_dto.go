package dto

import (
	"time"

	"github.com/spec-kit/ticket-knowledge-service/internal/domain"
)

// TicketDTO is the wire representation of a ticket chunk, used for batch
// ingestion payloads and tool responses.
type TicketDTO struct {
	TicketKey   string    `json:"ticketKey"`
	ChunkID     string    `json:"chunkId"`
	SourceField string    `json:"sourceField"`
	Created     time.Time `json:"created"`
	Project     string    `json:"project"`
	Status      string    `json:"status"`
	LlmCause    string    `json:"llmCause,omitempty"`
	LlmSolution string    `json:"llmSolution,omitempty"`
}

// SimilaritySearchRequest is the payload for the similarity_search tool.
type SimilaritySearchRequest struct {
	TicketCause string `json:"ticketCause"`
}

// TicketMatch pairs a ticket with its relevance score in search responses.
type TicketMatch struct {
	Ticket TicketDTO `json:"ticket"`
	Score  float64   `json:"score"`
}

// ToDomain converts the DTO into the domain entity, field by field.
func (d TicketDTO) ToDomain() domain.Ticket {
	return domain.Ticket{
		TicketKey:   d.TicketKey,
		ChunkID:     d.ChunkID,
		SourceField: d.SourceField,
		Created:     d.Created,
		Project:     d.Project,
		Status:      d.Status,
		LlmCause:    d.LlmCause,
		LlmSolution: d.LlmSolution,
	}
}

// FromDomain converts a domain ticket back into its wire representation.
func FromDomain(t domain.Ticket) TicketDTO {
	return TicketDTO{
		TicketKey:   t.TicketKey,
		ChunkID:     t.ChunkID,
		SourceField: t.SourceField,
		Created:     t.Created,
		Project:     t.Project,
		Status:      t.Status,
		LlmCause:    t.LlmCause,
		LlmSolution: t.LlmSolution,
	}
}
