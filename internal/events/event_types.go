package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketsIngested EventType = "tickets_ingested"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketsIngestedPayload describes a completed batch ingest.
type TicketsIngestedPayload struct {
	Count      int      `json:"count"`
	TicketKeys []string `json:"ticket_keys"`
}
