package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-knowledge-service/internal/api/dto"
	"github.com/spec-kit/ticket-knowledge-service/internal/service"
	apperrors "github.com/spec-kit/ticket-knowledge-service/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket tool endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// InsertTickets POST /tools/insert_tickets.
//
// The request body is the raw JSON array of ticket objects. The response
// echoes the accepted tickets after normalization, in input order.
func (h *TicketsHandler) InsertTickets(c *fiber.Ctx) error {
	payload := c.Body()
	if len(payload) == 0 {
		return apperrors.NewMalformedInput("request body is empty", nil)
	}

	tickets, err := h.service.IngestBatch(c.UserContext(), payload)
	if err != nil {
		return err
	}

	items := make([]dto.TicketDTO, 0, len(tickets))
	for _, ticket := range tickets {
		items = append(items, dto.FromDomain(ticket))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": items})
}

// SimilaritySearch POST /tools/similarity_search.
//
// Returns tickets ranked by similarity of their stored cause text to the
// given description. Search-side failures yield an empty list, not an error.
func (h *TicketsHandler) SimilaritySearch(c *fiber.Ctx) error {
	var req dto.SimilaritySearchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMalformedInput("invalid payload", nil)
	}

	results := h.service.SearchSimilarCause(c.UserContext(), req.TicketCause)

	items := make([]dto.TicketMatch, 0, len(results))
	for _, result := range results {
		items = append(items, dto.TicketMatch{
			Ticket: dto.FromDomain(result.Ticket),
			Score:  result.Score,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
