package dto

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/spec-kit/ticket-knowledge-service/pkg/util/errorutil"
)

var (
	// YYYY-MM-DDTHH:MM with no seconds and no zone.
	missingSecondsPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`)
	dateTimePattern       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T.+$`)
)

// NormalizeCreated repairs loosely formatted creation timestamps into strict
// RFC 3339 form. Applied rules, in order: the space between date and time
// becomes "T"; minutes-only timestamps gain ":00Z"; timestamps without a
// zone indicator after the time portion gain "Z" (UTC assumed). If the
// result still does not parse as an absolute instant, a VALIDATION_FAILED
// error for the created field is returned.
func NormalizeCreated(value string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), " ", "T")

	if missingSecondsPattern.MatchString(normalized) {
		normalized += ":00Z"
	}
	if dateTimePattern.MatchString(normalized) && !hasZoneIndicator(normalized) {
		normalized += "Z"
	}

	if _, err := time.Parse(time.RFC3339, normalized); err != nil {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("invalid created timestamp format: %q", value),
			map[string]any{"field": "created"},
		)
	}
	return normalized, nil
}

// hasZoneIndicator reports whether the time portion carries Z, + or -.
// Only the text after "T" counts: the date portion always contains dashes.
func hasZoneIndicator(s string) bool {
	idx := strings.IndexByte(s, 'T')
	if idx < 0 {
		return false
	}
	return strings.ContainsAny(s[idx+1:], "Z+-")
}

// ParseTicketBatch decodes a raw JSON array of ticket objects into validated
// DTOs. The created field of every element is normalized in place on the raw
// JSON before the record itself is decoded. A non-array top-level value is a
// MALFORMED_INPUT error; any invalid element fails the whole batch.
func ParseTicketBatch(payload []byte) ([]TicketDTO, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(payload, &elements); err != nil {
		return nil, apperrors.NewMalformedInput("input must be a JSON array", nil)
	}

	dtos := make([]TicketDTO, 0, len(elements))
	for i, element := range elements {
		dto, err := parseTicketElement(element)
		if err != nil {
			if domainErr := apperrors.ToDomainError(err); domainErr.Details != nil {
				domainErr.Details["index"] = i
			}
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func parseTicketElement(element json.RawMessage) (TicketDTO, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(element, &fields); err != nil {
		return TicketDTO{}, apperrors.NewMalformedInput("array element is not a JSON object", map[string]any{})
	}

	if raw, ok := fields["created"]; ok {
		var created string
		if err := json.Unmarshal(raw, &created); err == nil {
			normalized, err := NormalizeCreated(created)
			if err != nil {
				return TicketDTO{}, err
			}
			encoded, err := json.Marshal(normalized)
			if err != nil {
				return TicketDTO{}, err
			}
			fields["created"] = encoded
		}
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return TicketDTO{}, err
	}

	var dto TicketDTO
	if err := json.Unmarshal(merged, &dto); err != nil {
		return TicketDTO{}, apperrors.NewValidationError("invalid ticket payload", map[string]any{})
	}

	if err := dto.ToDomain().Validate(); err != nil {
		return TicketDTO{}, err
	}
	return dto, nil
}
