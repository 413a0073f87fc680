package router

import (
	"fmt"

	"github.com/voltline/voltline-backend/internal/analytics/types"
	"github.com/voltline/voltline-backend/internal/analytics/writer"
	"github.com/google/uuid"
)

// baseRow seeds a storefront_events row from the envelope. Handlers fill in
// the event-specific columns afterwards.
func baseRow(envelope types.Envelope) (types.StorefrontEventRow, error) {
	payload, err := writer.EncodeJSON(envelope.Payload)
	if err != nil {
		return types.StorefrontEventRow{}, fmt.Errorf("encode %s payload: %w", envelope.EventType, err)
	}
	return types.StorefrontEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt.UTC(),
		Payload:    payload,
	}, nil
}

func uuidPtr(id uuid.UUID) *string {
	if id == uuid.Nil {
		return nil
	}
	return stringPtr(id.String())
}

func optionalUUIDPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	return uuidPtr(*id)
}
