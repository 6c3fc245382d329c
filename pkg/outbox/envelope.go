package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
)

// EnvelopeVersion is bumped whenever PayloadEnvelope changes shape.
const EnvelopeVersion = 1

// ErrMalformedEnvelope marks stored payloads no consumer could decode.
var ErrMalformedEnvelope = errors.New("malformed outbox envelope")

// ActorRef identifies who produced the event. Webhook-driven events carry the
// provider as actor and no vendor.
type ActorRef struct {
	VendorID *uuid.UUID `json:"vendorId,omitempty"`
	StoreID  *uuid.UUID `json:"storeId,omitempty"`
	Source   string     `json:"source"`
}

// PayloadEnvelope is what gets stored in outbox_events.payload and shipped
// unchanged as the Pub/Sub message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func newEnvelope(event DomainEvent, eventID string) (PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return PayloadEnvelope{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	return PayloadEnvelope{
		Version:    EnvelopeVersion,
		EventID:    eventID,
		OccurredAt: event.OccurredAt.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}, nil
}

// DecodeEnvelope parses a stored payload. Anything that is not a current
// envelope with an event id is reported as ErrMalformedEnvelope.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	switch {
	case env.EventID == "":
		return env, fmt.Errorf("%w: missing event id", ErrMalformedEnvelope)
	case env.Version != EnvelopeVersion:
		return env, fmt.Errorf("%w: unsupported version %d", ErrMalformedEnvelope, env.Version)
	}
	return env, nil
}

// Attributes are the message attributes consumers filter on without
// decoding the body.
func (e PayloadEnvelope) Attributes(row models.OutboxEvent) map[string]string {
	return map[string]string{
		"event_id":       e.EventID,
		"event_type":     string(row.EventType),
		"aggregate_type": string(row.AggregateType),
		"aggregate_id":   row.AggregateID.String(),
		"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
	}
}
