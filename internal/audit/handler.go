package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/belldesk-backend/internal/audit/types"
	"github.com/angelmondragon/belldesk-backend/internal/audit/writer"
	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox/payloads"
)

// ErrUnsupportedEventType marks envelopes no decoder is registered for.
var ErrUnsupportedEventType = errors.New("unsupported desk event type")

// Writer receives the rows built from desk events.
type Writer interface {
	Insert(ctx context.Context, row types.DeskEventRow) error
}

// Decoder turns a versioned event payload into its typed struct.
type Decoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// Handler maps desk events onto desk_events rows.
type Handler struct {
	writer   Writer
	decoders Decoder
	clock    func() time.Time
}

// NewHandler wires a row writer and the payload decoders.
func NewHandler(w Writer, decoders Decoder) (*Handler, error) {
	if w == nil {
		return nil, errors.New("writer is required")
	}
	if decoders == nil {
		return nil, errors.New("decoder registry is required")
	}
	return &Handler{writer: w, decoders: decoders, clock: time.Now}, nil
}

// Handle decodes the envelope payload and writes one row for it.
func (h *Handler) Handle(ctx context.Context, envelope types.Envelope) error {
	version := envelope.Version
	if version <= 0 {
		version = 1
	}
	decoded, err := h.decoders.Decode(envelope.EventType, version, envelope.Payload)
	if err != nil {
		return fmt.Errorf("%w: %s@v%d: %v", ErrUnsupportedEventType, envelope.EventType, version, err)
	}

	row := types.DeskEventRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		AggregateType: string(envelope.AggregateType),
		AggregateID:   envelope.AggregateID,
		OccurredAt:    envelope.OccurredAt.UTC(),
		Payload:       writer.EncodeJSON(envelope.Payload),
		IngestedAt:    h.clock().UTC(),
	}
	if envelope.Actor != nil {
		row.ActorName = optional(envelope.Actor.Name)
	}

	switch event := decoded.(type) {
	case *payloads.DepositReleasedEvent:
		row.Guest = optional(event.Guest)
		row.Tag = optional(event.Tag)
		row.ReleasePorter = optional(event.ReleasePorter)
	case *payloads.LuggageArchivedEvent:
		row.Guest = optional(event.Guest)
		row.Room = optional(event.Room)
		row.Reason = optional(event.Reason)
	}

	return h.writer.Insert(ctx, row)
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
