package types

import (
	"encoding/json"
	"reflect"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox"
)

// Envelope is a desk event as received from the desk-events subscription.
type Envelope struct {
	EventID       string
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	Version       int
	OccurredAt    time.Time
	Actor         *outbox.ActorRef
	Payload       json.RawMessage
}

// DeskEventRow mirrors the desk_events BigQuery schema.
type DeskEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	AggregateType string             `bigquery:"aggregate_type"`
	AggregateID   string             `bigquery:"aggregate_id"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	ActorName     *string            `bigquery:"actor_name"`
	Guest         *string            `bigquery:"guest"`
	Room          *string            `bigquery:"room"`
	Tag           *string            `bigquery:"tag"`
	ReleasePorter *string            `bigquery:"release_porter"`
	Reason        *string            `bigquery:"reason"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
	IngestedAt    time.Time          `bigquery:"ingested_at"`
}

// DeskEventColumns lists the desk_events columns a DeskEventRow writes.
func DeskEventColumns() []string {
	rt := reflect.TypeOf(DeskEventRow{})
	cols := make([]string, 0, rt.NumField())
	for i := range rt.NumField() {
		if name := rt.Field(i).Tag.Get("bigquery"); name != "" && name != "-" {
			cols = append(cols, name)
		}
	}
	return cols
}
