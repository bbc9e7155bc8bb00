package enums

import "fmt"

// OutboxAggregateType identifies the record an outbox event is about.
type OutboxAggregateType string

const (
	AggregateDeposit     OutboxAggregateType = "deposit"
	AggregateLuggageTask OutboxAggregateType = "luggage_task"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDeposit,
	AggregateLuggageTask,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names the domain event carried by an outbox row.
type OutboxEventType string

const (
	EventDepositReleased OutboxEventType = "deposit.released"
	EventLuggageArchived OutboxEventType = "luggage.archived"
)

var validOutboxEventTypes = []OutboxEventType{
	EventDepositReleased,
	EventLuggageArchived,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
