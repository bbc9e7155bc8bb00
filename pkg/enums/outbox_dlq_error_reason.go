package enums

// OutboxDLQErrorReason says why a desk event was parked instead of published.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonUndecodable: the row could not be resolved into a desk
	// event (unknown type, aggregate mismatch, broken envelope).
	OutboxDLQReasonUndecodable OutboxDLQErrorReason = "undecodable"
	// OutboxDLQReasonNonRetryable: Pub/Sub refused the message for good or no
	// desk publisher is configured.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

// IsValid reports whether r is one of the reasons the outbox_dlq table accepts.
func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonUndecodable, OutboxDLQReasonNonRetryable, OutboxDLQReasonMaxAttempts:
		return true
	}
	return false
}
