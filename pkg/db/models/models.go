package models

// All lists every model the service persists, in dependency order.
func All() []any {
	return []any{
		&LuggageTask{},
		&LuggageArchiveEntry{},
		&Deposit{},
		&ArchivedDeposit{},
		&StaffUser{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
