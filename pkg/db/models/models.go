package models

// All lists every persisted model, in dependency order. Used by sqlite
// auto-migration in development and tests; postgres uses goose migrations.
func All() []any {
	return []any{
		&BloodStock{},
		&StockEvent{},
		&Donor{},
		&Recipient{},
		&Donation{},
		&BloodRequest{},
		&Issuance{},
		&AuditLog{},
		&StockAlert{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
