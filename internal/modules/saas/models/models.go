package models

// AllModels lists every persisted model, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&ConversationTurn{},
		&Order{},
		&SubscriptionPayment{},
	}
}
