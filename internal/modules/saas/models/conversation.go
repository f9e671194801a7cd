package models

import "time"

// Conversation roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one immutable message of a tenant/counterparty dialogue.
type ConversationTurn struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TenantID       uint      `gorm:"not null;index:idx_turns_tenant_counterparty" json:"tenant_id"`
	CounterpartyID string    `gorm:"type:varchar(128);not null;index:idx_turns_tenant_counterparty" json:"counterparty_id"`
	Role           string    `gorm:"type:varchar(16);not null" json:"role"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (ConversationTurn) TableName() string {
	return "conversation_turns"
}
