package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPayment records a processed provider payment so webhook
// redeliveries do not extend a subscription twice.
type SubscriptionPayment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	ProviderPaymentID string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"provider_payment_id"`
	TenantID          uint           `gorm:"not null;index" json:"tenant_id"`
	Email             string         `gorm:"type:varchar(255);not null" json:"email"`
	Amount            float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	DaysGranted       int            `gorm:"not null" json:"days_granted"`
	RawPayload        datatypes.JSON `json:"raw_payload"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (SubscriptionPayment) TableName() string {
	return "subscription_payments"
}
