package models

import (
	"strings"
	"time"
)

// Tenant is a business customer of the platform ("empresa").
type Tenant struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	BusinessName          string     `gorm:"type:text;not null" json:"business_name"`
	ContactEmail          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"contact_email"`
	KnowledgeBase         string     `gorm:"type:text" json:"knowledge_base"`
	Personality           string     `gorm:"type:text" json:"personality"`
	WhatsAppNumber        *string    `gorm:"column:whatsapp_number;type:varchar(32)" json:"whatsapp_number"`
	WhatsAppJID           *string    `gorm:"column:whatsapp_jid;type:varchar(128)" json:"whatsapp_jid"`
	SubscriptionStatus    string     `gorm:"type:varchar(16);default:'inactive'" json:"subscription_status"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Tenant) TableName() string {
	return "tenants"
}

// Subscription status constants
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusInactive = "inactive"
	SubscriptionStatusExpired  = "expired"
)

// IsActive reports whether the tenant may be served at the given instant.
func (t *Tenant) IsActive(now time.Time) bool {
	if t.SubscriptionStatus != SubscriptionStatusActive {
		return false
	}
	return t.SubscriptionExpiresAt == nil || t.SubscriptionExpiresAt.After(now)
}

// IsScheduling reports whether the knowledge base describes an
// appointment-based business.
func (t *Tenant) IsScheduling(keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(t.KnowledgeBase), strings.ToLower(keyword))
}
