package models

import "time"

// Order is a pending order or appointment taken over chat.
type Order struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TenantID       uint      `gorm:"not null;index:idx_orders_tenant_sequence" json:"tenant_id"`
	Sequence       int       `gorm:"not null;index:idx_orders_tenant_sequence" json:"sequence"`
	CounterpartyID string    `gorm:"type:varchar(128);not null;index" json:"counterparty_id"`
	Summary        string    `gorm:"type:text;not null" json:"summary"`
	Amount         float64   `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	PaymentMethod  string    `gorm:"type:varchar(64);default:'A combinar'" json:"payment_method"`
	Status         string    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}

// Order status constants
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// DefaultPaymentMethod is used until the customer and the business settle it.
const DefaultPaymentMethod = "A combinar"

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}
