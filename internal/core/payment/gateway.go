package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrPaymentNotFound is returned when the provider does not know the id.
var ErrPaymentNotFound = errors.New("payment: not found")

// Gateway looks up payments notified by a provider webhook.
type Gateway interface {
	GetPayment(ctx context.Context, id string) (*Payment, error)
	Name() string
}

// Payment is the provider-neutral view of a payment. ExternalReference is
// the account e-mail set at checkout and names the tenant to activate,
// whoever paid.
type Payment struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	Amount            float64         `json:"amount"`
	Currency          string          `json:"currency"`
	ExternalReference string          `json:"external_reference"`
	PayerEmail        string          `json:"payer_email"`
	Description       string          `json:"description,omitempty"`
	DateApproved      *time.Time      `json:"date_approved,omitempty"`
	Raw               json.RawMessage `json:"-"`
}

// Payment status constants
const (
	StatusApproved  = "approved"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

// Approved reports whether the payment can activate a subscription.
func (p *Payment) Approved() bool {
	return p != nil && p.Status == StatusApproved
}

// Plan days granted per payment. Anything above AnnualThreshold buys a year.
const (
	MonthlyDays     = 30
	AnnualDays      = 365
	AnnualThreshold = 500.0
)

// DaysFor returns how many subscription days an amount buys.
func DaysFor(amount float64) int {
	if amount > AnnualThreshold {
		return AnnualDays
	}
	return MonthlyDays
}
