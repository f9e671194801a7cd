package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
)

// ErrPaymentAlreadyProcessed is returned when a provider payment id was
// already applied to a subscription.
var ErrPaymentAlreadyProcessed = errors.New("payment already processed")

type PaymentRepo interface {
	// ApplyActivation records the payment and activates the tenant owning
	// its e-mail until expiresAt, creating the tenant when missing.
	ApplyActivation(ctx context.Context, payment *models.SubscriptionPayment, expiresAt time.Time) (*models.Tenant, error)
}

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) PaymentRepo {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) ApplyActivation(ctx context.Context, payment *models.SubscriptionPayment, expiresAt time.Time) (*models.Tenant, error) {
	email := strings.ToLower(strings.TrimSpace(payment.Email))
	var tenant models.Tenant

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.SubscriptionPayment{}).
			Where("provider_payment_id = ?", payment.ProviderPaymentID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrPaymentAlreadyProcessed
		}

		err := tx.Where("contact_email = ?", email).First(&tenant).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			tenant = models.Tenant{
				BusinessName:       businessNameFromEmail(email),
				ContactEmail:       email,
				SubscriptionStatus: models.SubscriptionStatusInactive,
			}
			if err := tx.Create(&tenant).Error; err != nil {
				return fmt.Errorf("create tenant: %w", err)
			}
		case err != nil:
			return err
		}

		expiry := expiresAt.UTC()
		if err := tx.Model(&tenant).Updates(map[string]interface{}{
			"subscription_status":     models.SubscriptionStatusActive,
			"subscription_expires_at": expiry,
		}).Error; err != nil {
			return fmt.Errorf("activate tenant: %w", err)
		}
		tenant.SubscriptionStatus = models.SubscriptionStatusActive
		tenant.SubscriptionExpiresAt = &expiry

		payment.Email = email
		payment.TenantID = tenant.ID
		return tx.Create(payment).Error
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func businessNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
