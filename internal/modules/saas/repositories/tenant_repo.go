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

type TenantRepo interface {
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	GetByEmail(ctx context.Context, email string) (*models.Tenant, error)
	ListLinked(ctx context.Context) ([]models.Tenant, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Tenant, error)
	SetChannelIdentity(ctx context.Context, id uint, number, jid string) error
	ClearChannelIdentity(ctx context.Context, id uint) error
	SetSubscription(ctx context.Context, id uint, status string, expiresAt *time.Time) error
	UpdateProfile(ctx context.Context, id uint, knowledgeBase, personality string) error
}

type tenantRepo struct {
	db *gorm.DB
}

func NewTenantRepo(db *gorm.DB) TenantRepo {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).First(&tenant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant %d: %w", id, err)
	}
	return &tenant, nil
}

func (r *tenantRepo) GetByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("contact_email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by email: %w", err)
	}
	return &tenant, nil
}

// ListLinked returns tenants with a linked WhatsApp device, used to resume
// sessions at startup.
func (r *tenantRepo) ListLinked(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.WithContext(ctx).
		Where("whatsapp_jid IS NOT NULL AND whatsapp_jid <> ''").
		Where("subscription_status = ?", models.SubscriptionStatusActive).
		Order("id").
		Find(&tenants).Error
	return tenants, err
}

// ListExpired returns active tenants whose subscription ended before now.
func (r *tenantRepo) ListExpired(ctx context.Context, now time.Time) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.WithContext(ctx).
		Where("subscription_status = ?", models.SubscriptionStatusActive).
		Where("subscription_expires_at IS NOT NULL AND subscription_expires_at <= ?", now.UTC()).
		Find(&tenants).Error
	return tenants, err
}

func (r *tenantRepo) SetChannelIdentity(ctx context.Context, id uint, number, jid string) error {
	return r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"whatsapp_number": number,
			"whatsapp_jid":    jid,
		}).Error
}

func (r *tenantRepo) ClearChannelIdentity(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"whatsapp_number": nil,
			"whatsapp_jid":    nil,
		}).Error
}

func (r *tenantRepo) SetSubscription(ctx context.Context, id uint, status string, expiresAt *time.Time) error {
	var expiry interface{}
	if expiresAt != nil {
		expiry = expiresAt.UTC()
	}
	return r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subscription_status":     status,
			"subscription_expires_at": expiry,
		}).Error
}

// UpdateProfile replaces the knowledge base and personality the assistant
// answers with.
func (r *tenantRepo) UpdateProfile(ctx context.Context, id uint, knowledgeBase, personality string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		err := tx.Select("id").First(&tenant, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get tenant %d: %w", id, err)
		}
		return tx.Model(&models.Tenant{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"knowledge_base": knowledgeBase,
				"personality":    personality,
			}).Error
	})
}
