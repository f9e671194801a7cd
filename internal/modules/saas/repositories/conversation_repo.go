package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
)

type ConversationRepo interface {
	Append(ctx context.Context, tenantID uint, counterpartyID, role, text string) error
	Recent(ctx context.Context, tenantID uint, counterpartyID string, n int) ([]models.ConversationTurn, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Append(ctx context.Context, tenantID uint, counterpartyID, role, text string) error {
	turn := models.ConversationTurn{
		TenantID:       tenantID,
		CounterpartyID: counterpartyID,
		Role:           role,
		Text:           text,
	}
	return r.db.WithContext(ctx).Create(&turn).Error
}

// Recent returns the last n turns of the dialogue, oldest first.
func (r *conversationRepo) Recent(ctx context.Context, tenantID uint, counterpartyID string, n int) ([]models.ConversationTurn, error) {
	if n <= 0 {
		return []models.ConversationTurn{}, nil
	}

	var turns []models.ConversationTurn
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND counterparty_id = ?", tenantID, counterpartyID).
		Order("id DESC").
		Limit(n).
		Find(&turns).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
