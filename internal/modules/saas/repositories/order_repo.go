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

// DayWindow is a half-open [Start, End) interval covering one calendar day
// in some time zone.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) DayWindow {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DayWindow{Start: start.UTC(), End: start.AddDate(0, 0, 1).UTC()}
}

type OrderRepo interface {
	NextSequence(ctx context.Context, tenantID uint, day *DayWindow) (int, error)
	Insert(ctx context.Context, order *models.Order) error
	CreateNext(ctx context.Context, order *models.Order, day *DayWindow) error
	DeleteMostRecentPending(ctx context.Context, tenantID uint, counterparties []string, contains string) (int64, error)
	PendingSince(ctx context.Context, tenantID uint, since time.Time) ([]models.Order, error)
	ListPending(ctx context.Context, tenantID uint, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, tenantID, id uint, status string) error
	Delete(ctx context.Context, tenantID, id uint) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepo {
	return &orderRepo{db: db}
}

// NextSequence returns max(sequence)+1 for the tenant, optionally limited to
// orders created inside day. Starts at 1.
func (r *orderRepo) NextSequence(ctx context.Context, tenantID uint, day *DayWindow) (int, error) {
	return nextSequence(r.db.WithContext(ctx), tenantID, day)
}

func nextSequence(tx *gorm.DB, tenantID uint, day *DayWindow) (int, error) {
	var highest int64
	query := tx.Model(&models.Order{}).
		Select("COALESCE(MAX(sequence), 0)").
		Where("tenant_id = ?", tenantID)
	if day != nil {
		query = query.Where("created_at >= ? AND created_at < ?", day.Start.UTC(), day.End.UTC())
	}
	if err := query.Scan(&highest).Error; err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return int(highest) + 1, nil
}

func (r *orderRepo) Insert(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.DefaultPaymentMethod
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateNext assigns the next sequence number and inserts the order in a
// single transaction.
func (r *orderRepo) CreateNext(ctx context.Context, order *models.Order, day *DayWindow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextSequence(tx, order.TenantID, day)
		if err != nil {
			return err
		}
		order.Sequence = seq
		if order.Status == "" {
			order.Status = models.OrderStatusPending
		}
		if order.PaymentMethod == "" {
			order.PaymentMethod = models.DefaultPaymentMethod
		}
		return tx.Create(order).Error
	})
}

// DeleteMostRecentPending removes at most one pending order of the given
// counterparty, the newest first. A non-empty contains restricts the match
// to summaries containing that text (case-insensitive).
func (r *orderRepo) DeleteMostRecentPending(ctx context.Context, tenantID uint, counterparties []string, contains string) (int64, error) {
	if len(counterparties) == 0 {
		return 0, nil
	}

	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.OrderStatusPending).
		Where("counterparty_id IN ?", counterparties)
	if contains = strings.TrimSpace(contains); contains != "" {
		query = query.Where("LOWER(summary) LIKE ?", "%"+strings.ToLower(contains)+"%")
	}

	var order models.Order
	err := query.Order("id DESC").First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find pending order: %w", err)
	}

	res := r.db.WithContext(ctx).Delete(&models.Order{}, order.ID)
	if res.Error != nil {
		return 0, fmt.Errorf("delete order %d: %w", order.ID, res.Error)
	}
	return res.RowsAffected, nil
}

// PendingSince lists pending orders created at or after since, oldest first.
func (r *orderRepo) PendingSince(ctx context.Context, tenantID uint, since time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND created_at >= ?", tenantID, models.OrderStatusPending, since.UTC()).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListPending(ctx context.Context, tenantID uint, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.OrderStatusPending).
		Order("id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&orders).Error
	return orders, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, tenantID, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, tenantID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
