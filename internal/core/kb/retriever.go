// Package kb assembles the per-tenant context a reply is generated from.
package kb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
)

var ErrTenantNotFound = errors.New("tenant not found")

type TenantStore interface {
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
}

type PendingOrderSource interface {
	PendingSince(ctx context.Context, tenantID uint, since time.Time) ([]models.Order, error)
}

// TenantContext is what the orchestrator needs to know about a tenant.
type TenantContext struct {
	Tenant *models.Tenant
	// Schedule lists today's pending order summaries.
	Schedule   []string
	Scheduling bool
}

type Retriever struct {
	tenants           TenantStore
	orders            PendingOrderSource
	loc               *time.Location
	schedulingKeyword string
}

func NewRetriever(tenants TenantStore, orders PendingOrderSource, loc *time.Location, schedulingKeyword string) *Retriever {
	if loc == nil {
		loc = time.UTC
	}
	return &Retriever{
		tenants:           tenants,
		orders:            orders,
		loc:               loc,
		schedulingKeyword: schedulingKeyword,
	}
}

// Load returns the tenant's knowledge, personality and today's pending
// orders. ErrTenantNotFound when the id is unknown.
func (r *Retriever) Load(ctx context.Context, tenantID uint, now time.Time) (*TenantContext, error) {
	tenant, err := r.tenants.GetByID(ctx, tenantID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}

	today := repositories.DayOf(now, r.loc)
	pending, err := r.orders.PendingSince(ctx, tenantID, today.Start)
	if err != nil {
		return nil, fmt.Errorf("load pending orders: %w", err)
	}

	schedule := make([]string, 0, len(pending))
	for _, o := range pending {
		schedule = append(schedule, o.Summary)
	}

	return &TenantContext{
		Tenant:     tenant,
		Schedule:   schedule,
		Scheduling: tenant.IsScheduling(r.schedulingKeyword),
	}, nil
}

// Location is the time zone the tenant's day is measured in.
func (r *Retriever) Location() *time.Location {
	return r.loc
}
