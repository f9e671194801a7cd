// Package tenant decides whether an inbound message may be served.
package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
)

var (
	ErrUnknownTenant  = errors.New("unknown tenant")
	ErrInactiveTenant = errors.New("tenant subscription is not active")
)

type Store interface {
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
}

type Resolver struct {
	store Store
	now   func() time.Time
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// ResolveActive returns the tenant when it exists and its subscription is
// active right now.
func (r *Resolver) ResolveActive(ctx context.Context, tenantID uint) (*models.Tenant, error) {
	t, err := r.store.GetByID(ctx, tenantID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnknownTenant
	}
	if err != nil {
		return nil, err
	}
	if !t.IsActive(r.now()) {
		return nil, ErrInactiveTenant
	}
	return t, nil
}
