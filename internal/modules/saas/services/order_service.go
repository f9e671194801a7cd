package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexuschat/nexuschat-be/internal/core/markers"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
)

// OrderEffect is what a reply did to the order ledger.
type OrderEffect struct {
	Created   []models.Order
	Cancelled int64
}

// OrderService applies reply directives to the order ledger.
type OrderService struct {
	orders  repositories.OrderRepo
	loc     *time.Location
	keyword string
	now     func() time.Time

	// sequence assignment is serialized per tenant
	locks sync.Map
}

func NewOrderService(orders repositories.OrderRepo, loc *time.Location, schedulingKeyword string) *OrderService {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderService{
		orders:  orders,
		loc:     loc,
		keyword: schedulingKeyword,
		now:     time.Now,
	}
}

// Cancel removes at most one pending order of the counterparty. CancelNamed
// only matches orders whose summary mentions the target.
func (s *OrderService) Cancel(ctx context.Context, tenant *models.Tenant, counterparty string, d markers.Directive) (int64, error) {
	var target string
	switch d.Kind {
	case markers.CancelAll:
	case markers.CancelNamed:
		target = d.Target
	default:
		return 0, nil
	}

	n, err := s.orders.DeleteMostRecentPending(ctx, tenant.ID, Counterparties(counterparty), target)
	if err != nil {
		return 0, fmt.Errorf("cancel order: %w", err)
	}

	log.Info().
		Uint("tenant_id", tenant.ID).
		Str("from", counterparty).
		Str("target", target).
		Int64("deleted", n).
		Msg("🗑️ Order cancelled by customer")
	return n, nil
}

// Complete records the orders announced by a completion directive. Item
// lines create one order each; a total creates one order summarised by the
// cleaned reply.
func (s *OrderService) Complete(ctx context.Context, tenant *models.Tenant, counterparty string, d markers.Directive, cleanedReply string) ([]models.Order, error) {
	var drafts []models.Order
	switch d.Kind {
	case markers.ItemLines:
		for _, item := range d.Items {
			drafts = append(drafts, models.Order{Summary: item.Name, Amount: item.Amount})
		}
	case markers.TotalOnly:
		drafts = append(drafts, models.Order{Summary: cleanedReply, Amount: d.Total})
	default:
		return nil, nil
	}

	mu := s.tenantLock(tenant.ID)
	mu.Lock()
	defer mu.Unlock()

	var day *repositories.DayWindow
	if tenant.IsScheduling(s.keyword) {
		w := repositories.DayOf(s.now(), s.loc)
		day = &w
	}

	created := make([]models.Order, 0, len(drafts))
	for _, draft := range drafts {
		order := draft
		order.TenantID = tenant.ID
		order.CounterpartyID = counterparty
		order.PaymentMethod = models.DefaultPaymentMethod
		order.Status = models.OrderStatusPending

		if err := s.orders.CreateNext(ctx, &order, day); err != nil {
			return created, fmt.Errorf("create order: %w", err)
		}
		created = append(created, order)

		log.Info().
			Uint("tenant_id", tenant.ID).
			Str("from", counterparty).
			Int("sequence", order.Sequence).
			Float64("amount", order.Amount).
			Msg("🧾 Order recorded")
	}
	return created, nil
}

func (s *OrderService) tenantLock(tenantID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(tenantID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Counterparties returns the identifiers an order of this chat may have
// been stored under: the full address and the bare number.
func Counterparties(counterparty string) []string {
	out := []string{counterparty}
	bare := counterparty
	if at := strings.IndexByte(bare, '@'); at >= 0 {
		bare = bare[:at]
	}
	if colon := strings.IndexByte(bare, ':'); colon >= 0 {
		bare = bare[:colon]
	}
	if bare != "" && bare != counterparty {
		out = append(out, bare)
	}
	return out
}
