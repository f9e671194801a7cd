package kb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
	"github.com/nexuschat/nexuschat-be/internal/shared/testutil"
)

func TestRetriever_Load(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	tenant := testutil.CreateTenant(t, db, models.Tenant{
		KnowledgeBase: "ESPECIFICAÇÕES: Agendamento. Corte R$ 50,00",
	})

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Order{TenantID: tenant.ID, Sequence: 1, CounterpartyID: "a", Summary: "Corte (14h)", Status: models.OrderStatusPending}).Error)
	require.NoError(t, db.Create(&models.Order{TenantID: tenant.ID, Sequence: 2, CounterpartyID: "a", Summary: "Barba (ontem)", Status: models.OrderStatusPending, CreatedAt: now.Add(-48 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Order{TenantID: tenant.ID, Sequence: 3, CounterpartyID: "a", Summary: "Feito", Status: models.OrderStatusCompleted}).Error)

	r := NewRetriever(repositories.NewTenantRepo(db), repositories.NewOrderRepo(db), time.UTC, "agendamento")

	tc, err := r.Load(ctx, tenant.ID, now)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, tc.Tenant.ID)
	assert.True(t, tc.Scheduling)
	assert.Equal(t, []string{"Corte (14h)"}, tc.Schedule)
}

func TestRetriever_LoadUnknownTenant(t *testing.T) {
	db := testutil.OpenDB(t)
	r := NewRetriever(repositories.NewTenantRepo(db), repositories.NewOrderRepo(db), nil, "agendamento")

	_, err := r.Load(context.Background(), 77, time.Now())
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
