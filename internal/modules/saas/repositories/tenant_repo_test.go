package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/shared/testutil"
)

func TestTenantRepo_GetByIDNotFound(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewTenantRepo(db)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantRepo_UpdateProfile(t *testing.T) {
	db := testutil.OpenDB(t)
	tenant := testutil.CreateTenant(t, db, models.Tenant{KnowledgeBase: "Hamburgueria", Personality: "formal"})
	repo := NewTenantRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.UpdateProfile(ctx, tenant.ID, "Barbearia. Trabalhamos com agendamento.", ""))

	got, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Barbearia. Trabalhamos com agendamento.", got.KnowledgeBase)
	assert.Empty(t, got.Personality)
	assert.True(t, got.IsScheduling("agendamento"))

	assert.ErrorIs(t, repo.UpdateProfile(ctx, 999, "x", "y"), ErrNotFound)
}

func TestTenantRepo_ChannelIdentity(t *testing.T) {
	db := testutil.OpenDB(t)
	tenant := testutil.CreateTenant(t, db, models.Tenant{})
	repo := NewTenantRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetChannelIdentity(ctx, tenant.ID, "5511988887777", "5511988887777:3@s.whatsapp.net"))

	got, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WhatsAppNumber)
	assert.Equal(t, "5511988887777", *got.WhatsAppNumber)

	linked, err := repo.ListLinked(ctx)
	require.NoError(t, err)
	assert.Len(t, linked, 1)

	require.NoError(t, repo.ClearChannelIdentity(ctx, tenant.ID))
	got, err = repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, got.WhatsAppNumber)
	assert.Nil(t, got.WhatsAppJID)
}

func TestTenantRepo_ListExpired(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewTenantRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)
	expired := testutil.CreateTenant(t, db, models.Tenant{BusinessName: "a", SubscriptionExpiresAt: &past})
	testutil.CreateTenant(t, db, models.Tenant{BusinessName: "b", SubscriptionExpiresAt: &future})
	testutil.CreateTenant(t, db, models.Tenant{BusinessName: "c"})

	list, err := repo.ListExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, expired.ID, list[0].ID)

	require.NoError(t, repo.SetSubscription(ctx, expired.ID, models.SubscriptionStatusExpired, &past))
	list, err = repo.ListExpired(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPaymentRepo_ApplyActivationIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewPaymentRepo(db)
	ctx := context.Background()
	expires := time.Now().UTC().AddDate(0, 0, 30)

	tenant, err := repo.ApplyActivation(ctx, &models.SubscriptionPayment{
		ProviderPaymentID: "123",
		Email:             "Dono@Barbearia.com",
		Amount:            99.9,
		DaysGranted:       30,
	}, expires)
	require.NoError(t, err)
	assert.Equal(t, "dono@barbearia.com", tenant.ContactEmail)
	assert.True(t, tenant.IsActive(time.Now()))

	_, err = repo.ApplyActivation(ctx, &models.SubscriptionPayment{
		ProviderPaymentID: "123",
		Email:             "dono@barbearia.com",
		Amount:            99.9,
		DaysGranted:       30,
	}, expires.AddDate(0, 0, 30))
	assert.ErrorIs(t, err, ErrPaymentAlreadyProcessed)

	var count int64
	db.Model(&models.Tenant{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
