package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/nexuschat/nexuschat-be/internal/core/payment"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
)

// Mailer sends the activation e-mail.
type Mailer interface {
	SendWelcome(ctx context.Context, to, businessName string, expiresAt time.Time) error
}

// SessionCloser ends a tenant's WhatsApp session.
type SessionCloser interface {
	Teardown(ctx context.Context, tenantID uint)
}

// ActivationResult describes what a payment notification did.
type ActivationResult struct {
	PaymentID string
	Status    string
	Activated bool
	Duplicate bool
	TenantID  uint
	ExpiresAt *time.Time
}

// SubscriptionService activates tenants from payment notifications and
// expires them when their period ends.
type SubscriptionService struct {
	gateway  payment.Gateway
	payments repositories.PaymentRepo
	tenants  repositories.TenantRepo
	mailer   Mailer
	sessions SessionCloser
	now      func() time.Time

	cron *cron.Cron
}

func NewSubscriptionService(
	gateway payment.Gateway,
	payments repositories.PaymentRepo,
	tenants repositories.TenantRepo,
	mailer Mailer,
	sessions SessionCloser,
) *SubscriptionService {
	return &SubscriptionService{
		gateway:  gateway,
		payments: payments,
		tenants:  tenants,
		mailer:   mailer,
		sessions: sessions,
		now:      time.Now,
	}
}

// HandlePaymentNotification looks the payment up at the provider and, when
// approved, activates the tenant named by the payment's external reference.
// The payer's own e-mail is never used. Each payment id is applied once.
func (s *SubscriptionService) HandlePaymentNotification(ctx context.Context, paymentID string) (*ActivationResult, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("no payment gateway configured")
	}

	p, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	result := &ActivationResult{PaymentID: p.ID, Status: p.Status}
	if !p.Approved() {
		log.Info().Str("payment_id", p.ID).Str("status", p.Status).Msg("💳 Payment not approved yet, ignoring")
		return result, nil
	}
	if p.ExternalReference == "" {
		return result, fmt.Errorf("payment %s has no external reference", p.ID)
	}

	days := payment.DaysFor(p.Amount)
	expiresAt := s.now().AddDate(0, 0, days).UTC()

	record := &models.SubscriptionPayment{
		ProviderPaymentID: p.ID,
		Email:             p.ExternalReference,
		Amount:            p.Amount,
		DaysGranted:       days,
		RawPayload:        datatypes.JSON(p.Raw),
	}

	t, err := s.payments.ApplyActivation(ctx, record, expiresAt)
	if errors.Is(err, repositories.ErrPaymentAlreadyProcessed) {
		log.Info().Str("payment_id", p.ID).Msg("💳 Payment already applied")
		result.Duplicate = true
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("activate subscription: %w", err)
	}

	result.Activated = true
	result.TenantID = t.ID
	result.ExpiresAt = t.SubscriptionExpiresAt

	log.Info().
		Uint("tenant_id", t.ID).
		Str("payment_id", p.ID).
		Int("days", days).
		Time("expires_at", expiresAt).
		Msg("✅ Subscription activated")

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, t.ContactEmail, t.BusinessName, expiresAt); err != nil {
			log.Warn().Err(err).Uint("tenant_id", t.ID).Msg("⚠️ Failed to send welcome e-mail")
		}
	}
	return result, nil
}

// SweepExpired marks every lapsed subscription as expired and closes the
// tenant's session. It returns how many tenants were expired.
func (s *SubscriptionService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.tenants.ListExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list expired tenants: %w", err)
	}

	count := 0
	for _, t := range expired {
		if err := s.tenants.SetSubscription(ctx, t.ID, models.SubscriptionStatusExpired, t.SubscriptionExpiresAt); err != nil {
			log.Error().Err(err).Uint("tenant_id", t.ID).Msg("❌ Failed to expire subscription")
			continue
		}
		if s.sessions != nil {
			s.sessions.Teardown(ctx, t.ID)
		}
		count++
		log.Info().Uint("tenant_id", t.ID).Msg("⌛ Subscription expired")
	}
	return count, nil
}

// StartSweeper runs SweepExpired on a cron schedule (seconds field enabled).
func (s *SubscriptionService) StartSweeper(schedule string) error {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.SweepExpired(ctx); err != nil {
			log.Error().Err(err).Msg("❌ Subscription sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()
	log.Info().Str("schedule", schedule).Msg("⏰ Subscription sweeper started")
	return nil
}

// StopSweeper stops the scheduler and waits for a running sweep.
func (s *SubscriptionService) StopSweeper() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
