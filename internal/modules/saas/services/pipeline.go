package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nexuschat/nexuschat-be/internal/core/dedupe"
	"github.com/nexuschat/nexuschat-be/internal/core/inflight"
	"github.com/nexuschat/nexuschat-be/internal/core/llm"
	"github.com/nexuschat/nexuschat-be/internal/core/markers"
	"github.com/nexuschat/nexuschat-be/internal/core/tenant"
	"github.com/nexuschat/nexuschat-be/internal/core/whatsapp"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/shared/config"
)

// DropReason says why an inbound message got no reply.
type DropReason string

const (
	DropNone           DropReason = ""
	DropOrigin         DropReason = "origin"
	DropDuplicate      DropReason = "duplicate"
	DropStale          DropReason = "stale"
	DropInFlight       DropReason = "in_flight"
	DropBotGreeting    DropReason = "bot_greeting"
	DropUnknownTenant  DropReason = "unknown_tenant"
	DropInactiveTenant DropReason = "inactive_tenant"
	DropTenantError    DropReason = "tenant_error"
	DropEmptyReply     DropReason = "empty_reply"
	DropErrorReply     DropReason = "error_reply"
	DropPanic          DropReason = "panic"
)

// Outcome reports what handling one inbound message did.
type Outcome struct {
	Dropped      DropReason
	Reply        string
	SegmentsSent int
	Orders       OrderEffect
	Errors       []error
}

// Messenger is the session surface the pipeline talks through.
type Messenger interface {
	HasSession(tenantID uint) bool
	Send(ctx context.Context, tenantID uint, to, text string) error
	StartTyping(ctx context.Context, tenantID uint, to string) error
	IsKnownContact(ctx context.Context, tenantID uint, sender string) (bool, error)
}

// Responder produces the reply to one customer message.
type Responder interface {
	Handle(ctx context.Context, tenantID uint, counterparty, text string) string
}

type TenantResolver interface {
	ResolveActive(ctx context.Context, tenantID uint) (*models.Tenant, error)
}

type PipelineConfig struct {
	StaleAfter time.Duration
	Pacing     time.Duration
}

// Pipeline filters inbound messages, gets a reply and delivers it.
type Pipeline struct {
	messenger Messenger
	responder Responder
	tenants   TenantResolver
	orders    *OrderService
	policy    *config.FilterPolicy
	seen      *dedupe.Cache
	inFlight  *inflight.Set
	cfg       PipelineConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPipeline(
	messenger Messenger,
	responder Responder,
	tenants TenantResolver,
	orders *OrderService,
	policy *config.FilterPolicy,
	seen *dedupe.Cache,
	cfg PipelineConfig,
) *Pipeline {
	if policy == nil {
		policy = config.DefaultFilterPolicy()
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 20 * time.Second
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = 0
	}
	return &Pipeline{
		messenger: messenger,
		responder: responder,
		tenants:   tenants,
		orders:    orders,
		policy:    policy,
		seen:      seen,
		inFlight:  inflight.New(),
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle adapts the pipeline to whatsapp.InboundHandler.
func (p *Pipeline) Handle(ctx context.Context, msg whatsapp.InboundMessage) {
	p.HandleInbound(ctx, msg)
}

// HandleInbound runs one message through the filters, the orchestrator and
// reply delivery. Errors are logged and reported, never returned.
func (p *Pipeline) HandleInbound(ctx context.Context, msg whatsapp.InboundMessage) (out Outcome) {
	logger := log.With().
		Uint("tenant_id", msg.TenantID).
		Str("from", msg.From).
		Str("message_id", msg.ID).
		Str("trace_id", uuid.NewString()).
		Logger()

	if reason := p.filterOrigin(msg); reason != DropNone {
		logger.Debug().Str("reason", string(reason)).Msg("Message ignored")
		return Outcome{Dropped: reason}
	}

	if age := p.now().Sub(msg.Timestamp); !msg.Timestamp.IsZero() && age > p.cfg.StaleAfter {
		logger.Debug().Dur("age", age).Msg("Stale message ignored")
		return Outcome{Dropped: DropStale}
	}

	key := inflight.Key{TenantID: msg.TenantID, Counterparty: msg.From}
	release, ok := p.inFlight.TryAcquire(key)
	if !ok {
		logger.Debug().Msg("Conversation busy, message ignored")
		return Outcome{Dropped: DropInFlight}
	}
	defer release()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("❌ Panic while handling message")
			out.Dropped = DropPanic
			out.Errors = append(out.Errors, fmt.Errorf("panic: %v", r))
		}
	}()

	if p.policy.LooksLikeBotGreeting(msg.Body) {
		known, err := p.messenger.IsKnownContact(ctx, msg.TenantID, msg.From)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("⚠️ Contact lookup failed, handling message anyway")
		case !known:
			logger.Debug().Msg("🤖 Auto-responder greeting ignored")
			return Outcome{Dropped: DropBotGreeting}
		}
	}

	t, err := p.tenants.ResolveActive(ctx, msg.TenantID)
	switch {
	case errors.Is(err, tenant.ErrUnknownTenant):
		logger.Warn().Msg("⚠️ Message for unknown tenant")
		return Outcome{Dropped: DropUnknownTenant}
	case errors.Is(err, tenant.ErrInactiveTenant):
		logger.Info().Msg("Tenant subscription inactive, message ignored")
		return Outcome{Dropped: DropInactiveTenant}
	case err != nil:
		logger.Error().Err(err).Msg("❌ Failed to load tenant")
		return Outcome{Dropped: DropTenantError, Errors: []error{err}}
	}

	logger.Info().Str("body", truncate(msg.Body, 80)).Msg("📩 Message received")
	return p.respond(ctx, logger, t, msg)
}

func (p *Pipeline) filterOrigin(msg whatsapp.InboundMessage) DropReason {
	switch {
	case msg.IsGroup, msg.IsBroadcast, msg.IsNewsletter, msg.IsFromMe:
		return DropOrigin
	case strings.TrimSpace(msg.Body) == "":
		return DropOrigin
	}
	if p.seen != nil && msg.ID != "" && p.seen.CheckAndMark(dedupe.Key(msg.TenantID, msg.ID)) {
		return DropDuplicate
	}
	return DropNone
}

func (p *Pipeline) respond(ctx context.Context, logger zerolog.Logger, t *models.Tenant, msg whatsapp.InboundMessage) Outcome {
	out := Outcome{}

	reply := p.responder.Handle(ctx, t.ID, msg.From, msg.Body)
	out.Reply = reply
	switch {
	case strings.TrimSpace(reply) == "":
		out.Dropped = DropEmptyReply
		return out
	case llm.IsErrorReply(reply):
		logger.Warn().Str("reply", reply).Msg("⚠️ Provider error, reply not delivered")
		out.Dropped = DropErrorReply
		return out
	}

	directive := markers.Interpret(reply)

	if directive.Kind == markers.CancelAll || directive.Kind == markers.CancelNamed {
		n, err := p.orders.Cancel(ctx, t, msg.From, directive)
		if err != nil {
			logger.Error().Err(err).Msg("❌ Failed to cancel order")
			out.Errors = append(out.Errors, err)
		}
		out.Orders.Cancelled = n
	}

	cleaned := markers.Clean(reply)
	for _, segment := range markers.Segment(cleaned) {
		if err := p.sleep(ctx, p.cfg.Pacing); err != nil {
			out.Errors = append(out.Errors, err)
			break
		}
		if !p.messenger.HasSession(t.ID) {
			logger.Warn().Msg("⚠️ Session gone, remaining reply dropped")
			break
		}
		if err := p.messenger.StartTyping(ctx, t.ID, msg.From); err != nil {
			logger.Debug().Err(err).Msg("Typing indicator failed")
		}
		if err := p.messenger.Send(ctx, t.ID, msg.From, segment); err != nil {
			logger.Error().Err(err).Msg("❌ Failed to send reply segment")
			out.Errors = append(out.Errors, err)
			continue
		}
		out.SegmentsSent++
	}
	logger.Info().Int("segments", out.SegmentsSent).Msg("📤 Reply sent")

	if directive.Kind == markers.ItemLines || directive.Kind == markers.TotalOnly {
		created, err := p.orders.Complete(ctx, t, msg.From, directive, cleaned)
		if err != nil {
			logger.Error().Err(err).Msg("❌ Failed to record order")
			out.Errors = append(out.Errors, err)
		}
		out.Orders.Created = created
	}

	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
