// Package agent turns one inbound customer message into one reply.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexuschat/nexuschat-be/internal/core/kb"
	"github.com/nexuschat/nexuschat-be/internal/core/llm"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
)

// Fixed replies.
const (
	UnknownTenantReply = "Desculpe, empresa não cadastrada."
	ApologyReply       = "Tive um problema técnico, mas já estou de volta! Pode repetir?"
)

const timeLayout = "02/01/2006 15:04:05"

type ContextProvider interface {
	Load(ctx context.Context, tenantID uint, now time.Time) (*kb.TenantContext, error)
	Location() *time.Location
}

type HistoryStore interface {
	Append(ctx context.Context, tenantID uint, counterpartyID, role, text string) error
	Recent(ctx context.Context, tenantID uint, counterpartyID string, n int) ([]models.ConversationTurn, error)
}

// Generator is a single completion call. Failures come back as reply text
// carrying llm.APIErrorPrefix.
type Generator interface {
	Complete(ctx context.Context, contextText, prompt string) string
}

type Config struct {
	HistoryLimit int
	LLMTimeout   time.Duration
}

type Engine struct {
	context   ContextProvider
	history   HistoryStore
	generator Generator
	cfg       Config
	now       func() time.Time
}

func NewEngine(contextProvider ContextProvider, history HistoryStore, generator Generator, cfg Config) *Engine {
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = 0
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	return &Engine{
		context:   contextProvider,
		history:   history,
		generator: generator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Handle produces the reply for one customer message. It never fails:
// an unknown tenant gets UnknownTenantReply, any other failure gets
// ApologyReply, and a provider failure is returned as marked text.
func (e *Engine) Handle(ctx context.Context, tenantID uint, counterparty, text string) (reply string) {
	logger := log.With().Uint("tenant_id", tenantID).Str("from", counterparty).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("❌ Orchestrator panicked")
			reply = ApologyReply
		}
	}()

	reply, err := e.handle(ctx, tenantID, counterparty, text)
	if errors.Is(err, kb.ErrTenantNotFound) {
		logger.Warn().Msg("⚠️ Message for unknown tenant")
		return UnknownTenantReply
	}
	if err != nil {
		logger.Error().Err(err).Msg("❌ Failed to handle message")
		return ApologyReply
	}
	return reply
}

func (e *Engine) handle(ctx context.Context, tenantID uint, counterparty, text string) (string, error) {
	now := e.now()

	tc, err := e.context.Load(ctx, tenantID, now)
	if err != nil {
		return "", err
	}

	turns, err := e.history.Recent(ctx, tenantID, counterparty, e.cfg.HistoryLimit)
	if err != nil {
		return "", err
	}

	if err := e.history.Append(ctx, tenantID, counterparty, models.RoleUser, text); err != nil {
		return "", err
	}

	history := make([]llm.HistoryLine, 0, len(turns))
	for _, t := range turns {
		history = append(history, llm.HistoryLine{FromCustomer: t.Role == models.RoleUser, Text: t.Text})
	}

	prompt := llm.BuildAttendantPrompt(llm.PromptInput{
		BusinessName:  tc.Tenant.BusinessName,
		Personality:   tc.Tenant.Personality,
		KnowledgeBase: tc.Tenant.KnowledgeBase,
		CurrentTime:   now.In(e.context.Location()).Format(timeLayout),
		Schedule:      tc.Schedule,
		History:       history,
		Message:       text,
		Scheduling:    tc.Scheduling,
	})

	// The generation is not cancelled with the inbound event; it only has
	// its own upper bound.
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.LLMTimeout)
	defer cancel()

	reply := e.generator.Complete(genCtx, tc.Tenant.KnowledgeBase, prompt)
	if reply == "" || llm.IsErrorReply(reply) {
		return reply, nil
	}

	if err := e.history.Append(context.WithoutCancel(ctx), tenantID, counterparty, models.RoleAssistant, reply); err != nil {
		return "", err
	}
	return reply, nil
}
