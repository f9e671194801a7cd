package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuschat/nexuschat-be/internal/core/kb"
	"github.com/nexuschat/nexuschat-be/internal/core/llm"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
	"github.com/nexuschat/nexuschat-be/internal/shared/testutil"
)

type fakeGenerator struct {
	mu          sync.Mutex
	reply       string
	calls       int
	contextText string
	prompt      string
	ctxErr      error
}

func (f *fakeGenerator) Complete(ctx context.Context, contextText, prompt string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.contextText = contextText
	f.prompt = prompt
	f.ctxErr = ctx.Err()
	return f.reply
}

type failingHistory struct {
	repositories.ConversationRepo
}

func (failingHistory) Recent(context.Context, uint, string, int) ([]models.ConversationTurn, error) {
	return nil, errors.New("db down")
}

func newEngine(t *testing.T, gen Generator) (*Engine, repositories.ConversationRepo, models.Tenant) {
	t.Helper()
	db := testutil.OpenDB(t)
	tenant := testutil.CreateTenant(t, db, models.Tenant{
		BusinessName:  "Barbearia do Zé",
		KnowledgeBase: "Agendamento de cortes. Corte R$ 50,00",
	})
	history := repositories.NewConversationRepo(db)
	retriever := kb.NewRetriever(repositories.NewTenantRepo(db), repositories.NewOrderRepo(db), time.UTC, "agendamento")
	return NewEngine(retriever, history, gen, Config{HistoryLimit: 6, LLMTimeout: time.Second}), history, tenant
}

func TestEngine_HandlePersistsBothTurns(t *testing.T) {
	gen := &fakeGenerator{reply: "Olá! Qual seu nome?"}
	engine, history, tenant := newEngine(t, gen)
	ctx := context.Background()

	require.NoError(t, history.Append(ctx, tenant.ID, "5511@s.whatsapp.net", models.RoleUser, "bom dia"))
	require.NoError(t, history.Append(ctx, tenant.ID, "5511@s.whatsapp.net", models.RoleAssistant, "Bom dia!"))

	reply := engine.Handle(ctx, tenant.ID, "5511@s.whatsapp.net", "Quero cortar o cabelo")
	assert.Equal(t, "Olá! Qual seu nome?", reply)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, tenant.KnowledgeBase, gen.contextText)
	assert.Contains(t, gen.prompt, "Cliente: bom dia\nAtendente: Bom dia!")
	assert.Contains(t, gen.prompt, "MENSAGEM DO CLIENTE: Quero cortar o cabelo")
	assert.Contains(t, gen.prompt, "ITEM: <serviço e horário>")

	turns, err := history.Recent(ctx, tenant.ID, "5511@s.whatsapp.net", 10)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, models.RoleUser, turns[2].Role)
	assert.Equal(t, "Quero cortar o cabelo", turns[2].Text)
	assert.Equal(t, models.RoleAssistant, turns[3].Role)
	assert.Equal(t, "Olá! Qual seu nome?", turns[3].Text)
}

func TestEngine_HandleUnknownTenant(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	engine, _, _ := newEngine(t, gen)

	reply := engine.Handle(context.Background(), 999, "5511", "oi")
	assert.Equal(t, UnknownTenantReply, reply)
	assert.Zero(t, gen.calls)
}

func TestEngine_ProviderErrorIsReturnedButNotStored(t *testing.T) {
	gen := &fakeGenerator{reply: llm.ErrorReply(errors.New("quota"))}
	engine, history, tenant := newEngine(t, gen)
	ctx := context.Background()

	reply := engine.Handle(ctx, tenant.ID, "5511", "oi")
	assert.True(t, llm.IsErrorReply(reply))

	turns, err := history.Recent(ctx, tenant.ID, "5511", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, models.RoleUser, turns[0].Role)
}

func TestEngine_StoreFailureYieldsApology(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	engine, history, tenant := newEngine(t, gen)
	engine.history = failingHistory{ConversationRepo: history}

	reply := engine.Handle(context.Background(), tenant.ID, "5511", "oi")
	assert.Equal(t, ApologyReply, reply)
	assert.Zero(t, gen.calls)
}

func TestEngine_GenerationSurvivesCallerCancellation(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	engine, _, tenant := newEngine(t, gen)

	ctx, cancel := context.WithCancel(context.Background())
	engine.history = cancelOnAppend{ConversationRepo: engine.history.(repositories.ConversationRepo), cancel: cancel}

	reply := engine.Handle(ctx, tenant.ID, "5511", "oi")
	assert.Equal(t, "ok", reply)
	assert.NoError(t, gen.ctxErr)
}

// cancelOnAppend cancels the inbound context as soon as the user turn is
// stored, before generation starts.
type cancelOnAppend struct {
	repositories.ConversationRepo
	cancel context.CancelFunc
}

func (c cancelOnAppend) Append(ctx context.Context, tenantID uint, counterpartyID, role, text string) error {
	err := c.ConversationRepo.Append(ctx, tenantID, counterpartyID, role, text)
	if role == models.RoleUser {
		c.cancel()
	}
	return err
}
