package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nexuschat/nexuschat-be/internal/core/dedupe"
	"github.com/nexuschat/nexuschat-be/internal/core/tenant"
	"github.com/nexuschat/nexuschat-be/internal/core/whatsapp"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
	"github.com/nexuschat/nexuschat-be/internal/shared/config"
	"github.com/nexuschat/nexuschat-be/internal/shared/testutil"
)

const customer = "5511988887777@s.whatsapp.net"

type spyResponder struct {
	mu      sync.Mutex
	reply   string
	calls   int32
	started chan struct{}
	block   chan struct{}
}

func (r *spyResponder) Handle(ctx context.Context, tenantID uint, counterparty, text string) string {
	atomic.AddInt32(&r.calls, 1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reply
}

func (r *spyResponder) callCount() int {
	return int(atomic.LoadInt32(&r.calls))
}

type fakeMessenger struct {
	mu        sync.Mutex
	live      bool
	sent      []string
	typing    int
	known     bool
	lookupErr error
	lookups   int
	dropAfter int
	attempts  int
	sendErrs  map[int]error
}

func (m *fakeMessenger) HasSession(uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropAfter > 0 && len(m.sent) >= m.dropAfter {
		return false
	}
	return m.live
}

func (m *fakeMessenger) Send(ctx context.Context, tenantID uint, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if err := m.sendErrs[m.attempts]; err != nil {
		return err
	}
	m.sent = append(m.sent, text)
	return nil
}

func (m *fakeMessenger) StartTyping(ctx context.Context, tenantID uint, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing++
	return nil
}

func (m *fakeMessenger) IsKnownContact(ctx context.Context, tenantID uint, sender string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	return m.known, m.lookupErr
}

type pipelineFixture struct {
	db        *gorm.DB
	tenant    models.Tenant
	responder *spyResponder
	messenger *fakeMessenger
	pipeline  *Pipeline
	sleeps    []time.Duration
	now       time.Time
}

func newPipelineFixture(t *testing.T, knowledgeBase, reply string) *pipelineFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	tn := testutil.CreateTenant(t, db, models.Tenant{KnowledgeBase: knowledgeBase})

	f := &pipelineFixture{
		db:        db,
		tenant:    tn,
		responder: &spyResponder{reply: reply},
		messenger: &fakeMessenger{live: true},
		now:       time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
	}

	seen := dedupe.New(time.Minute, 100)
	t.Cleanup(seen.Close)

	orders := NewOrderService(repositories.NewOrderRepo(db), time.UTC, "agendamento")
	orders.now = func() time.Time { return f.now }

	f.pipeline = NewPipeline(
		f.messenger,
		f.responder,
		tenant.NewResolver(repositories.NewTenantRepo(db)),
		orders,
		config.DefaultFilterPolicy(),
		seen,
		PipelineConfig{StaleAfter: 20 * time.Second, Pacing: 2 * time.Second},
	)
	f.pipeline.now = func() time.Time { return f.now }
	f.pipeline.sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}
	return f
}

func (f *pipelineFixture) message(id, body string) whatsapp.InboundMessage {
	return whatsapp.InboundMessage{
		TenantID:  f.tenant.ID,
		ID:        id,
		From:      customer,
		Chat:      customer,
		Body:      body,
		Timestamp: f.now.Add(-time.Second),
	}
}

func (f *pipelineFixture) orders(t *testing.T) []models.Order {
	t.Helper()
	var orders []models.Order
	require.NoError(t, f.db.Where("tenant_id = ?", f.tenant.ID).Order("id ASC").Find(&orders).Error)
	return orders
}

func TestPipeline_OriginFilters(t *testing.T) {
	f := newPipelineFixture(t, "", "Olá!")

	cases := map[string]func(*whatsapp.InboundMessage){
		"group":      func(m *whatsapp.InboundMessage) { m.IsGroup = true },
		"broadcast":  func(m *whatsapp.InboundMessage) { m.IsBroadcast = true },
		"newsletter": func(m *whatsapp.InboundMessage) { m.IsNewsletter = true },
		"from me":    func(m *whatsapp.InboundMessage) { m.IsFromMe = true },
		"empty body": func(m *whatsapp.InboundMessage) { m.Body = "   " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			msg := f.message("id-"+name, "quero marcar um corte")
			mutate(&msg)
			out := f.pipeline.HandleInbound(context.Background(), msg)
			assert.Equal(t, DropOrigin, out.Dropped)
		})
	}
	assert.Zero(t, f.responder.callCount())
	assert.Empty(t, f.messenger.sent)
}

func TestPipeline_GroupMessageNeverReachesOrchestrator(t *testing.T) {
	f := newPipelineFixture(t, "", "Olá!")

	msg := f.message("G1", "bom dia pessoal")
	msg.IsGroup = true
	msg.Chat = "120363000000000000@g.us"

	out := f.pipeline.HandleInbound(context.Background(), msg)

	assert.Equal(t, DropOrigin, out.Dropped)
	assert.Zero(t, f.responder.callCount())
}

func TestPipeline_DuplicateMessageID(t *testing.T) {
	f := newPipelineFixture(t, "", "Olá! Como posso ajudar?")

	first := f.pipeline.HandleInbound(context.Background(), f.message("DUP", "oi"))
	second := f.pipeline.HandleInbound(context.Background(), f.message("DUP", "oi"))

	assert.Equal(t, DropNone, first.Dropped)
	assert.Equal(t, DropDuplicate, second.Dropped)
	assert.Equal(t, 1, f.responder.callCount())
}

func TestPipeline_StaleMessage(t *testing.T) {
	f := newPipelineFixture(t, "", "Olá!")

	msg := f.message("S1", "oi")
	msg.Timestamp = f.now.Add(-21 * time.Second)
	out := f.pipeline.HandleInbound(context.Background(), msg)
	assert.Equal(t, DropStale, out.Dropped)

	msg = f.message("S2", "oi")
	msg.Timestamp = f.now.Add(-19 * time.Second)
	out = f.pipeline.HandleInbound(context.Background(), msg)
	assert.Equal(t, DropNone, out.Dropped)
	assert.Equal(t, 1, f.responder.callCount())
}

func TestPipeline_InFlightExclusionAndRelease(t *testing.T) {
	f := newPipelineFixture(t, "", "Pode falar!")
	f.responder.started = make(chan struct{}, 1)
	f.responder.block = make(chan struct{})

	done := make(chan Outcome)
	go func() {
		done <- f.pipeline.HandleInbound(context.Background(), f.message("L1", "oi"))
	}()
	<-f.responder.started

	busy := f.pipeline.HandleInbound(context.Background(), f.message("L2", "oi de novo"))
	assert.Equal(t, DropInFlight, busy.Dropped)

	close(f.responder.block)
	first := <-done
	assert.Equal(t, DropNone, first.Dropped)

	f.responder.started = nil
	f.responder.block = nil
	after := f.pipeline.HandleInbound(context.Background(), f.message("L3", "voltei"))
	assert.Equal(t, DropNone, after.Dropped)
	assert.Equal(t, 0, f.pipeline.inFlight.Len())
}

func TestPipeline_LockReleasedAfterPanic(t *testing.T) {
	f := newPipelineFixture(t, "", "ok")
	f.pipeline.responder = panicResponder{}

	out := f.pipeline.HandleInbound(context.Background(), f.message("P1", "oi"))
	assert.Equal(t, DropPanic, out.Dropped)
	assert.Len(t, out.Errors, 1)
	assert.Equal(t, 0, f.pipeline.inFlight.Len())
}

type panicResponder struct{}

func (panicResponder) Handle(context.Context, uint, string, string) string {
	panic("boom")
}

func TestPipeline_BotGreeting(t *testing.T) {
	t.Run("unknown sender dropped", func(t *testing.T) {
		f := newPipelineFixture(t, "", "Olá!")
		out := f.pipeline.HandleInbound(context.Background(), f.message("B1", "Seja bem-vindo ao atendimento automático"))
		assert.Equal(t, DropBotGreeting, out.Dropped)
		assert.Zero(t, f.responder.callCount())
		assert.Equal(t, 0, f.pipeline.inFlight.Len())
	})

	t.Run("known contact passes", func(t *testing.T) {
		f := newPipelineFixture(t, "", "Olá!")
		f.messenger.known = true
		out := f.pipeline.HandleInbound(context.Background(), f.message("B2", "Olá! tudo bem?"))
		assert.Equal(t, DropNone, out.Dropped)
	})

	t.Run("lookup failure fails open", func(t *testing.T) {
		f := newPipelineFixture(t, "", "Olá!")
		f.messenger.lookupErr = errors.New("store closed")
		out := f.pipeline.HandleInbound(context.Background(), f.message("B3", "Bem-vindo!"))
		assert.Equal(t, DropNone, out.Dropped)
		assert.Equal(t, 1, f.responder.callCount())
	})

	t.Run("ordinary text skips lookup", func(t *testing.T) {
		f := newPipelineFixture(t, "", "Olá!")
		f.pipeline.HandleInbound(context.Background(), f.message("B4", "quero um burger"))
		assert.Zero(t, f.messenger.lookups)
	})
}

func TestPipeline_InactiveTenant(t *testing.T) {
	f := newPipelineFixture(t, "", "Olá!")
	past := f.now.Add(-time.Hour)
	require.NoError(t, f.db.Model(&models.Tenant{}).Where("id = ?", f.tenant.ID).
		Update("subscription_expires_at", past).Error)

	out := f.pipeline.HandleInbound(context.Background(), f.message("T1", "oi"))
	assert.Equal(t, DropInactiveTenant, out.Dropped)

	msg := f.message("T2", "oi")
	msg.TenantID = 9999
	out = f.pipeline.HandleInbound(context.Background(), msg)
	assert.Equal(t, DropUnknownTenant, out.Dropped)
	assert.Zero(t, f.responder.callCount())
}

func TestPipeline_SegmentsArePaced(t *testing.T) {
	f := newPipelineFixture(t, "", "Olá, João!\n\nTemos corte e barba.\n\nQual horário prefere?")

	out := f.pipeline.HandleInbound(context.Background(), f.message("M1", "oi"))

	assert.Equal(t, 3, out.SegmentsSent)
	assert.Equal(t, []string{"Olá, João!", "Temos corte e barba.", "Qual horário prefere?"}, f.messenger.sent)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}, f.sleeps)
	assert.Equal(t, 3, f.messenger.typing)
}

func TestPipeline_StopsWhenSessionGoes(t *testing.T) {
	f := newPipelineFixture(t, "", "um\n\ndois\n\ntrês")
	f.messenger.dropAfter = 1

	out := f.pipeline.HandleInbound(context.Background(), f.message("M2", "oi"))

	assert.Equal(t, 1, out.SegmentsSent)
	assert.Equal(t, []string{"um"}, f.messenger.sent)
}

func TestPipeline_FailedSegmentDoesNotStopDelivery(t *testing.T) {
	f := newPipelineFixture(t, "", "Seu pedido:\n\n1x Burger\n\nTOTAL: R$ 32,50\n[PEDIDO_FINALIZADO]")
	ackTimeout := errors.New("ack timeout")
	f.messenger.sendErrs = map[int]error{1: ackTimeout}

	out := f.pipeline.HandleInbound(context.Background(), f.message("F1", "fechado"))

	assert.Equal(t, 2, out.SegmentsSent)
	assert.Equal(t, []string{"1x Burger", "TOTAL: R$ 32,50"}, f.messenger.sent)
	require.Len(t, out.Errors, 1)
	assert.ErrorIs(t, out.Errors[0], ackTimeout)
	assert.Len(t, f.orders(t), 1)
}

func TestPipeline_ErrorReplyNotDelivered(t *testing.T) {
	f := newPipelineFixture(t, "", "Erro da API: quota exceeded")

	out := f.pipeline.HandleInbound(context.Background(), f.message("E1", "oi"))

	assert.Equal(t, DropErrorReply, out.Dropped)
	assert.Empty(t, f.messenger.sent)
	assert.Empty(t, f.orders(t))
}

func TestPipeline_SchedulingItemLineCreatesOrder(t *testing.T) {
	f := newPipelineFixture(t, "Barbearia. Trabalhamos com agendamento.",
		"ITEM: Corte de cabelo (14h) | VALOR: R$ 50,00\n[PEDIDO_FINALIZADO]")

	out := f.pipeline.HandleInbound(context.Background(), f.message("A1", "confirmo"))

	require.Empty(t, out.Errors)
	orders := f.orders(t)
	require.Len(t, orders, 1)
	assert.Equal(t, "Corte de cabelo (14h)", orders[0].Summary)
	assert.Equal(t, 50.0, orders[0].Amount)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
	assert.Equal(t, models.DefaultPaymentMethod, orders[0].PaymentMethod)
	assert.Equal(t, customer, orders[0].CounterpartyID)
	assert.Equal(t, 1, orders[0].Sequence)
	assert.Zero(t, out.SegmentsSent)
}

func TestPipeline_TotalCreatesOrderWithCleanedSummary(t *testing.T) {
	f := newPipelineFixture(t, "Hamburgueria delivery",
		"Resumo: 1x Burger. TOTAL: R$ 32,50\n[PEDIDO_FINALIZADO]")

	out := f.pipeline.HandleInbound(context.Background(), f.message("B1", "fechado"))

	require.Empty(t, out.Errors)
	orders := f.orders(t)
	require.Len(t, orders, 1)
	assert.Equal(t, 32.5, orders[0].Amount)
	assert.Equal(t, "Resumo: 1x Burger. TOTAL: R$ 32,50", orders[0].Summary)
	assert.Equal(t, []string{"Resumo: 1x Burger. TOTAL: R$ 32,50"}, f.messenger.sent)
}

func TestPipeline_CancellationDeletesMostRecentPending(t *testing.T) {
	f := newPipelineFixture(t, "", "Pedido cancelado, tudo bem!\n[PEDIDO_CANCELADO]")
	repo := repositories.NewOrderRepo(f.db)
	for _, summary := range []string{"Burger", "Pizza"} {
		require.NoError(t, repo.CreateNext(context.Background(), &models.Order{
			TenantID:       f.tenant.ID,
			CounterpartyID: customer,
			Summary:        summary,
		}, nil))
	}

	out := f.pipeline.HandleInbound(context.Background(), f.message("C1", "cancela"))

	assert.Equal(t, int64(1), out.Orders.Cancelled)
	orders := f.orders(t)
	require.Len(t, orders, 1)
	assert.Equal(t, "Burger", orders[0].Summary)
	assert.Equal(t, []string{"Pedido cancelado, tudo bem!"}, f.messenger.sent)

	f.responder.reply = "Nada para cancelar.\n[PEDIDO_CANCELADO]"
	_, err := repo.DeleteMostRecentPending(context.Background(), f.tenant.ID, []string{customer}, "")
	require.NoError(t, err)

	out = f.pipeline.HandleInbound(context.Background(), f.message("C2", "cancela"))
	assert.Zero(t, out.Orders.Cancelled)
	assert.Empty(t, out.Errors)
}
