package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
)

// ErrNoSession is returned when a tenant has no live session.
var ErrNoSession = errors.New("whatsapp: no session for tenant")

// IdentityStore persists the account a tenant's session is linked to.
type IdentityStore interface {
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	SetChannelIdentity(ctx context.Context, id uint, number, jid string) error
	ClearChannelIdentity(ctx context.Context, id uint) error
}

// InboundHandler processes one inbound message. It runs on its own
// goroutine, tracked by the owning session.
type InboundHandler func(ctx context.Context, msg InboundMessage)

// Manager owns at most one session per tenant.
type Manager struct {
	factory      ChannelFactory
	identities   IdentityStore
	teardownWait time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	group    singleflight.Group
	mu       sync.RWMutex
	sessions map[uint]*Session
	handler  atomic.Pointer[InboundHandler]
}

func NewManager(factory ChannelFactory, identities IdentityStore, teardownWait time.Duration) *Manager {
	if teardownWait <= 0 || teardownWait > 3*time.Second {
		teardownWait = 3 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		factory:      factory,
		identities:   identities,
		teardownWait: teardownWait,
		baseCtx:      ctx,
		cancel:       cancel,
		sessions:     make(map[uint]*Session),
	}
}

// SetInboundHandler installs the handler inbound messages are delivered to.
func (m *Manager) SetInboundHandler(h InboundHandler) {
	m.handler.Store(&h)
}

// EnsureSession returns the tenant's session, creating it in
// StateInitializing and starting the handshake in the background when
// absent. Concurrent callers get the same session.
func (m *Manager) EnsureSession(ctx context.Context, tenantID uint) *Session {
	if s := m.lookup(tenantID); s != nil {
		return s
	}

	v, _, _ := m.group.Do(strconv.FormatUint(uint64(tenantID), 10), func() (interface{}, error) {
		m.mu.Lock()
		if s, ok := m.sessions[tenantID]; ok {
			m.mu.Unlock()
			return s, nil
		}
		s := newSession(m, tenantID)
		m.sessions[tenantID] = s
		m.mu.Unlock()

		s.logger.Info().Msg("🚀 Starting WhatsApp session")
		go m.start(s)
		return s, nil
	})
	return v.(*Session)
}

func (m *Manager) start(s *Session) {
	ctx := m.baseCtx

	var deviceJID string
	if tenant, err := m.identities.GetByID(ctx, s.TenantID); err != nil {
		s.logger.Warn().Err(err).Msg("⚠️ Could not load tenant, pairing a new device")
	} else if tenant.WhatsAppJID != nil {
		deviceJID = *tenant.WhatsAppJID
	}

	ch, err := m.factory.NewChannel(ctx, s.TenantID, deviceJID, s)
	if err != nil {
		s.logger.Error().Err(err).Msg("❌ Failed to create WhatsApp channel")
		m.fail(s, "channel init failed")
		return
	}

	if !s.attach(ch) {
		// torn down while the channel was being created
		if err := ch.Close(ctx, false); err != nil {
			s.logger.Warn().Err(err).Msg("⚠️ Failed to close orphan channel")
		}
		return
	}

	if err := ch.Connect(ctx); err != nil {
		s.logger.Error().Err(err).Msg("❌ Failed to connect WhatsApp channel")
		m.fail(s, "connect failed")
	}
}

// State reports the tenant's session state. An absent session is created
// and reported as initializing.
func (m *Manager) State(ctx context.Context, tenantID uint) StateReport {
	s := m.lookup(tenantID)
	if s == nil {
		m.EnsureSession(ctx, tenantID)
		return StateReport{State: StateInitializing}
	}
	return s.Report()
}

// HandshakeToken returns the pairing token while the session awaits it.
func (m *Manager) HandshakeToken(tenantID uint) (string, bool) {
	s := m.lookup(tenantID)
	if s == nil {
		return "", false
	}
	r := s.Report()
	if r.State != StateAwaitingHandshake {
		return "", false
	}
	return r.Token, true
}

// HasSession reports whether a live session exists for the tenant.
func (m *Manager) HasSession(tenantID uint) bool {
	return m.lookup(tenantID) != nil
}

// Teardown removes the tenant's session and closes its channel. It is a
// no-op when there is no session.
func (m *Manager) Teardown(ctx context.Context, tenantID uint) {
	s := m.remove(tenantID, nil)
	if s == nil {
		return
	}
	if !s.disconnecting.CompareAndSwap(false, true) {
		return
	}
	_ = m.close(ctx, s, false)
}

// RequestDisconnect tears the session down, unlinks the device and clears
// the tenant's stored identity.
func (m *Manager) RequestDisconnect(ctx context.Context, tenantID uint) error {
	s := m.remove(tenantID, nil)
	switch {
	case s != nil:
		if s.disconnecting.CompareAndSwap(false, true) {
			_ = m.close(ctx, s, true)
		}
	default:
		tenant, err := m.identities.GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if tenant.WhatsAppJID != nil && *tenant.WhatsAppJID != "" {
			if err := m.factory.DeleteDevice(ctx, *tenant.WhatsAppJID); err != nil {
				log.Warn().Err(err).Uint("tenant_id", tenantID).Msg("⚠️ Failed to delete linked device")
			}
		}
	}
	return m.identities.ClearChannelIdentity(ctx, tenantID)
}

// Send delivers text to a chat on the tenant's session.
func (m *Manager) Send(ctx context.Context, tenantID uint, to, text string) error {
	ch, err := m.channel(tenantID)
	if err != nil {
		return err
	}
	return ch.Send(ctx, to, text)
}

// StartTyping shows the typing indicator in a chat.
func (m *Manager) StartTyping(ctx context.Context, tenantID uint, to string) error {
	ch, err := m.channel(tenantID)
	if err != nil {
		return err
	}
	return ch.StartTyping(ctx, to)
}

// IsKnownContact looks sender up in the tenant's address book.
func (m *Manager) IsKnownContact(ctx context.Context, tenantID uint, sender string) (bool, error) {
	ch, err := m.channel(tenantID)
	if err != nil {
		return false, err
	}
	return ch.IsKnownContact(ctx, sender)
}

// Close tears down every session. The manager is unusable afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	// every session is closed even when one of them fails
	var g errgroup.Group
	for _, s := range sessions {
		g.Go(func() error {
			if !s.disconnecting.CompareAndSwap(false, true) {
				return nil
			}
			if err := m.close(ctx, s, false); err != nil {
				return fmt.Errorf("close session of tenant %d: %w", s.TenantID, err)
			}
			return nil
		})
	}
	err := g.Wait()
	m.cancel()
	return err
}

func (m *Manager) lookup(tenantID uint) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[tenantID]
}

func (m *Manager) channel(tenantID uint) (Channel, error) {
	s := m.lookup(tenantID)
	if s == nil {
		return nil, ErrNoSession
	}
	ch := s.currentChannel()
	if ch == nil {
		return nil, ErrNoSession
	}
	return ch, nil
}

// remove deletes the tenant's entry. When only is set, the entry is removed
// only if it is that session.
func (m *Manager) remove(tenantID uint, only *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[tenantID]
	if !ok || (only != nil && s != only) {
		return nil
	}
	delete(m.sessions, tenantID)
	return s
}

// fail handles a fatal channel error. Only the first trigger per session
// does any work.
func (m *Manager) fail(s *Session, reason string) {
	if !s.disconnecting.CompareAndSwap(false, true) {
		return
	}
	s.logger.Warn().Str("reason", reason).Msg("🔌 WhatsApp session lost")
	m.remove(s.TenantID, s)
	go func() { _ = m.close(m.baseCtx, s, false) }()
}

// close finishes a session that is already out of the registry: state and
// token are cleared first, listeners get a bounded time to settle, then the
// channel is closed.
func (m *Manager) close(ctx context.Context, s *Session, logout bool) error {
	ch := s.markClosed()

	if !waitTimeout(ctx, &s.listeners, m.teardownWait) {
		s.logger.Warn().Dur("wait", m.teardownWait).Msg("⚠️ Listeners still running, forcing close")
	}

	if ch != nil {
		if err := ch.Close(ctx, logout); err != nil {
			s.logger.Warn().Err(err).Msg("⚠️ Failed to close WhatsApp channel")
			return err
		}
	}
	s.logger.Info().Bool("logout", logout).Msg("🛑 WhatsApp session closed")
	return nil
}

func waitTimeout(ctx context.Context, wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Session is one tenant's live WhatsApp session.
type Session struct {
	ID       uuid.UUID
	TenantID uint

	manager *Manager
	logger  zerolog.Logger

	mu            sync.Mutex
	channel       Channel
	state         State
	token         string
	identitySaved bool
	closed        bool

	disconnecting atomic.Bool
	listeners     sync.WaitGroup
}

func newSession(m *Manager, tenantID uint) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		TenantID: tenantID,
		manager:  m,
		logger:   log.With().Uint("tenant_id", tenantID).Str("session_id", id.String()).Logger(),
		state:    StateInitializing,
	}
}

// Report returns the externally visible state.
func (s *Session) Report() StateReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAwaitingHandshake:
		return StateReport{State: StateAwaitingHandshake, Token: s.token}
	case StateConnected:
		return StateReport{State: StateConnected}
	case StateDisconnected:
		if s.closed {
			return StateReport{State: StateDisconnected}
		}
		// reconnecting
		return StateReport{State: StateInitializing}
	default:
		return StateReport{State: StateInitializing}
	}
}

func (s *Session) attach(ch Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.channel = ch
	return true
}

func (s *Session) currentChannel() Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.channel
}

func (s *Session) markClosed() Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.state = StateDisconnected
	s.token = ""
	return s.channel
}

// OnHandshakeToken implements EventSink.
func (s *Session) OnHandshakeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = StateAwaitingHandshake
	s.token = token
	s.logger.Info().Msg("📱 QR code ready for pairing")
}

// OnReady implements EventSink. The identity is persisted once per session.
func (s *Session) OnReady(identity Identity) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StateConnected
	s.token = ""
	save := !s.identitySaved
	s.identitySaved = true
	s.mu.Unlock()

	s.logger.Info().Str("number", identity.Number).Msg("✅ WhatsApp connected")
	if !save {
		return
	}
	if err := s.manager.identities.SetChannelIdentity(s.manager.baseCtx, s.TenantID, identity.Number, identity.JID); err != nil {
		s.logger.Error().Err(err).Msg("❌ Failed to save channel identity")
	}
}

// OnDisconnected implements EventSink.
func (s *Session) OnDisconnected(reason string, fatal bool) {
	if fatal {
		s.manager.fail(s, reason)
		return
	}

	s.mu.Lock()
	if !s.closed {
		s.state = StateDisconnected
	}
	s.mu.Unlock()
	s.logger.Warn().Str("reason", reason).Msg("⚠️ WhatsApp connection dropped, reconnecting")
}

// OnMessage implements EventSink. Messages arriving while the session is
// shutting down are dropped.
func (s *Session) OnMessage(msg InboundMessage) {
	h := s.manager.handler.Load()
	if h == nil || s.disconnecting.Load() {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.listeners.Add(1)
	s.mu.Unlock()

	msg.TenantID = s.TenantID
	go func() {
		defer s.listeners.Done()
		(*h)(s.manager.baseCtx, msg)
	}()
}
