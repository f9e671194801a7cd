package whatsapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// WhatsmeowFactory creates whatsmeow channels, one linked device per
// tenant, all kept in a single device store.
type WhatsmeowFactory struct {
	container *sqlstore.Container
	logger    zerolog.Logger
	keepAlive time.Duration
}

func NewWhatsmeowFactory(ctx context.Context, storeURL string, logger zerolog.Logger) (*WhatsmeowFactory, error) {
	dbLog := waLog.Zerolog(logger.With().Str("module", "whatsmeow-store").Logger().Level(zerolog.WarnLevel))
	container, err := openDeviceStore(ctx, storeURL, dbLog)
	if err != nil {
		return nil, err
	}
	log := logger.With().Str("module", "whatsapp").Logger()
	log.Info().Msg("📦 WhatsApp store ready")
	return &WhatsmeowFactory{
		container: container,
		logger:    log,
		keepAlive: 60 * time.Second,
	}, nil
}

func (f *WhatsmeowFactory) device(ctx context.Context, deviceJID string) (*store.Device, error) {
	if deviceJID == "" {
		return nil, nil
	}
	jid, err := types.ParseJID(deviceJID)
	if err != nil {
		return nil, fmt.Errorf("invalid device JID %q: %w", deviceJID, err)
	}
	return f.container.GetDevice(ctx, jid)
}

func (f *WhatsmeowFactory) NewChannel(ctx context.Context, tenantID uint, deviceJID string, sink EventSink) (Channel, error) {
	device, err := f.device(ctx, deviceJID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		device = f.container.NewDevice()
	}

	logger := f.logger.With().Uint("tenant_id", tenantID).Logger()
	client := whatsmeow.NewClient(device, waLog.Zerolog(logger.With().Str("module", "whatsmeow").Logger().Level(zerolog.InfoLevel)))

	runCtx, cancel := context.WithCancel(context.Background())
	c := &whatsmeowChannel{
		tenantID:  tenantID,
		client:    client,
		sink:      sink,
		logger:    logger,
		keepEvery: f.keepAlive,
		runCtx:    runCtx,
		cancel:    cancel,
	}
	c.handlerID = client.AddEventHandler(c.handleEvent)
	return c, nil
}

func (f *WhatsmeowFactory) DeleteDevice(ctx context.Context, deviceJID string) error {
	device, err := f.device(ctx, deviceJID)
	if err != nil || device == nil {
		return err
	}
	return device.Delete(ctx)
}

type whatsmeowChannel struct {
	tenantID  uint
	client    *whatsmeow.Client
	sink      EventSink
	logger    zerolog.Logger
	handlerID uint32
	keepEvery time.Duration

	runCtx    context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (c *whatsmeowChannel) Connect(ctx context.Context) error {
	if c.client.Store.ID == nil {
		qrChan, err := c.client.GetQRChannel(c.runCtx)
		if err != nil {
			return fmt.Errorf("failed to get QR channel: %w", err)
		}
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		go c.consumeQR(qrChan)
	} else {
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	go c.keepAlive(c.runCtx, c.keepEvery)
	return nil
}

func (c *whatsmeowChannel) consumeQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			c.sink.OnHandshakeToken(item.Code)
		case "success":
			c.logger.Info().Msg("✅ QR pairing succeeded")
		case "timeout":
			c.sink.OnDisconnected("handshake timeout", true)
		default:
			reason := item.Event
			if item.Error != nil {
				reason = item.Error.Error()
			}
			c.sink.OnDisconnected("handshake failed: "+reason, true)
		}
	}
}

func (c *whatsmeowChannel) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		c.sink.OnMessage(toInbound(v))
	case *events.Connected:
		if id := c.client.Store.ID; id != nil {
			c.sink.OnReady(Identity{Number: id.User, JID: id.String()})
		}
	case *events.PairSuccess:
		c.logger.Info().Str("jid", v.ID.String()).Msg("🔗 Device paired")
	case *events.LoggedOut:
		c.sink.OnDisconnected("logged out: "+v.Reason.String(), true)
	case *events.StreamReplaced:
		c.sink.OnDisconnected("stream replaced", true)
	case *events.TemporaryBan:
		c.sink.OnDisconnected("temporary ban: "+v.String(), true)
	case *events.ConnectFailure:
		c.sink.OnDisconnected("connect failure: "+v.Reason.String(), true)
	case *events.ClientOutdated:
		c.sink.OnDisconnected("client outdated", true)
	case *events.Disconnected:
		c.sink.OnDisconnected("connection lost", false)
	}
}

func toInbound(v *events.Message) InboundMessage {
	body := v.Message.GetConversation()
	if body == "" {
		body = v.Message.GetExtendedTextMessage().GetText()
	}

	chat := v.Info.Chat
	from := chat.ToNonAD()
	if v.Info.IsGroup {
		from = v.Info.Sender.ToNonAD()
	}

	return InboundMessage{
		ID:           v.Info.ID,
		From:         from.String(),
		Chat:         chat.String(),
		Body:         body,
		Timestamp:    v.Info.Timestamp,
		IsGroup:      v.Info.IsGroup || chat.Server == types.GroupServer,
		IsBroadcast:  chat.Server == types.BroadcastServer,
		IsNewsletter: chat.Server == types.NewsletterServer,
		IsFromMe:     v.Info.IsFromMe,
	}
}

func (c *whatsmeowChannel) Close(ctx context.Context, logout bool) error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.client.RemoveEventHandler(c.handlerID)
		if logout && c.client.Store.ID != nil {
			if err = c.client.Logout(ctx); err == nil {
				return
			}
		}
		c.client.Disconnect()
	})
	return err
}

func (c *whatsmeowChannel) Send(ctx context.Context, to, text string) error {
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	_, err = c.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	return err
}

func (c *whatsmeowChannel) StartTyping(ctx context.Context, to string) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("whatsmeow client not connected")
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	return c.client.SendChatPresence(ctx, jid, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

func (c *whatsmeowChannel) IsKnownContact(ctx context.Context, sender string) (bool, error) {
	jid, err := types.ParseJID(sender)
	if err != nil {
		return false, fmt.Errorf("invalid sender %q: %w", sender, err)
	}
	info, err := c.client.Store.Contacts.GetContact(ctx, jid.ToNonAD())
	if err != nil {
		return false, err
	}
	return info.Found && (info.FullName != "" || info.FirstName != ""), nil
}
