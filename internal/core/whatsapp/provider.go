package whatsapp

import (
	"context"
	"time"
)

// State of a tenant session.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAwaitingHandshake
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAwaitingHandshake:
		return "awaiting_handshake"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

// StateReport is what callers outside the package see of a session. Token
// is only set while the state is StateAwaitingHandshake.
type StateReport struct {
	State State
	Token string
}

// Identity is the WhatsApp account a session is linked to.
type Identity struct {
	Number string
	JID    string
}

// InboundMessage is a text message received on a tenant session.
type InboundMessage struct {
	TenantID uint
	ID       string
	// From is the address replies go to.
	From      string
	Chat      string
	Body      string
	Timestamp time.Time

	IsGroup      bool
	IsBroadcast  bool
	IsNewsletter bool
	IsFromMe     bool
}

// EventSink receives the events of one channel.
type EventSink interface {
	OnHandshakeToken(token string)
	OnReady(identity Identity)
	// OnDisconnected reports a lost connection. Fatal disconnects end the
	// session; others are retried by the channel itself.
	OnDisconnected(reason string, fatal bool)
	OnMessage(msg InboundMessage)
}

// Channel is one tenant's connection to WhatsApp.
type Channel interface {
	Connect(ctx context.Context) error
	// Close disconnects. With logout the linked device is also removed.
	Close(ctx context.Context, logout bool) error
	Send(ctx context.Context, to, text string) error
	StartTyping(ctx context.Context, to string) error
	// IsKnownContact reports whether sender is saved in the tenant's
	// address book.
	IsKnownContact(ctx context.Context, sender string) (bool, error)
}

// ChannelFactory creates channels. deviceJID is the previously linked
// device, empty for a fresh pairing.
type ChannelFactory interface {
	NewChannel(ctx context.Context, tenantID uint, deviceJID string, sink EventSink) (Channel, error)
	// DeleteDevice forgets a linked device that has no live channel.
	DeleteDevice(ctx context.Context, deviceJID string) error
}
