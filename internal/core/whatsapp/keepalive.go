package whatsapp

import (
	"context"
	"time"

	"go.mau.fi/whatsmeow/types"
)

// keepAlive periodically marks the linked account as available so the
// session is not parked by the server. It stops with ctx.
func (c *whatsmeowChannel) keepAlive(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	c.logger.Debug().Dur("every", every).Msg("🔄 Keep-alive started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug().Msg("🛑 Keep-alive stopped")
			return
		case <-ticker.C:
			if !c.client.IsConnected() || c.client.Store.ID == nil {
				continue
			}
			if err := c.client.SendPresence(ctx, types.PresenceAvailable); err != nil {
				c.logger.Warn().Err(err).Msg("⚠️ Keep-alive ping failed")
			} else {
				c.logger.Debug().Msg("💓 Keep-alive ping sent")
			}
		}
	}
}
