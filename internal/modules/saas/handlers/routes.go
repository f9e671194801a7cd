package handlers

import "github.com/gofiber/fiber/v2"

type Handlers struct {
	Health   *HealthHandler
	WhatsApp *WhatsAppHandler
	Webhook  *WebhookHandler
	Orders   *OrderHandler
	Tenants  *TenantHandler
}

// Register mounts every route on r.
func Register(r fiber.Router, h Handlers) {
	r.Get("/health", h.Health.GetHealth)

	wa := r.Group("/whatsapp")
	wa.Get("/qr", h.WhatsApp.GetQRCode)
	wa.Get("/session/status", h.WhatsApp.GetSessionStatus)
	wa.Post("/disconnect", h.WhatsApp.Disconnect)

	// /webhook is the path the payment provider was first configured with
	r.Post("/webhook", h.Webhook.ReceivePayment)
	r.Post("/webhooks/mercadopago", h.Webhook.ReceivePayment)

	orders := r.Group("/orders")
	orders.Get("/", h.Orders.ListPending)
	orders.Patch("/:id/status", h.Orders.UpdateStatus)
	orders.Delete("/:id", h.Orders.Delete)

	tenants := r.Group("/tenants")
	tenants.Get("/:id", h.Tenants.GetTenant)
	tenants.Put("/:id", h.Tenants.UpdateProfile)
}
