package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/services"
	"github.com/nexuschat/nexuschat-be/internal/shared/utils"
)

// PaymentNotifier applies a provider payment notification.
type PaymentNotifier interface {
	HandlePaymentNotification(ctx context.Context, paymentID string) (*services.ActivationResult, error)
}

type WebhookHandler struct {
	payments PaymentNotifier
}

func NewWebhookHandler(payments PaymentNotifier) *WebhookHandler {
	return &WebhookHandler{payments: payments}
}

// mercadoPagoNotification covers both the webhook body and the legacy IPN
// query string (topic/id).
type mercadoPagoNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// ReceivePayment godoc
// @Summary Payment provider webhook
// @Description Receives Mercado Pago notifications. Approved payments activate the subscription of the tenant owning the payer e-mail. Always answers 200 so the provider stops retrying.
// @Tags Webhook
// @Accept json
// @Produce json
// @Param type query string false "Notification type"
// @Param data.id query string false "Payment ID"
// @Param payload body map[string]interface{} false "Notification payload"
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/mercadopago [post]
func (h *WebhookHandler) ReceivePayment(c *fiber.Ctx) error {
	kind, paymentID := parsePaymentNotification(c)
	if kind != "payment" || paymentID == "" {
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	result, err := h.payments.HandlePaymentNotification(c.UserContext(), paymentID)
	if err != nil {
		utils.LogError("❌ Failed to process payment notification", err, map[string]interface{}{"payment_id": paymentID})
		return c.JSON(fiber.Map{"status": "error"})
	}

	utils.LogInfo("💳 Payment notification processed", map[string]interface{}{
		"payment_id": paymentID,
		"status":     result.Status,
		"activated":  result.Activated,
		"duplicate":  result.Duplicate,
	})
	return c.JSON(fiber.Map{"status": "ok", "activated": result.Activated})
}

func parsePaymentNotification(c *fiber.Ctx) (kind, id string) {
	kind = c.Query("type", c.Query("topic"))
	id = c.Query("data.id", c.Query("id"))

	if len(c.Body()) > 0 {
		var n mercadoPagoNotification
		if err := json.Unmarshal(c.Body(), &n); err == nil {
			if n.Type != "" {
				kind = n.Type
			}
			if raw := rawID(n.Data.ID); raw != "" {
				id = raw
			}
		}
	}
	return kind, id
}

// rawID accepts ids sent as JSON strings or numbers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}
