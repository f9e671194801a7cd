package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/nexuschat/nexuschat-be/internal/core/whatsapp"
	"github.com/nexuschat/nexuschat-be/internal/shared/utils"
)

// SessionManager is the session surface exposed over HTTP.
type SessionManager interface {
	State(ctx context.Context, tenantID uint) whatsapp.StateReport
	RequestDisconnect(ctx context.Context, tenantID uint) error
}

type WhatsAppHandler struct {
	sessions SessionManager
	qrSize   int
}

func NewWhatsAppHandler(sessions SessionManager) *WhatsAppHandler {
	return &WhatsAppHandler{sessions: sessions, qrSize: 256}
}

// GetQRCode godoc
// @Summary Get WhatsApp pairing QR code
// @Description Starts the tenant session when needed. 204 when already connected, {"waiting":true} while the session initializes, {"qrcode":"data:image/png;base64,..."} while waiting for the phone to scan.
// @Tags WhatsApp
// @Produce json
// @Param tenant_id query int true "Tenant ID"
// @Success 200 {object} map[string]interface{}
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /whatsapp/qr [get]
func (h *WhatsAppHandler) GetQRCode(c *fiber.Ctx) error {
	tenantID, err := tenantIDFrom(c)
	if err != nil {
		return badRequest(c, err)
	}

	report := h.sessions.State(c.UserContext(), tenantID)
	switch report.State {
	case whatsapp.StateConnected:
		return c.SendStatus(fiber.StatusNoContent)
	case whatsapp.StateAwaitingHandshake:
		dataURL, err := whatsapp.QRDataURL(report.Token, h.qrSize)
		if err != nil {
			utils.LogError("❌ Failed to render QR code", err, map[string]interface{}{"tenant_id": tenantID})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to render QR code"})
		}
		return c.JSON(fiber.Map{"qrcode": dataURL})
	default:
		return c.JSON(fiber.Map{"waiting": true})
	}
}

// GetSessionStatus godoc
// @Summary Get WhatsApp session status
// @Description Report the tenant session state (initializing, awaiting_handshake, connected)
// @Tags WhatsApp
// @Produce json
// @Param tenant_id query int true "Tenant ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /whatsapp/session/status [get]
func (h *WhatsAppHandler) GetSessionStatus(c *fiber.Ctx) error {
	tenantID, err := tenantIDFrom(c)
	if err != nil {
		return badRequest(c, err)
	}

	report := h.sessions.State(c.UserContext(), tenantID)
	return c.JSON(fiber.Map{
		"tenant_id": tenantID,
		"state":     report.State.String(),
		"connected": report.State == whatsapp.StateConnected,
	})
}

// Disconnect godoc
// @Summary Disconnect WhatsApp
// @Description Close the tenant session, unlink the device and forget the stored number
// @Tags WhatsApp
// @Produce json
// @Param tenant_id query int true "Tenant ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /whatsapp/disconnect [post]
func (h *WhatsAppHandler) Disconnect(c *fiber.Ctx) error {
	tenantID, err := tenantIDFrom(c)
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.sessions.RequestDisconnect(c.UserContext(), tenantID); err != nil {
		utils.LogError("❌ Failed to disconnect WhatsApp", err, map[string]interface{}{"tenant_id": tenantID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	utils.LogInfo("🔌 WhatsApp disconnected on request", map[string]interface{}{"tenant_id": tenantID})
	return c.JSON(fiber.Map{"status": "ok", "message": "WhatsApp disconnected"})
}
