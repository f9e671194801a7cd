package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
	"github.com/nexuschat/nexuschat-be/internal/shared/utils"
)

const pendingOrdersLimit = 50

// OrderStore is the ledger surface the dashboard uses.
type OrderStore interface {
	ListPending(ctx context.Context, tenantID uint, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, tenantID, id uint, status string) error
	Delete(ctx context.Context, tenantID, id uint) error
}

type OrderHandler struct {
	orders OrderStore
}

func NewOrderHandler(orders OrderStore) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListPending godoc
// @Summary List pending orders
// @Description Latest 50 pending orders of a tenant, newest first
// @Tags Orders
// @Produce json
// @Param tenant_id query int true "Tenant ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /orders [get]
func (h *OrderHandler) ListPending(c *fiber.Ctx) error {
	tenantID, err := tenantIDFrom(c)
	if err != nil {
		return badRequest(c, err)
	}

	orders, err := h.orders.ListPending(c.UserContext(), tenantID, pendingOrdersLimit)
	if err != nil {
		utils.LogError("❌ Failed to list orders", err, map[string]interface{}{"tenant_id": tenantID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list orders"})
	}
	return c.JSON(fiber.Map{"orders": orders, "count": len(orders)})
}

// UpdateStatus godoc
// @Summary Update order status
// @Tags Orders
// @Accept json
// @Produce json
// @Param tenant_id query int true "Tenant ID"
// @Param id path int true "Order ID"
// @Param data body object{status=string} true "New status (pending, completed, cancelled)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	tenantID, err := tenantIDFrom(c)
	if err != nil {
		return badRequest(c, err)
	}
	id, err := orderID(c)
	if err != nil {
		return badRequest(c, err)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if !models.ValidOrderStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}

	err = h.orders.UpdateStatus(c.UserContext(), tenantID, id, req.Status)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if err != nil {
		utils.LogError("❌ Failed to update order", err, map[string]interface{}{"tenant_id": tenantID, "order_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update order"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Delete godoc
// @Summary Delete order
// @Tags Orders
// @Produce json
// @Param tenant_id query int true "Tenant ID"
// @Param id path int true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /orders/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	tenantID, err := tenantIDFrom(c)
	if err != nil {
		return badRequest(c, err)
	}
	id, err := orderID(c)
	if err != nil {
		return badRequest(c, err)
	}

	err = h.orders.Delete(c.UserContext(), tenantID, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if err != nil {
		utils.LogError("❌ Failed to delete order", err, map[string]interface{}{"tenant_id": tenantID, "order_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete order"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func orderID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	return uint(id), nil
}
