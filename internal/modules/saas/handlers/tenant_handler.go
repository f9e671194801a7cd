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

// TenantProfileStore reads and edits what the assistant knows about a tenant.
type TenantProfileStore interface {
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	UpdateProfile(ctx context.Context, id uint, knowledgeBase, personality string) error
}

type TenantHandler struct {
	tenants TenantProfileStore
}

func NewTenantHandler(tenants TenantProfileStore) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// UpdateProfileRequest replaces the assistant configuration. Omitted fields
// keep their current value.
type UpdateProfileRequest struct {
	KnowledgeBase *string `json:"knowledge_base" example:"Barbearia do Zé. Trabalhamos com agendamento. Corte R$ 50,00"`
	Personality   *string `json:"personality" example:"Simpático e direto"`
}

// GetTenant godoc
// @Summary Get tenant
// @Description Returns the tenant record, including knowledge base and personality
// @Tags Tenants
// @Produce json
// @Param id path int true "Tenant ID"
// @Success 200 {object} models.Tenant
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /tenants/{id} [get]
func (h *TenantHandler) GetTenant(c *fiber.Ctx) error {
	id, err := tenantPathID(c)
	if err != nil {
		return badRequest(c, err)
	}

	tenant, err := h.tenants.GetByID(c.UserContext(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tenant not found"})
	}
	if err != nil {
		utils.LogError("❌ Failed to load tenant", err, map[string]interface{}{"tenant_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tenant"})
	}
	return c.JSON(tenant)
}

// UpdateProfile godoc
// @Summary Update tenant assistant configuration
// @Description Replaces the knowledge base and/or personality used in replies
// @Tags Tenants
// @Accept json
// @Produce json
// @Param id path int true "Tenant ID"
// @Param data body UpdateProfileRequest true "Assistant configuration"
// @Success 200 {object} models.Tenant
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /tenants/{id} [put]
func (h *TenantHandler) UpdateProfile(c *fiber.Ctx) error {
	id, err := tenantPathID(c)
	if err != nil {
		return badRequest(c, err)
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.KnowledgeBase == nil && req.Personality == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "knowledge_base or personality is required"})
	}

	ctx := c.UserContext()
	tenant, err := h.tenants.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tenant not found"})
	}
	if err != nil {
		utils.LogError("❌ Failed to load tenant", err, map[string]interface{}{"tenant_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tenant"})
	}

	if req.KnowledgeBase != nil {
		tenant.KnowledgeBase = *req.KnowledgeBase
	}
	if req.Personality != nil {
		tenant.Personality = *req.Personality
	}

	err = h.tenants.UpdateProfile(ctx, id, tenant.KnowledgeBase, tenant.Personality)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tenant not found"})
	}
	if err != nil {
		utils.LogError("❌ Failed to update tenant profile", err, map[string]interface{}{"tenant_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update tenant"})
	}

	utils.LogInfo("✅ Tenant profile updated", map[string]interface{}{"tenant_id": id})
	return c.JSON(tenant)
}

func tenantPathID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid tenant id")
	}
	return uint(id), nil
}
