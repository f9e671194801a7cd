package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type providerNamer interface {
	GetProviderName() string
}

type HealthHandler struct {
	llm providerNamer
}

func NewHealthHandler(llm providerNamer) *HealthHandler {
	return &HealthHandler{llm: llm}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if API is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	provider := "none"
	if h.llm != nil {
		provider = h.llm.GetProviderName()
	}
	return c.JSON(fiber.Map{
		"status":       "ok",
		"service":      "nexuschat-api",
		"llm_provider": provider,
	})
}
