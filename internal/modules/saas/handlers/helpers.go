package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// tenantIDFrom reads the tenant id from the query string, falling back to
// the route parameter.
func tenantIDFrom(c *fiber.Ctx) (uint, error) {
	raw := c.Query("tenant_id")
	if raw == "" {
		raw = c.Params("tenant_id")
	}
	if raw == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "tenant_id is required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid tenant_id")
	}
	return uint(id), nil
}

func badRequest(c *fiber.Ctx, err error) error {
	msg := err.Error()
	if fe, ok := err.(*fiber.Error); ok {
		msg = fe.Message
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
