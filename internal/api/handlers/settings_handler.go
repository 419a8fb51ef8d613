package handlers

import (
	"github.com/gofiber/fiber/v2"
	"postpilot/internal/service"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) ConnectionInfo(c *fiber.Ctx) error {
	info, err := h.s.ConnectionInfo(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get connection info",
		})
	}

	return c.Status(fiber.StatusOK).JSON(info)
}

func (h *SettingsHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.s.Disconnect(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disconnect",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
