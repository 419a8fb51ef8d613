package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"postpilot/internal/service"
	"postpilot/internal/transfer"
)

type CaptionHandler struct {
	s service.CaptionService
}

func NewCaptionHandler(service service.CaptionService) *CaptionHandler {
	return &CaptionHandler{s: service}
}

func (h *CaptionHandler) GenerateCaptions(c *fiber.Ctx) error {
	var body transfer.CaptionPrompt
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if body.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing prompt",
		})
	}

	captions, err := h.s.Generate(c.Context(), body.Prompt)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to generate captions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"captions": captions,
	})
}
