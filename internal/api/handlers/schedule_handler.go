package handlers

import (
	"github.com/gofiber/fiber/v2"
	"postpilot/internal/models"
	"postpilot/internal/service"
)

type ScheduleHandler struct {
	s service.ScheduleService
}

func NewScheduleHandler(service service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: service}
}

func (h *ScheduleHandler) GetSchedule(c *fiber.Ctx) error {
	platform := c.Query("platform", models.PlatformInstagram)

	cfg, err := h.s.Get(c.Context(), platform)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get schedule",
		})
	}
	if cfg == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"platform":  platform,
			"is_active": false,
		})
	}

	return c.Status(fiber.StatusOK).JSON(cfg)
}

func (h *ScheduleHandler) PlaySchedule(c *fiber.Ctx) error {
	platform := c.Query("platform", models.PlatformInstagram)

	cfg, err := h.s.Play(c.Context(), platform)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start schedule",
		})
	}

	return c.Status(fiber.StatusOK).JSON(cfg)
}

func (h *ScheduleHandler) PauseSchedule(c *fiber.Ctx) error {
	platform := c.Query("platform", models.PlatformInstagram)

	if err := h.s.Pause(c.Context(), platform); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ScheduleHandler) SetInterval(c *fiber.Ctx) error {
	var body struct {
		Platform string `json:"platform"`
		Hours    int    `json:"hours"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if body.Platform == "" {
		body.Platform = models.PlatformInstagram
	}

	if err := h.s.SetInterval(c.Context(), body.Platform, body.Hours); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
