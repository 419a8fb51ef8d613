package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"postpilot/internal/service"
)

type KeysHandler struct {
	s service.ApiKeyService
}

func NewKeysHandler(service service.ApiKeyService) *KeysHandler {
	return &KeysHandler{s: service}
}

func (h *KeysHandler) CreateKey(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	key, err := h.s.Create(c.Context(), body.Name)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(key)
}

func (h *KeysHandler) ListKeys(c *fiber.Ctx) error {
	keys, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list api keys",
		})
	}

	return c.Status(fiber.StatusOK).JSON(keys)
}

func (h *KeysHandler) RemoveKey(c *fiber.Ctx) error {
	keyID, err := strconv.ParseInt(c.Query("id", ""), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid key id",
		})
	}

	if err := h.s.RemoveAPIKey(c.Context(), keyID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove api key",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
