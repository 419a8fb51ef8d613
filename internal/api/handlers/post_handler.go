package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"postpilot/internal/models"
	"postpilot/internal/queue"
	"postpilot/internal/service"
	"postpilot/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	pins        service.PinterestService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, pins service.PinterestService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, pins: pins, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	caption := c.FormValue("caption")
	platform := c.FormValue("platform")

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files selected",
		})
	}

	postID, err := h.s.CreatePost(c.Context(), &transfer.PostCreation{
		Caption:  caption,
		Platform: platform,
	}, files)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":      postID,
		"message": "Post created",
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	postID := c.Query("id", "")
	if postID != "" {
		post, err := h.s.PostInfo(c.Context(), postID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get post",
			})
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	platform := c.Query("platform", models.PlatformInstagram)
	posts, err := h.s.List(c.Context(), platform)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdateCaption(c *fiber.Ctx) error {
	var body transfer.CaptionUpdate
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if err := h.s.UpdateCaption(c.Context(), body.PostID, body.Caption); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) ReorderPosts(c *fiber.Ctx) error {
	var body transfer.ReorderRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if err := h.s.Reorder(c.Context(), body.PostIDs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to reorder posts",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// PublishPost enqueues an immediate manual publish. The actual pipeline
// runs on the queue worker, same path the scheduler uses.
func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	postID := c.Query("id", "")
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing post id",
		})
	}

	err := queue.EnqueuePublish(h.AsynqClient, queue.PublishPostPayload{PostID: postID}, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling publish",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Publish queued",
	})
}

func (h *PostHandler) PreparePin(c *fiber.Ctx) error {
	postID := c.Query("id", "")
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing post id",
		})
	}

	pin, err := h.pins.PreparePin(c.Context(), postID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(pin)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID := c.Query("id", "")

	if err := h.s.Remove(c.Context(), postID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
