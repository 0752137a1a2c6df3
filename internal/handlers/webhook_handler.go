package handlers

import (
	"crypto/subtle"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/gofiber/fiber/v2"
)

// VideoStatusUpdater records encoding progress for uploaded videos.
type VideoStatusUpdater interface {
	SetVideoStatus(guid, status string) (int64, error)
}

type WebhookHandler struct {
	secret string
	videos VideoStatusUpdater
}

func NewWebhookHandler(secret string, videos VideoStatusUpdater) *WebhookHandler {
	return &WebhookHandler{secret: secret, videos: videos}
}

// HandleBunnyStream accepts Bunny Stream encoding callbacks. The shared
// secret comes from the X-Webhook-Secret header or the ?secret= query.
func (h *WebhookHandler) HandleBunnyStream(c *fiber.Ctx) error {
	if h.secret == "" || h.videos == nil {
		return fail(c, fiber.StatusNotFound, "Webhooks not configured")
	}

	provided := c.Get("X-Webhook-Secret")
	if provided == "" {
		provided = c.Query("secret")
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var webhook dto.BunnyVideoWebhook
	if err := c.BodyParser(&webhook); err != nil || webhook.VideoGUID == "" {
		return fail(c, fiber.StatusBadRequest, "Invalid webhook payload")
	}

	status := videoStatus(webhook.Status)
	if status == "" {
		return c.JSON(fiber.Map{"received": true, "updated": 0})
	}

	updated, err := h.videos.SetVideoStatus(webhook.VideoGUID, status)
	if err != nil {
		slog.Error("video webhook failed", "video_guid", webhook.VideoGUID, "status", webhook.Status, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to process webhook event")
	}
	if updated == 0 {
		slog.Warn("video webhook for unknown media", "video_guid", webhook.VideoGUID)
	}

	return c.JSON(fiber.Map{"received": true, "updated": updated})
}

func videoStatus(code int) string {
	switch code {
	case dto.BunnyStatusFinished, dto.BunnyStatusResolutionReady:
		return posts.VideoReady
	case dto.BunnyStatusFailed:
		return posts.VideoFailed
	case dto.BunnyStatusQueued, dto.BunnyStatusProcessing, dto.BunnyStatusEncoding:
		return posts.VideoProcessing
	}
	return ""
}
