package chat

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/companions"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	service    *Service
	moderation *services.ModerationService
}

func NewHandler(service *Service, moderation *services.ModerationService) *Handler {
	return &Handler{service: service, moderation: moderation}
}

type openRoomRequest struct {
	UserID             uuid.UUID  `json:"user_id"`
	CompanionRequestID *uuid.UUID `json:"companion_request_id"`
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (h *Handler) OpenRoom(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req openRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	room, err := h.service.OpenRoom(userID, req.UserID, req.CompanionRequestID)
	if err != nil {
		return h.chatError(c, err)
	}
	return c.JSON(room)
}

func (h *Handler) ListRooms(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	rooms, err := h.service.ListRooms(userID)
	if err != nil {
		return h.chatError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"rooms": rooms}})
}

func (h *Handler) Messages(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	roomID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid room ID")
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return features.Fail(c, fiber.StatusBadRequest, "before must be an RFC 3339 timestamp")
		}
		before = &t
	}

	messages, err := h.service.Messages(userID, roomID, before, c.QueryInt("limit", 50))
	if err != nil {
		return h.chatError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"messages": messages}})
}

func (h *Handler) Send(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	roomID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid room ID")
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	msg, err := h.service.SendMessage(userID, roomID, req.Body)
	if err != nil {
		return h.chatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) MarkRead(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	roomID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid room ID")
	}

	if err := h.service.MarkRead(userID, roomID); err != nil {
		return h.chatError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Marked as read"})
}

func (h *Handler) chatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, companions.ErrRequestNotFound):
		return features.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrBlocked):
		return features.Fail(c, fiber.StatusForbidden, err.Error())
	case features.IsRejected(err):
		return features.Reject(c, h.moderation, err)
	case errors.Is(err, ErrSelfChat),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrMessageTooLong),
		errors.Is(err, ErrCompanionMismatch):
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	slog.Error("chat request failed", "path", c.Path(), "error", err)
	return features.Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
