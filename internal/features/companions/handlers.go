package companions

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
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

func (h *Handler) Send(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	cr, err := h.service.Send(userID, &req)
	if err != nil {
		return h.companionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cr)
}

func (h *Handler) Received(c *fiber.Ctx) error {
	return h.list(c, h.service.ListReceived)
}

func (h *Handler) Sent(c *fiber.Ctx) error {
	return h.list(c, h.service.ListSent)
}

func (h *Handler) list(c *fiber.Ctx, fn func(uuid.UUID, string, int, int) ([]CompanionRequest, int64, error)) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	page, limit := features.Paging(c)

	requests, total, err := fn(userID, c.Query("status"), page, limit)
	if err != nil {
		return h.companionError(c, err)
	}
	views, err := h.service.Decorate(requests)
	if err != nil {
		return h.companionError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"requests":   views,
			"pagination": features.Pagination(page, limit, total),
		},
	})
}

func (h *Handler) Accept(c *fiber.Ctx) error {
	return h.respond(c, h.service.Accept)
}

func (h *Handler) Reject(c *fiber.Ctx) error {
	return h.respond(c, h.service.Reject)
}

func (h *Handler) respond(c *fiber.Ctx, fn func(uuid.UUID, uuid.UUID) (*CompanionRequest, error)) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	requestID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request ID")
	}

	cr, err := fn(userID, requestID)
	if err != nil {
		return h.companionError(c, err)
	}
	return c.JSON(cr)
}

func (h *Handler) Cancel(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	requestID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request ID")
	}

	if err := h.service.Cancel(userID, requestID); err != nil {
		return h.companionError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Request cancelled"})
}

func (h *Handler) companionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrRequestNotFound), errors.Is(err, services.ErrUserNotFound):
		return features.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotReceiver), errors.Is(err, ErrNotSender), errors.Is(err, ErrBlocked):
		return features.Fail(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotPending):
		return features.Fail(c, fiber.StatusConflict, err.Error())
	case features.IsRejected(err):
		return features.Reject(c, h.moderation, err)
	case errors.Is(err, ErrSelfRequest),
		errors.Is(err, ErrMeetInPast),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrMessageTooLong):
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	slog.Error("companion request failed", "path", c.Path(), "error", err)
	return features.Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
