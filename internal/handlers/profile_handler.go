package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProfileHandler struct {
	userService *services.UserService
	push        *services.PushService
	moderation  *services.ModerationService
}

func NewProfileHandler(userService *services.UserService, push *services.PushService, moderation *services.ModerationService) *ProfileHandler {
	return &ProfileHandler{userService: userService, push: push, moderation: moderation}
}

func (h *ProfileHandler) GetMe(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.userService.GetMe(userID)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(user)
}

func (h *ProfileHandler) CompleteProfile(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CompleteProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.userService.CompleteProfile(userID, &req)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(user)
}

func (h *ProfileHandler) UpdateConsents(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ConsentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.userService.UpdateConsents(userID, &req)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(user)
}

func (h *ProfileHandler) SetLanguage(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.userService.SetLanguage(userID, req.Language); err != nil {
		return h.userError(c, err)
	}
	return c.JSON(fiber.Map{"language": req.Language})
}

func (h *ProfileHandler) GetPublicProfile(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	profile, err := h.userService.GetPublicProfile(id)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) RegisterDeviceToken(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.DeviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.push.RegisterToken(userID, req.Token, req.Platform); err != nil {
		return h.userError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Device registered"})
}

func (h *ProfileHandler) RemoveDeviceToken(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.DeviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.push.RemoveToken(userID, req.Token); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to remove device")
	}
	return c.JSON(fiber.Map{"message": "Device removed"})
}

func (h *ProfileHandler) userError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, Localize(c, err))
	case errors.Is(err, services.ErrContentRejected):
		return fail(c, fiber.StatusBadRequest, h.moderation.GetRejectionMessage(services.RejectionReason(err), reqctx.GetLanguage(c)))
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrInvalidBirthDate),
		errors.Is(err, services.ErrInvalidGender),
		errors.Is(err, services.ErrUnsupportedLanguage),
		errors.Is(err, services.ErrInvalidDeviceToken):
		return fail(c, fiber.StatusBadRequest, Localize(c, err))
	}
	slog.Error("profile request failed", "path", c.Path(), "error", err)
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}
