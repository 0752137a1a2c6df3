package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			return fail(c, fiber.StatusConflict, Localize(c, err))
		case errors.Is(err, services.ErrInvalidEmail),
			errors.Is(err, services.ErrWeakPassword),
			errors.Is(err, services.ErrTermsRequired):
			return fail(c, fiber.StatusBadRequest, Localize(c, err))
		}
		slog.Error("register failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return fail(c, fiber.StatusUnauthorized, Localize(c, err))
		}
		slog.Error("login failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.Refresh(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return fail(c, fiber.StatusUnauthorized, Localize(c, err))
		}
		slog.Error("token refresh failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.authService.Logout(&req); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to logout")
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// SocialSignIn handles POST /auth/social/:provider.
func (h *AuthHandler) SocialSignIn(c *fiber.Ctx) error {
	var req dto.SocialSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.SocialSignIn(c.UserContext(), c.Params("provider"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProviderNotConfigured):
			return fail(c, fiber.StatusBadRequest, Localize(c, err))
		case errors.Is(err, services.ErrInvalidSocialToken):
			return fail(c, fiber.StatusUnauthorized, Localize(c, err))
		case errors.Is(err, services.ErrSocialConflict):
			return fail(c, fiber.StatusConflict, Localize(c, err))
		}
		slog.Error("social sign-in failed", "provider", c.Params("provider"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Providers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"providers": append([]string{services.ProviderEmail}, h.authService.Providers()...),
	})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	// Social accounts may send no body at all.
	var req dto.DeleteAccountRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}

	if err := h.authService.DeleteAccount(userID, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return fail(c, fiber.StatusUnauthorized, Localize(c, err))
		case errors.Is(err, services.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, Localize(c, err))
		case errors.Is(err, services.ErrPasswordRequired):
			return fail(c, fiber.StatusBadRequest, Localize(c, err))
		}
		slog.Error("account deletion failed", "user_id", userID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to delete account")
	}

	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}
