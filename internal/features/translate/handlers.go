package translate

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type translateRequest struct {
	Texts  []string `json:"texts"`
	Text   string   `json:"text"`
	Target string   `json:"target"`
	Source string   `json:"source"`
}

// Translate handles POST /translate. target defaults to the request
// language.
func (h *Handler) Translate(c *fiber.Ctx) error {
	var req translateRequest
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	texts := req.Texts
	if req.Text != "" {
		texts = append([]string{req.Text}, texts...)
	}
	target := req.Target
	if target == "" {
		target = reqctx.GetLanguage(c)
	}

	results, err := h.service.Translate(c.UserContext(), texts, target, req.Source)
	if err != nil {
		return translateError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"target": target, "translations": results}})
}

// TranslatePost handles GET /posts/:id/translate?target=.
func (h *Handler) TranslatePost(c *fiber.Ctx) error {
	id, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}

	out, err := h.service.TranslatePost(c.UserContext(), id, c.Query("target", reqctx.GetLanguage(c)))
	if err != nil {
		return translateError(c, err)
	}
	return c.JSON(out)
}

func translateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, posts.ErrPostNotFound):
		return features.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnsupportedTarget),
		errors.Is(err, ErrNoText),
		errors.Is(err, ErrTooManyTexts),
		errors.Is(err, ErrTextTooLong):
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnavailable):
		slog.Error("translation unavailable", "error", err)
		return features.Fail(c, fiber.StatusServiceUnavailable, "Translation is temporarily unavailable")
	}
	slog.Error("translate request failed", "path", c.Path(), "error", err)
	return features.Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
