package content

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Banners(c *fiber.Ctx) error {
	banners, err := h.service.Banners(reqctx.GetLanguage(c))
	if err != nil {
		return contentError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"banners": banners}})
}

func (h *Handler) FAQs(c *fiber.Ctx) error {
	faqs, err := h.service.FAQs(reqctx.GetLanguage(c), c.Query("category"))
	if err != nil {
		return contentError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"faqs": faqs}})
}

func (h *Handler) Notices(c *fiber.Ctx) error {
	page, limit := features.Paging(c)

	notices, total, err := h.service.Notices(reqctx.GetLanguage(c), page, limit)
	if err != nil {
		return contentError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"notices":    notices,
			"pagination": features.Pagination(page, limit, total),
		},
	})
}

func (h *Handler) Notice(c *fiber.Ctx) error {
	id, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid notice ID")
	}

	notice, err := h.service.Notice(id)
	if err != nil {
		return contentError(c, err)
	}
	return c.JSON(notice)
}

func createHandler[T any, P item[T]](s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := P(new(T))
		if err := c.BodyParser(v); err != nil {
			return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if err := create[T, P](s, v); err != nil {
			return contentError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}

func updateHandler[T any, P item[T]](s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := features.ParamID(c, "id")
		if err != nil {
			return features.Fail(c, fiber.StatusBadRequest, "Invalid ID")
		}
		v := P(new(T))
		if err := c.BodyParser(v); err != nil {
			return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if err := update[T, P](s, id, v); err != nil {
			return contentError(c, err)
		}
		return c.JSON(v)
	}
}

func deleteHandler[T any, P item[T]](s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := features.ParamID(c, "id")
		if err != nil {
			return features.Fail(c, fiber.StatusBadRequest, "Invalid ID")
		}
		if err := remove[T, P](s, id); err != nil {
			return contentError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Deleted"})
	}
}

func contentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return features.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnsupportedLanguage),
		errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrImageRequired),
		errors.Is(err, ErrQuestionRequired),
		errors.Is(err, ErrBodyRequired):
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	slog.Error("content request failed", "path", c.Path(), "error", err)
	return features.Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
