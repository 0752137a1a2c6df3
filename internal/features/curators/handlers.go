package curators

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
	posts   *posts.Service
}

func NewHandler(service *Service, posts *posts.Service) *Handler {
	return &Handler{service: service, posts: posts}
}

func (h *Handler) List(c *fiber.Ctx) error {
	page, limit := features.Paging(c)

	curators, total, err := h.service.ListCurators(reqctx.OptionalUserID(c), page, limit)
	if err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"curators":   curators,
			"pagination": features.Pagination(page, limit, total),
		},
	})
}

func (h *Handler) ToggleFollow(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	curatorID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	following, count, err := h.service.ToggleFollow(userID, curatorID)
	if err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{"following": following, "follower_count": count})
}

func (h *Handler) Unfollow(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	curatorID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	if err := h.service.Unfollow(userID, curatorID); err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

func (h *Handler) FollowStatus(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	curatorID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	following, err := h.service.IsFollowing(userID, curatorID)
	if err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}

func (h *Handler) Followers(c *fiber.Ctx) error {
	curatorID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	page, limit := features.Paging(c)

	users, total, err := h.service.Followers(curatorID, page, limit)
	if err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"users":      users,
			"pagination": features.Pagination(page, limit, total),
		},
	})
}

// MyFollowers is the curator's own follower list.
func (h *Handler) MyFollowers(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	page, limit := features.Paging(c)

	users, total, err := h.service.Followers(userID, page, limit)
	if err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"users":      users,
			"pagination": features.Pagination(page, limit, total),
		},
	})
}

func (h *Handler) Following(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	page, limit := features.Paging(c)

	users, total, err := h.service.Following(userID, page, limit)
	if err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"users":      users,
			"pagination": features.Pagination(page, limit, total),
		},
	})
}

func (h *Handler) Feed(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	page, limit := features.Paging(c)

	list, total, err := h.service.CuratorFeed(userID, page, limit)
	if err != nil {
		return h.curatorError(c, err)
	}
	views, err := h.posts.Decorate(userID, list)
	if err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"posts":      views,
			"pagination": features.Pagination(page, limit, total),
		},
	})
}

func (h *Handler) Grant(c *fiber.Ctx) error {
	return h.setRole(c, true)
}

func (h *Handler) Revoke(c *fiber.Ctx) error {
	return h.setRole(c, false)
}

func (h *Handler) setRole(c *fiber.Ctx, curator bool) error {
	userID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	if err := h.service.SetCurator(userID, curator); err != nil {
		return h.curatorError(c, err)
	}
	return c.JSON(fiber.Map{"curator": curator})
}

func (h *Handler) curatorError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return features.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrSelfFollow), errors.Is(err, ErrNotCurator):
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	slog.Error("curator request failed", "path", c.Path(), "error", err)
	return features.Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
