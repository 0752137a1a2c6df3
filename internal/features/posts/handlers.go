package posts

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

type batchRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	post, err := h.service.Create(userID, &req)
	if err != nil {
		return h.postError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	postID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}

	var req UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	post, err := h.service.Update(userID, postID, &req)
	if err != nil {
		return h.postError(c, err)
	}
	return c.JSON(post)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	postID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}

	if err := h.service.Delete(userID, postID, false); err != nil {
		return h.postError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

func (h *Handler) AdminDelete(c *fiber.Ctx) error {
	postID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}
	if err := h.service.Delete(uuid.Nil, postID, true); err != nil {
		return h.postError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post removed"})
}

func (h *Handler) Get(c *fiber.Ctx) error {
	postID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.service.Get(postID)
	if err != nil {
		return h.postError(c, err)
	}
	views, err := h.service.Decorate(reqctx.OptionalUserID(c), []Post{*post})
	if err != nil {
		return h.postError(c, err)
	}
	return c.JSON(views[0])
}

func (h *Handler) Feed(c *fiber.Ctx) error {
	page, limit := features.Paging(c)
	viewer := reqctx.OptionalUserID(c)

	posts, total, err := h.service.Feed(viewer, FeedQuery{
		Page:     page,
		Limit:    limit,
		City:     c.Query("city"),
		Country:  c.Query("country"),
		Category: c.Query("category"),
	})
	if err != nil {
		return h.postError(c, err)
	}
	return h.list(c, viewer, posts, page, limit, total)
}

func (h *Handler) ByAuthor(c *fiber.Ctx) error {
	authorID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	page, limit := features.Paging(c)

	posts, total, err := h.service.ByAuthor(authorID, page, limit)
	if err != nil {
		return h.postError(c, err)
	}
	return h.list(c, reqctx.OptionalUserID(c), posts, page, limit, total)
}

// Batch handles POST /posts/batch. Unknown ids are left out of the result.
func (h *Handler) Batch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}

	posts, err := h.service.BatchGet(c.UserContext(), ids)
	if err != nil {
		return h.postError(c, err)
	}
	views, err := h.service.Decorate(reqctx.OptionalUserID(c), posts)
	if err != nil {
		return h.postError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"posts": views}})
}

func (h *Handler) Like(c *fiber.Ctx) error {
	return h.toggle(c, h.service.ToggleLike, "liked", "like_count")
}

func (h *Handler) Bookmark(c *fiber.Ctx) error {
	return h.toggle(c, h.service.ToggleBookmark, "bookmarked", "bookmark_count")
}

func (h *Handler) toggle(c *fiber.Ctx, fn func(uuid.UUID, uuid.UUID) (bool, int, error), stateKey, countKey string) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	postID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}

	on, count, err := fn(userID, postID)
	if err != nil {
		return h.postError(c, err)
	}
	return c.JSON(fiber.Map{stateKey: on, countKey: count})
}

func (h *Handler) Bookmarks(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	page, limit := features.Paging(c)

	posts, total, err := h.service.Bookmarks(userID, page, limit)
	if err != nil {
		return h.postError(c, err)
	}
	return h.list(c, userID, posts, page, limit, total)
}

func (h *Handler) AttachMedia(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	postID, err := features.ParamID(c, "id")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}

	var req AttachMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	post, err := h.service.AttachMedia(userID, postID, &req)
	if err != nil {
		return h.postError(c, err)
	}
	return c.JSON(post)
}

func (h *Handler) list(c *fiber.Ctx, viewer uuid.UUID, posts []Post, page, limit int, total int64) error {
	views, err := h.service.Decorate(viewer, posts)
	if err != nil {
		return h.postError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"posts":      views,
			"pagination": features.Pagination(page, limit, total),
		},
	})
}

func (h *Handler) postError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrPostNotFound):
		return features.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return features.Fail(c, fiber.StatusForbidden, err.Error())
	case features.IsRejected(err):
		return features.Reject(c, h.moderation, err)
	case errors.Is(err, ErrEmptyPost),
		errors.Is(err, ErrTooManyImages),
		errors.Is(err, ErrContentTooLong),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidVideo),
		errors.Is(err, ErrInvalidJSON):
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	slog.Error("post request failed", "path", c.Path(), "error", err)
	return features.Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
