package features

import (
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

func Fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

// Reject answers a content-filter rejection with a message in the request
// language.
func Reject(c *fiber.Ctx, mod *services.ModerationService, err error) error {
	return Fail(c, fiber.StatusBadRequest, mod.GetRejectionMessage(services.RejectionReason(err), reqctx.GetLanguage(c)))
}

// IsRejected reports whether err came from the content filter.
func IsRejected(err error) bool {
	return errors.Is(err, services.ErrContentRejected)
}

// Paging reads ?page= and ?limit= with the usual bounds.
func Paging(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", DefaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return page, limit
}

func Offset(page, limit int) int {
	return (page - 1) * limit
}

func Pagination(page, limit int, total int64) fiber.Map {
	return fiber.Map{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
	}
}

// ParamID parses a uuid route parameter.
func ParamID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// ParseIDs parses a comma separated list of uuids, skipping blanks.
func ParseIDs(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
