package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db       *gorm.DB
	features map[string]bool
}

// NewHealthHandler reports DB reachability plus which optional integrations
// are configured (media CDN, push, translation, ...).
func NewHealthHandler(db *gorm.DB, features map[string]bool) *HealthHandler {
	return &HealthHandler{db: db, features: features}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Features:  h.features,
	})
}
