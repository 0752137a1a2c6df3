package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validConfigTypes = map[string]bool{"string": true, "bool": true, "int": true, "json": true}

type RemoteConfigHandler struct {
	db      *gorm.DB
	locales *locale.Registry
}

func NewRemoteConfigHandler(db *gorm.DB, locales *locale.Registry) *RemoteConfigHandler {
	return &RemoteConfigHandler{db: db, locales: locales}
}

// GetConfig returns every key decoded to its declared type (public).
func (h *RemoteConfigHandler) GetConfig(c *fiber.Ctx) error {
	result, err := h.Values()
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch configuration")
	}
	return c.JSON(result)
}

// SetConfigKey creates or updates a key (admin only).
func (h *RemoteConfigHandler) SetConfigKey(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("key"))
	if key == "" {
		return fail(c, fiber.StatusBadRequest, "Key parameter is required")
	}

	var payload struct {
		Value string `json:"value"`
		Type  string `json:"type"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	if payload.Type == "" {
		payload.Type = "string"
	}
	if !validConfigTypes[payload.Type] {
		return fail(c, fiber.StatusBadRequest, "Type must be string, bool, int, or json")
	}
	if err := validateConfigValue(payload.Type, payload.Value); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	var config models.RemoteConfig
	err := h.db.Where("key = ?", key).First(&config).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		config = models.RemoteConfig{Key: key, Value: payload.Value, Type: payload.Type}
		if err := h.db.Create(&config).Error; err != nil {
			return fail(c, fiber.StatusInternalServerError, "Failed to create config")
		}
	case err != nil:
		return fail(c, fiber.StatusInternalServerError, "Failed to query config")
	default:
		config.Value = payload.Value
		config.Type = payload.Type
		if err := h.db.Save(&config).Error; err != nil {
			return fail(c, fiber.StatusInternalServerError, "Failed to update config")
		}
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Config updated successfully",
		"config":  config,
	})
}

// DeleteConfigKey removes a key (admin only).
func (h *RemoteConfigHandler) DeleteConfigKey(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return fail(c, fiber.StatusBadRequest, "Key parameter is required")
	}

	result := h.db.Where("key = ?", key).Delete(&models.RemoteConfig{})
	if result.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to delete config")
	}
	if result.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "Config not found")
	}

	return c.JSON(fiber.Map{"error": false, "message": "Config deleted successfully"})
}

// SeedDefaults inserts keys the web and app shells read at boot. Existing
// keys are left untouched.
func (h *RemoteConfigHandler) SeedDefaults() error {
	codes := make([]string, 0)
	for _, l := range h.locales.All() {
		codes = append(codes, l.Code)
	}

	defaults := []models.RemoteConfig{
		{Key: "maintenance_mode", Value: "false", Type: "bool"},
		{Key: "min_app_version_ios", Value: "1.0.0", Type: "string"},
		{Key: "min_app_version_android", Value: "1.0.0", Type: "string"},
		{Key: "default_language", Value: h.locales.Default(), Type: "string"},
		{Key: "supported_languages", Value: strings.Join(codes, ","), Type: "string"},
		{Key: "announcement_title", Value: "", Type: "string"},
		{Key: "announcement_message", Value: "", Type: "string"},
		{Key: "max_post_images", Value: "10", Type: "int"},
	}

	for _, d := range defaults {
		var existing models.RemoteConfig
		err := h.db.Where("key = ?", d.Key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row := d
			if err := h.db.Create(&row).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Values returns the decoded key/value map for internal callers.
func (h *RemoteConfigHandler) Values() (map[string]interface{}, error) {
	var configs []models.RemoteConfig
	if err := h.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(configs))
	for _, cfg := range configs {
		result[cfg.Key] = decodeConfigValue(cfg.Type, cfg.Value)
	}
	return result, nil
}

func decodeConfigValue(typ, raw string) interface{} {
	switch typ {
	case "bool":
		v, _ := strconv.ParseBool(raw)
		return v
	case "int":
		v, _ := strconv.Atoi(raw)
		return v
	case "json":
		var v interface{}
		_ = json.Unmarshal([]byte(raw), &v)
		return v
	default:
		return raw
	}
}

func validateConfigValue(typ, raw string) error {
	switch typ {
	case "bool":
		if _, err := strconv.ParseBool(raw); err != nil {
			return errors.New("value must be true or false")
		}
	case "int":
		if _, err := strconv.Atoi(raw); err != nil {
			return errors.New("value must be an integer")
		}
	case "json":
		if !json.Valid([]byte(raw)) {
			return errors.New("value must be valid JSON")
		}
	}
	return nil
}
