package handlers

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/gofiber/fiber/v2"
)

type LocaleHandler struct {
	locales *locale.Registry
}

func NewLocaleHandler(locales *locale.Registry) *LocaleHandler {
	return &LocaleHandler{locales: locales}
}

type languageView struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
	LocalName   string `json:"local_name"`
}

// List returns the supported languages with names in their own script and
// in the request language, for the language picker.
func (h *LocaleHandler) List(c *fiber.Ctx) error {
	current := reqctx.GetLanguage(c)
	all := h.locales.All()
	out := make([]languageView, 0, len(all))
	for _, l := range all {
		out = append(out, languageView{
			Code:        l.Code,
			Name:        l.Name,
			EnglishName: l.EnglishName,
			LocalName:   h.locales.DisplayName(l.Code, current),
		})
	}
	return c.JSON(fiber.Map{
		"default":   h.locales.Default(),
		"current":   current,
		"client":    reqctx.GetClient(c),
		"languages": out,
	})
}
