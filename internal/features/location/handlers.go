package location

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// CityCode handles GET /location/city-code?place=&country=.
func (h *Handler) CityCode(c *fiber.Ctx) error {
	res, err := h.resolver.ResolveCityCode(c.UserContext(), c.Query("place"), c.Query("country"))
	if err != nil {
		return locationError(c, err)
	}
	return c.JSON(res)
}

// CountryCode handles GET /location/country-code?name=.
func (h *Handler) CountryCode(c *fiber.Ctx) error {
	code, err := h.resolver.CountryCode(c.UserContext(), c.Query("name"))
	if err != nil {
		return locationError(c, err)
	}
	return c.JSON(fiber.Map{"name": c.Query("name"), "country_code": code})
}

func (h *Handler) TaxiLinks(c *fiber.Ctx) error {
	p, err := placeFromQuery(c)
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"links": TaxiLinks(p)}})
}

func (h *Handler) MapLinks(c *fiber.Ctx) error {
	p, err := placeFromQuery(c)
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"links": MapLinks(p)}})
}

var errBadCoordinates = errors.New("lat and lng must be valid coordinates")

func placeFromQuery(c *fiber.Ctx) (Place, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Place{}, errBadCoordinates
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		return Place{}, errBadCoordinates
	}
	return Place{Name: c.Query("name"), Lat: lat, Lng: lng, Country: c.Query("country")}, nil
}

func locationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrPlaceRequired):
		return features.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnresolvable), errors.Is(err, ErrCountryNotFound):
		return features.Fail(c, fiber.StatusNotFound, err.Error())
	}
	slog.Error("location request failed", "path", c.Path(), "error", err)
	return features.Fail(c, fiber.StatusBadGateway, "Location lookup failed")
}
