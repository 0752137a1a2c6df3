package location

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/gofiber/fiber/v2"
)

type Plugin struct {
	resolver *Resolver
	handler  *Handler
}

func New(deps features.Deps) *Plugin {
	cfg := deps.Config
	resolver := NewResolver(deps.DB, Endpoints{
		Nominatim:     cfg.NominatimURL,
		RestCountries: cfg.RestCountriesURL,
	}, cfg.GeoNamesUsername, cfg.NominatimAgent, cfg.GeoLookupTimeout)
	return &Plugin{resolver: resolver, handler: NewHandler(resolver)}
}

func (p *Plugin) ID() string { return "location" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{&CityCode{}}
}

func (p *Plugin) Resolver() *Resolver { return p.resolver }

func (p *Plugin) RegisterRoutes(api fiber.Router, g features.Guards) {
	h := p.handler

	api.Get("/location/city-code", g.Optional, h.CityCode)
	api.Get("/location/country-code", g.Optional, h.CountryCode)
	api.Get("/location/taxi", g.Optional, h.TaxiLinks)
	api.Get("/location/maps", g.Optional, h.MapLinks)
}
