package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const geoNamesURL = "http://api.geonames.org"

var (
	ErrPlaceRequired   = errors.New("place is required")
	ErrUnresolvable    = errors.New("could not derive a city code")
	ErrCountryNotFound = errors.New("country not found")
)

type Endpoints struct {
	GeoNames      string
	Nominatim     string
	RestCountries string
}

// Resolver turns free-form place names into three letter city codes.
type Resolver struct {
	db         *gorm.DB
	endpoints  Endpoints
	username   string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

func NewResolver(db *gorm.DB, endpoints Endpoints, geoNamesUser, userAgent string, timeout time.Duration) *Resolver {
	if endpoints.GeoNames == "" {
		endpoints.GeoNames = geoNamesURL
	}
	return &Resolver{
		db:         db,
		endpoints:  endpoints,
		username:   geoNamesUser,
		userAgent:  userAgent,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type Resolution struct {
	Place       string `json:"place"`
	CountryCode string `json:"country_code,omitempty"`
	Code        string `json:"code"`
	Source      string `json:"source"`
	Cached      bool   `json:"cached"`
}

func lookupKey(place, country string) string {
	return strings.ToUpper(country) + "|" + normalizeCity(place)
}

// ResolveCityCode tries, in order: the cache, the city table, GeoNames,
// Nominatim, the country's capital and finally the letter heuristic. A
// remote step that fails or times out is skipped.
func (r *Resolver) ResolveCityCode(ctx context.Context, place, countryCode string) (*Resolution, error) {
	place = strings.TrimSpace(place)
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if place == "" {
		return nil, ErrPlaceRequired
	}
	key := lookupKey(place, countryCode)

	var cached CityCode
	err := r.db.Where("lookup_key = ?", key).First(&cached).Error
	if err == nil {
		return &Resolution{Place: place, CountryCode: countryCode, Code: cached.Code, Source: cached.Source, Cached: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to read city code cache: %w", err)
	}

	code, source := r.resolve(ctx, place, countryCode)
	if code == "" {
		return nil, ErrUnresolvable
	}

	row := CityCode{ID: uuid.New(), LookupKey: key, Place: place, CountryCode: countryCode, Code: code, Source: source}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		slog.Warn("failed to cache city code", "place", place, "error", err)
	}
	return &Resolution{Place: place, CountryCode: countryCode, Code: code, Source: source}, nil
}

func (r *Resolver) resolve(ctx context.Context, place, country string) (string, string) {
	if code, ok := KnownCityCode(place); ok {
		return code, SourceTable
	}

	steps := []struct {
		source string
		lookup func(context.Context, string, string) (string, error)
	}{
		{SourceGeoNames, r.geoNamesCity},
		{SourceNominatim, r.nominatimCity},
		{SourceRestCountries, r.capitalCity},
	}
	for _, step := range steps {
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		city, err := step.lookup(stepCtx, place, country)
		cancel()
		if err != nil {
			slog.Debug("city lookup step failed", "source", step.source, "place", place, "error", err)
			continue
		}
		if code := GenerateCityCode(city); code != "" {
			return code, step.source
		}
	}
	return GenerateCityCode(place), SourceHeuristic
}

var errNoMatch = errors.New("no match")

func (r *Resolver) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNoMatch
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out)
}

func (r *Resolver) geoNamesCity(ctx context.Context, place, country string) (string, error) {
	if r.username == "" {
		return "", errors.New("geonames username not set")
	}
	q := url.Values{
		"q":            {place},
		"featureClass": {"P"},
		"maxRows":      {"1"},
		"orderby":      {"population"},
		"lang":         {"en"},
		"username":     {r.username},
	}
	if country != "" {
		q.Set("country", country)
	}

	var res struct {
		GeoNames []struct {
			Name        string `json:"name"`
			CountryCode string `json:"countryCode"`
		} `json:"geonames"`
		Status *struct {
			Message string `json:"message"`
		} `json:"status"`
	}
	if err := r.getJSON(ctx, r.endpoints.GeoNames+"/searchJSON?"+q.Encode(), &res); err != nil {
		return "", err
	}
	if res.Status != nil {
		return "", errors.New(res.Status.Message)
	}
	if len(res.GeoNames) == 0 {
		return "", errNoMatch
	}
	return res.GeoNames[0].Name, nil
}

func (r *Resolver) nominatimCity(ctx context.Context, place, country string) (string, error) {
	if r.endpoints.Nominatim == "" {
		return "", errors.New("nominatim disabled")
	}
	q := url.Values{
		"q":               {place},
		"format":          {"jsonv2"},
		"addressdetails":  {"1"},
		"limit":           {"1"},
		"accept-language": {"en"},
	}
	if country != "" {
		q.Set("countrycodes", strings.ToLower(country))
	}

	var res []struct {
		Name    string `json:"name"`
		Address struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			State   string `json:"state"`
		} `json:"address"`
	}
	if err := r.getJSON(ctx, strings.TrimRight(r.endpoints.Nominatim, "/")+"/search?"+q.Encode(), &res); err != nil {
		return "", err
	}
	if len(res) == 0 {
		return "", errNoMatch
	}
	a := res[0].Address
	for _, name := range []string{a.City, a.Town, a.Village, a.State, res[0].Name} {
		if name != "" {
			return name, nil
		}
	}
	return "", errNoMatch
}

type restCountry struct {
	CCA2    string   `json:"cca2"`
	Capital []string `json:"capital"`
	Name    struct {
		Common string `json:"common"`
	} `json:"name"`
}

// capitalCity answers with the capital when place names it.
func (r *Resolver) capitalCity(ctx context.Context, place, country string) (string, error) {
	if country == "" || r.endpoints.RestCountries == "" {
		return "", errNoMatch
	}
	var c restCountry
	if err := r.getJSON(ctx, r.restCountriesURL("/alpha/"+url.PathEscape(country), "capital,cca2,name"), &c); err != nil {
		return "", err
	}
	for _, capital := range c.Capital {
		if strings.Contains(strings.ToLower(place), strings.ToLower(capital)) {
			return capital, nil
		}
	}
	return "", errNoMatch
}

func (r *Resolver) restCountriesURL(path, fields string) string {
	return strings.TrimRight(r.endpoints.RestCountries, "/") + path + "?fields=" + fields
}

// CountryCode resolves a country name, in any language REST Countries
// knows, to its ISO 3166-1 alpha-2 code.
func (r *Resolver) CountryCode(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrCountryNotFound
	}
	if code, ok := knownCountries[strings.ToLower(name)]; ok {
		return code, nil
	}
	if len(name) == 2 {
		return strings.ToUpper(name), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var found []restCountry
	if err := r.getJSON(ctx, r.restCountriesURL("/name/"+url.PathEscape(name), "cca2,name"), &found); err != nil {
		if errors.Is(err, errNoMatch) {
			return "", ErrCountryNotFound
		}
		return "", fmt.Errorf("country lookup: %w", err)
	}
	if len(found) == 0 || found[0].CCA2 == "" {
		return "", ErrCountryNotFound
	}
	return found[0].CCA2, nil
}

var knownCountries = map[string]string{
	"대한민국": "KR", "한국": "KR", "south korea": "KR", "korea": "KR",
	"일본": "JP", "japan": "JP", "日本": "JP",
	"태국": "TH", "thailand": "TH",
	"베트남": "VN", "vietnam": "VN", "viet nam": "VN",
	"대만": "TW", "taiwan": "TW", "台灣": "TW",
	"미국": "US", "united states": "US", "usa": "US",
}
