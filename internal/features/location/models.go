package location

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceTable         = "table"
	SourceGeoNames      = "geonames"
	SourceNominatim     = "nominatim"
	SourceRestCountries = "restcountries"
	SourceHeuristic     = "heuristic"
)

// CityCode remembers how a (place, country) pair was resolved.
type CityCode struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LookupKey   string    `gorm:"size:300;not null;uniqueIndex" json:"-"`
	Place       string    `gorm:"size:255;not null" json:"place"`
	CountryCode string    `gorm:"size:2" json:"country_code,omitempty"`
	Code        string    `gorm:"size:3;not null;index" json:"code"`
	Source      string    `gorm:"size:20" json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}
