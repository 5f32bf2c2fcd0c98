// Package weather defines the observation record shared by the retrieval,
// storage, aggregation, charting and alerting layers.
package weather

import (
	"strings"
	"time"
	"unicode"
)

// Kind distinguishes the two record flavors stored in the observations table.
type Kind string

const (
	// KindCurrent marks a reading taken at fetch time.
	KindCurrent Kind = "current"
	// KindForecast marks a predicted reading for a future instant.
	KindForecast Kind = "forecast"
)

// Observation is a single weather reading for one city at one instant.
// Temperature values are always Celsius; conversion to other scales happens
// only at the API boundary. Rows are append-only and duplicates are allowed,
// so there is no uniqueness constraint on (city, observed_at).
type Observation struct {
	ID          uint      `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	City        string    `gorm:"column:city;index;not null" json:"city"`
	Kind        Kind      `gorm:"column:kind;index;not null" json:"kind"`
	ObservedAt  time.Time `gorm:"column:observed_at;index;not null" json:"observedAt"`
	Temperature float64   `gorm:"column:temperature" json:"temperature"`
	FeelsLike   float64   `gorm:"column:feels_like" json:"feelsLike"`
	Humidity    int       `gorm:"column:humidity" json:"humidity"`
	WindSpeed   float64   `gorm:"column:wind_speed" json:"windSpeed"`
	Condition   string    `gorm:"column:condition" json:"condition"`
	Latitude    float64   `gorm:"column:latitude" json:"-"`
	Longitude   float64   `gorm:"column:longitude" json:"-"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"-"`
}

// TableName specifies the table name for Observation
func (Observation) TableName() string {
	return "observations"
}

// Slug converts a city name into a form safe for directory names and URLs:
// lowercased, spaces collapsed to dashes, everything else non-alphanumeric
// dropped. "New York" becomes "new-york".
func Slug(city string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(city)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
