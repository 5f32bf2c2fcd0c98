// Package config provides configuration management with support for
// multiple backends (YAML files and SQLite databases).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EnvAPIKey is the environment variable holding the OpenWeatherMap API
// key. It always overrides the file or database value so the secret
// never has to live in checked-in configuration.
const EnvAPIKey = "OPENWEATHER_API_KEY"

var validate = validator.New()

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetProviderConfig() (*ProviderData, error)
	GetStorageConfig() (*StorageData, error)
	GetAlertsConfig() (*AlertsData, error)
	GetChartsConfig() (*ChartsData, error)
	GetHTTPConfig() (*HTTPData, error)
	GetPollerConfig() (*PollerData, error)

	// Configuration management (for SQLite-specific operations)
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Provider ProviderData `json:"provider"`
	Storage  StorageData  `json:"storage"`
	Alerts   AlertsData   `json:"alerts"`
	Charts   ChartsData   `json:"charts"`
	HTTP     HTTPData     `json:"http"`
	Poller   PollerData   `json:"poller"`
}

// ProviderData holds the OpenWeatherMap client configuration
type ProviderData struct {
	APIKey         string `json:"api_key,omitempty" validate:"required"`
	BaseURL        string `json:"base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" validate:"gte=0"`
}

// StorageData holds the observation store configuration. The
// connection string is either a sqlite file path or a postgres:// DSN.
type StorageData struct {
	ConnectionString string `json:"connection_string,omitempty" validate:"required"`
}

// AlertsData holds the temperature alert configuration. The threshold is a
// pointer so an explicit 0 °C is distinguishable from "not configured".
type AlertsData struct {
	ThresholdTempC   *float64 `json:"threshold_temp_c,omitempty"`
	ConsecutiveCount int      `json:"consecutive_count" validate:"gte=1"`
}

// ChartsData holds the chart rendering configuration
type ChartsData struct {
	StaticDir string `json:"static_dir,omitempty" validate:"required"`
}

// HTTPData holds the REST server configuration
type HTTPData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port" validate:"gte=1,lte=65535"`
}

// PollerData holds the background poller configuration. A zero
// interval or an empty city list disables the poller.
type PollerData struct {
	IntervalSeconds int      `json:"interval_seconds,omitempty" validate:"gte=0"`
	Cities          []string `json:"cities,omitempty" validate:"dive,required"`
}

// ApplyDefaults fills in sane defaults for any field the backend left
// unset. The API key has no default; it must come from configuration
// or the environment.
func (c *ConfigData) ApplyDefaults() {
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 10
	}
	if c.Storage.ConnectionString == "" {
		c.Storage.ConnectionString = "skywatch.db"
	}
	if c.Alerts.ThresholdTempC == nil {
		threshold := 30.0
		c.Alerts.ThresholdTempC = &threshold
	}
	if c.Alerts.ConsecutiveCount == 0 {
		c.Alerts.ConsecutiveCount = 3
	}
	if c.Charts.StaticDir == "" {
		c.Charts.StaticDir = "static"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
}

// ApplyEnvOverrides overlays environment values onto the loaded
// configuration. The API key from the environment always wins over the
// file or database value.
func (c *ConfigData) ApplyEnvOverrides() {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		c.Provider.APIKey = key
	}
}

// Validate checks the configuration for missing or out-of-range values
func (c *ConfigData) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
