package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Provider ProviderYAML `yaml:"provider,omitempty"`
		Storage  StorageYAML  `yaml:"storage,omitempty"`
		Alerts   AlertsYAML   `yaml:"alerts,omitempty"`
		Charts   ChartsYAML   `yaml:"charts,omitempty"`
		HTTP     HTTPYAML     `yaml:"http,omitempty"`
		Poller   PollerYAML   `yaml:"poller,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Provider: ProviderData{
			APIKey:         yamlConfig.Provider.APIKey,
			BaseURL:        yamlConfig.Provider.BaseURL,
			TimeoutSeconds: yamlConfig.Provider.TimeoutSeconds,
		},
		Storage: StorageData{
			ConnectionString: yamlConfig.Storage.ConnectionString,
		},
		Alerts: AlertsData{
			ThresholdTempC:   yamlConfig.Alerts.ThresholdTempC,
			ConsecutiveCount: yamlConfig.Alerts.ConsecutiveCount,
		},
		Charts: ChartsData{
			StaticDir: yamlConfig.Charts.StaticDir,
		},
		HTTP: HTTPData{
			ListenAddr: yamlConfig.HTTP.ListenAddr,
			Port:       yamlConfig.HTTP.Port,
		},
		Poller: PollerData{
			IntervalSeconds: yamlConfig.Poller.IntervalSeconds,
			Cities:          append([]string(nil), yamlConfig.Poller.Cities...),
		},
	}

	y.config = config
	return config, nil
}

// GetProviderConfig returns the weather provider configuration
func (y *YAMLProvider) GetProviderConfig() (*ProviderData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Provider, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetAlertsConfig returns alerting configuration
func (y *YAMLProvider) GetAlertsConfig() (*AlertsData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Alerts, nil
}

// GetChartsConfig returns chart rendering configuration
func (y *YAMLProvider) GetChartsConfig() (*ChartsData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Charts, nil
}

// GetHTTPConfig returns REST server configuration
func (y *YAMLProvider) GetHTTPConfig() (*HTTPData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.HTTP, nil
}

// GetPollerConfig returns background poller configuration
func (y *YAMLProvider) GetPollerConfig() (*PollerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Poller, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the config file
type ProviderYAML struct {
	APIKey         string `yaml:"api-key,omitempty"`
	BaseURL        string `yaml:"base-url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout-seconds,omitempty"`
}

type StorageYAML struct {
	ConnectionString string `yaml:"connection-string,omitempty"`
}

type AlertsYAML struct {
	ThresholdTempC   *float64 `yaml:"threshold-temp-c,omitempty"`
	ConsecutiveCount int      `yaml:"consecutive-count,omitempty"`
}

type ChartsYAML struct {
	StaticDir string `yaml:"static-dir,omitempty"`
}

type HTTPYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

type PollerYAML struct {
	IntervalSeconds int      `yaml:"interval-seconds,omitempty"`
	Cities          []string `yaml:"cities,omitempty"`
}
