package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
	config *ConfigData
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	provider := &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}

	if err := provider.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return provider, nil
}

// ensureSchema creates the configuration tables if they do not exist yet
func (s *SQLiteProvider) ensureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS provider_configs (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			api_key TEXT,
			base_url TEXT,
			timeout_seconds INTEGER
		);
		CREATE TABLE IF NOT EXISTS storage_configs (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			connection_string TEXT
		);
		CREATE TABLE IF NOT EXISTS alert_configs (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			threshold_temp_c REAL,
			consecutive_count INTEGER
		);
		CREATE TABLE IF NOT EXISTS chart_configs (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			static_dir TEXT
		);
		CREATE TABLE IF NOT EXISTS http_configs (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			listen_addr TEXT,
			port INTEGER
		);
		CREATE TABLE IF NOT EXISTS poller_configs (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			interval_seconds INTEGER
		);
		CREATE TABLE IF NOT EXISTS poller_cities (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			city TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create configuration schema: %w", err)
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	provider, err := s.loadProviderConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load provider config: %w", err)
	}
	config.Provider = *provider

	storage, err := s.loadStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	alerts, err := s.loadAlertsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts config: %w", err)
	}
	config.Alerts = *alerts

	charts, err := s.loadChartsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load charts config: %w", err)
	}
	config.Charts = *charts

	httpConfig, err := s.loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load http config: %w", err)
	}
	config.HTTP = *httpConfig

	poller, err := s.loadPollerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load poller config: %w", err)
	}
	config.Poller = *poller

	s.config = config
	return config, nil
}

func (s *SQLiteProvider) loadProviderConfig() (*ProviderData, error) {
	query := `
		SELECT api_key, base_url, timeout_seconds
		FROM provider_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	provider := &ProviderData{}

	var apiKey, baseURL sql.NullString
	var timeoutSeconds sql.NullInt64

	err := s.db.QueryRow(query).Scan(&apiKey, &baseURL, &timeoutSeconds)
	if err == sql.ErrNoRows {
		return provider, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan provider config row: %w", err)
	}

	if apiKey.Valid {
		provider.APIKey = apiKey.String
	}
	if baseURL.Valid {
		provider.BaseURL = baseURL.String
	}
	if timeoutSeconds.Valid {
		provider.TimeoutSeconds = int(timeoutSeconds.Int64)
	}

	return provider, nil
}

func (s *SQLiteProvider) loadStorageConfig() (*StorageData, error) {
	query := `
		SELECT connection_string
		FROM storage_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	storage := &StorageData{}

	var connectionString sql.NullString

	err := s.db.QueryRow(query).Scan(&connectionString)
	if err == sql.ErrNoRows {
		return storage, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan storage config row: %w", err)
	}

	if connectionString.Valid {
		storage.ConnectionString = connectionString.String
	}

	return storage, nil
}

func (s *SQLiteProvider) loadAlertsConfig() (*AlertsData, error) {
	query := `
		SELECT threshold_temp_c, consecutive_count
		FROM alert_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	alerts := &AlertsData{}

	var threshold sql.NullFloat64
	var consecutive sql.NullInt64

	err := s.db.QueryRow(query).Scan(&threshold, &consecutive)
	if err == sql.ErrNoRows {
		return alerts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan alert config row: %w", err)
	}

	if threshold.Valid {
		alerts.ThresholdTempC = &threshold.Float64
	}
	if consecutive.Valid {
		alerts.ConsecutiveCount = int(consecutive.Int64)
	}

	return alerts, nil
}

func (s *SQLiteProvider) loadChartsConfig() (*ChartsData, error) {
	query := `
		SELECT static_dir
		FROM chart_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	charts := &ChartsData{}

	var staticDir sql.NullString

	err := s.db.QueryRow(query).Scan(&staticDir)
	if err == sql.ErrNoRows {
		return charts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chart config row: %w", err)
	}

	if staticDir.Valid {
		charts.StaticDir = staticDir.String
	}

	return charts, nil
}

func (s *SQLiteProvider) loadHTTPConfig() (*HTTPData, error) {
	query := `
		SELECT listen_addr, port
		FROM http_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	httpConfig := &HTTPData{}

	var listenAddr sql.NullString
	var port sql.NullInt64

	err := s.db.QueryRow(query).Scan(&listenAddr, &port)
	if err == sql.ErrNoRows {
		return httpConfig, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan http config row: %w", err)
	}

	if listenAddr.Valid {
		httpConfig.ListenAddr = listenAddr.String
	}
	if port.Valid {
		httpConfig.Port = int(port.Int64)
	}

	return httpConfig, nil
}

func (s *SQLiteProvider) loadPollerConfig() (*PollerData, error) {
	query := `
		SELECT interval_seconds
		FROM poller_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	poller := &PollerData{}

	var intervalSeconds sql.NullInt64

	err := s.db.QueryRow(query).Scan(&intervalSeconds)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to scan poller config row: %w", err)
	}
	if intervalSeconds.Valid {
		poller.IntervalSeconds = int(intervalSeconds.Int64)
	}

	citiesQuery := `
		SELECT city
		FROM poller_cities
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY sort_order, city
	`

	rows, err := s.db.Query(citiesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query poller cities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("failed to scan poller city row: %w", err)
		}
		poller.Cities = append(poller.Cities, city)
	}

	return poller, rows.Err()
}

// SaveConfig replaces the stored configuration with the given data.
// Used by the config-convert tool to import YAML configurations.
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO configs (name) VALUES ('default')`); err != nil {
		return fmt.Errorf("failed to insert config row: %w", err)
	}

	var configID int64
	if err := tx.QueryRow(`SELECT id FROM configs WHERE name = 'default'`).Scan(&configID); err != nil {
		return fmt.Errorf("failed to look up config id: %w", err)
	}

	// Replace existing section rows wholesale
	for _, table := range []string{
		"provider_configs", "storage_configs", "alert_configs",
		"chart_configs", "http_configs", "poller_configs", "poller_cities",
	} {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE config_id = ?`, table), configID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO provider_configs (config_id, api_key, base_url, timeout_seconds) VALUES (?, ?, ?, ?)`,
		configID, config.Provider.APIKey, config.Provider.BaseURL, config.Provider.TimeoutSeconds,
	); err != nil {
		return fmt.Errorf("failed to insert provider config: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO storage_configs (config_id, connection_string) VALUES (?, ?)`,
		configID, config.Storage.ConnectionString,
	); err != nil {
		return fmt.Errorf("failed to insert storage config: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO alert_configs (config_id, threshold_temp_c, consecutive_count) VALUES (?, ?, ?)`,
		configID, config.Alerts.ThresholdTempC, config.Alerts.ConsecutiveCount,
	); err != nil {
		return fmt.Errorf("failed to insert alert config: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO chart_configs (config_id, static_dir) VALUES (?, ?)`,
		configID, config.Charts.StaticDir,
	); err != nil {
		return fmt.Errorf("failed to insert chart config: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO http_configs (config_id, listen_addr, port) VALUES (?, ?, ?)`,
		configID, config.HTTP.ListenAddr, config.HTTP.Port,
	); err != nil {
		return fmt.Errorf("failed to insert http config: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO poller_configs (config_id, interval_seconds) VALUES (?, ?)`,
		configID, config.Poller.IntervalSeconds,
	); err != nil {
		return fmt.Errorf("failed to insert poller config: %w", err)
	}

	for i, city := range config.Poller.Cities {
		if _, err := tx.Exec(
			`INSERT INTO poller_cities (config_id, city, sort_order) VALUES (?, ?, ?)`,
			configID, city, i,
		); err != nil {
			return fmt.Errorf("failed to insert poller city: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit configuration: %w", err)
	}

	s.config = nil
	return nil
}

// GetProviderConfig returns the weather provider configuration
func (s *SQLiteProvider) GetProviderConfig() (*ProviderData, error) {
	if s.config == nil {
		_, err := s.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &s.config.Provider, nil
}

// GetStorageConfig returns storage configuration
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	if s.config == nil {
		_, err := s.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &s.config.Storage, nil
}

// GetAlertsConfig returns alerting configuration
func (s *SQLiteProvider) GetAlertsConfig() (*AlertsData, error) {
	if s.config == nil {
		_, err := s.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &s.config.Alerts, nil
}

// GetChartsConfig returns chart rendering configuration
func (s *SQLiteProvider) GetChartsConfig() (*ChartsData, error) {
	if s.config == nil {
		_, err := s.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &s.config.Charts, nil
}

// GetHTTPConfig returns REST server configuration
func (s *SQLiteProvider) GetHTTPConfig() (*HTTPData, error) {
	if s.config == nil {
		_, err := s.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &s.config.HTTP, nil
}

// GetPollerConfig returns background poller configuration
func (s *SQLiteProvider) GetPollerConfig() (*PollerData, error) {
	if s.config == nil {
		_, err := s.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &s.config.Poller, nil
}

// IsReadOnly returns false since SQLite configurations can be updated
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
