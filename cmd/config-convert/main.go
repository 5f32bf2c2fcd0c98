package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skywatchwx/skywatch/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if YAML file exists
	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	if *dryRun {
		fmt.Println("DRY RUN - No changes will be made")
	}

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration...\n")
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	configData, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  Loaded configuration with %d poller cities\n", len(configData.Poller.Cities))

	if *dryRun {
		printConfigSummary(configData)
		fmt.Println("DRY RUN complete - no database created")
		return
	}

	// Remove existing SQLite file if force is specified
	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	// Create SQLite database and insert configuration
	fmt.Printf("Creating SQLite database...\n")
	if err := loadConfigIntoSQLite(*sqliteFile, configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration into SQLite: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

func loadConfigIntoSQLite(dbPath string, configData *config.ConfigData) error {
	// Create directory if it doesn't exist
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The provider creates the schema when it opens the database
	sqliteProvider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite provider: %w", err)
	}
	defer sqliteProvider.Close()

	if err := sqliteProvider.SaveConfig(configData); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("  Configuration successfully inserted into database\n")
	return nil
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Println("\nConfiguration Summary:")

	// Secrets are reported by presence only
	apiKey := "(not set)"
	if configData.Provider.APIKey != "" {
		apiKey = "(set)"
	}
	fmt.Printf("Provider:\n")
	fmt.Printf("  - API key: %s\n", apiKey)
	if configData.Provider.BaseURL != "" {
		fmt.Printf("  - Base URL: %s\n", configData.Provider.BaseURL)
	}

	fmt.Printf("\nStorage:\n")
	fmt.Printf("  - Connection string: %s\n", configData.Storage.ConnectionString)

	fmt.Printf("\nAlerts:\n")
	if configData.Alerts.ThresholdTempC != nil {
		fmt.Printf("  - Threshold: %.1fC after %d consecutive readings\n", *configData.Alerts.ThresholdTempC, configData.Alerts.ConsecutiveCount)
	} else {
		fmt.Printf("  - Threshold: (not set) after %d consecutive readings\n", configData.Alerts.ConsecutiveCount)
	}

	fmt.Printf("\nCharts:\n")
	fmt.Printf("  - Static dir: %s\n", configData.Charts.StaticDir)

	fmt.Printf("\nHTTP:\n")
	fmt.Printf("  - Listen: %s:%d\n", configData.HTTP.ListenAddr, configData.HTTP.Port)

	fmt.Printf("\nPoller cities (%d):\n", len(configData.Poller.Cities))
	for _, city := range configData.Poller.Cities {
		fmt.Printf("  - %s\n", city)
	}
}
