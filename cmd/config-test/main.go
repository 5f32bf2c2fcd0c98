package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/skywatchwx/skywatch/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	yamlConfig, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	// Load SQLite configuration
	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	// Compare configurations section by section
	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	mismatches := 0
	mismatches += compareProvider(yamlConfig.Provider, sqliteConfig.Provider)
	mismatches += compareSection("Storage", yamlConfig.Storage, sqliteConfig.Storage)
	mismatches += compareSection("Alerts", yamlConfig.Alerts, sqliteConfig.Alerts)
	mismatches += compareSection("Charts", yamlConfig.Charts, sqliteConfig.Charts)
	mismatches += compareSection("HTTP", yamlConfig.HTTP, sqliteConfig.HTTP)
	mismatches += compareSection("Poller", yamlConfig.Poller, sqliteConfig.Poller)

	if mismatches == 0 {
		fmt.Println("\nTest completed: configurations match!")
		return
	}
	fmt.Printf("\nTest completed: %d section(s) differ\n", mismatches)
	os.Exit(1)
}

// compareProvider masks the API key in output so a diff never echoes the secret
func compareProvider(yaml, sqlite config.ProviderData) int {
	if reflect.DeepEqual(yaml, sqlite) {
		fmt.Println("✓ Provider configuration matches")
		return 0
	}
	fmt.Println("✗ Provider configuration differs")
	fmt.Printf("  YAML:   %+v\n", maskAPIKey(yaml))
	fmt.Printf("  SQLite: %+v\n", maskAPIKey(sqlite))
	return 1
}

func maskAPIKey(p config.ProviderData) config.ProviderData {
	if p.APIKey != "" {
		p.APIKey = "(set)"
	} else {
		p.APIKey = "(not set)"
	}
	return p
}

func compareSection(name string, yaml, sqlite interface{}) int {
	if reflect.DeepEqual(yaml, sqlite) {
		fmt.Printf("✓ %s configuration matches\n", name)
		return 0
	}
	fmt.Printf("✗ %s configuration differs\n", name)
	fmt.Printf("  YAML:   %+v\n", yaml)
	fmt.Printf("  SQLite: %+v\n", sqlite)
	return 1
}
