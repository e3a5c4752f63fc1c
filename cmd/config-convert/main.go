package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/wxsummary/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		reverse    = flag.Bool("reverse", false, "Convert SQLite to YAML instead")
		force      = flag.Bool("force", false, "Overwrite an existing target file")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db> [-reverse]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	source, target := *yamlFile, *sqliteFile
	if *reverse {
		source, target = *sqliteFile, *yamlFile
	}

	// Check if source file exists
	if _, err := os.Stat(source); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: source file does not exist: %s\n", source)
		os.Exit(1)
	}

	// Check if target file already exists
	if _, err := os.Stat(target); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: target file already exists: %s\n", target)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting configuration...\n")
	fmt.Printf("  Source: %s\n", source)
	fmt.Printf("  Target: %s\n", target)

	configData, err := load(source, *reverse)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := configData.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: configuration does not validate:\n%v\n", err)
	}

	if *dryRun {
		fmt.Println("DRY RUN - No changes will be made")
		printConfigSummary(configData)
		return
	}

	if *force {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing target file: %v\n", err)
			os.Exit(1)
		}
	}

	if *reverse {
		err = config.WriteYAML(target, configData)
	} else {
		err = saveSQLite(target, configData)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	if !*reverse {
		fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", target)
	}
}

func load(source string, fromSQLite bool) (*config.ConfigData, error) {
	var provider config.ConfigProvider
	if fromSQLite {
		p, err := config.NewSQLiteProvider(source)
		if err != nil {
			return nil, err
		}
		provider = p
	} else {
		provider = config.NewYAMLProvider(source)
	}
	defer provider.Close()

	return provider.LoadConfig()
}

func saveSQLite(dbPath string, configData *config.ConfigData) error {
	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return err
	}
	defer provider.Close()

	return provider.SaveConfig(configData)
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("Stations (%d):\n", len(configData.Stations))
	for _, s := range configData.Stations {
		marker := ""
		if s.Default {
			marker = " (default)"
		}
		fmt.Printf("  - %s %s%s\n", s.Code, s.Name, marker)
	}

	fmt.Printf("\nProvider: %s (timezone %s)\n", configData.Provider.APIEndpoint, configData.Provider.Timezone)

	fmt.Printf("\nStorage Backends:\n")
	if configData.Storage.Postgres != nil {
		fmt.Printf("  - Postgres: %s\n", configData.Storage.Postgres.ConnectionString)
	}
}
