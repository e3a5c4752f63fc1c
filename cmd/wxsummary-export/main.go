package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrissnell/wxsummary/internal/app"
	"github.com/chrissnell/wxsummary/internal/export"
	"github.com/chrissnell/wxsummary/internal/log"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	station := flag.String("station", "", "Station code (default: the configured default station)")
	year := flag.Int("year", 0, "Year to export (required)")
	month := flag.Int("month", 0, "Export a single month (1-12) instead of the whole year")
	output := flag.String("output", "", "Output .xlsx file (default: wxsummary-<station>-<year>[-<month>].xlsx)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if *year == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s -year <year> [-month <month>] [-station <code>] [-output file.xlsx]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := app.LoadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if *station == "" {
		def, _ := cfg.DefaultStation()
		*station = def.Code
	} else if !cfg.HasStation(*station) {
		log.Errorf("station %q is not configured", *station)
		os.Exit(2)
	}

	if *output == "" {
		*output = fmt.Sprintf("wxsummary-%s-%d.xlsx", *station, *year)
		if *month != 0 {
			*output = fmt.Sprintf("wxsummary-%s-%d-%02d.xlsx", *station, *year, *month)
		}
	}

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := export.Request{Station: *station, Year: *year, Month: *month}
	if err := export.SaveAs(ctx, db, req, *output); err != nil {
		log.Errorf("export failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *output)
}
