package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/chrissnell/wxsummary/internal/app"
	"github.com/chrissnell/wxsummary/internal/log"
	"github.com/chrissnell/wxsummary/internal/pipeline"
	"github.com/chrissnell/wxsummary/internal/populate"
	"github.com/chrissnell/wxsummary/internal/types"
	"github.com/chrissnell/wxsummary/pkg/config"
)

var errUsage = errors.New("usage")

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command> [args]

Commands:
  period <start> <end> [station]   store processed days and hourly readings (dates YYYY-MM-DD)
  month <year> <month> [station]   store one month and its summary
  year <year> [station]            store twelve months and the yearly summary

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := execute(ctx, *cfgFile, *cfgBackend, flag.Args())
	switch {
	case errors.Is(err, errUsage), pipeline.IsValidationError(err):
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(2)
	case err != nil:
		log.Errorf("populate failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("run %s (%s %s): %d hourly, %d daily, %d monthly, %d yearly\n",
		run.ID, run.Kind, run.StationCode, run.HourlyRows, run.DailyRows, run.MonthlySummaries, run.YearlySummaries)
}

func execute(ctx context.Context, cfgFile, cfgBackend string, args []string) (types.IngestRun, error) {
	cfg, err := app.LoadConfig(cfgFile, cfgBackend)
	if err != nil {
		return types.IngestRun{}, err
	}

	cmd, rest := args[0], args[1:]
	var required int
	switch cmd {
	case types.RunPeriod, types.RunMonth:
		required = 2
	case types.RunYear:
		required = 1
	default:
		return types.IngestRun{}, fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if len(rest) < required || len(rest) > required+1 {
		return types.IngestRun{}, fmt.Errorf("%w: %s takes %d arguments and an optional station", errUsage, cmd, required)
	}

	station, err := resolveStation(cfg, rest[required:])
	if err != nil {
		return types.IngestRun{}, err
	}

	// Arguments are checked before connecting to anything.
	var year, month int
	switch cmd {
	case types.RunPeriod:
		_, _, err = pipeline.ParseDateRange(rest[0], rest[1])
	case types.RunMonth:
		if year, month, err = atoi2(rest[0], rest[1]); err == nil {
			err = errors.Join(pipeline.ValidateYear(year), pipeline.ValidateMonth(month))
		}
	default:
		if year, err = strconv.Atoi(rest[0]); err != nil {
			err = fmt.Errorf("%w: year %q is not a number", errUsage, rest[0])
		} else {
			err = pipeline.ValidateYear(year)
		}
	}
	if err != nil {
		return types.IngestRun{}, err
	}

	orch, err := app.NewPipeline(cfg)
	if err != nil {
		return types.IngestRun{}, err
	}
	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return types.IngestRun{}, err
	}
	defer db.Close()

	svc := populate.NewService(db, orch)

	switch cmd {
	case types.RunPeriod:
		return svc.Period(ctx, rest[0], rest[1], station)
	case types.RunMonth:
		return svc.Month(ctx, year, month, station)
	default:
		return svc.Year(ctx, year, station)
	}
}

func resolveStation(cfg *config.ConfigData, arg []string) (string, error) {
	if len(arg) == 1 {
		if !cfg.HasStation(arg[0]) {
			return "", fmt.Errorf("%w: station %q is not configured", errUsage, arg[0])
		}
		return arg[0], nil
	}
	def, _ := cfg.DefaultStation()
	return def.Code, nil
}

func atoi2(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q is not a number", errUsage, a)
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q is not a number", errUsage, b)
	}
	return x, y, nil
}
