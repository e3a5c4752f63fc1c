package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chrissnell/wxsummary/internal/controllers/restserver"
	"github.com/chrissnell/wxsummary/internal/database"
	"github.com/chrissnell/wxsummary/internal/inmet"
	"github.com/chrissnell/wxsummary/internal/log"
	"github.com/chrissnell/wxsummary/internal/pipeline"
	"github.com/chrissnell/wxsummary/internal/populate"
	"github.com/chrissnell/wxsummary/pkg/config"
)

// ErrNoStorage is returned by OpenDatabase when no database is configured.
var ErrNoStorage = errors.New("no database configured (storage.postgres.connection_string)")

// LoadConfig reads configuration from the given backend, applies defaults and
// validates the result.
func LoadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	cfgData.ApplyDefaults()
	if err := cfgData.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfgData, nil
}

// NewPipeline builds the provider client and the orchestrator around it.
func NewPipeline(cfg *config.ConfigData) (*pipeline.Orchestrator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	delay, err := cfg.MonthDelay()
	if err != nil {
		return nil, err
	}

	if cfg.Provider.Token == "" {
		log.Warnf("no INMET token configured; set provider.token or %s", config.EnvToken)
	}

	client := inmet.NewClient(inmet.Config{
		Endpoint:   cfg.Provider.APIEndpoint,
		Token:      cfg.Provider.Token,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.Provider.Retries(),
	})

	var opts []pipeline.Option
	if delay > 0 {
		opts = append(opts, pipeline.WithMonthLimiter(rate.NewLimiter(rate.Every(delay), 1)))
	}
	return pipeline.New(client, loc, opts...), nil
}

// OpenDatabase connects to the configured database and creates missing tables.
func OpenDatabase(cfg *config.ConfigData) (*database.Client, error) {
	if cfg.Storage.Postgres == nil || cfg.Storage.Postgres.ConnectionString == "" {
		return nil, ErrNoStorage
	}

	db, err := database.Connect(cfg.Storage.Postgres.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if err := db.CreateTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create tables: %w", err)
	}
	return db, nil
}

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	orch, err := NewPipeline(a.cfg)
	if err != nil {
		return err
	}
	deps := restserver.Deps{Pipeline: orch}

	db, err := OpenDatabase(a.cfg)
	switch {
	case errors.Is(err, ErrNoStorage):
		log.Info("no database configured; populate endpoints are disabled")
	case err != nil:
		return err
	default:
		defer db.Close()
		deps.Store = db
		deps.Populator = populate.NewService(db, orch)
	}

	rest, err := restserver.NewController(ctx, &wg, a.cfg, deps, a.logger.Named("rest"))
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
