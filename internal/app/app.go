// Package app wires the configuration into running components and owns
// the application lifecycle.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/skywatchwx/skywatch/internal/alerting"
	"github.com/skywatchwx/skywatch/internal/charts"
	"github.com/skywatchwx/skywatch/internal/controllers/restserver"
	"github.com/skywatchwx/skywatch/internal/database"
	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/poller"
	"github.com/skywatchwx/skywatch/internal/provider/openweather"
	"github.com/skywatchwx/skywatch/internal/service"
	"github.com/skywatchwx/skywatch/pkg/config"
)

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

	// Observation store
	db := database.NewClient(a.cfg.Storage.ConnectionString, a.logger)
	if err := db.Connect(); err != nil {
		return err
	}

	// Weather provider client
	owm := openweather.New(openweather.Config{
		APIKey:  a.cfg.Provider.APIKey,
		BaseURL: a.cfg.Provider.BaseURL,
		Timeout: time.Duration(a.cfg.Provider.TimeoutSeconds) * time.Second,
	})

	checker := alerting.NewChecker(db, alerting.LogNotifier{}, *a.cfg.Alerts.ThresholdTempC, a.cfg.Alerts.ConsecutiveCount)
	renderer := charts.NewRenderer(a.cfg.Charts.StaticDir)
	svc := service.New(owm, db, renderer, checker)

	// REST server
	rest, err := restserver.NewController(ctx, &wg, a.cfg.HTTP, a.cfg.Charts.StaticDir, svc, a.logger)
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	// Background poller
	bg := poller.New(a.cfg.Poller, owm, db, checker)
	if err := bg.Start(); err != nil {
		return err
	}
	defer bg.Stop()

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
