// Package poller periodically fetches current conditions for the
// configured cities, persists them, and runs the alert check.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/skywatchwx/skywatch/internal/alerting"
	"github.com/skywatchwx/skywatch/internal/database"
	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/provider"
	"github.com/skywatchwx/skywatch/internal/weather"
	"github.com/skywatchwx/skywatch/pkg/config"
)

// cityPollTimeout bounds one city's fetch-persist-check cycle.
const cityPollTimeout = 30 * time.Second

// Poller drives the background fetch loop.
type Poller struct {
	scheduler *gocron.Scheduler
	provider  provider.Provider
	db        *database.Client
	checker   *alerting.Checker
	cities    []string
	interval  time.Duration
}

// New creates a Poller from the poller configuration section.
func New(cfg config.PollerData, p provider.Provider, db *database.Client, checker *alerting.Checker) *Poller {
	return &Poller{
		scheduler: gocron.NewScheduler(time.UTC),
		provider:  p,
		db:        db,
		checker:   checker,
		cities:    cfg.Cities,
		interval:  time.Duration(cfg.IntervalSeconds) * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// A zero interval or an empty city list leaves the poller disabled.
func (p *Poller) Start() error {
	if len(p.cities) == 0 || p.interval <= 0 {
		log.Info("poller disabled; no cities or no interval configured")
		return nil
	}

	_, err := p.scheduler.Every(int(p.interval.Seconds())).Seconds().Do(p.pollOnce)
	if err != nil {
		return err
	}

	p.scheduler.StartAsync()
	log.Infof("poller started: %d cities every %v", len(p.cities), p.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (p *Poller) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

// pollOnce runs one fetch cycle across all configured cities.
func (p *Poller) pollOnce() {
	log.Debug("poller: running fetch cycle")

	var wg sync.WaitGroup
	for _, city := range p.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.pollCity(city)
		}()
	}
	wg.Wait()

	log.Debug("poller: fetch cycle complete")
}

// pollCity fetches, persists, and alert-checks a single city. Failures
// are logged; one city's failure never affects the others.
func (p *Poller) pollCity(city string) {
	ctx, cancel := context.WithTimeout(context.Background(), cityPollTimeout)
	defer cancel()

	obs, err := p.provider.Current(ctx, city)
	if err != nil {
		log.Errorf("poller: fetching current conditions for %s: %v", city, err)
		return
	}

	if err := p.db.SaveObservations(ctx, []weather.Observation{obs}); err != nil {
		log.Errorf("poller: saving observation for %s: %v", city, err)
		return
	}

	if _, err := p.checker.Check(ctx, city); err != nil {
		log.Errorf("poller: alert check for %s: %v", city, err)
	}
}
