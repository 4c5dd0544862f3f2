package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-reports/internal/weather"
)

// CurrentWeather is the part of weather.Service the probe needs.
type CurrentWeather interface {
	Current(ctx context.Context, city string) (weather.Report, error)
}

// Scheduler periodically probes the providers by requesting current weather
// for a fixed set of cities. Results are only logged; provider outcomes reach
// the outcome store through the service itself.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   CurrentWeather
	cities    []string
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, service CurrentWeather, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cities:    cities,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.Named("probe"),
	}
}

// Start schedules the probe job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.logger.Info("no probe cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	if _, err := s.scheduler.Every(minutes).Minutes().Do(func() { s.runOnce() }); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("probe scheduled", zap.Int("everyMinutes", minutes), zap.Strings("cities", s.cities))
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// runOnce probes every city concurrently and returns how many got data.
func (s *Scheduler) runOnce() int {
	s.logger.Debug("running probe")

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			report, err := s.service.Current(ctx, city)
			if err != nil {
				level := s.logger.Error
				if errors.Is(err, weather.ErrNoWeatherData) {
					level = s.logger.Warn
				}
				level("probe failed", zap.String("city", city), zap.Error(err))
				return
			}

			s.logger.Info("probe ok",
				zap.String("city", city),
				zap.Float64("temperature", report.Temperature),
				zap.Time("observedAt", report.Time()),
			)
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.logger.Debug("probe completed", zap.Int("ok", ok), zap.Int("cities", len(s.cities)))
	return ok
}
