package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Service fans requests out to every provider and merges whatever comes back.
type Service struct {
	providers []Provider
	recorder  OutcomeRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new Service. recorder and logger may be nil.
func NewService(providers []Provider, recorder OutcomeRecorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		providers: providers,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Providers returns the names of the configured providers in fan-out order.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// Current returns the mean of the current conditions reported by every
// provider that answered. It fails only when none did.
func (s *Service) Current(ctx context.Context, city string) (Report, error) {
	reports := fanOut(ctx, s, city, OperationCurrent, func(ctx context.Context, p Provider) (Report, error) {
		return p.Current(ctx, city)
	})

	if len(reports) == 0 {
		s.logger.Info("no provider returned current weather", zap.String("city", city))
		return Report{}, ErrNoWeatherData
	}

	agg := AggregateReports(reports)
	s.logger.Debug("current weather aggregated", zap.String("city", city), zap.Int("providers", agg.Count()))
	return agg.Mean(), nil
}

// Forecast returns a days-long forecast averaged day by day across providers.
func (s *Service) Forecast(ctx context.Context, city string, days int) (Forecast, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be greater than zero")
	}

	forecasts := fanOut(ctx, s, city, OperationForecast, func(ctx context.Context, p Provider) (Forecast, error) {
		f, err := p.Forecast(ctx, city, days)
		if err != nil {
			return nil, err
		}
		// Positional averaging needs every series to line up.
		if len(f) != days {
			return nil, &ParseError{Provider: p.Name(), Field: fmt.Sprintf("%d forecast days (got %d)", days, len(f))}
		}
		return f, nil
	})

	if len(forecasts) == 0 {
		s.logger.Info("no provider returned a forecast", zap.String("city", city), zap.Int("days", days))
		return nil, ErrNoWeatherData
	}

	return AggregateForecasts(forecasts), nil
}

// SpecificDay returns the forecast for the day offset days from today (0 = today).
// It requests a forecast just long enough to contain that day.
func (s *Service) SpecificDay(ctx context.Context, city string, offset int) (Report, error) {
	if offset < 0 {
		return Report{}, &DayOutOfRangeError{Offset: offset}
	}

	forecast, err := s.Forecast(ctx, city, offset+1)
	if err != nil {
		return Report{}, err
	}
	return pickDay(forecast, offset)
}

func pickDay(f Forecast, offset int) (Report, error) {
	if offset < 0 || offset >= len(f) {
		return Report{}, &DayOutOfRangeError{Offset: offset, Days: len(f)}
	}
	return f[offset], nil
}

// fanOut calls every provider concurrently and waits for all of them.
// Failed calls are recorded and dropped; successes come back in provider order.
func fanOut[T any](
	ctx context.Context,
	s *Service,
	city string,
	op Operation,
	call func(ctx context.Context, p Provider) (T, error),
) []T {
	var (
		wg      sync.WaitGroup
		results = make([]T, len(s.providers))
		ok      = make([]bool, len(s.providers))
	)

	for i, p := range s.providers {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := s.now()
			r, err := call(ctx, p)

			outcome := Outcome{
				Provider:  p.Name(),
				Operation: op,
				City:      city,
				At:        start.UTC(),
				LatencyMs: s.now().Sub(start).Milliseconds(),
			}
			if err != nil {
				outcome.Error = err.Error()
				s.logger.Debug("provider call failed",
					zap.String("provider", p.Name()),
					zap.String("operation", string(op)),
					zap.String("city", city),
					zap.Error(err),
				)
			} else {
				results[i] = r
				ok[i] = true
			}
			s.recorder.Record(outcome)
		}()
	}

	wg.Wait()

	out := make([]T, 0, len(results))
	for i, r := range results {
		if ok[i] {
			out = append(out, r)
		}
	}
	return out
}
