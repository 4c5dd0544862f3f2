package weather

import (
	"context"
)

// Provider abstracts a weather data source (e.g. OpenWeather, Weatherbit).
//
// Implementations either return a fully populated result or an error; they
// never retry and never return partial data. Forecast must return exactly
// days entries on success.
type Provider interface {
	Name() string
	Current(ctx context.Context, city string) (Report, error)
	Forecast(ctx context.Context, city string, days int) (Forecast, error)
}

// OutcomeRecorder receives the outcome of every provider call the Service makes.
// Recording must not block for long; it runs on the request path.
type OutcomeRecorder interface {
	Record(o Outcome)
}

type nopRecorder struct{}

func (nopRecorder) Record(Outcome) {}
