package providers

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-reports/internal/weather"
)

// DefaultWeatherbitBaseURL is the Weatherbit API root.
const DefaultWeatherbitBaseURL = "http://api.weatherbit.io/v2.0"

// WeatherbitProvider implements the weather.Provider interface for Weatherbit.io.
//
// Weatherbit entries may come without a "ts" field; those are stamped with the
// request time. OpenWeather never gets that leniency, so the two providers do
// not report timestamps with the same fidelity.
type WeatherbitProvider struct {
	*client
	now func() time.Time
}

var _ weather.Provider = (*WeatherbitProvider)(nil)

// NewWeatherbitProvider creates a Weatherbit provider; an empty BaseURL means the public API.
func NewWeatherbitProvider(cfg ClientConfig) *WeatherbitProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWeatherbitBaseURL
	}
	return &WeatherbitProvider{
		client: newClient("weatherbit", cfg),
		now:    time.Now,
	}
}

func (p *WeatherbitProvider) Name() string {
	return p.name
}

type weatherbitEntry struct {
	Ts   *int64   `json:"ts"`
	Temp *float64 `json:"temp"`
}

// weatherbitResponse covers both /current and /forecast/daily; both wrap entries in "data".
type weatherbitResponse struct {
	Data *[]weatherbitEntry `json:"data"`
}

func (p *WeatherbitProvider) Current(ctx context.Context, city string) (weather.Report, error) {
	requestedAt := p.now()
	params := map[string]string{
		"key":  p.apiKey,
		"city": city,
	}

	var payload weatherbitResponse
	if err := p.getJSON(ctx, "current", "/current", params, &payload); err != nil {
		return weather.Report{}, err
	}

	if payload.Data == nil || len(*payload.Data) == 0 {
		return weather.Report{}, p.parseErr("data[0]")
	}
	return p.parseEntry((*payload.Data)[0], requestedAt)
}

func (p *WeatherbitProvider) Forecast(ctx context.Context, city string, days int) (weather.Forecast, error) {
	requestedAt := p.now()
	params := map[string]string{
		"key":  p.apiKey,
		"city": city,
		"days": strconv.Itoa(days),
	}

	var payload weatherbitResponse
	if err := p.getJSON(ctx, "forecast", "/forecast/daily", params, &payload); err != nil {
		return nil, err
	}

	if payload.Data == nil {
		return nil, p.parseErr("data")
	}

	forecast := make(weather.Forecast, 0, len(*payload.Data))
	for _, entry := range *payload.Data {
		r, err := p.parseEntry(entry, requestedAt)
		if err != nil {
			return nil, err
		}
		forecast = append(forecast, r)
	}
	return p.truncate(forecast, days)
}

func (p *WeatherbitProvider) parseEntry(entry weatherbitEntry, requestedAt time.Time) (weather.Report, error) {
	if entry.Temp == nil {
		return weather.Report{}, p.parseErr("data[].temp")
	}

	ts := requestedAt.UTC().Unix()
	if entry.Ts != nil {
		ts = *entry.Ts
	} else {
		p.logger.Debug("weatherbit entry without ts; using request time", zap.Int64("ts", ts))
	}

	return weather.Report{Temperature: *entry.Temp, ObservedAt: ts}, nil
}
