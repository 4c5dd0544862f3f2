package providers

import (
	"context"
	"strconv"

	"github.com/i474232898/weather-reports/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap API root.
const DefaultOpenWeatherBaseURL = "http://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	*client
}

var _ weather.Provider = (*OpenWeatherProvider)(nil)

// NewOpenWeatherProvider creates an OpenWeather provider; an empty BaseURL means the public API.
func NewOpenWeatherProvider(cfg ClientConfig) *OpenWeatherProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeatherProvider{client: newClient("openweather", cfg)}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// openWeatherCurrent is the /weather response; only the fields we read.
type openWeatherCurrent struct {
	Dt   *int64 `json:"dt"`
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Coord *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
}

// openWeatherOneCall is the /onecall response with current, minutely and hourly excluded.
type openWeatherOneCall struct {
	Daily *[]struct {
		Dt   *int64 `json:"dt"`
		Temp *struct {
			Day *float64 `json:"day"`
		} `json:"temp"`
	} `json:"daily"`
}

func (p *OpenWeatherProvider) Current(ctx context.Context, city string) (weather.Report, error) {
	payload, err := p.fetchCurrent(ctx, city)
	if err != nil {
		return weather.Report{}, err
	}
	return p.parseCurrent(payload)
}

// Forecast resolves the city to coordinates through the current conditions
// endpoint, then asks the one-call endpoint for the daily series.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, city string, days int) (weather.Forecast, error) {
	current, err := p.fetchCurrent(ctx, city)
	if err != nil {
		return nil, err
	}
	if current.Coord == nil || current.Coord.Lat == nil || current.Coord.Lon == nil {
		return nil, p.parseErr("coord.lat/coord.lon")
	}

	params := map[string]string{
		"APPID":   p.apiKey,
		"lat":     strconv.FormatFloat(*current.Coord.Lat, 'f', -1, 64),
		"lon":     strconv.FormatFloat(*current.Coord.Lon, 'f', -1, 64),
		"units":   "metric",
		"exclude": "current,minutely,hourly",
	}

	var payload openWeatherOneCall
	if err := p.getJSON(ctx, "forecast", "/onecall", params, &payload); err != nil {
		return nil, err
	}

	forecast, err := p.parseDaily(payload)
	if err != nil {
		return nil, err
	}
	return p.truncate(forecast, days)
}

func (p *OpenWeatherProvider) fetchCurrent(ctx context.Context, city string) (openWeatherCurrent, error) {
	params := map[string]string{
		"APPID": p.apiKey,
		"q":     city,
		"units": "metric",
	}

	var payload openWeatherCurrent
	err := p.getJSON(ctx, "current", "/weather", params, &payload)
	return payload, err
}

func (p *OpenWeatherProvider) parseCurrent(payload openWeatherCurrent) (weather.Report, error) {
	if payload.Main == nil || payload.Main.Temp == nil {
		return weather.Report{}, p.parseErr("main.temp")
	}
	if payload.Dt == nil {
		return weather.Report{}, p.parseErr("dt")
	}
	return weather.Report{Temperature: *payload.Main.Temp, ObservedAt: *payload.Dt}, nil
}

func (p *OpenWeatherProvider) parseDaily(payload openWeatherOneCall) (weather.Forecast, error) {
	if payload.Daily == nil {
		return nil, p.parseErr("daily")
	}

	forecast := make(weather.Forecast, 0, len(*payload.Daily))
	for _, day := range *payload.Daily {
		if day.Temp == nil || day.Temp.Day == nil {
			return nil, p.parseErr("daily[].temp.day")
		}
		if day.Dt == nil {
			return nil, p.parseErr("daily[].dt")
		}
		forecast = append(forecast, weather.Report{Temperature: *day.Temp.Day, ObservedAt: *day.Dt})
	}
	return forecast, nil
}
