package weather

import (
	"time"
)

// MaxForecastDays is the widest forecast window any configured provider serves.
const MaxForecastDays = 16

// Report is the canonical weather reading: a temperature at a point in time.
// Reports are values; neither providers nor the aggregator mutate one after
// it has been built.
type Report struct {
	Temperature float64 `json:"temperature"` // degrees Celsius
	ObservedAt  int64   `json:"observedAt"`  // unix seconds, UTC
}

// Time returns ObservedAt as a UTC time.
func (r Report) Time() time.Time {
	return time.Unix(r.ObservedAt, 0).UTC()
}

// Forecast is a multi-day forecast, one Report per day.
// Index 0 is the nearest day; entries are ordered by ObservedAt ascending.
type Forecast []Report

// Operation names the provider call an Outcome describes.
type Operation string

const (
	OperationCurrent  Operation = "current"
	OperationForecast Operation = "forecast"
)

// Outcome describes a single provider call made while serving a request.
type Outcome struct {
	Provider  string    `json:"provider"`
	Operation Operation `json:"operation"`
	City      string    `json:"city"`
	At        time.Time `json:"at"`
	LatencyMs int64     `json:"latencyMs"`
	Error     string    `json:"error,omitempty"`
}

// OK reports whether the call produced usable data.
func (o Outcome) OK() bool {
	return o.Error == ""
}
