package weather

import (
	"errors"
	"fmt"
)

// ErrNoWeatherData is returned when no provider produced usable data for a request.
var ErrNoWeatherData = errors.New("no weather data could be obtained for this city")

// TransportError reports a failed exchange with a provider: network failure,
// non-2xx status, an undecodable body or an open circuit.
type TransportError struct {
	Provider   string
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a well-formed response that lacks a required field.
type ParseError struct {
	Provider string
	Field    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to build weather report: missing %s", e.Provider, e.Field)
}

// DayOutOfRangeError is returned when a forecast does not reach the requested day offset.
type DayOutOfRangeError struct {
	Offset int
	Days   int
}

func (e *DayOutOfRangeError) Error() string {
	return fmt.Sprintf("day offset %d is outside the %d-day forecast", e.Offset, e.Days)
}
