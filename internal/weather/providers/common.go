package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-reports/internal/weather"
)

// ClientConfig bundles transport and circuit breaker settings shared by providers.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// BreakerFailures is the number of consecutive transport failures that opens
	// the circuit. Zero keeps the circuit closed.
	BreakerFailures uint32
	// BreakerOpenTimeout is how long an open circuit rejects calls.
	BreakerOpenTimeout time.Duration

	Logger *zap.Logger
}

var (
	errStatus      = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
	errMissingKey  = errors.New("api key is not configured")
	errBadPayload  = errors.New("malformed json body")
	errCanceled    = errors.New("request canceled by caller")
)

// client is the HTTP side of a provider: one resty client guarded by a circuit breaker.
type client struct {
	name    string
	apiKey  string
	http    *resty.Client
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func newClient(name string, cfg ClientConfig) *client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("provider", name))

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = time.Minute
	}

	threshold := cfg.BreakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &client{
		name:    name,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		circuit: cb,
		logger:  logger,
	}
}

// getJSON issues one GET request and decodes the body into out.
// Every failure comes back as a *weather.TransportError; nothing is retried.
func (c *client) getJSON(ctx context.Context, op, path string, params map[string]string, out any) error {
	if c.apiKey == "" {
		return c.transportErr(op, 0, errMissingKey)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, c.transportErr(op, 0, fmt.Errorf("%w: %v", errCanceled, ctx.Err()))
			}
			return nil, c.transportErr(op, 0, err)
		}
		if !resp.IsSuccess() {
			return nil, c.transportErr(op, resp.StatusCode(), errStatus)
		}
		return resp.Body(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return c.transportErr(op, 0, fmt.Errorf("%w: %v", errCircuitOpen, err))
		}
		return err
	}

	body, ok := result.([]byte)
	if !ok {
		return c.transportErr(op, 0, fmt.Errorf("unexpected result type from circuit breaker"))
	}

	if err := json.Unmarshal(body, out); err != nil {
		// A value of the wrong type at a known path is a missing field, not a broken envelope.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return c.parseErr(typeErr.Field)
		}
		return c.transportErr(op, 0, fmt.Errorf("%w: %v", errBadPayload, err))
	}
	return nil
}

// countsAsHealthy decides whether a call result leaves the circuit alone.
// Only network failures and 5xx responses say anything about the provider;
// 4xx replies (unknown city, bad key) and caller cancellations belong to a
// single request and must not affect the next one.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, errCanceled) {
		return true
	}
	var transportErr *weather.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode >= 400 && transportErr.StatusCode < 500
	}
	return false
}

func (c *client) transportErr(op string, status int, err error) error {
	return &weather.TransportError{Provider: c.name, Op: op, StatusCode: status, Err: err}
}

func (c *client) parseErr(field string) error {
	return &weather.ParseError{Provider: c.name, Field: field}
}

// truncate validates that a provider returned at least days entries and cuts
// the series down to exactly that many.
func (c *client) truncate(f weather.Forecast, days int) (weather.Forecast, error) {
	if len(f) < days {
		return nil, c.parseErr(fmt.Sprintf("%d forecast days (got %d)", days, len(f)))
	}
	return f[:days], nil
}
