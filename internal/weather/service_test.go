package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubProvider struct {
	name       string
	current    Report
	forecast   Forecast
	err        error
	delay      time.Duration
	mu         sync.Mutex
	forecastNs []int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Current(ctx context.Context, city string) (Report, error) {
	time.Sleep(p.delay)
	if p.err != nil {
		return Report{}, p.err
	}
	return p.current, nil
}

func (p *stubProvider) Forecast(ctx context.Context, city string, days int) (Forecast, error) {
	p.mu.Lock()
	p.forecastNs = append(p.forecastNs, days)
	p.mu.Unlock()

	time.Sleep(p.delay)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.forecast) > days {
		return p.forecast[:days], nil
	}
	return p.forecast, nil
}

type memRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *memRecorder) Record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

var errBoom = errors.New("boom")

func TestServiceCurrent(t *testing.T) {
	tests := []struct {
		name      string
		providers []Provider
		want      Report
		wantErr   error
	}{
		{
			name: "all providers succeed",
			providers: []Provider{
				&stubProvider{name: "a", current: Report{2.0, 10}},
				&stubProvider{name: "b", current: Report{4.0, 20}},
			},
			want: Report{3.0, 15},
		},
		{
			name: "one provider fails",
			providers: []Provider{
				&stubProvider{name: "a", err: errBoom},
				&stubProvider{name: "b", current: Report{-23.0, 1613928600}},
			},
			want: Report{-23.0, 1613928600},
		},
		{
			name: "all providers fail",
			providers: []Provider{
				&stubProvider{name: "a", err: errBoom},
				&stubProvider{name: "b", err: &ParseError{Provider: "b", Field: "temp"}},
			},
			wantErr: ErrNoWeatherData,
		},
		{
			name:    "no providers",
			wantErr: ErrNoWeatherData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.providers, nil, nil)
			got, err := svc.Current(context.Background(), "nowhere")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestServiceWaitsForSlowestProvider(t *testing.T) {
	fast := &stubProvider{name: "fast", current: Report{10, 100}}
	slow := &stubProvider{name: "slow", current: Report{20, 200}, delay: 50 * time.Millisecond}

	svc := NewService([]Provider{fast, slow}, nil, nil)
	got, err := svc.Current(context.Background(), "Kazan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Report{15, 150}) {
		t.Fatalf("slow provider was not awaited: got %+v", got)
	}
}

func TestServiceForecast(t *testing.T) {
	a := &stubProvider{name: "a", forecast: Forecast{{4, 10}, {4, 10}, {2, 10}}}
	b := &stubProvider{name: "b", forecast: Forecast{{6, 10}, {4, 20}, {6, 20}}}

	svc := NewService([]Provider{a, b}, nil, nil)
	got, err := svc.Forecast(context.Background(), "Moscow", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Forecast{{5, 10}, {4, 15}, {4, 15}}
	if len(got) != len(want) {
		t.Fatalf("got %d days, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestServiceForecastDropsShortSeries(t *testing.T) {
	full := &stubProvider{name: "full", forecast: Forecast{{1, 10}, {2, 20}, {3, 30}}}
	short := &stubProvider{name: "short", forecast: Forecast{{9, 10}}}
	rec := &memRecorder{}

	svc := NewService([]Provider{full, short}, rec, nil)
	got, err := svc.Forecast(context.Background(), "Kazan", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0] != (Report{1, 10}) {
		t.Fatalf("short series should have been excluded, got %+v", got)
	}

	var failed int
	for _, o := range rec.outcomes {
		if !o.OK() {
			failed++
			if o.Provider != "short" {
				t.Errorf("unexpected failed provider %q", o.Provider)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected 1 failed outcome, got %d", failed)
	}
}

func TestServiceForecastAllFail(t *testing.T) {
	svc := NewService([]Provider{
		&stubProvider{name: "a", err: errBoom},
		&stubProvider{name: "b", err: errBoom},
	}, nil, nil)

	if _, err := svc.Forecast(context.Background(), "nowhere", 2); !errors.Is(err, ErrNoWeatherData) {
		t.Fatalf("expected ErrNoWeatherData, got %v", err)
	}
}

func TestServiceForecastRejectsNonPositiveDays(t *testing.T) {
	svc := NewService([]Provider{&stubProvider{name: "a"}}, nil, nil)
	if _, err := svc.Forecast(context.Background(), "Kazan", 0); err == nil {
		t.Fatal("expected error for zero days")
	}
}

func TestServiceSpecificDay(t *testing.T) {
	a := &stubProvider{name: "a", forecast: Forecast{{1, 10}, {2, 20}, {3, 30}, {4, 40}}}
	b := &stubProvider{name: "b", forecast: Forecast{{3, 10}, {4, 20}, {5, 30}, {6, 40}}}
	svc := NewService([]Provider{a, b}, nil, nil)

	forecast, err := svc.Forecast(context.Background(), "Kazan", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	day, err := svc.SpecificDay(context.Background(), "Kazan", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day != forecast[2] {
		t.Fatalf("specific day %+v differs from forecast entry %+v", day, forecast[2])
	}
	if day != (Report{4, 30}) {
		t.Fatalf("got %+v, want {4 30}", day)
	}

	// The day selector must ask for exactly offset+1 days.
	if last := a.forecastNs[len(a.forecastNs)-1]; last != 3 {
		t.Fatalf("expected forecast of 3 days to be requested, got %d", last)
	}
}

func TestServiceSpecificDayPropagatesError(t *testing.T) {
	svc := NewService([]Provider{&stubProvider{name: "a", err: errBoom}}, nil, nil)
	if _, err := svc.SpecificDay(context.Background(), "nowhere", 1); !errors.Is(err, ErrNoWeatherData) {
		t.Fatalf("expected ErrNoWeatherData, got %v", err)
	}
}

func TestPickDayOutOfRange(t *testing.T) {
	_, err := pickDay(Forecast{{1, 10}}, 3)

	var rangeErr *DayOutOfRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected DayOutOfRangeError, got %v", err)
	}
	if rangeErr.Offset != 3 || rangeErr.Days != 1 {
		t.Fatalf("unexpected error fields: %+v", rangeErr)
	}
}

func TestServiceRecordsOutcomes(t *testing.T) {
	rec := &memRecorder{}
	svc := NewService([]Provider{
		&stubProvider{name: "a", current: Report{1, 1}},
		&stubProvider{name: "b", err: errBoom},
	}, rec, nil)

	if _, err := svc.Current(context.Background(), "Kazan"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(rec.outcomes))
	}
	for _, o := range rec.outcomes {
		if o.City != "Kazan" || o.Operation != OperationCurrent {
			t.Errorf("unexpected outcome %+v", o)
		}
		switch o.Provider {
		case "a":
			if !o.OK() {
				t.Errorf("provider a should have succeeded: %+v", o)
			}
		case "b":
			if o.Error != "boom" {
				t.Errorf("provider b error = %q, want boom", o.Error)
			}
		}
	}
}

func TestServiceProviders(t *testing.T) {
	svc := NewService([]Provider{&stubProvider{name: "a"}, &stubProvider{name: "b"}}, nil, nil)
	names := svc.Providers()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected provider names %v", names)
	}
}
