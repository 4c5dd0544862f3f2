package weather

// Aggregator keeps running means of temperature and timestamp so reports can be
// folded in one at a time without keeping them around.
type Aggregator struct {
	n    int
	temp float64
	ts   float64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add folds r into the running means and returns the aggregator for chaining.
func (a *Aggregator) Add(r Report) *Aggregator {
	a.n++
	n := float64(a.n)
	a.temp += (r.Temperature - a.temp) / n
	a.ts += (float64(r.ObservedAt) - a.ts) / n
	return a
}

// Count returns the number of reports added so far.
func (a *Aggregator) Count() int {
	return a.n
}

// Mean returns the mean report. The timestamp is truncated, not rounded.
// An empty aggregator yields the zero Report.
func (a *Aggregator) Mean() Report {
	return Report{
		Temperature: a.temp,
		ObservedAt:  int64(a.ts),
	}
}

// AggregateReports folds reports into a new Aggregator.
func AggregateReports(reports []Report) *Aggregator {
	agg := NewAggregator()
	for _, r := range reports {
		agg.Add(r)
	}
	return agg
}

// AggregateForecasts averages forecasts position by position: entry i of the
// result is the mean of entry i of every input. All inputs must have the same
// length; the first one decides it.
func AggregateForecasts(forecasts []Forecast) Forecast {
	if len(forecasts) == 0 {
		return nil
	}

	days := make([]*Aggregator, len(forecasts[0]))
	for i := range days {
		days[i] = NewAggregator()
	}

	for _, f := range forecasts {
		for i := range days {
			days[i].Add(f[i])
		}
	}

	out := make(Forecast, len(days))
	for i, agg := range days {
		out[i] = agg.Mean()
	}
	return out
}
