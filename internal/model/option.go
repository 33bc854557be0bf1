package model

// Option is one candidate choice under a decision. Forecasts maps KPI name to
// the forecast for that KPI; a KPI absent from the map is simply not
// estimated for this option and contributes nothing to its scores.
type Option struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Forecasts   map[string]Forecast `json:"forecasts,omitempty"`
}

// NewOption builds an option with an empty forecast map.
func NewOption(name, description string) Option {
	return Option{Name: name, Description: description, Forecasts: map[string]Forecast{}}
}

// ExpectedValue sums the point estimates this option holds for the given
// KPIs. KPIs without a forecast are skipped entirely rather than counted as
// zero. No weighting or normalization is applied; this is only meaningful
// for single-KPI or same-scale comparisons — use Decision.OptionScores for
// anything cross-scale.
func (o Option) ExpectedValue(kpis []KPI) float64 {
	var sum float64
	for _, k := range kpis {
		if f, ok := o.Forecasts[k.Name]; ok {
			sum += f.PointEstimate
		}
	}
	return sum
}
