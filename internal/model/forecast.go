package model

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
)

// DefaultConfidenceLevel is the nominal coverage a forecast claims when the
// forecaster does not state one explicitly.
const DefaultConfidenceLevel = 0.8

// Interval is a confidence interval with Low <= High. It serializes as a
// two-element JSON array [low, high].
type Interval struct {
	Low  float64
	High float64
}

// Width returns High - Low.
func (iv Interval) Width() float64 {
	return iv.High - iv.Low
}

// Contains reports whether v falls inside the interval, inclusive on both ends.
func (iv Interval) Contains(v float64) bool {
	return iv.Low <= v && v <= iv.High
}

// MarshalJSON encodes the interval as [low, high].
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{iv.Low, iv.High})
}

// UnmarshalJSON decodes a [low, high] array.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return eris.Wrap(err, "model: decode confidence interval")
	}
	iv.Low, iv.High = pair[0], pair[1]
	return nil
}

// Forecast is a numeric prediction for one (option, KPI) pair: a point
// estimate plus a confidence interval at a stated confidence level. The
// remaining fields document how the number was reached and are informational.
type Forecast struct {
	PointEstimate      float64            `json:"point_estimate"`
	ConfidenceInterval Interval           `json:"confidence_interval"`
	ConfidenceLevel    float64            `json:"confidence_level"`
	Components         map[string]float64 `json:"components,omitempty"`
	BaseRate           *float64           `json:"base_rate,omitempty"`
	BaseRateSource     string             `json:"base_rate_source,omitempty"`
	InsideViewAdjust   string             `json:"inside_view_adjustment,omitempty"`
	Reasoning          string             `json:"reasoning,omitempty"`
	Assumptions        []string           `json:"assumptions,omitempty"`
}

// NewForecast builds a validated forecast with the default confidence level.
func NewForecast(point, low, high float64) (Forecast, error) {
	f := Forecast{
		PointEstimate:      point,
		ConfidenceInterval: Interval{Low: low, High: high},
		ConfidenceLevel:    DefaultConfidenceLevel,
	}
	if err := f.Validate(); err != nil {
		return Forecast{}, err
	}
	return f, nil
}

// Validate checks the interval ordering and confidence level. Forecasts are
// rejected at construction time, not at scoring time.
func (f Forecast) Validate() error {
	if f.ConfidenceInterval.Low > f.ConfidenceInterval.High {
		return fmt.Errorf("%w: interval low %v > high %v",
			ErrInvalidForecast, f.ConfidenceInterval.Low, f.ConfidenceInterval.High)
	}
	if f.ConfidenceLevel <= 0 || f.ConfidenceLevel >= 1 {
		return fmt.Errorf("%w: confidence level %v outside (0, 1)",
			ErrInvalidForecast, f.ConfidenceLevel)
	}
	return nil
}
