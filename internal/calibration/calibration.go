// Package calibration aggregates forecast accuracy across scored decisions.
// Only the chosen option's forecasts are compared against recorded outcomes;
// forecasts for the road not taken have no observable actual.
package calibration

import (
	"fmt"
	"math"

	"farness/internal/model"
)

// Pair is a single forecast matched with its observed outcome.
type Pair struct {
	DecisionID string
	KPI        string
	Forecast   model.Forecast
	Actual     float64
}

// InInterval reports whether the actual landed inside the forecast's
// confidence interval.
func (p Pair) InInterval() bool {
	return p.Forecast.ConfidenceInterval.Contains(p.Actual)
}

// Error returns the signed forecast error, actual minus point estimate.
func (p Pair) Error() float64 {
	return p.Actual - p.Forecast.PointEstimate
}

// RelativeError returns |error| / |point estimate|. The second return is
// false when the point estimate is zero and no ratio exists.
func (p Pair) RelativeError() (float64, bool) {
	if p.Forecast.PointEstimate == 0 {
		return 0, false
	}
	return math.Abs(p.Error()) / math.Abs(p.Forecast.PointEstimate), true
}

// Summary holds aggregate calibration statistics. Pointer fields are nil
// when no forecast-outcome pairs contributed to them.
type Summary struct {
	Decisions int
	Forecasts int

	Coverage          *float64
	ExpectedCoverage  *float64
	MeanAbsoluteError *float64
	MeanRelativeError *float64

	Interpretation string
}

// interpretationMargin is how far observed coverage may drift from the
// stated confidence level before the verdict changes.
const interpretationMargin = 0.10

// Pairs extracts every forecast-outcome pair from a scored decision. Only
// KPIs that have both a chosen-option forecast and a recorded actual
// produce a pair.
func Pairs(d *model.Decision) []Pair {
	if d.Status() != model.StatusScored {
		return nil
	}
	chosen := d.Chosen()
	if chosen == nil {
		return nil
	}

	var out []Pair
	for _, k := range d.KPIs {
		f, hasForecast := chosen.Forecasts[k.Name]
		actual, hasActual := d.ActualOutcomes[k.Name]
		if !hasForecast || !hasActual {
			continue
		}
		out = append(out, Pair{
			DecisionID: d.ID,
			KPI:        k.Name,
			Forecast:   f,
			Actual:     actual,
		})
	}
	return out
}

// Summarize computes calibration statistics over every scored decision in
// the given set. Unscored decisions are ignored.
func Summarize(decisions []*model.Decision) Summary {
	var pairs []Pair
	scored := 0
	for _, d := range decisions {
		p := Pairs(d)
		if len(p) == 0 {
			continue
		}
		scored++
		pairs = append(pairs, p...)
	}

	s := Summary{Decisions: scored, Forecasts: len(pairs)}
	if len(pairs) == 0 {
		s.Interpretation = "No scored forecasts yet."
		return s
	}

	inCount := 0
	sumConfidence := 0.0
	sumAbsError := 0.0
	sumRelError := 0.0
	relCount := 0
	for _, p := range pairs {
		if p.InInterval() {
			inCount++
		}
		sumConfidence += p.Forecast.ConfidenceLevel
		sumAbsError += math.Abs(p.Error())
		if rel, ok := p.RelativeError(); ok {
			sumRelError += rel
			relCount++
		}
	}

	n := float64(len(pairs))
	coverage := float64(inCount) / n
	expected := sumConfidence / n
	mae := sumAbsError / n

	s.Coverage = &coverage
	s.ExpectedCoverage = &expected
	s.MeanAbsoluteError = &mae
	if relCount > 0 {
		mre := sumRelError / float64(relCount)
		s.MeanRelativeError = &mre
	}
	s.Interpretation = interpret(coverage, expected)
	return s
}

func interpret(coverage, expected float64) string {
	const eps = 1e-9
	switch {
	case coverage < expected-interpretationMargin-eps:
		return fmt.Sprintf(
			"Overconfident: %.0f%% of actuals fell inside your intervals, versus the %.0f%% your confidence levels imply. Widen your intervals.",
			coverage*100, expected*100)
	case coverage > expected+interpretationMargin+eps:
		return fmt.Sprintf(
			"Underconfident: %.0f%% of actuals fell inside your intervals, versus the %.0f%% your confidence levels imply. Your intervals can be tighter.",
			coverage*100, expected*100)
	default:
		return fmt.Sprintf(
			"Well calibrated: %.0f%% coverage against an expected %.0f%%.",
			coverage*100, expected*100)
	}
}
