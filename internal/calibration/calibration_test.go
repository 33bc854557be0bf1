package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farness/internal/model"
)

func scoredDecision(t *testing.T, forecasts map[string][3]float64, actuals map[string]float64) *model.Decision {
	t.Helper()
	d := model.NewDecision("Test", "")
	for name, v := range forecasts {
		require.NoError(t, d.AddKPI(model.NewKPI(name, "")))
		_ = v
	}
	require.NoError(t, d.AddOption(model.NewOption("A", "")))
	for name, v := range forecasts {
		f, err := model.NewForecast(v[0], v[1], v[2])
		require.NoError(t, err)
		require.NoError(t, d.SetForecast("A", name, f))
	}
	require.NoError(t, d.Decide("A", 0))
	require.NoError(t, d.Score(actuals, ""))
	return d
}

func TestPairs(t *testing.T) {
	d := scoredDecision(t,
		map[string][3]float64{"revenue": {50, 40, 60}},
		map[string]float64{"revenue": 55},
	)

	pairs := Pairs(d)
	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Equal(t, "revenue", p.KPI)
	assert.True(t, p.InInterval())
	assert.Equal(t, 5.0, p.Error())
	rel, ok := p.RelativeError()
	require.True(t, ok)
	assert.InDelta(t, 0.10, rel, 1e-9)
}

func TestPairs_UnscoredDecision(t *testing.T) {
	d := model.NewDecision("Open", "")
	assert.Nil(t, Pairs(d))
}

func TestPairs_OnlyChosenOptionCounts(t *testing.T) {
	d := model.NewDecision("Test", "")
	require.NoError(t, d.AddKPI(model.NewKPI("revenue", "")))
	require.NoError(t, d.AddOption(model.NewOption("A", "")))
	require.NoError(t, d.AddOption(model.NewOption("B", "")))
	fa, err := model.NewForecast(100, 90, 110)
	require.NoError(t, err)
	fb, err := model.NewForecast(500, 400, 600)
	require.NoError(t, err)
	require.NoError(t, d.SetForecast("A", "revenue", fa))
	require.NoError(t, d.SetForecast("B", "revenue", fb))
	require.NoError(t, d.Decide("A", 0))
	require.NoError(t, d.Score(map[string]float64{"revenue": 105}, ""))

	pairs := Pairs(d)
	require.Len(t, pairs, 1)
	assert.Equal(t, 100.0, pairs[0].Forecast.PointEstimate)
}

func TestPairs_MissingActualSkipped(t *testing.T) {
	d := model.NewDecision("Test", "")
	require.NoError(t, d.AddKPI(model.NewKPI("revenue", "")))
	require.NoError(t, d.AddKPI(model.NewKPI("churn", "")))
	require.NoError(t, d.AddOption(model.NewOption("A", "")))
	for _, name := range []string{"revenue", "churn"} {
		f, err := model.NewForecast(10, 5, 15)
		require.NoError(t, err)
		require.NoError(t, d.SetForecast("A", name, f))
	}
	require.NoError(t, d.Decide("A", 0))
	require.NoError(t, d.Score(map[string]float64{"revenue": 12}, ""))

	pairs := Pairs(d)
	require.Len(t, pairs, 1)
	assert.Equal(t, "revenue", pairs[0].KPI)
}

func TestRelativeError_ZeroPointEstimate(t *testing.T) {
	f, err := model.NewForecast(0, -5, 5)
	require.NoError(t, err)
	p := Pair{Forecast: f, Actual: 3}
	_, ok := p.RelativeError()
	assert.False(t, ok)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Decisions)
	assert.Equal(t, 0, s.Forecasts)
	assert.Nil(t, s.Coverage)
	assert.Nil(t, s.MeanAbsoluteError)
	assert.Equal(t, "No scored forecasts yet.", s.Interpretation)
}

func TestSummarize(t *testing.T) {
	// Four forecasts at 80% confidence, three inside their intervals.
	d1 := scoredDecision(t,
		map[string][3]float64{"a": {50, 40, 60}, "b": {100, 90, 110}},
		map[string]float64{"a": 55, "b": 95},
	)
	d2 := scoredDecision(t,
		map[string][3]float64{"a": {20, 10, 30}, "b": {10, 8, 12}},
		map[string]float64{"a": 25, "b": 20},
	)

	s := Summarize([]*model.Decision{d1, d2})
	assert.Equal(t, 2, s.Decisions)
	assert.Equal(t, 4, s.Forecasts)
	require.NotNil(t, s.Coverage)
	assert.InDelta(t, 0.75, *s.Coverage, 1e-9)
	require.NotNil(t, s.ExpectedCoverage)
	assert.InDelta(t, 0.80, *s.ExpectedCoverage, 1e-9)
	require.NotNil(t, s.MeanAbsoluteError)
	// Errors: 5, 5, 5, 10.
	assert.InDelta(t, 6.25, *s.MeanAbsoluteError, 1e-9)
	require.NotNil(t, s.MeanRelativeError)
	// Relative: 0.1, 0.05, 0.25, 1.0.
	assert.InDelta(t, 0.35, *s.MeanRelativeError, 1e-9)
	assert.Contains(t, s.Interpretation, "Well calibrated")
}

func TestSummarize_IgnoresUnscored(t *testing.T) {
	scored := scoredDecision(t,
		map[string][3]float64{"a": {50, 40, 60}},
		map[string]float64{"a": 55},
	)
	open := model.NewDecision("Open", "")

	s := Summarize([]*model.Decision{scored, open})
	assert.Equal(t, 1, s.Decisions)
	assert.Equal(t, 1, s.Forecasts)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name     string
		coverage float64
		expected float64
		want     string
	}{
		{"overconfident", 0.50, 0.80, "Overconfident"},
		{"underconfident", 1.00, 0.80, "Underconfident"},
		{"well calibrated exact", 0.80, 0.80, "Well calibrated"},
		{"well calibrated at low margin", 0.70, 0.80, "Well calibrated"},
		{"well calibrated at high margin", 0.90, 0.80, "Well calibrated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, interpret(tt.coverage, tt.expected), tt.want)
		})
	}
}
