package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecision(t *testing.T) {
	d := NewDecision("Which product to launch?", "Q3 planning")
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "Which product to launch?", d.Question)
	assert.Equal(t, "Q3 planning", d.Context)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, StatusOpen, d.Status())
}

func TestAddKPI(t *testing.T) {
	d := NewDecision("Test", "")
	require.NoError(t, d.AddKPI(NewKPI("revenue", "Annual revenue")))

	err := d.AddKPI(NewKPI("revenue", "Again"))
	assert.ErrorIs(t, err, ErrDuplicateName)

	err = d.AddKPI(KPI{Name: "broken", Weight: 0})
	assert.Error(t, err)

	err = d.AddKPI(KPI{Name: "negative", Weight: -1})
	assert.Error(t, err)
}

func TestAddOption(t *testing.T) {
	d := NewDecision("Test", "")
	require.NoError(t, d.AddOption(NewOption("A", "")))

	err := d.AddOption(NewOption("A", "again"))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestSetForecast_UnknownNames(t *testing.T) {
	d := NewDecision("Test", "")
	require.NoError(t, d.AddKPI(NewKPI("revenue", "Revenue")))
	require.NoError(t, d.AddOption(NewOption("A", "")))

	f := mustForecast(t, 100, 80, 120)

	err := d.SetForecast("A", "nope", f)
	assert.ErrorIs(t, err, ErrNoSuchKPI)

	err = d.SetForecast("nope", "revenue", f)
	assert.ErrorIs(t, err, ErrNoSuchOption)

	require.NoError(t, d.SetForecast("A", "revenue", f))
	assert.Equal(t, 100.0, d.Options[0].Forecasts["revenue"].PointEstimate)
}

func TestSetForecast_RejectsInvalid(t *testing.T) {
	d := NewDecision("Test", "")
	require.NoError(t, d.AddKPI(NewKPI("revenue", "Revenue")))
	require.NoError(t, d.AddOption(NewOption("A", "")))

	bad := Forecast{PointEstimate: 50, ConfidenceInterval: Interval{60, 40}, ConfidenceLevel: 0.8}
	err := d.SetForecast("A", "revenue", bad)
	assert.ErrorIs(t, err, ErrInvalidForecast)
}

func TestDecide(t *testing.T) {
	d := NewDecision("Test", "")
	require.NoError(t, d.AddOption(NewOption("A", "")))

	err := d.Decide("missing", 0)
	assert.ErrorIs(t, err, ErrNoSuchOption)

	require.NoError(t, d.Decide("A", 14*24*time.Hour))
	assert.Equal(t, "A", d.ChosenOption)
	assert.Equal(t, StatusDecided, d.Status())
	require.NotNil(t, d.DecidedAt)
	require.NotNil(t, d.ReviewAt)
	assert.InDelta(t, (14 * 24 * time.Hour).Seconds(), d.ReviewAt.Sub(*d.DecidedAt).Seconds(), 1)
}

func TestDecide_DefaultReviewInterval(t *testing.T) {
	d := NewDecision("Test", "")
	require.NoError(t, d.AddOption(NewOption("A", "")))
	require.NoError(t, d.Decide("A", 0))
	require.NotNil(t, d.ReviewAt)
	assert.InDelta(t, DefaultReviewAfter.Seconds(), d.ReviewAt.Sub(*d.DecidedAt).Seconds(), 1)
}

func TestScore(t *testing.T) {
	d := NewDecision("Test", "")
	require.NoError(t, d.AddKPI(NewKPI("revenue", "Revenue")))
	require.NoError(t, d.AddOption(NewOption("A", "")))
	require.NoError(t, d.SetForecast("A", "revenue", mustForecast(t, 100, 80, 120)))

	// Cannot score before deciding.
	err := d.Score(map[string]float64{"revenue": 110}, "")
	assert.ErrorIs(t, err, ErrNoChosenOption)

	require.NoError(t, d.Decide("A", 0))

	err = d.Score(nil, "")
	assert.Error(t, err)

	require.NoError(t, d.Score(map[string]float64{"revenue": 110}, "went well"))
	assert.Equal(t, StatusScored, d.Status())
	require.NotNil(t, d.ScoredAt)
	assert.Equal(t, 110.0, d.ActualOutcomes["revenue"])
	assert.Equal(t, "went well", d.Reflections)

	// Scoring is terminal.
	err = d.Score(map[string]float64{"revenue": 200}, "")
	assert.ErrorIs(t, err, ErrAlreadyScored)
	assert.Equal(t, 110.0, d.ActualOutcomes["revenue"])
}

func TestChosen(t *testing.T) {
	d := NewDecision("Test", "")
	assert.Nil(t, d.Chosen())

	require.NoError(t, d.AddOption(NewOption("A", "first")))
	require.NoError(t, d.Decide("A", 0))
	chosen := d.Chosen()
	require.NotNil(t, chosen)
	assert.Equal(t, "A", chosen.Name)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Decision {
		d := NewDecision("Test", "ctx")
		require.NoError(t, d.AddKPI(NewKPI("revenue", "Revenue")))
		require.NoError(t, d.AddOption(NewOption("A", "")))
		require.NoError(t, d.SetForecast("A", "revenue", mustForecast(t, 100, 80, 120)))
		return d
	}

	t.Run("valid decision passes", func(t *testing.T) {
		assert.NoError(t, valid(t).Validate())
	})

	t.Run("missing id", func(t *testing.T) {
		d := valid(t)
		d.ID = ""
		assert.Error(t, d.Validate())
	})

	t.Run("duplicate kpi names", func(t *testing.T) {
		d := valid(t)
		d.KPIs = append(d.KPIs, NewKPI("revenue", "again"))
		assert.ErrorIs(t, d.Validate(), ErrDuplicateName)
	})

	t.Run("forecast references unknown kpi", func(t *testing.T) {
		d := valid(t)
		d.Options[0].Forecasts["ghost"] = mustForecast(t, 1, 0, 2)
		assert.ErrorIs(t, d.Validate(), ErrNoSuchKPI)
	})

	t.Run("chosen option must exist", func(t *testing.T) {
		d := valid(t)
		d.ChosenOption = "ghost"
		assert.ErrorIs(t, d.Validate(), ErrNoSuchOption)
	})

	t.Run("scored without chosen option", func(t *testing.T) {
		d := valid(t)
		now := time.Now().UTC()
		d.ScoredAt = &now
		assert.ErrorIs(t, d.Validate(), ErrNoChosenOption)
	})

	t.Run("invalid forecast", func(t *testing.T) {
		d := valid(t)
		d.Options[0].Forecasts["revenue"] = Forecast{
			PointEstimate:      50,
			ConfidenceInterval: Interval{60, 40},
			ConfidenceLevel:    0.8,
		}
		assert.ErrorIs(t, d.Validate(), ErrInvalidForecast)
	})
}

func TestSerializationRoundTrip(t *testing.T) {
	target := 100.0
	baseRate := 45.0

	original := NewDecision("Test decision", "Some context")
	require.NoError(t, original.AddKPI(KPI{
		Name: "kpi1", Description: "First KPI", Unit: "$", Target: &target, Weight: 2.0,
	}))
	require.NoError(t, original.AddOption(NewOption("Option A", "First option")))

	f, err := NewForecast(50, 40, 60)
	require.NoError(t, err)
	f.ConfidenceLevel = 0.9
	f.Reasoning = "Because reasons"
	f.Assumptions = []string{"Assumption 1", "Assumption 2"}
	f.BaseRate = &baseRate
	f.BaseRateSource = "Historical data"
	require.NoError(t, original.SetForecast("Option A", "kpi1", f))

	require.NoError(t, original.Decide("Option A", 0))
	require.NoError(t, original.Score(map[string]float64{"kpi1": 55}, "It went well"))

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored Decision
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, original.ID, restored.ID)
	assert.Equal(t, original.Question, restored.Question)
	assert.Equal(t, original.Context, restored.Context)
	require.Len(t, restored.KPIs, 1)
	assert.Equal(t, "kpi1", restored.KPIs[0].Name)
	assert.Equal(t, 2.0, restored.KPIs[0].Weight)
	require.NotNil(t, restored.KPIs[0].Target)
	assert.Equal(t, 100.0, *restored.KPIs[0].Target)
	require.Len(t, restored.Options, 1)
	assert.Equal(t, "Option A", restored.Options[0].Name)

	rf := restored.Options[0].Forecasts["kpi1"]
	assert.Equal(t, 50.0, rf.PointEstimate)
	assert.Equal(t, Interval{40, 60}, rf.ConfidenceInterval)
	assert.Equal(t, 0.9, rf.ConfidenceLevel)
	assert.Equal(t, []string{"Assumption 1", "Assumption 2"}, rf.Assumptions)
	require.NotNil(t, rf.BaseRate)
	assert.Equal(t, 45.0, *rf.BaseRate)

	assert.Equal(t, "Option A", restored.ChosenOption)
	assert.Equal(t, map[string]float64{"kpi1": 55}, restored.ActualOutcomes)
	assert.Equal(t, "It went well", restored.Reflections)
	require.NotNil(t, restored.ScoredAt)
	assert.True(t, restored.ScoredAt.Equal(*original.ScoredAt))
	assert.True(t, restored.CreatedAt.Equal(original.CreatedAt))
}

func TestSerialization_TimestampsAreISO8601(t *testing.T) {
	d := NewDecision("Test", "")
	data, err := json.Marshal(d)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	createdAt, ok := raw["created_at"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339Nano, createdAt)
	assert.NoError(t, err)

	// Unset lifecycle timestamps stay absent, not null.
	_, present := raw["scored_at"]
	assert.False(t, present)
	_, present = raw["decided_at"]
	assert.False(t, present)
}
