package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sunkCostCase(t *testing.T) DecisionCase {
	t.Helper()
	c, ok := DecisionCaseByID("sunk_cost")
	require.True(t, ok)
	return c
}

func TestScore_DetectsConfidenceInterval(t *testing.T) {
	scorer := NewScorer(sunkCostCase(t))

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"dash range", "I'd put success at 15-25%.", true},
		{"to range", "Expect 3 to 6 months of additional work.", true},
		{"plus minus", "Budget overrun of ±30 percent is likely.", true},
		{"bracket pair", "My interval is [10, 40].", true},
		{"explicit phrase", "My confidence interval is wide here.", true},
		{"no interval", "You should kill the project.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := scorer.Score(tt.text, ConditionFarness, 1)
			assert.Equal(t, tt.want, score.HasConfidenceInterval)
		})
	}
}

func TestScore_DetectsAccountability(t *testing.T) {
	scorer := NewScorer(sunkCostCase(t))

	score := scorer.Score("Set a review date in 3 months and score this against actuals.", ConditionFarness, 1)
	assert.True(t, score.HasAccountability)

	score = scorer.Score("I recommend following up on the outcome.", ConditionNaive, 1)
	assert.True(t, score.HasAccountability)

	score = scorer.Score("Just cancel it.", ConditionNaive, 1)
	assert.False(t, score.HasAccountability)
}

func TestScore_DetectsTradeoffs(t *testing.T) {
	scorer := NewScorer(sunkCostCase(t))

	score := scorer.Score("The expected value of continuing is negative.", ConditionFarness, 1)
	assert.True(t, score.QuantifiesTradeoffs)

	score = scorer.Score("Compare the NPV of both options.", ConditionFarness, 1)
	assert.True(t, score.QuantifiesTradeoffs)

	score = scorer.Score("It just feels wrong to continue.", ConditionNaive, 1)
	assert.False(t, score.QuantifiesTradeoffs)
}

func TestScore_FindsBiases(t *testing.T) {
	scorer := NewScorer(sunkCostCase(t))

	score := scorer.Score(
		"This is a classic sunk cost fallacy combined with the planning fallacy.",
		ConditionFarness, 1,
	)
	assert.GreaterOrEqual(t, score.BiasCount, 2)
	assert.Contains(t, score.BiasesFound, "sunk cost fallacy")
	assert.Contains(t, score.BiasesFound, "planning fallacy")
}

func TestScore_CitesBaseRate(t *testing.T) {
	scorer := NewScorer(sunkCostCase(t))

	// Mentions a number from the ground-truth base rates.
	score := scorer.Score("Note that 90% of software projects exceed budget.", ConditionFarness, 1)
	assert.True(t, score.CitesBaseRate)

	// General base-rate language counts too.
	score = scorer.Score("The base rate for troubled projects finishing on a revised plan is low.", ConditionFarness, 1)
	assert.True(t, score.CitesBaseRate)

	score = scorer.Score("Trust your gut here.", ConditionNaive, 1)
	assert.False(t, score.CitesBaseRate)
}

func TestScore_CarriesIdentity(t *testing.T) {
	scorer := NewScorer(sunkCostCase(t))
	score := scorer.Score("Kill it.", ConditionNaive, 3)
	assert.Equal(t, "sunk_cost", score.CaseID)
	assert.Equal(t, ConditionNaive, score.Condition)
	assert.Equal(t, 3, score.RunNumber)
	assert.Nil(t, score.CorrectRecommendation)
}

func TestAggregateScores(t *testing.T) {
	yes := true
	scores := []ResponseScore{
		{Condition: ConditionNaive, CitesBaseRate: false, BiasCount: 0},
		{Condition: ConditionNaive, CitesBaseRate: true, BiasCount: 1},
		{Condition: ConditionFarness, CitesBaseRate: true, BiasCount: 2, HasConfidenceInterval: true, CorrectRecommendation: &yes},
		{Condition: ConditionFarness, CitesBaseRate: true, BiasCount: 3, HasConfidenceInterval: true},
	}

	agg := AggregateScores(scores)
	require.Contains(t, agg, ConditionNaive)
	require.Contains(t, agg, ConditionFarness)

	naive := agg[ConditionNaive]
	assert.Equal(t, 2, naive.N)
	assert.InDelta(t, 0.5, naive.BaseRateCitationRate, 1e-9)
	assert.InDelta(t, 0.5, naive.MeanBiasCount, 1e-9)
	assert.Zero(t, naive.CIRate)
	assert.Nil(t, naive.CorrectRate)

	farness := agg[ConditionFarness]
	assert.Equal(t, 2, farness.N)
	assert.InDelta(t, 1.0, farness.BaseRateCitationRate, 1e-9)
	assert.InDelta(t, 2.5, farness.MeanBiasCount, 1e-9)
	assert.InDelta(t, 1.0, farness.CIRate, 1e-9)
	require.NotNil(t, farness.CorrectRate)
	assert.InDelta(t, 1.0, *farness.CorrectRate, 1e-9)
}

func TestAggregateScores_Empty(t *testing.T) {
	assert.Empty(t, AggregateScores(nil))
}
