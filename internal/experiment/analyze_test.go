package experiment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPFromZ(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{4.0, 0.001},
		{3.0, 0.01},
		{2.0, 0.05},
		{1.7, 0.10},
		{1.0, 0.20},
		{0.0, 0.20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pFromZ(tt.z), "z=%v", tt.z)
	}
}

func TestProportionZTest(t *testing.T) {
	// p1=0.2 vs p2=0.8 with n=20 each: pooled p = 0.5,
	// se = sqrt(0.25 * 0.1) ~ 0.158, z ~ -3.79, so p = 0.001.
	assert.Equal(t, 0.001, ProportionZTest(20, 0.2, 20, 0.8))

	// Identical proportions are never significant.
	assert.Equal(t, 0.20, ProportionZTest(20, 0.5, 20, 0.5))

	// Degenerate pooled proportions fall back to 1.0.
	assert.Equal(t, 1.0, ProportionZTest(10, 0, 10, 0))
	assert.Equal(t, 1.0, ProportionZTest(10, 1, 10, 1))
}

func TestMannWhitneyU(t *testing.T) {
	// Complete separation with a decent n gives a large |z|.
	low := []float64{1, 1, 2, 2, 3, 3, 3, 4, 4, 4}
	high := []float64{7, 7, 8, 8, 9, 9, 9, 10, 10, 10}
	assert.Equal(t, 0.001, MannWhitneyU(low, high))

	// Identical samples: U1 equals its mean, z = 0.
	same := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 0.20, MannWhitneyU(same, same))

	assert.Equal(t, 1.0, MannWhitneyU(nil, high))
	assert.Equal(t, 1.0, MannWhitneyU(low, nil))
}

func TestMannWhitneyU_TiedRanks(t *testing.T) {
	// All values tied: every rank is the average, U1 = mean, p = 0.20.
	a := []float64{5, 5, 5}
	b := []float64{5, 5, 5}
	assert.Equal(t, 0.20, MannWhitneyU(a, b))
}

func makeScores(condition string, n int, correct, baseRate, ci, accountability, tradeoffs bool, biasCount int) []ResponseScore {
	out := make([]ResponseScore, n)
	for i := range out {
		c := correct
		out[i] = ResponseScore{
			CaseID:                "sunk_cost",
			Condition:             condition,
			RunNumber:             i + 1,
			CorrectRecommendation: &c,
			CitesBaseRate:         baseRate,
			HasConfidenceInterval: ci,
			HasAccountability:     accountability,
			QuantifiesTradeoffs:   tradeoffs,
			BiasCount:             biasCount,
		}
	}
	return out
}

func TestAnalyze(t *testing.T) {
	scores := append(
		makeScores(ConditionNaive, 20, false, false, false, false, false, 0),
		makeScores(ConditionFarness, 20, true, true, true, true, true, 3)...,
	)

	analysis, err := Analyze(scores, 0.05, true)
	require.NoError(t, err)

	assert.Equal(t, 20, analysis.NNaive)
	assert.Equal(t, 20, analysis.NFarness)
	assert.True(t, analysis.BonferroniCorrected)
	require.Len(t, analysis.Tests, 6)

	byMetric := make(map[string]StatisticalTest, len(analysis.Tests))
	for _, test := range analysis.Tests {
		byMetric[test.Metric] = test
	}
	for _, metric := range []string{
		"correct_recommendation", "cites_base_rate", "bias_count",
		"has_confidence_interval", "has_accountability", "quantifies_tradeoffs",
	} {
		require.Contains(t, byMetric, metric)
	}

	correct := byMetric["correct_recommendation"]
	assert.Equal(t, 0.0, correct.NaiveValue)
	assert.Equal(t, 1.0, correct.FarnessValue)
	assert.Equal(t, 0.001, correct.PValue)
	assert.True(t, correct.Significant)

	bias := byMetric["bias_count"]
	assert.Equal(t, "Mann-Whitney U", bias.TestName)
	assert.Equal(t, 0.0, bias.NaiveValue)
	assert.Equal(t, 3.0, bias.FarnessValue)
	assert.True(t, bias.Significant)

	assert.Contains(t, analysis.Summary, "Significant improvements with farness framework:")
	assert.Contains(t, analysis.Summary, "cites_base_rate")
}

func TestAnalyze_BonferroniTightensSecondaryAlpha(t *testing.T) {
	// A modest difference: 4/20 vs 13/20 on base rate citations.
	// z ~ 2.88 gives p = 0.01, significant at 0.05 but not at 0.05/5.
	scores := append(
		makeScores(ConditionNaive, 16, false, false, false, false, false, 0),
		makeScores(ConditionNaive, 4, false, true, false, false, false, 0)...,
	)
	scores = append(scores, makeScores(ConditionFarness, 7, true, false, false, false, false, 0)...)
	scores = append(scores, makeScores(ConditionFarness, 13, true, true, false, false, false, 0)...)

	loose, err := Analyze(scores, 0.05, false)
	require.NoError(t, err)
	strict, err := Analyze(scores, 0.05, true)
	require.NoError(t, err)

	find := func(a *Analysis, metric string) StatisticalTest {
		for _, test := range a.Tests {
			if test.Metric == metric {
				return test
			}
		}
		t.Fatalf("metric %s not found", metric)
		return StatisticalTest{}
	}

	assert.True(t, find(loose, "cites_base_rate").Significant)
	assert.False(t, find(strict, "cites_base_rate").Significant)
}

func TestAnalyze_NoLabels(t *testing.T) {
	scores := []ResponseScore{
		{Condition: ConditionNaive, CitesBaseRate: true},
		{Condition: ConditionFarness, CitesBaseRate: true},
	}
	analysis, err := Analyze(scores, 0.05, true)
	require.NoError(t, err)

	// Without manual labels the correctness test is skipped.
	assert.Len(t, analysis.Tests, 5)
	for _, test := range analysis.Tests {
		assert.NotEqual(t, "correct_recommendation", test.Metric)
	}
	assert.Equal(t, "No significant differences found favoring the farness framework.", analysis.Summary)
}

func TestAnalyze_MissingCondition(t *testing.T) {
	scores := []ResponseScore{{Condition: ConditionNaive}}
	_, err := Analyze(scores, 0.05, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both conditions")
}

func TestWriteTable(t *testing.T) {
	scores := append(
		makeScores(ConditionNaive, 20, false, false, false, false, false, 0),
		makeScores(ConditionFarness, 20, true, true, true, true, true, 3)...,
	)
	analysis, err := Analyze(scores, 0.05, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	analysis.WriteTable(&buf)
	out := buf.String()
	assert.Contains(t, out, "N (naive): 20, N (farness): 20")
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "cites_base_rate")
	assert.Contains(t, out, analysis.Summary)
}
