package experiment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farness/pkg/anthropic"
)

// fakeClient answers prompts from a scripted function and records every
// request it sees.
type fakeClient struct {
	requests []anthropic.MessageRequest
	respond  func(prompt string) (string, error)
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.requests = append(f.requests, req)
	text, err := f.respond(req.Messages[0].Content)
	if err != nil {
		return nil, err
	}
	return &anthropic.MessageResponse{
		Content:  []anthropic.ContentBlock{{Type: "text", Text: text}},
		Duration: 5 * time.Millisecond,
	}, nil
}

func testRunner(f *fakeClient, store *ResultStore) *Runner {
	return NewRunner(f, store, "test-model", 1024, 1.0)
}

func TestRunDecisionExperiment(t *testing.T) {
	c, ok := DecisionCaseByID("sunk_cost")
	require.True(t, ok)

	fake := &fakeClient{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "farness") {
			return "This is sunk cost fallacy. 90% of software projects exceed budget. " +
				"Success odds are 10-30%. Set a review date in 3 months.", nil
		}
		return "Push through, you're almost done.", nil
	}}
	store := newTestResultStore(t)
	runner := testRunner(fake, store)

	trials, scores, err := runner.RunDecisionExperiment(context.Background(),
		[]DecisionCase{c}, Options{TrialsPerCondition: 1})
	require.NoError(t, err)
	require.Len(t, trials, 2)
	require.Len(t, scores, 2)
	assert.Len(t, fake.requests, 2)

	byCondition := map[string]ResponseScore{}
	for _, s := range scores {
		byCondition[s.Condition] = s
	}
	assert.True(t, byCondition[ConditionFarness].CitesBaseRate)
	assert.True(t, byCondition[ConditionFarness].HasConfidenceInterval)
	assert.True(t, byCondition[ConditionFarness].HasAccountability)
	assert.False(t, byCondition[ConditionNaive].CitesBaseRate)

	// Persisted alongside the in-memory results.
	stored, err := store.ListTrials(context.Background(), ExperimentDecision)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	storedScores, err := store.ListScores(context.Background())
	require.NoError(t, err)
	assert.Len(t, storedScores, 2)
}

func TestRunDecisionExperiment_NilStore(t *testing.T) {
	c, ok := DecisionCaseByID("sunk_cost")
	require.True(t, ok)

	fake := &fakeClient{respond: func(string) (string, error) { return "Kill it.", nil }}
	runner := testRunner(fake, nil)

	trials, scores, err := runner.RunDecisionExperiment(context.Background(),
		[]DecisionCase{c}, Options{})
	require.NoError(t, err)
	assert.Len(t, trials, 2)
	assert.Len(t, scores, 2)
}

func TestRunDecisionExperiment_NoCases(t *testing.T) {
	runner := testRunner(&fakeClient{}, nil)
	_, _, err := runner.RunDecisionExperiment(context.Background(), nil, Options{})
	require.Error(t, err)
}

func TestRunDecisionExperiment_ClientError(t *testing.T) {
	c, ok := DecisionCaseByID("sunk_cost")
	require.True(t, ok)

	calls := 0
	fake := &fakeClient{respond: func(string) (string, error) {
		calls++
		if calls == 2 {
			return "", assert.AnError
		}
		return "Fine.", nil
	}}
	runner := testRunner(fake, nil)

	trials, _, err := runner.RunDecisionExperiment(context.Background(),
		[]DecisionCase{c}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trial 2/2")
	// Partial results survive the failure.
	assert.Len(t, trials, 1)
}

func TestShuffledTrials_DeterministicSeed(t *testing.T) {
	opts := Options{TrialsPerCondition: 3, Seed: 42, RandomizeOrder: true}
	a := shuffledTrials(4, opts)
	b := shuffledTrials(4, opts)
	require.Len(t, a, 24) // 4 cases x 2 conditions x 3 runs
	assert.Equal(t, a, b)

	c := shuffledTrials(4, Options{TrialsPerCondition: 3, Seed: 7, RandomizeOrder: true})
	assert.NotEqual(t, a, c)
}

func TestRunStabilityExperiment(t *testing.T) {
	c, ok := StabilityCaseByID("sunk_cost_project")
	require.True(t, ok)

	fake := &fakeClient{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "revised estimate") {
			return "Revised estimate: 20% (CI: 10-30%)", nil
		}
		return "My estimate is 40% with an interval of 25-55%.", nil
	}}
	store := newTestResultStore(t)
	runner := testRunner(fake, store)

	results, err := runner.RunStabilityExperiment(context.Background(),
		[]QuantitativeCase{c}, Options{TrialsPerCondition: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Two phases per condition.
	assert.Len(t, fake.requests, 4)

	for _, result := range results {
		assert.Equal(t, "sunk_cost_project", result.CaseID)
		assert.InDelta(t, 40, result.InitialEstimate, 1e-9)
		require.NotNil(t, result.InitialCILow)
		assert.InDelta(t, 25, *result.InitialCILow, 1e-9)
		assert.InDelta(t, 20, result.FinalEstimate, 1e-9)
		require.NotNil(t, result.FinalCIHigh)
		assert.InDelta(t, 30, *result.FinalCIHigh, 1e-9)
	}

	stored, err := store.ListStabilityResults(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRunStabilityExperiment_SkipsUnparseableResponses(t *testing.T) {
	c, ok := StabilityCaseByID("sunk_cost_project")
	require.True(t, ok)

	fake := &fakeClient{respond: func(string) (string, error) {
		return "I cannot put a number on this.", nil
	}}
	runner := testRunner(fake, nil)

	results, err := runner.RunStabilityExperiment(context.Background(),
		[]QuantitativeCase{c}, Options{TrialsPerCondition: 1})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunReframingExperiment(t *testing.T) {
	c, ok := ReframingCaseByID("grad_school")
	require.True(t, ok)

	fake := &fakeClient{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "farness") {
			return "KPI: post-MBA salary increase and tuition cost recovery.", nil
		}
		return "Step back. What career do you actually want? That's the real question.", nil
	}}
	store := newTestResultStore(t)
	runner := testRunner(fake, store)

	results, err := runner.RunReframingExperiment(context.Background(),
		[]ReframingCase{c}, Options{TrialsPerCondition: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byCondition := map[string]ReframingResult{}
	for _, r := range results {
		byCondition[r.Condition] = r
	}
	naive := byCondition[ConditionNaive]
	assert.GreaterOrEqual(t, naive.ReframeCount, 3)
	assert.True(t, naive.ChallengedFraming)
	farness := byCondition[ConditionFarness]
	assert.Zero(t, farness.ReframeCount)
	assert.False(t, farness.IntroducedNewKPIs)

	stored, err := store.ListReframingResults(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	trials, err := store.ListTrials(context.Background(), ExperimentReframing)
	require.NoError(t, err)
	assert.Len(t, trials, 2)
}
