package experiment

import (
	"context"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"farness/pkg/anthropic"
)

// Runner drives experiment trials through an Anthropic client and records
// results. The store may be nil, in which case nothing is persisted.
type Runner struct {
	client      anthropic.Client
	store       *ResultStore
	model       string
	maxTokens   int64
	temperature float64
}

// NewRunner returns a runner using the given client and model settings.
func NewRunner(client anthropic.Client, store *ResultStore, model string, maxTokens int64, temperature float64) *Runner {
	return &Runner{
		client:      client,
		store:       store,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Options configures an experiment run. Seed drives the trial shuffle so a
// run can be reproduced exactly.
type Options struct {
	TrialsPerCondition int
	Seed               int64
	RandomizeOrder     bool
}

func (o Options) trials() int {
	if o.TrialsPerCondition <= 0 {
		return 1
	}
	return o.TrialsPerCondition
}

func (r *Runner) prompt(ctx context.Context, prompt string) (string, time.Duration, error) {
	temp := r.temperature
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		Temperature: &temp,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", 0, err
	}
	return resp.Text(), resp.Duration, nil
}

type trialSpec struct {
	caseIndex int
	condition string
	runNumber int
}

func shuffledTrials(nCases int, opts Options) []trialSpec {
	var specs []trialSpec
	for i := 0; i < nCases; i++ {
		for _, condition := range Conditions {
			for run := 1; run <= opts.trials(); run++ {
				specs = append(specs, trialSpec{caseIndex: i, condition: condition, runNumber: run})
			}
		}
	}
	if opts.RandomizeOrder {
		rng := rand.New(rand.NewSource(opts.Seed))
		rng.Shuffle(len(specs), func(i, j int) {
			specs[i], specs[j] = specs[j], specs[i]
		})
	}
	return specs
}

// RunDecisionExperiment runs every case under both conditions and scores
// each response against the rubric.
func (r *Runner) RunDecisionExperiment(ctx context.Context, cases []DecisionCase, opts Options) ([]Trial, []ResponseScore, error) {
	if len(cases) == 0 {
		return nil, nil, eris.New("experiment: no cases to run")
	}

	specs := shuffledTrials(len(cases), opts)
	zap.L().Info("starting decision experiment",
		zap.Int("cases", len(cases)),
		zap.Int("trials", len(specs)),
		zap.Int64("seed", opts.Seed),
	)

	var trials []Trial
	var scores []ResponseScore
	for i, spec := range specs {
		c := cases[spec.caseIndex]
		prompt := DecisionPrompt(c, spec.condition)

		response, duration, err := r.prompt(ctx, prompt)
		if err != nil {
			return trials, scores, eris.Wrapf(err, "experiment: trial %d/%d (%s, %s)",
				i+1, len(specs), c.ID, spec.condition)
		}

		trial := Trial{
			Experiment: ExperimentDecision,
			CaseID:     c.ID,
			Condition:  spec.condition,
			RunNumber:  spec.runNumber,
			Prompt:     prompt,
			Response:   response,
			Duration:   duration,
			CreatedAt:  time.Now().UTC(),
		}
		score := NewScorer(c).Score(response, spec.condition, spec.runNumber)

		if r.store != nil {
			trialID, err := r.store.SaveTrial(ctx, trial)
			if err != nil {
				return trials, scores, err
			}
			trial.ID = trialID
			if err := r.store.SaveScore(ctx, trialID, score); err != nil {
				return trials, scores, err
			}
		}

		trials = append(trials, trial)
		scores = append(scores, score)

		zap.L().Debug("trial complete",
			zap.Int("n", i+1),
			zap.Int("total", len(specs)),
			zap.String("case", c.ID),
			zap.String("condition", spec.condition),
			zap.Duration("duration", duration),
		)
	}
	return trials, scores, nil
}

// RunStabilityExperiment runs the two-phase estimate-then-probe protocol
// for every case under both conditions. Condition order is shuffled per
// case when RandomizeOrder is set.
func (r *Runner) RunStabilityExperiment(ctx context.Context, cases []QuantitativeCase, opts Options) ([]StabilityResult, error) {
	if len(cases) == 0 {
		return nil, eris.New("experiment: no cases to run")
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	zap.L().Info("starting stability experiment",
		zap.Int("cases", len(cases)),
		zap.Int64("seed", opts.Seed),
	)

	var results []StabilityResult
	for _, c := range cases {
		for run := 1; run <= opts.trials(); run++ {
			conditions := append([]string(nil), Conditions...)
			if opts.RandomizeOrder {
				rng.Shuffle(len(conditions), func(i, j int) {
					conditions[i], conditions[j] = conditions[j], conditions[i]
				})
			}
			for _, condition := range conditions {
				result, err := r.runStabilityTrial(ctx, c, condition)
				if err != nil {
					zap.L().Warn("stability trial failed",
						zap.String("case", c.ID),
						zap.String("condition", condition),
						zap.Error(err),
					)
					continue
				}
				if r.store != nil {
					if err := r.store.SaveStabilityResult(ctx, result); err != nil {
						return results, err
					}
				}
				results = append(results, result)
			}
		}
	}
	return results, nil
}

func (r *Runner) runStabilityTrial(ctx context.Context, c QuantitativeCase, condition string) (StabilityResult, error) {
	initialResponse, _, err := r.prompt(ctx, EstimatePrompt(c, condition))
	if err != nil {
		return StabilityResult{}, eris.Wrap(err, "experiment: initial prompt")
	}

	initialEstimate, ok := ExtractEstimate(initialResponse, c.EstimateUnit)
	if !ok {
		return StabilityResult{}, eris.Errorf("experiment: no estimate found in initial response for %s", c.ID)
	}
	result := StabilityResult{
		CaseID:              c.ID,
		Condition:           condition,
		InitialEstimate:     initialEstimate,
		InitialResponseText: initialResponse,
	}
	var initialCI *[2]float64
	if low, high, ok := ExtractCI(initialResponse); ok {
		result.InitialCILow = &low
		result.InitialCIHigh = &high
		initialCI = &[2]float64{low, high}
	}

	finalResponse, _, err := r.prompt(ctx, ProbePrompt(c, condition, initialEstimate, initialCI))
	if err != nil {
		return StabilityResult{}, eris.Wrap(err, "experiment: probe prompt")
	}

	finalEstimate, ok := ExtractEstimate(finalResponse, c.EstimateUnit)
	if !ok {
		return StabilityResult{}, eris.Errorf("experiment: no estimate found in probed response for %s", c.ID)
	}
	result.FinalEstimate = finalEstimate
	result.FinalResponseText = finalResponse
	if low, high, ok := ExtractCI(finalResponse); ok {
		result.FinalCILow = &low
		result.FinalCIHigh = &high
	}
	return result, nil
}

// RunReframingExperiment runs every reframing case under both conditions
// and scores each response for reframing behavior.
func (r *Runner) RunReframingExperiment(ctx context.Context, cases []ReframingCase, opts Options) ([]ReframingResult, error) {
	if len(cases) == 0 {
		return nil, eris.New("experiment: no cases to run")
	}

	zap.L().Info("starting reframing experiment",
		zap.Int("cases", len(cases)),
		zap.Int64("seed", opts.Seed),
	)

	var results []ReframingResult
	for _, c := range cases {
		for _, condition := range Conditions {
			for run := 1; run <= opts.trials(); run++ {
				prompt := AdvisorPrompt(c, condition)
				response, duration, err := r.prompt(ctx, prompt)
				if err != nil {
					return results, eris.Wrapf(err, "experiment: reframing trial (%s, %s)", c.ID, condition)
				}

				count, matches, newKPIs, challenged := ScoreReframing(response, c)
				result := ReframingResult{
					CaseID:            c.ID,
					Condition:         condition,
					RunNumber:         run,
					ReframeCount:      count,
					ReframeMatches:    matches,
					IntroducedNewKPIs: newKPIs,
					ChallengedFraming: challenged,
					ResponseText:      response,
				}
				if r.store != nil {
					if err := r.store.SaveReframingResult(ctx, result); err != nil {
						return results, err
					}
					if _, err := r.store.SaveTrial(ctx, Trial{
						Experiment: ExperimentReframing,
						CaseID:     c.ID,
						Condition:  condition,
						RunNumber:  run,
						Prompt:     prompt,
						Response:   response,
						Duration:   duration,
						CreatedAt:  time.Now().UTC(),
					}); err != nil {
						return results, err
					}
				}
				results = append(results, result)
			}
		}
	}
	return results, nil
}
