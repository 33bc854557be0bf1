package experiment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// QuantitativeCase is a scenario with a numeric estimate to probe. After the
// initial estimate, the probes present disconfirming information and the
// revised estimate shows how far the first answer moved.
type QuantitativeCase struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`

	Scenario         string `yaml:"scenario"`
	EstimateQuestion string `yaml:"estimate_question"`
	EstimateUnit     string `yaml:"estimate_unit"`

	Probes []string `yaml:"probes"`

	// "up", "down", or "neutral"
	ExpectedUpdateDirection string `yaml:"expected_update_direction"`
}

// StabilityCases returns the built-in quantitative case set.
func StabilityCases() []QuantitativeCase {
	out := make([]QuantitativeCase, len(stabilityCases))
	copy(out, stabilityCases)
	return out
}

// StabilityCaseByID returns the case with the given id, or false.
func StabilityCaseByID(id string) (QuantitativeCase, bool) {
	for _, c := range stabilityCases {
		if c.ID == id {
			return c, true
		}
	}
	return QuantitativeCase{}, false
}

var stabilityCases = []QuantitativeCase{
	{
		ID:               "planning_estimate",
		Name:             "Software Project Timeline",
		Domain:           "planning",
		Scenario:         "A software team estimates a feature will take 2 weeks. They're confident and have detailed task breakdowns.",
		EstimateQuestion: "What's your estimate (in weeks) for how long this feature will actually take?",
		EstimateUnit:     "weeks",
		Probes: []string{
			"Research shows software projects average 2-3x their initial estimates. Does this change your estimate?",
			"The team's 'confidence' is actually a warning sign for planning fallacy, not reassurance. Does this change your estimate?",
			"What if there's a 30% chance of a major blocker (integration issue, unclear requirements)?",
		},
		ExpectedUpdateDirection: "up",
	},
	{
		ID:               "sunk_cost_project",
		Name:             "Troubled Project Success Probability",
		Domain:           "risk",
		Scenario:         "A software project has consumed $2M and 18 months. It's behind schedule, over budget, and the team is demoralized. Leadership says they're \"almost there\" and need another $500K and 3 months to finish.",
		EstimateQuestion: "What probability (0-100%) do you assign to this project successfully launching within the proposed $500K and 3 months?",
		EstimateUnit:     "%",
		Probes: []string{
			"Only 16% of already-troubled projects meet their REVISED budget estimates. Does this change your estimate?",
			"The team lead privately told me two senior engineers are interviewing elsewhere.",
			"The 'almost there' claim is based on features complete, but integration testing hasn't started yet.",
		},
		ExpectedUpdateDirection: "down",
	},
	{
		ID:               "startup_success",
		Name:             "Startup Pivot Decision",
		Domain:           "risk",
		Scenario:         "A startup has been trying to get traction for 18 months. They have some users (500 MAU) but growth is flat. The team believes in the vision and has ideas to try. They're considering whether to persist or pivot.",
		EstimateQuestion: "What probability (0-100%) do you assign to this startup reaching 10,000 MAU within 12 months if they persist with current approach?",
		EstimateUnit:     "%",
		Probes: []string{
			"Base rate: startups with flat growth for 18 months rarely inflect without major changes. Only ~5% see sudden organic growth.",
			"The founders have already tried 3 different marketing channels with similar results.",
			"A competitor just raised $10M and is targeting the same market.",
		},
		ExpectedUpdateDirection: "down",
	},
	{
		ID:               "hiring_success",
		Name:             "Candidate Success Prediction",
		Domain:           "hiring",
		Scenario:         "You're hiring for a senior engineer role. Candidate A had great chemistry in the interview - reminded you of your best performer. Candidate B was more reserved but scored higher on the technical assessment.",
		EstimateQuestion: "What probability (0-100%) do you assign to Candidate A being a top performer (top 25%) at the 1-year mark?",
		EstimateUnit:     "%",
		Probes: []string{
			"Research shows unstructured interview impressions correlate only r=0.14 with job performance. Does this change your estimate?",
			"'Reminded me of our best performer' is textbook similarity bias, not a valid predictor.",
			"The technical assessment has r=0.51 correlation with job performance - 4x better than interview chemistry.",
		},
		ExpectedUpdateDirection: "down",
	},
	{
		ID:               "acquisition_synergies",
		Name:             "M&A Synergy Realization",
		Domain:           "investment",
		Scenario:         "Your company is considering acquiring a competitor. The deal team projects $50M in annual synergies from the combination - cost savings from eliminating duplicate functions and revenue synergies from cross-selling.",
		EstimateQuestion: "What probability (0-100%) do you assign to realizing at least 50% of the projected synergies ($25M) within 2 years?",
		EstimateUnit:     "%",
		Probes: []string{
			"Research shows acquirers realize only 50% of projected synergies on average, with high variance.",
			"60-80% of M&A deals fail to create value for the acquirer.",
			"Your CEO is personally excited about this deal and has been championing it to the board.",
		},
		ExpectedUpdateDirection: "down",
	},
	{
		ID:               "product_launch",
		Name:             "Product Launch Success",
		Domain:           "product",
		Scenario:         "Your team is launching a new product feature. Internal testing went well, the team is excited, and early beta users gave positive feedback (NPS of 45). You're planning a full launch next month.",
		EstimateQuestion: "What probability (0-100%) do you assign to this feature increasing overall product engagement by at least 10% within 3 months of launch?",
		EstimateUnit:     "%",
		Probes: []string{
			"Base rate: only 20-30% of new features meaningfully move engagement metrics.",
			"Beta users are self-selected enthusiasts - they're not representative of your general user base.",
			"The team that built this feature is also measuring its success - potential bias in metrics.",
		},
		ExpectedUpdateDirection: "down",
	},
	{
		ID:               "deadline_estimate",
		Name:             "Regulatory Deadline Compliance",
		Domain:           "planning",
		Scenario:         "Your company must comply with new regulations by a deadline in 6 months. Your compliance team estimates the work will take 4 months, leaving a 2-month buffer. They've created a detailed project plan.",
		EstimateQuestion: "What probability (0-100%) do you assign to completing compliance work before the 6-month deadline?",
		EstimateUnit:     "%",
		Probes: []string{
			"Regulatory compliance projects have a 40% on-time completion rate according to industry surveys.",
			"Your compliance team has never done this specific type of work before.",
			"The regulations are still being finalized and may change in the next 2 months.",
		},
		ExpectedUpdateDirection: "down",
	},
	{
		ID:               "investment_return",
		Name:             "Investment Return Expectation",
		Domain:           "investment",
		Scenario:         "A friend who works at a fast-growing tech startup says their company will likely IPO next year. They're offering you a chance to invest $50K at what they say is a 'friends and family' discount valuation.",
		EstimateQuestion: "What probability (0-100%) do you assign to this investment returning at least 2x within 3 years?",
		EstimateUnit:     "%",
		Probes: []string{
			"Base rate: ~90% of startup investments return less than 1x. Only ~5% return 2x+.",
			"'Friends and family' rounds often don't actually offer meaningful discounts to fair value.",
			"The person offering has strong incentive to get you to invest (may affect their own terms).",
		},
		ExpectedUpdateDirection: "down",
	},
}

// StabilityResult captures the initial and probed estimates for one trial.
type StabilityResult struct {
	CaseID    string `json:"case_id"`
	Condition string `json:"condition"`

	InitialEstimate     float64  `json:"initial_estimate"`
	InitialCILow        *float64 `json:"initial_ci_low"`
	InitialCIHigh       *float64 `json:"initial_ci_high"`
	InitialResponseText string   `json:"initial_response_text"`

	FinalEstimate     float64  `json:"final_estimate"`
	FinalCILow        *float64 `json:"final_ci_low"`
	FinalCIHigh       *float64 `json:"final_ci_high"`
	FinalResponseText string   `json:"final_response_text"`
}

// UpdateMagnitude is the absolute change in estimate.
func (r StabilityResult) UpdateMagnitude() float64 {
	d := r.FinalEstimate - r.InitialEstimate
	if d < 0 {
		return -d
	}
	return d
}

// UpdateDirection is "up", "down", or "neutral".
func (r StabilityResult) UpdateDirection() string {
	switch {
	case r.FinalEstimate > r.InitialEstimate:
		return "up"
	case r.FinalEstimate < r.InitialEstimate:
		return "down"
	default:
		return "neutral"
	}
}

// RelativeUpdate is the update magnitude as a fraction of the initial
// estimate. The second return is false when the initial estimate is zero.
func (r StabilityResult) RelativeUpdate() (float64, bool) {
	if r.InitialEstimate == 0 {
		return 0, false
	}
	abs := r.InitialEstimate
	if abs < 0 {
		abs = -abs
	}
	return r.UpdateMagnitude() / abs, true
}

// HadInitialCI reports whether the first response included an interval.
func (r StabilityResult) HadInitialCI() bool {
	return r.InitialCILow != nil && r.InitialCIHigh != nil
}

var estimatePatterns = []string{
	`(?i)(\d+\.?\d*)\s*%s`,
	`(?i)%s\s*(\d+\.?\d*)`,
	`(?im)(?:estimate|prediction|forecast)[:\s]+(\d+\.?\d*)`,
	`(?im)(?:point estimate)[:\s]+(\d+\.?\d*)`,
	`(?im)\*\*(\d+\.?\d*)\*\*`,
	`(?m)^(\d+\.?\d*)$`,
}

var anyNumberRegex = regexp.MustCompile(`\b(\d+\.?\d*)\b`)

// ExtractEstimate pulls the numeric estimate out of a free-text response.
// The unit anchors the first patterns ("4 weeks", "15%"); without a match
// the first standalone number wins.
func ExtractEstimate(text, unit string) (float64, bool) {
	quoted := regexp.QuoteMeta(unit)
	for _, pattern := range estimatePatterns {
		p := pattern
		if strings.Contains(pattern, "%s") {
			p = fmt.Sprintf(pattern, quoted)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v, true
			}
		}
	}
	if m := anyNumberRegex.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

var ciExtractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+\.?\d*)%?\s*[-–—]\s*(\d+\.?\d*)%?`),
	regexp.MustCompile(`(?i)(\d+\.?\d*)%?\s+to\s+(\d+\.?\d*)%?`),
	regexp.MustCompile(`(?i)between\s+(\d+\.?\d*)%?\s+(?:and|to)\s+(\d+\.?\d*)%?`),
	regexp.MustCompile(`(?i)CI[:\s]+(\d+\.?\d*)\s*[-–—,]\s*(\d+\.?\d*)`),
	regexp.MustCompile(`\[(\d+\.?\d*)\s*,\s*(\d+\.?\d*)\]`),
	regexp.MustCompile(`\((\d+\.?\d*)\s*,\s*(\d+\.?\d*)\)`),
}

// ExtractCI pulls a confidence interval out of a free-text response.
// Reversed bounds are swapped.
func ExtractCI(text string) (low, high float64, ok bool) {
	for _, re := range ciExtractPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		a, err1 := strconv.ParseFloat(m[1], 64)
		b, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if a <= b {
			return a, b, true
		}
		return b, a, true
	}
	return 0, 0, false
}

// StabilityGroupStats summarizes one condition in the stability experiment.
type StabilityGroupStats struct {
	MeanUpdateMagnitude  *float64 `json:"mean_update_magnitude"`
	MeanRelativeUpdate   *float64 `json:"mean_relative_update"`
	InitialCIRate        *float64 `json:"initial_ci_rate"`
	CorrectDirectionRate *float64 `json:"correct_direction_rate"`
}

// ConvergencePair records how far a probed naive estimate moved toward the
// farness condition's initial estimate for the same case.
type ConvergencePair struct {
	CaseID           string  `json:"case_id"`
	InitialGap       float64 `json:"initial_gap"`
	FinalGap         float64 `json:"final_gap"`
	ConvergenceRatio float64 `json:"convergence_ratio"`
}

// ConvergenceAnalysis aggregates the convergence pairs.
type ConvergenceAnalysis struct {
	MeanConvergenceRatio float64           `json:"mean_convergence_ratio"`
	Interpretation       string            `json:"interpretation"`
	Details              []ConvergencePair `json:"details"`
}

// StabilityAnalysis is the full stability experiment summary.
type StabilityAnalysis struct {
	NNaive      int                  `json:"n_naive"`
	NFarness    int                  `json:"n_farness"`
	Naive       StabilityGroupStats  `json:"naive"`
	Farness     StabilityGroupStats  `json:"farness"`
	Convergence *ConvergenceAnalysis `json:"convergence,omitempty"`
}

// AnalyzeStability summarizes results per condition and measures whether
// probed naive estimates converge toward initial farness estimates.
func AnalyzeStability(results []StabilityResult, cases []QuantitativeCase) *StabilityAnalysis {
	var naive, farness []StabilityResult
	for _, r := range results {
		switch r.Condition {
		case ConditionNaive:
			naive = append(naive, r)
		case ConditionFarness:
			farness = append(farness, r)
		}
	}

	caseByID := make(map[string]QuantitativeCase, len(cases))
	for _, c := range cases {
		caseByID[c.ID] = c
	}

	return &StabilityAnalysis{
		NNaive:      len(naive),
		NFarness:    len(farness),
		Naive:       groupStats(naive, caseByID),
		Farness:     groupStats(farness, caseByID),
		Convergence: measureConvergence(naive, farness, cases),
	}
}

func groupStats(results []StabilityResult, caseByID map[string]QuantitativeCase) StabilityGroupStats {
	var stats StabilityGroupStats
	if len(results) == 0 {
		return stats
	}

	n := float64(len(results))
	magnitudeSum := 0.0
	relSum, relCount := 0.0, 0
	ciCount := 0
	directionCorrect, directionTotal := 0, 0

	for _, r := range results {
		magnitudeSum += r.UpdateMagnitude()
		if rel, ok := r.RelativeUpdate(); ok {
			relSum += rel
			relCount++
		}
		if r.HadInitialCI() {
			ciCount++
		}
		if c, ok := caseByID[r.CaseID]; ok && c.ExpectedUpdateDirection != "neutral" {
			directionTotal++
			if r.UpdateDirection() == c.ExpectedUpdateDirection {
				directionCorrect++
			}
		}
	}

	magnitude := magnitudeSum / n
	stats.MeanUpdateMagnitude = &magnitude
	if relCount > 0 {
		rel := relSum / float64(relCount)
		stats.MeanRelativeUpdate = &rel
	}
	ciRate := float64(ciCount) / n
	stats.InitialCIRate = &ciRate
	if directionTotal > 0 {
		rate := float64(directionCorrect) / float64(directionTotal)
		stats.CorrectDirectionRate = &rate
	}
	return stats
}

func measureConvergence(naive, farness []StabilityResult, cases []QuantitativeCase) *ConvergenceAnalysis {
	var pairs []ConvergencePair
	for _, c := range cases {
		for _, nr := range naive {
			if nr.CaseID != c.ID {
				continue
			}
			for _, fr := range farness {
				if fr.CaseID != c.ID {
					continue
				}
				initialGap := abs(nr.InitialEstimate - fr.InitialEstimate)
				finalGap := abs(nr.FinalEstimate - fr.InitialEstimate)
				if initialGap == 0 {
					continue
				}
				pairs = append(pairs, ConvergencePair{
					CaseID:           c.ID,
					InitialGap:       initialGap,
					FinalGap:         finalGap,
					ConvergenceRatio: 1 - finalGap/initialGap,
				})
			}
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	sum := 0.0
	for _, p := range pairs {
		sum += p.ConvergenceRatio
	}
	mean := sum / float64(len(pairs))
	interpretation := "Limited convergence observed"
	if mean > 0.3 {
		interpretation = "Naive responses converged toward farness initial estimates"
	}
	return &ConvergenceAnalysis{
		MeanConvergenceRatio: mean,
		Interpretation:       interpretation,
		Details:              pairs,
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
