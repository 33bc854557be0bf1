package experiment

import (
	"regexp"
	"strings"
)

// ResponseScore holds rubric metrics for a single response.
type ResponseScore struct {
	CaseID    string `json:"case_id"`
	Condition string `json:"condition"`
	RunNumber int    `json:"run_number"`

	// Requires manual judgment, nil until labeled.
	CorrectRecommendation *bool `json:"correct_recommendation"`

	CitesBaseRate bool     `json:"cites_base_rate"`
	BiasCount     int      `json:"bias_count"`
	BiasesFound   []string `json:"biases_found"`

	HasConfidenceInterval bool `json:"has_confidence_interval"`
	HasAccountability     bool `json:"has_accountability"`
	QuantifiesTradeoffs   bool `json:"quantifies_tradeoffs"`

	ResponseText string `json:"response_text"`
}

var ciPatterns = []string{
	`\d+\s*[-–—]\s*\d+`,
	`\d+%?\s*to\s*\d+%?`,
	`±\s*\d+`,
	`\(\s*\d+\s*,\s*\d+\s*\)`,
	`\[\s*\d+\s*,\s*\d+\s*\]`,
	`confidence interval`,
	`\d+%\s+CI`,
	`between\s+\d+\s+and\s+\d+`,
}

var accountabilityPatterns = []string{
	`review\s+(date|in|after|at)`,
	`follow[- ]?up`,
	`following\s+up`,
	`check\s+(back|in|again)`,
	`measure\s+(after|in|at|results)`,
	`track\s+(the|this|whether)`,
	`score\s+(against|this|the)`,
	`revisit\s+(in|after|this)`,
	`\d+\s+(months?|weeks?|days?)\s+(from|after|later|to)`,
	`accountability`,
	`calibrat`,
}

var tradeoffPatterns = []string{
	`expected\s+value`,
	`\d+%?\s+(vs\.?|versus|compared to)\s+\d+%?`,
	`option\s+[AB12]\s*[=:]\s*\d+`,
	`probability\s+of\s+\d+%`,
	`weighted\s+(average|sum|score)`,
	`score[sd]?\s+(of\s+)?\d+`,
	`NPV|ROI|IRR`,
	`\$[\d,]+\s+(vs\.?|versus|compared to)\s+\$[\d,]+`,
}

var (
	ciRegex             = regexp.MustCompile(`(?i)` + strings.Join(ciPatterns, "|"))
	accountabilityRegex = regexp.MustCompile(`(?i)` + strings.Join(accountabilityPatterns, "|"))
	tradeoffRegex       = regexp.MustCompile(`(?i)` + strings.Join(tradeoffPatterns, "|"))
	numberRegex         = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

var baseRateIndicators = []string{
	"base rate",
	"research shows",
	"studies show",
	"meta-analysis",
	"on average",
	"typically",
	"% of",
	"percent of",
	"reference class",
	"outside view",
}

// Scorer scores responses against the rubric for one decision case.
type Scorer struct {
	c DecisionCase
}

// NewScorer returns a scorer for the given case.
func NewScorer(c DecisionCase) *Scorer {
	return &Scorer{c: c}
}

// Score evaluates a response against the rubric.
func (s *Scorer) Score(responseText, condition string, runNumber int) ResponseScore {
	textLower := strings.ToLower(responseText)
	biases := s.findBiases(textLower)

	return ResponseScore{
		CaseID:                s.c.ID,
		Condition:             condition,
		RunNumber:             runNumber,
		CitesBaseRate:         s.citesBaseRate(textLower),
		BiasCount:             len(biases),
		BiasesFound:           biases,
		HasConfidenceInterval: ciRegex.MatchString(responseText),
		HasAccountability:     accountabilityRegex.MatchString(responseText),
		QuantifiesTradeoffs:   tradeoffRegex.MatchString(responseText),
		ResponseText:          responseText,
	}
}

func (s *Scorer) citesBaseRate(textLower string) bool {
	for _, baseRate := range s.c.RelevantBaseRates {
		for _, num := range numberRegex.FindAllString(baseRate, -1) {
			if strings.Contains(textLower, num) {
				return true
			}
		}
		// First few words of the base rate statement also count.
		terms := strings.Fields(strings.ToLower(baseRate))
		if len(terms) > 3 {
			terms = terms[:3]
		}
		allFound := true
		for _, term := range terms {
			if len(term) > 3 && !strings.Contains(textLower, term) {
				allFound = false
				break
			}
		}
		if allFound && len(terms) > 0 {
			return true
		}
	}
	for _, indicator := range baseRateIndicators {
		if strings.Contains(textLower, indicator) {
			return true
		}
	}
	return false
}

func (s *Scorer) findBiases(textLower string) []string {
	var found []string
	for _, bias := range s.c.KeyBiases {
		normalized := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(bias))
		if strings.Contains(textLower, normalized) {
			found = append(found, bias)
			continue
		}
		for _, part := range strings.Fields(normalized) {
			if len(part) > 4 && strings.Contains(textLower, part) {
				found = append(found, bias)
				break
			}
		}
	}
	return found
}

// ConditionStats summarizes one condition's scores.
type ConditionStats struct {
	N                    int      `json:"n"`
	CorrectRate          *float64 `json:"correct_rate"`
	BaseRateCitationRate float64  `json:"base_rate_citation_rate"`
	MeanBiasCount        float64  `json:"mean_bias_count"`
	CIRate               float64  `json:"ci_rate"`
	AccountabilityRate   float64  `json:"accountability_rate"`
	TradeoffRate         float64  `json:"tradeoff_rate"`
}

// AggregateScores computes per-condition summary statistics.
func AggregateScores(scores []ResponseScore) map[string]ConditionStats {
	out := make(map[string]ConditionStats, len(Conditions))
	for _, condition := range Conditions {
		var group []ResponseScore
		for _, s := range scores {
			if s.Condition == condition {
				group = append(group, s)
			}
		}
		if len(group) == 0 {
			continue
		}
		out[condition] = summarizeCondition(group)
	}
	return out
}

func summarizeCondition(group []ResponseScore) ConditionStats {
	n := len(group)
	stats := ConditionStats{N: n}

	correctKnown, correctCount := 0, 0
	for _, s := range group {
		if s.CorrectRecommendation != nil {
			correctKnown++
			if *s.CorrectRecommendation {
				correctCount++
			}
		}
		if s.CitesBaseRate {
			stats.BaseRateCitationRate++
		}
		stats.MeanBiasCount += float64(s.BiasCount)
		if s.HasConfidenceInterval {
			stats.CIRate++
		}
		if s.HasAccountability {
			stats.AccountabilityRate++
		}
		if s.QuantifiesTradeoffs {
			stats.TradeoffRate++
		}
	}

	fn := float64(n)
	stats.BaseRateCitationRate /= fn
	stats.MeanBiasCount /= fn
	stats.CIRate /= fn
	stats.AccountabilityRate /= fn
	stats.TradeoffRate /= fn
	if correctKnown > 0 {
		rate := float64(correctCount) / float64(correctKnown)
		stats.CorrectRate = &rate
	}
	return stats
}
