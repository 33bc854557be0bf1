// Package experiment evaluates whether the structured forecasting workflow
// improves decision advice. It runs paired trials against the Anthropic API,
// scores responses with a fixed rubric, and compares conditions statistically.
package experiment

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Experimental conditions.
const (
	ConditionNaive   = "naive"
	ConditionFarness = "farness"
)

// Conditions lists both conditions in canonical order.
var Conditions = []string{ConditionNaive, ConditionFarness}

// DecisionCase is a decision scenario with a research-backed correct answer.
type DecisionCase struct {
	ID                    string   `yaml:"id"`
	Name                  string   `yaml:"name"`
	Scenario              string   `yaml:"scenario"`
	CorrectRecommendation string   `yaml:"correct_recommendation"`
	ResearchBasis         string   `yaml:"research_basis"`
	KeyBiases             []string `yaml:"key_biases"`
	RelevantBaseRates     []string `yaml:"relevant_base_rates"`
}

// DecisionCases returns the built-in case set.
func DecisionCases() []DecisionCase {
	out := make([]DecisionCase, len(decisionCases))
	copy(out, decisionCases)
	return out
}

// DecisionCaseByID returns the case with the given id, or false.
func DecisionCaseByID(id string) (DecisionCase, bool) {
	for _, c := range decisionCases {
		if c.ID == id {
			return c, true
		}
	}
	return DecisionCase{}, false
}

// LoadDecisionCases reads a YAML case pack from path. The file holds a list
// of cases in the same shape as the built-in set.
func LoadDecisionCases(path string) ([]DecisionCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "experiment: read case pack %s", path)
	}
	var cases []DecisionCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, eris.Wrapf(err, "experiment: parse case pack %s", path)
	}
	for _, c := range cases {
		if c.ID == "" || c.Scenario == "" {
			return nil, eris.Errorf("experiment: case pack %s: every case needs an id and a scenario", path)
		}
	}
	return cases, nil
}

var decisionCases = []DecisionCase{
	{
		ID:       "hiring_chemistry",
		Name:     "Hiring: Chemistry vs Test Scores",
		Scenario: "I'm a hiring manager. I really liked candidate A in our conversation - great chemistry, they reminded me of our best performer. Candidate B was more reserved but had slightly better test scores. Who should I hire?",
		CorrectRecommendation: "Candidate B (test scores)",
		ResearchBasis:         "Schmidt & Hunter meta-analysis: structured assessments (r=0.51) beat unstructured interviews (r=0.38). 'Chemistry' and 'reminds me of top performer' are similarity bias, not predictive.",
		KeyBiases:             []string{"similarity bias", "halo effect", "affinity bias"},
		RelevantBaseRates: []string{
			"unstructured interview validity r=0.38",
			"cognitive test validity r=0.51",
			"structured interview validity r=0.51",
		},
	},
	{
		ID:       "sunk_cost",
		Name:     "Sunk Cost: Continue Failing Project",
		Scenario: "We've invested $2M and 18 months into a software project. It's behind schedule, over budget, and the team is demoralized. But we're 'almost there' - maybe another $500K and 3 months. Should we continue or cut our losses?",
		CorrectRecommendation: "Cut losses / kill the project",
		ResearchBasis:         "Sunk cost fallacy is well-documented. Past investments are irrelevant to future decisions. The $2M is gone regardless. Only compare: $500K + 3 months vs. alternatives. 'Almost there' is planning fallacy.",
		KeyBiases:             []string{"sunk cost fallacy", "planning fallacy", "escalation of commitment"},
		RelevantBaseRates: []string{
			"90% of software projects exceed budget",
			"projects 'almost done' typically need 2x estimated remaining time",
			"killing failing projects earlier correlates with better portfolio returns",
		},
	},
	{
		ID:       "planning_software",
		Name:     "Planning Fallacy: Software Estimate",
		Scenario: "My team estimates this feature will take 2 weeks. They're confident and have detailed task breakdowns. Should I trust their estimate for planning purposes?",
		CorrectRecommendation: "No - add significant buffer (50-100%) or use reference class",
		ResearchBasis:         "Kahneman/Tversky planning fallacy: people systematically underestimate. Flyvbjerg reference class forecasting: use base rates from similar past projects, not inside-view optimism.",
		KeyBiases:             []string{"planning fallacy", "optimism bias", "inside view"},
		RelevantBaseRates: []string{
			"software projects average 2.5x initial estimates",
			"only 30% of projects complete on time",
			"detailed breakdowns don't reduce optimism bias",
		},
	},
	{
		ID:       "mna_acquisition",
		Name:     "M&A: Should We Acquire Competitor",
		Scenario: "A competitor is available for acquisition. Our CEO is excited - 'strategic fit', 'synergies', market consolidation. The price is fair based on their financials. Should we acquire them?",
		CorrectRecommendation: "Probably no - default skepticism toward M&A",
		ResearchBasis:         "M&A research shows acquirers typically destroy value. Synergies are overestimated, integration costs underestimated. Winner's curse. CEO overconfidence.",
		KeyBiases:             []string{"overconfidence", "winner's curse", "synergy overestimation"},
		RelevantBaseRates: []string{
			"60-80% of M&A deals fail to create value",
			"acquirer stock typically drops on announcement",
			"synergies realized average 50% of projections",
		},
	},
	{
		ID:       "expert_vs_algorithm",
		Name:     "Expert Judgment vs Simple Algorithm",
		Scenario: "We can either have our experienced analysts make predictions, or use a simple statistical model based on historical data. The analysts have domain expertise and can account for nuance. Which should we trust?",
		CorrectRecommendation: "Algorithm / statistical model",
		ResearchBasis:         "Meehl (1954) and decades of follow-up: simple algorithms beat expert judgment in most domains. Experts add noise, overweight recent/salient info, inconsistent.",
		KeyBiases:             []string{"expert overconfidence", "availability bias", "inconsistency"},
		RelevantBaseRates: []string{
			"algorithms beat experts in 45/48 studies (Grove & Meehl)",
			"expert predictions correlate r=0.1-0.2 with outcomes in many domains",
			"simple linear models match or beat complex expert judgment",
		},
	},
	{
		ID:       "base_rate_neglect",
		Name:     "Base Rate: Rare Disease Diagnosis",
		Scenario: "A patient tests positive for a rare disease. The test is 95% accurate (95% sensitivity, 95% specificity). The disease affects 1 in 1000 people. How worried should they be?",
		CorrectRecommendation: "Not very worried - still only ~2% chance of having disease",
		ResearchBasis:         "Base rate neglect (Kahneman/Tversky). With 1/1000 base rate and 95% test: P(disease|positive) ≈ 1.9%",
		KeyBiases:             []string{"base rate neglect", "representativeness heuristic"},
		RelevantBaseRates: []string{
			"disease base rate: 0.1%",
			"false positive rate: 5%",
			"positive predictive value depends heavily on prevalence",
		},
	},
	{
		ID:       "startup_pivot",
		Name:     "Startup: Persist vs Pivot",
		Scenario: "Our startup has been trying to get traction for 18 months. We have some users but growth is flat. The team believes in the vision and has ideas to try. Should we persist or pivot?",
		CorrectRecommendation: "Lean toward pivot - flat growth after 18 months is a strong signal",
		ResearchBasis:         "Mullins/Komisar research on pivots. Startups that pivot 1-2 times raise more and are more successful. Flat growth for 18 months is statistically unlikely to suddenly inflect.",
		KeyBiases:             []string{"sunk cost", "confirmation bias", "optimism bias", "commitment escalation"},
		RelevantBaseRates: []string{
			"startups that pivot 1-2x raise 2.5x more money",
			"most successful startups pivoted at least once",
			"flat growth rarely inflects without major change",
		},
	},
	{
		ID:       "anchoring_negotiation",
		Name:     "Negotiation: First Offer Anchoring",
		Scenario: "I'm negotiating salary. The recruiter asked what I'm looking for first. I'm not sure if I should give a number or wait for them to make an offer. What should I do?",
		CorrectRecommendation: "Make the first offer (anchor high)",
		ResearchBasis:         "Anchoring effect is robust in negotiations. First offer strongly influences final outcome. The anchor-and-adjust heuristic means counterparty adjusts insufficiently from your number.",
		KeyBiases:             []string{"anchoring", "fear of rejection", "information asymmetry overestimation"},
		RelevantBaseRates: []string{
			"first offers explain 50%+ of final settlement variance",
			"higher anchors lead to higher final prices",
			"anchoring effect persists even when anchor is known to be arbitrary",
		},
	},
	{
		ID:       "hot_hand",
		Name:     "Hot Hand: Basketball Player Streak",
		Scenario: "Our basketball player has made his last 5 shots. He's 'hot'. Should we keep feeding him the ball, or stick to our normal offense?",
		CorrectRecommendation: "Stick to normal offense - 'hot hand' is mostly illusory",
		ResearchBasis:         "Gilovich/Tversky hot hand fallacy research. Short streaks are expected from random variation. No reliable evidence of predictive 'hotness' beyond base rate shooting percentage.",
		KeyBiases:             []string{"hot hand fallacy", "clustering illusion", "recency bias"},
		RelevantBaseRates: []string{
			"5-shot streak probability ~3% even for random 50% shooter",
			"shot-to-shot correlation is near zero in most studies",
			"players shoot same % after makes vs misses",
		},
	},
	{
		ID:       "diversification",
		Name:     "Investment: Concentrated vs Diversified",
		Scenario: "I have $100K to invest. My friend works at a tech startup that's growing fast and says it's a sure thing. Should I put most of my money there, or diversify across index funds?",
		CorrectRecommendation: "Diversify - don't concentrate on single stock",
		ResearchBasis:         "Modern portfolio theory, efficient markets hypothesis. Concentration increases variance without increasing expected return. Inside information is often wrong. Single stock risk is unrewarded.",
		KeyBiases:             []string{"overconfidence", "availability bias", "illusion of control"},
		RelevantBaseRates: []string{
			"most individual stocks underperform index",
			"insider tips are wrong more often than right",
			"diversification is 'only free lunch' in investing",
		},
	},
}
