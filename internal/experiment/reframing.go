package experiment

import (
	"regexp"
	"sort"
	"strings"
)

// ReframingCase is a decision where a good advisor should push back on the
// framing instead of answering the surface question.
type ReframingCase struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Scenario string `yaml:"scenario"`

	// KPIs the question implies on its face.
	SurfaceKPIs []string `yaml:"surface_kpis"`

	// Reframes a good advisor should surface.
	DeeperReframes []string `yaml:"deeper_reframes"`

	// Keywords that indicate reframing beyond the surface question.
	ReframeIndicators []string `yaml:"reframe_indicators"`
}

// ReframingCases returns the built-in reframing case set.
func ReframingCases() []ReframingCase {
	out := make([]ReframingCase, len(reframingCases))
	copy(out, reframingCases)
	return out
}

// ReframingCaseByID returns the case with the given id, or false.
func ReframingCaseByID(id string) (ReframingCase, bool) {
	for _, c := range reframingCases {
		if c.ID == id {
			return c, true
		}
	}
	return ReframingCase{}, false
}

var reframingCases = []ReframingCase{
	{
		ID:          "grad_school",
		Name:        "Should I go to grad school?",
		Scenario:    "I'm a software engineer with 3 years of experience making $130K. I got into a good MBA program. The tuition is $80K/year for 2 years. Should I go?",
		SurfaceKPIs: []string{"salary increase", "tuition cost", "ROI", "earnings"},
		DeeperReframes: []string{
			"What career do you actually want? MBA solves a networking/credential problem, not a skills problem",
			"Are you running toward the MBA or away from your current job?",
			"Have you considered that many tech careers don't value MBAs?",
			"What specific role do you want post-MBA that you can't get now?",
		},
		ReframeIndicators: []string{
			"wrong question", "real question", "actually want",
			"running away", "running toward", "why do you want",
			"what are you trying to", "underlying goal", "root cause",
			"before we forecast", "step back", "bigger picture",
			"career you want", "not just about", "deeper issue",
			"identity", "what kind of", "who do you want to be",
		},
	},
	{
		ID:          "feature_build",
		Name:        "Should we build this feature?",
		Scenario:    "Our users have been asking for a mobile app. We're a B2B SaaS company with 200 customers. Our web app works on mobile browsers but isn't optimized. Building a native app would take 4 months and $200K. Should we build it?",
		SurfaceKPIs: []string{"development cost", "user retention", "revenue impact", "timeline"},
		DeeperReframes: []string{
			"Are users actually churning because of mobile, or is this a nice-to-have?",
			"Could you solve this with a responsive web redesign instead?",
			"Is mobile usage high enough in your B2B segment to justify this?",
			"What's the opportunity cost - what else could you build with that $200K?",
		},
		ReframeIndicators: []string{
			"opportunity cost", "alternative", "responsive",
			"PWA", "progressive web", "actually churning",
			"nice to have", "must have", "what else could",
			"wrong problem", "real problem", "root cause",
			"prioriti", "instead of", "before building",
			"validate", "test first", "prototype",
		},
	},
	{
		ID:          "move_cities",
		Name:        "Should I move to SF or stay in Austin?",
		Scenario:    "I'm a senior engineer. I got an offer in SF for $250K (vs $180K now in Austin). Cost of living is way higher in SF though. My partner works remotely so they're flexible. Should I take the SF offer?",
		SurfaceKPIs: []string{"salary", "cost of living", "savings rate", "career growth"},
		DeeperReframes: []string{
			"What does your partner actually want? 'Flexible' doesn't mean 'enthusiastic'",
			"Is this about the money or about something else (excitement, status, career stage)?",
			"Could you negotiate remote-first and get a middle ground?",
			"What community and lifestyle factors matter beyond finances?",
		},
		ReframeIndicators: []string{
			"partner", "relationship", "community", "lifestyle",
			"remote", "negotiate", "hybrid", "what do you value",
			"beyond money", "beyond salary", "not just financial",
			"happiness", "fulfillment", "well-being", "quality of life",
			"social", "friends", "network", "belong",
			"identity", "stage of life", "what matters most",
		},
	},
	{
		ID:          "hire_senior",
		Name:        "Should we hire a VP of Engineering?",
		Scenario:    "We're a 15-person startup that just raised Series A. Engineering is our bottleneck - we can't ship fast enough. Our CTO is overwhelmed. Should we hire a VP of Engineering to manage the team so the CTO can focus on architecture?",
		SurfaceKPIs: []string{"hiring timeline", "salary cost", "shipping velocity", "team productivity"},
		DeeperReframes: []string{
			"Is the bottleneck actually management, or is it technical debt/process?",
			"Does your CTO actually want to give up management, or will they resist?",
			"At 15 people, do you need a VP or would a strong tech lead suffice?",
			"Could better processes (sprint planning, CI/CD) solve this without a hire?",
		},
		ReframeIndicators: []string{
			"technical debt", "process", "bottleneck",
			"CTO wants", "CTO willing", "org design",
			"too early", "premature", "team size",
			"tech lead instead", "senior IC", "alternative",
			"root cause", "real problem", "underlying",
			"sprint", "CI/CD", "tooling", "automation",
		},
	},
	{
		ID:          "raise_funding",
		Name:        "Should we raise a Series B?",
		Scenario:    "We're growing 15% month-over-month with $500K MRR. We have 12 months of runway. VCs are interested and we could probably raise $20M at a $200M valuation. Should we raise now or wait until we're bigger for a better valuation?",
		SurfaceKPIs: []string{"valuation", "dilution", "runway", "growth rate"},
		DeeperReframes: []string{
			"Do you actually need the money, or are you raising because you can?",
			"What would you do with $20M that you can't do with your current runway?",
			"Is 15% MoM sustainable, or are you about to hit a growth ceiling?",
			"Have you considered profitability as an alternative to fundraising?",
		},
		ReframeIndicators: []string{
			"need the money", "use of funds", "what would you do with",
			"profitable", "profitability", "bootstrap", "self-fund",
			"growth ceiling", "sustainable", "plateau",
			"default alive", "burn rate", "unit economics",
			"why raise", "don't need to", "optionality",
		},
	},
	{
		ID:          "quit_job",
		Name:        "Should I quit to start a startup?",
		Scenario:    "I'm a product manager at Google making $350K. I have a startup idea I'm passionate about - a developer tools company. I have $200K saved. My spouse works and we have a 2-year-old. Should I quit to go full-time on this?",
		SurfaceKPIs: []string{"financial runway", "startup success probability", "income loss", "market size"},
		DeeperReframes: []string{
			"Can you validate the idea before quitting? Nights/weekends MVP?",
			"What does your spouse actually think? Have you had the real conversation?",
			"Is this about the startup or about being unhappy at Google?",
			"What would make you regret NOT doing this in 10 years?",
		},
		ReframeIndicators: []string{
			"spouse", "family", "partner", "validate first",
			"side project", "nights and weekends", "before quitting",
			"regret", "unhappy", "fulfillment", "calling",
			"risk tolerance", "worst case", "reversible",
			"identity", "founder identity", "who you want to be",
			"why now", "timing", "could you wait",
		},
	},
}

// ReframingResult is the scored outcome of a single reframing trial.
type ReframingResult struct {
	CaseID    string `json:"case_id"`
	Condition string `json:"condition"`
	RunNumber int    `json:"run_number"`

	ReframeCount      int      `json:"reframe_count"`
	ReframeMatches    []string `json:"reframe_matches"`
	IntroducedNewKPIs bool     `json:"introduced_new_kpis"`
	ChallengedFraming bool     `json:"challenged_framing"`

	ResponseText string `json:"response_text"`
}

var kpiIntroPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:KPI|metric|measure|optimize for|success means|define success as)\s*[:\-]?\s*(.+)`),
	regexp.MustCompile(`(?i)what (?:really |actually )?matters (?:here )?is\s+(.+)`),
}

var challengePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:the )?(?:real|actual|underlying|deeper) (?:question|issue|problem)`),
	regexp.MustCompile(`(?i)(?:before|first).{0,30}(?:consider|ask|think about)`),
	regexp.MustCompile(`(?i)step back`),
	regexp.MustCompile(`(?i)wrong (?:question|frame|way to think)`),
	regexp.MustCompile(`(?i)reframe`),
	regexp.MustCompile(`(?i)(?:might|should) (?:instead|also) (?:ask|consider|think)`),
	regexp.MustCompile(`(?i)not (?:really|actually|just) about`),
}

// ScoreReframing scores a response for reframing behavior.
func ScoreReframing(response string, c ReframingCase) (count int, matches []string, newKPIs, challenged bool) {
	textLower := strings.ToLower(response)

	for _, indicator := range c.ReframeIndicators {
		if strings.Contains(textLower, strings.ToLower(indicator)) {
			matches = append(matches, indicator)
		}
	}

	surfaceWords := make(map[string]struct{})
	for _, kpi := range c.SurfaceKPIs {
		for _, word := range strings.Fields(strings.ToLower(kpi)) {
			surfaceWords[word] = struct{}{}
		}
	}
	for _, re := range kpiIntroPatterns {
		m := re.FindStringSubmatch(textLower)
		if m == nil {
			continue
		}
		kpiText := m[1]
		mentionsSurface := false
		for word := range surfaceWords {
			if len(word) > 3 && strings.Contains(kpiText, word) {
				mentionsSurface = true
				break
			}
		}
		if !mentionsSurface {
			newKPIs = true
			break
		}
	}

	for _, re := range challengePatterns {
		if re.MatchString(textLower) {
			challenged = true
			break
		}
	}

	return len(matches), matches, newKPIs, challenged
}

// ReframingStats summarizes one condition of the reframing experiment.
type ReframingStats struct {
	N                     int     `json:"n"`
	MeanReframeCount      float64 `json:"mean_reframe_count"`
	ChallengedFramingRate float64 `json:"challenged_framing_rate"`
	IntroducedNewKPIsRate float64 `json:"introduced_new_kpis_rate"`
}

// ReframingComparison holds the statistical comparison between conditions.
type ReframingComparison struct {
	// One-sided hypothesis: the framework reduces reframing, so naive
	// counts should rank higher.
	ReframeCountPValue float64 `json:"reframe_count_p_value"`
}

// ReframingAnalysis is the full reframing experiment summary.
type ReframingAnalysis struct {
	Naive      ReframingStats            `json:"naive"`
	Farness    ReframingStats            `json:"farness"`
	Comparison *ReframingComparison      `json:"statistical_comparison,omitempty"`
	ByCase     map[string]map[string]ReframingStats `json:"by_case"`
}

// AnalyzeReframing summarizes reframing results by condition and case.
func AnalyzeReframing(results []ReframingResult) *ReframingAnalysis {
	var naive, farness []ReframingResult
	for _, r := range results {
		switch r.Condition {
		case ConditionNaive:
			naive = append(naive, r)
		case ConditionFarness:
			farness = append(farness, r)
		}
	}

	analysis := &ReframingAnalysis{
		Naive:   reframingStats(naive),
		Farness: reframingStats(farness),
		ByCase:  make(map[string]map[string]ReframingStats),
	}

	if len(naive) >= 2 && len(farness) >= 2 {
		naiveCounts := make([]float64, len(naive))
		farnessCounts := make([]float64, len(farness))
		for i, r := range naive {
			naiveCounts[i] = float64(r.ReframeCount)
		}
		for i, r := range farness {
			farnessCounts[i] = float64(r.ReframeCount)
		}
		analysis.Comparison = &ReframingComparison{
			ReframeCountPValue: MannWhitneyU(naiveCounts, farnessCounts),
		}
	}

	caseIDs := make(map[string]struct{})
	for _, r := range results {
		caseIDs[r.CaseID] = struct{}{}
	}
	ids := make([]string, 0, len(caseIDs))
	for id := range caseIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		var caseNaive, caseFarness []ReframingResult
		for _, r := range naive {
			if r.CaseID == id {
				caseNaive = append(caseNaive, r)
			}
		}
		for _, r := range farness {
			if r.CaseID == id {
				caseFarness = append(caseFarness, r)
			}
		}
		analysis.ByCase[id] = map[string]ReframingStats{
			ConditionNaive:   reframingStats(caseNaive),
			ConditionFarness: reframingStats(caseFarness),
		}
	}

	return analysis
}

func reframingStats(group []ReframingResult) ReframingStats {
	stats := ReframingStats{N: len(group)}
	if len(group) == 0 {
		return stats
	}
	for _, r := range group {
		stats.MeanReframeCount += float64(r.ReframeCount)
		if r.ChallengedFraming {
			stats.ChallengedFramingRate++
		}
		if r.IntroducedNewKPIs {
			stats.IntroducedNewKPIsRate++
		}
	}
	n := float64(len(group))
	stats.MeanReframeCount /= n
	stats.ChallengedFramingRate /= n
	stats.IntroducedNewKPIsRate /= n
	return stats
}
