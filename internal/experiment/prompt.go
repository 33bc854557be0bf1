package experiment

import (
	"fmt"
	"strings"
)

const naiveTemplate = `You are a helpful assistant. Answer this question directly:

"%s"

Give your recommendation and reasoning.`

const farnessTemplate = `You are a decision analyst using the "farness" framework. This framework requires you to:

1. Define explicit, measurable KPIs for the decision
2. Make numeric forecasts with confidence intervals for each option
3. Cite base rates from research (outside view) before adjusting with inside view
4. Identify cognitive biases that might be affecting the framing
5. Give a clear recommendation based on expected value
6. Set a review date to score the decision against actuals

Apply this framework to:

"%s"`

// DecisionPrompt renders the prompt for a decision case under a condition.
func DecisionPrompt(c DecisionCase, condition string) string {
	scenario := strings.TrimSpace(c.Scenario)
	if condition == ConditionNaive {
		return fmt.Sprintf(naiveTemplate, scenario)
	}
	return fmt.Sprintf(farnessTemplate, scenario)
}

const naiveEstimateTemplate = `You are a helpful assistant. Answer directly and concisely.

%s

Question: %s Give a single number.`

const farnessEstimateTemplate = `You are a decision analyst using the "farness" framework. This requires:
1. Cite base rates from research (outside view)
2. Make numeric forecasts with confidence intervals
3. Identify cognitive biases in the framing

%s

Question: %s Give a point estimate and 80%% confidence interval.`

// EstimatePrompt renders the initial prompt for a quantitative case.
func EstimatePrompt(c QuantitativeCase, condition string) string {
	scenario := strings.TrimSpace(c.Scenario)
	if condition == ConditionNaive {
		return fmt.Sprintf(naiveEstimateTemplate, scenario, c.EstimateQuestion)
	}
	return fmt.Sprintf(farnessEstimateTemplate, scenario, c.EstimateQuestion)
}

// ProbePrompt renders the follow-up prompt that challenges an initial
// estimate with the case's probing information.
func ProbePrompt(c QuantitativeCase, condition string, initialEstimate float64, initialCI *[2]float64) string {
	ciText := ""
	if initialCI != nil {
		ciText = fmt.Sprintf(" (CI: %g-%g)", initialCI[0], initialCI[1])
	}

	var probes strings.Builder
	for i, probe := range c.Probes {
		if i > 0 {
			probes.WriteString("\n\n")
		}
		fmt.Fprintf(&probes, "%d. %s", i+1, probe)
	}

	if condition == ConditionNaive {
		return fmt.Sprintf(`You previously estimated %g %s for this scenario.

Follow-up information:

%s

Given this new information, what's your revised estimate (%s)? Also provide an 80%% confidence interval.`,
			initialEstimate, c.EstimateUnit, probes.String(), c.EstimateUnit)
	}
	return fmt.Sprintf(`You previously estimated %g %s%s for this scenario.

Follow-up information:

%s

Given this new information, what's your revised estimate and 80%% CI?`,
		initialEstimate, c.EstimateUnit, ciText, probes.String())
}

const naiveAdvisorTemplate = `You are a helpful advisor. Help me think through this decision:

%s

What should I do? Give me your honest recommendation with reasoning.`

const farnessAdvisorTemplate = `You are a decision analyst using the "farness" framework. Apply this process:

1. Define 2-3 explicit, measurable KPIs for this decision
2. Identify the options (including ones not mentioned)
3. For each option x KPI, give a point estimate and 80%% confidence interval
4. Cite relevant base rates (outside view)
5. Identify cognitive biases in the framing
6. Give a recommendation based on expected value

Decision:
%s`

// AdvisorPrompt renders the prompt for a reframing case under a condition.
func AdvisorPrompt(c ReframingCase, condition string) string {
	scenario := strings.TrimSpace(c.Scenario)
	if condition == ConditionNaive {
		return fmt.Sprintf(naiveAdvisorTemplate, scenario)
	}
	return fmt.Sprintf(farnessAdvisorTemplate, scenario)
}
