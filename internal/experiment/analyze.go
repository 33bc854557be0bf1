package experiment

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
)

// StatisticalTest is the outcome of one hypothesis test.
type StatisticalTest struct {
	Metric       string  `json:"metric"`
	NaiveValue   float64 `json:"naive"`
	FarnessValue float64 `json:"farness"`
	Difference   float64 `json:"difference"`
	PValue       float64 `json:"p_value"`
	Significant  bool    `json:"significant"`
	TestName     string  `json:"test"`
}

// Analysis holds the full experiment analysis.
type Analysis struct {
	NNaive              int               `json:"n_naive"`
	NFarness            int               `json:"n_farness"`
	Alpha               float64           `json:"alpha"`
	BonferroniCorrected bool              `json:"bonferroni_corrected"`
	Tests               []StatisticalTest `json:"tests"`
	Summary             string            `json:"summary"`
}

// pFromZ maps |z| to an approximate two-tailed p-value using the common
// critical values. A coarse lookup keeps the analysis dependency-free.
func pFromZ(absZ float64) float64 {
	switch {
	case absZ > 3.29:
		return 0.001
	case absZ > 2.58:
		return 0.01
	case absZ > 1.96:
		return 0.05
	case absZ > 1.64:
		return 0.10
	default:
		return 0.20
	}
}

// ProportionZTest runs a two-proportion z-test and returns the approximate
// two-tailed p-value.
func ProportionZTest(n1 int, p1 float64, n2 int, p2 float64) float64 {
	pPool := (float64(n1)*p1 + float64(n2)*p2) / float64(n1+n2)
	if pPool == 0 || pPool == 1 {
		return 1.0
	}
	se := math.Sqrt(pPool * (1 - pPool) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 1.0
	}
	z := (p1 - p2) / se
	return pFromZ(math.Abs(z))
}

// MannWhitneyU runs a Mann-Whitney U test using the normal approximation
// and returns the approximate two-tailed p-value. Ties get averaged ranks.
func MannWhitneyU(sample1, sample2 []float64) float64 {
	n1, n2 := len(sample1), len(sample2)
	if n1 == 0 || n2 == 0 {
		return 1.0
	}

	type obs struct {
		value float64
		group int
	}
	combined := make([]obs, 0, n1+n2)
	for _, x := range sample1 {
		combined = append(combined, obs{x, 0})
	}
	for _, x := range sample2 {
		combined = append(combined, obs{x, 1})
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].value < combined[j].value })

	r1 := 0.0
	for i := 0; i < len(combined); {
		j := i
		for j < len(combined) && combined[j].value == combined[i].value {
			j++
		}
		avgRank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			if combined[k].group == 0 {
				r1 += avgRank
			}
		}
		i = j
	}

	u1 := r1 - float64(n1)*float64(n1+1)/2
	mu := float64(n1) * float64(n2) / 2
	sigma := math.Sqrt(float64(n1) * float64(n2) * float64(n1+n2+1) / 12)
	if sigma == 0 {
		return 1.0
	}
	z := (u1 - mu) / sigma
	return pFromZ(math.Abs(z))
}

// Analyze tests the six hypotheses on a set of scored responses. Secondary
// hypotheses use a Bonferroni-corrected alpha when bonferroni is true.
func Analyze(scores []ResponseScore, alpha float64, bonferroni bool) (*Analysis, error) {
	var naive, farness []ResponseScore
	for _, s := range scores {
		switch s.Condition {
		case ConditionNaive:
			naive = append(naive, s)
		case ConditionFarness:
			farness = append(farness, s)
		}
	}
	nNaive, nFarness := len(naive), len(farness)
	if nNaive == 0 || nFarness == 0 {
		return nil, eris.New("experiment: need scored responses from both conditions")
	}

	secondaryAlpha := alpha
	if bonferroni {
		secondaryAlpha = alpha / 5
	}

	analysis := &Analysis{
		NNaive:              nNaive,
		NFarness:            nFarness,
		Alpha:               alpha,
		BonferroniCorrected: bonferroni,
	}

	// Correct recommendation, where labels exist.
	var naiveLabeled, farnessLabeled []ResponseScore
	for _, s := range naive {
		if s.CorrectRecommendation != nil {
			naiveLabeled = append(naiveLabeled, s)
		}
	}
	for _, s := range farness {
		if s.CorrectRecommendation != nil {
			farnessLabeled = append(farnessLabeled, s)
		}
	}
	if len(naiveLabeled) > 0 && len(farnessLabeled) > 0 {
		p1 := proportion(naiveLabeled, func(s ResponseScore) bool { return *s.CorrectRecommendation })
		p2 := proportion(farnessLabeled, func(s ResponseScore) bool { return *s.CorrectRecommendation })
		pVal := ProportionZTest(len(naiveLabeled), p1, len(farnessLabeled), p2)
		analysis.Tests = append(analysis.Tests, StatisticalTest{
			Metric:       "correct_recommendation",
			NaiveValue:   p1,
			FarnessValue: p2,
			Difference:   p2 - p1,
			PValue:       pVal,
			Significant:  pVal < alpha,
			TestName:     "z-test (proportions)",
		})
	}

	proportionTest := func(metric string, pred func(ResponseScore) bool) {
		p1 := proportion(naive, pred)
		p2 := proportion(farness, pred)
		pVal := ProportionZTest(nNaive, p1, nFarness, p2)
		analysis.Tests = append(analysis.Tests, StatisticalTest{
			Metric:       metric,
			NaiveValue:   p1,
			FarnessValue: p2,
			Difference:   p2 - p1,
			PValue:       pVal,
			Significant:  pVal < secondaryAlpha,
			TestName:     "z-test (proportions)",
		})
	}

	proportionTest("cites_base_rate", func(s ResponseScore) bool { return s.CitesBaseRate })

	// Bias counts are ordinal, so compare ranks instead of proportions.
	biasNaive := make([]float64, nNaive)
	biasFarness := make([]float64, nFarness)
	for i, s := range naive {
		biasNaive[i] = float64(s.BiasCount)
	}
	for i, s := range farness {
		biasFarness[i] = float64(s.BiasCount)
	}
	pVal := MannWhitneyU(biasNaive, biasFarness)
	m1, m2 := mean(biasNaive), mean(biasFarness)
	analysis.Tests = append(analysis.Tests, StatisticalTest{
		Metric:       "bias_count",
		NaiveValue:   m1,
		FarnessValue: m2,
		Difference:   m2 - m1,
		PValue:       pVal,
		Significant:  pVal < secondaryAlpha,
		TestName:     "Mann-Whitney U",
	})

	proportionTest("has_confidence_interval", func(s ResponseScore) bool { return s.HasConfidenceInterval })
	proportionTest("has_accountability", func(s ResponseScore) bool { return s.HasAccountability })
	proportionTest("quantifies_tradeoffs", func(s ResponseScore) bool { return s.QuantifiesTradeoffs })

	analysis.Summary = summarize(analysis.Tests)
	return analysis, nil
}

func proportion(scores []ResponseScore, pred func(ResponseScore) bool) float64 {
	if len(scores) == 0 {
		return 0
	}
	count := 0
	for _, s := range scores {
		if pred(s) {
			count++
		}
	}
	return float64(count) / float64(len(scores))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func summarize(tests []StatisticalTest) string {
	var sig []StatisticalTest
	for _, t := range tests {
		if t.Significant && t.Difference > 0 {
			sig = append(sig, t)
		}
	}
	if len(sig) == 0 {
		return "No significant differences found favoring the farness framework."
	}
	out := "Significant improvements with farness framework:"
	for _, t := range sig {
		out += fmt.Sprintf(
			"\n  - %s: +%.1f percentage points (%.0f%% -> %.0f%%, p=%.3f)",
			t.Metric, t.Difference*100, t.NaiveValue*100, t.FarnessValue*100, t.PValue)
	}
	return out
}

// WriteTable renders the analysis as an aligned text table.
func (a *Analysis) WriteTable(w io.Writer) {
	fmt.Fprintf(w, "N (naive): %d, N (farness): %d\n", a.NNaive, a.NFarness)
	fmt.Fprintf(w, "Alpha: %g, Bonferroni: %t\n\n", a.Alpha, a.BonferroniCorrected)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tNAIVE\tFARNESS\tDIFF\tP-VALUE\tSIG")
	for _, t := range a.Tests {
		sig := ""
		if t.Significant {
			sig = "*"
		}
		fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f%%\t%+.1f%%\t%.4f\t%s\n",
			t.Metric, t.NaiveValue*100, t.FarnessValue*100, t.Difference*100, t.PValue, sig)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%s\n", a.Summary)
}
