package model

// OptionScores compares options across all KPIs on a common [0, 1] scale.
//
// Raw point estimates are not comparable across KPIs: a dollars KPI would
// drown out a 1-10 satisfaction KPI. So per KPI, the estimates of every
// option holding a forecast for it are min-max normalized to [0, 1]. When
// every option ties on a KPI (max == min, which includes the single-option
// case) each scores 0.5 on it. An option's final score is the weighted
// average of its normalized per-KPI scores, using KPI weights; the
// denominator counts only the KPIs that option was actually scored on, so a
// missing forecast excludes that KPI's weight for that option alone.
func (d *Decision) OptionScores() map[string]float64 {
	type span struct {
		min, max float64
		n        int
	}
	spans := make(map[string]span, len(d.KPIs))
	for _, k := range d.KPIs {
		s := span{}
		for _, o := range d.Options {
			f, ok := o.Forecasts[k.Name]
			if !ok {
				continue
			}
			if s.n == 0 || f.PointEstimate < s.min {
				s.min = f.PointEstimate
			}
			if s.n == 0 || f.PointEstimate > s.max {
				s.max = f.PointEstimate
			}
			s.n++
		}
		spans[k.Name] = s
	}

	scores := make(map[string]float64, len(d.Options))
	for _, o := range d.Options {
		var num, den float64
		for _, k := range d.KPIs {
			f, ok := o.Forecasts[k.Name]
			if !ok {
				continue
			}
			s := spans[k.Name]
			norm := 0.5
			if s.max > s.min {
				norm = (f.PointEstimate - s.min) / (s.max - s.min)
			}
			num += k.Weight * norm
			den += k.Weight
		}
		if den > 0 {
			scores[o.Name] = num / den
		} else {
			scores[o.Name] = 0
		}
	}
	return scores
}

// BestOption returns the option with the highest normalized score. Ties go
// to the earlier option in the list, so the result is deterministic. Returns
// nil when the decision has no options.
func (d *Decision) BestOption() *Option {
	if len(d.Options) == 0 {
		return nil
	}
	scores := d.OptionScores()
	best := 0
	for i := 1; i < len(d.Options); i++ {
		if scores[d.Options[i].Name] > scores[d.Options[best].Name] {
			best = i
		}
	}
	return &d.Options[best]
}

// SensitivityAnalysis reports, per KPI, which option wins on that KPI's raw
// point estimates alone. It surfaces which KPI drives the overall
// recommendation and whether different KPIs favor different options. KPIs no
// option has forecast are omitted; ties go to the earlier option.
func (d *Decision) SensitivityAnalysis() map[string]string {
	winners := make(map[string]string, len(d.KPIs))
	for _, k := range d.KPIs {
		var (
			winner string
			best   float64
			found  bool
		)
		for _, o := range d.Options {
			f, ok := o.Forecasts[k.Name]
			if !ok {
				continue
			}
			if !found || f.PointEstimate > best {
				winner, best, found = o.Name, f.PointEstimate, true
			}
		}
		if found {
			winners[k.Name] = winner
		}
	}
	return winners
}
