package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// DefaultReviewAfter is how long after deciding a decision comes up for
// outcome review when no explicit interval is given.
const DefaultReviewAfter = 30 * 24 * time.Hour

// Status describes where a decision is in its lifecycle.
type Status string

const (
	StatusOpen    Status = "open"    // created, options being attached
	StatusDecided Status = "decided" // an option was chosen, outcomes pending
	StatusScored  Status = "scored"  // actual outcomes recorded; terminal
)

// Decision is the root record: a question, the KPIs it is judged on, the
// candidate options with their forecasts, and — later — the chosen option
// and the observed outcomes.
type Decision struct {
	ID             string             `json:"id"`
	Question       string             `json:"question"`
	Context        string             `json:"context,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	KPIs           []KPI              `json:"kpis"`
	Options        []Option           `json:"options"`
	ChosenOption   string             `json:"chosen_option,omitempty"`
	DecidedAt      *time.Time         `json:"decided_at,omitempty"`
	ReviewAt       *time.Time         `json:"review_date,omitempty"`
	ActualOutcomes map[string]float64 `json:"actual_outcomes,omitempty"`
	ScoredAt       *time.Time         `json:"scored_at,omitempty"`
	Reflections    string             `json:"reflections,omitempty"`
}

// NewDecision creates an open decision with a fresh ID.
func NewDecision(question, context string) *Decision {
	return &Decision{
		ID:        uuid.New().String(),
		Question:  question,
		Context:   context,
		CreatedAt: time.Now().UTC(),
	}
}

// Status derives the lifecycle state from which timestamps are set.
func (d *Decision) Status() Status {
	switch {
	case d.ScoredAt != nil:
		return StatusScored
	case d.ChosenOption != "":
		return StatusDecided
	default:
		return StatusOpen
	}
}

// AddKPI appends a KPI, enforcing name uniqueness and a positive weight.
func (d *Decision) AddKPI(k KPI) error {
	if k.Name == "" {
		return eris.New("model: KPI name is required")
	}
	if k.Weight <= 0 {
		return eris.Errorf("model: KPI %q weight must be positive (got %v)", k.Name, k.Weight)
	}
	for _, existing := range d.KPIs {
		if existing.Name == k.Name {
			return fmt.Errorf("%w: KPI %q", ErrDuplicateName, k.Name)
		}
	}
	d.KPIs = append(d.KPIs, k)
	return nil
}

// AddOption appends an option, enforcing name uniqueness.
func (d *Decision) AddOption(o Option) error {
	if o.Name == "" {
		return eris.New("model: option name is required")
	}
	for _, existing := range d.Options {
		if existing.Name == o.Name {
			return fmt.Errorf("%w: option %q", ErrDuplicateName, o.Name)
		}
	}
	if o.Forecasts == nil {
		o.Forecasts = map[string]Forecast{}
	}
	d.Options = append(d.Options, o)
	return nil
}

// SetForecast attaches a validated forecast to the named option for the
// named KPI, replacing any previous forecast for that pair. Both names must
// already exist on the decision; name references are checked here, at the
// boundary, so scoring never has to.
func (d *Decision) SetForecast(option, kpi string, f Forecast) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if d.kpiByName(kpi) == nil {
		return fmt.Errorf("%w: %q", ErrNoSuchKPI, kpi)
	}
	opt := d.optionByName(option)
	if opt == nil {
		return fmt.Errorf("%w: %q", ErrNoSuchOption, option)
	}
	if opt.Forecasts == nil {
		opt.Forecasts = map[string]Forecast{}
	}
	opt.Forecasts[kpi] = f
	return nil
}

// Decide records the chosen option and schedules the outcome review.
// A non-positive reviewAfter falls back to DefaultReviewAfter.
func (d *Decision) Decide(option string, reviewAfter time.Duration) error {
	if d.ScoredAt != nil {
		return ErrAlreadyScored
	}
	if d.optionByName(option) == nil {
		return fmt.Errorf("%w: %q", ErrNoSuchOption, option)
	}
	if reviewAfter <= 0 {
		reviewAfter = DefaultReviewAfter
	}
	now := time.Now().UTC()
	review := now.Add(reviewAfter)
	d.ChosenOption = option
	d.DecidedAt = &now
	d.ReviewAt = &review
	return nil
}

// Score records the observed outcomes against the chosen option. Scoring is
// terminal: it requires a chosen option, happens at most once, and sets
// ActualOutcomes and ScoredAt together.
func (d *Decision) Score(outcomes map[string]float64, reflections string) error {
	if d.ScoredAt != nil {
		return ErrAlreadyScored
	}
	if d.ChosenOption == "" {
		return ErrNoChosenOption
	}
	if len(outcomes) == 0 {
		return eris.New("model: no outcomes to record")
	}
	copied := make(map[string]float64, len(outcomes))
	for k, v := range outcomes {
		copied[k] = v
	}
	now := time.Now().UTC()
	d.ActualOutcomes = copied
	d.ScoredAt = &now
	d.Reflections = reflections
	return nil
}

// Chosen returns the chosen option, or nil if none is set.
func (d *Decision) Chosen() *Option {
	if d.ChosenOption == "" {
		return nil
	}
	return d.optionByName(d.ChosenOption)
}

// Validate checks structural invariants on a decision assembled outside the
// lifecycle methods (e.g. an imported record): required fields, unique KPI
// and option names, valid forecasts keyed by known KPIs, and a chosen option
// that exists.
func (d *Decision) Validate() error {
	if d.ID == "" {
		return eris.New("model: decision ID is required")
	}
	if d.Question == "" {
		return eris.New("model: decision question is required")
	}

	kpiNames := make(map[string]bool, len(d.KPIs))
	for _, k := range d.KPIs {
		if k.Weight <= 0 {
			return eris.Errorf("model: KPI %q weight must be positive (got %v)", k.Name, k.Weight)
		}
		if kpiNames[k.Name] {
			return fmt.Errorf("%w: KPI %q", ErrDuplicateName, k.Name)
		}
		kpiNames[k.Name] = true
	}

	optNames := make(map[string]bool, len(d.Options))
	for _, o := range d.Options {
		if optNames[o.Name] {
			return fmt.Errorf("%w: option %q", ErrDuplicateName, o.Name)
		}
		optNames[o.Name] = true
		for kpi, f := range o.Forecasts {
			if !kpiNames[kpi] {
				return fmt.Errorf("%w: forecast on option %q references %q", ErrNoSuchKPI, o.Name, kpi)
			}
			if err := f.Validate(); err != nil {
				return eris.Wrapf(err, "model: option %q, KPI %q", o.Name, kpi)
			}
		}
	}

	if d.ChosenOption != "" && !optNames[d.ChosenOption] {
		return fmt.Errorf("%w: chosen option %q", ErrNoSuchOption, d.ChosenOption)
	}
	if d.ScoredAt != nil && d.ChosenOption == "" {
		return ErrNoChosenOption
	}
	return nil
}

func (d *Decision) kpiByName(name string) *KPI {
	for i := range d.KPIs {
		if d.KPIs[i].Name == name {
			return &d.KPIs[i]
		}
	}
	return nil
}

func (d *Decision) optionByName(name string) *Option {
	for i := range d.Options {
		if d.Options[i].Name == name {
			return &d.Options[i]
		}
	}
	return nil
}
