package model

// DefaultKPIWeight is the weight a KPI carries when none is given.
const DefaultKPIWeight = 1.0

// KPI is a named, weighted dimension against which options are forecast.
// KPIs are immutable once attached to a decision: stored forecasts are keyed
// by KPI name, so renaming one would orphan them.
type KPI struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Unit        string   `json:"unit,omitempty"`
	Target      *float64 `json:"target,omitempty"`
	Weight      float64  `json:"weight"`
}

// NewKPI builds a KPI with the default weight.
func NewKPI(name, description string) KPI {
	return KPI{Name: name, Description: description, Weight: DefaultKPIWeight}
}
