package model

import "errors"

// Sentinel errors for lifecycle and validation failures. Callers match with
// errors.Is; messages are safe to show to the user.
var (
	// ErrInvalidForecast is returned when a forecast's confidence interval is
	// inverted (low > high) or its confidence level falls outside (0, 1).
	ErrInvalidForecast = errors.New("invalid forecast")

	// ErrDuplicateName is returned when adding a KPI or option whose name
	// already exists within the decision.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNoSuchOption is returned when referring to an option name that is
	// not part of the decision.
	ErrNoSuchOption = errors.New("no such option")

	// ErrNoSuchKPI is returned when attaching a forecast against a KPI name
	// that is not part of the decision.
	ErrNoSuchKPI = errors.New("no such KPI")

	// ErrNoChosenOption is returned when scoring a decision that has not
	// been decided yet.
	ErrNoChosenOption = errors.New("no chosen option")

	// ErrAlreadyScored is returned when scoring a decision a second time.
	// Scoring is terminal; actual outcomes are recorded exactly once.
	ErrAlreadyScored = errors.New("decision already scored")
)
