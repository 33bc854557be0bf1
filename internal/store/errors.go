package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no decision matches the given id or prefix.
	ErrNotFound = errors.New("store: decision not found")

	// ErrDuplicateID is returned when saving a decision whose id already exists.
	ErrDuplicateID = errors.New("store: duplicate decision id")
)

// AmbiguousIDError is returned when an id prefix matches more than one decision.
// Candidates holds the full ids of every match so callers can present them.
type AmbiguousIDError struct {
	Prefix     string
	Candidates []string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("store: ambiguous id prefix %q matches %d decisions: %s",
		e.Prefix, len(e.Candidates), strings.Join(e.Candidates, ", "))
}
