// Package store persists decisions as line-delimited JSON on local disk.
// Saves append a single line; updates rewrite the whole file through a
// temp file and rename so a crash never leaves a truncated store.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"farness/internal/model"
)

// DecisionStore reads and writes a JSONL decision file. The zero value is
// not usable; construct with New.
type DecisionStore struct {
	path string
}

// New returns a store backed by the JSONL file at path. Parent directories
// are created on first write, not here.
func New(path string) *DecisionStore {
	return &DecisionStore{path: path}
}

// Path returns the backing file path.
func (s *DecisionStore) Path() string {
	return s.path
}

// Save appends a new decision. It fails with ErrDuplicateID if a decision
// with the same id is already present.
func (s *DecisionStore) Save(d *model.Decision) error {
	if err := d.Validate(); err != nil {
		return eris.Wrap(err, "store: save")
	}

	existing, err := s.ListAll()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID == d.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "store: create directory")
	}

	line, err := json.Marshal(d)
	if err != nil {
		return eris.Wrap(err, "store: marshal decision")
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrap(err, "store: open for append")
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return eris.Wrap(err, "store: append decision")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "store: close after append")
	}

	zap.L().Debug("saved decision", zap.String("id", d.ID), zap.String("path", s.path))
	return nil
}

// Update replaces the stored record with the same id. The file is rewritten
// through a temporary file so readers never observe a partial write.
func (s *DecisionStore) Update(d *model.Decision) error {
	if err := d.Validate(); err != nil {
		return eris.Wrap(err, "store: update")
	}

	all, err := s.ListAll()
	if err != nil {
		return err
	}

	found := false
	for i, e := range all {
		if e.ID == d.ID {
			all[i] = d
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, d.ID)
	}

	if err := s.rewrite(all); err != nil {
		return err
	}
	zap.L().Debug("updated decision", zap.String("id", d.ID))
	return nil
}

// Get resolves id exactly first, then as a unique prefix. A prefix matching
// several decisions returns *AmbiguousIDError; no match returns ErrNotFound.
func (s *DecisionStore) Get(id string) (*model.Decision, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}

	for _, d := range all {
		if d.ID == id {
			return d, nil
		}
	}

	var matches []*model.Decision
	for _, d := range all {
		if strings.HasPrefix(d.ID, id) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, d := range matches {
			ids[i] = d.ID
		}
		return nil, &AmbiguousIDError{Prefix: id, Candidates: ids}
	}
}

// ListAll returns every decision in file order. A missing file is an empty
// store, not an error.
func (s *DecisionStore) ListAll() ([]*model.Decision, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "store: open")
	}
	defer f.Close()

	var out []*model.Decision
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var d model.Decision
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			return nil, eris.Wrapf(err, "store: parse line %d of %s", lineNo, s.path)
		}
		out = append(out, &d)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "store: read")
	}
	return out, nil
}

// ListUnscored returns decisions that have not been scored yet, in file order.
func (s *DecisionStore) ListUnscored() ([]*model.Decision, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	var out []*model.Decision
	for _, d := range all {
		if d.Status() != model.StatusScored {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListScored returns scored decisions in file order.
func (s *DecisionStore) ListScored() ([]*model.Decision, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	var out []*model.Decision
	for _, d := range all {
		if d.Status() == model.StatusScored {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListPendingReview returns decided, unscored decisions whose review date
// is at or before now.
func (s *DecisionStore) ListPendingReview(now time.Time) ([]*model.Decision, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	var out []*model.Decision
	for _, d := range all {
		if d.Status() != model.StatusDecided {
			continue
		}
		if d.ReviewAt != nil && !d.ReviewAt.After(now) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *DecisionStore) rewrite(all []*model.Decision) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "store: create directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".decisions-*.jsonl")
	if err != nil {
		return eris.Wrap(err, "store: create temp file")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, d := range all {
		line, err := json.Marshal(d)
		if err != nil {
			tmp.Close()
			return eris.Wrap(err, "store: marshal decision")
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			return eris.Wrap(err, "store: write temp file")
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "store: flush temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "store: close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return eris.Wrap(err, "store: replace store file")
	}
	return nil
}
