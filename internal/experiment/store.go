package experiment

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Trial is one recorded model call from an experiment run.
type Trial struct {
	ID         string        `json:"id"`
	Experiment string        `json:"experiment"`
	CaseID     string        `json:"case_id"`
	Condition  string        `json:"condition"`
	RunNumber  int           `json:"run_number"`
	Prompt     string        `json:"prompt"`
	Response   string        `json:"response"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Experiment names used in the trials table.
const (
	ExperimentDecision  = "decision"
	ExperimentStability = "stability"
	ExperimentReframing = "reframing"
)

// ResultStore persists experiment trials and derived results in SQLite.
type ResultStore struct {
	db *sql.DB
}

// OpenResultStore opens the SQLite database at path, configures WAL mode,
// and applies migrations.
func OpenResultStore(path string) (*ResultStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "experiment: create store directory %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "experiment: open store")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "experiment: exec %s", pragma)
		}
	}
	s := &ResultStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const resultMigration = `
CREATE TABLE IF NOT EXISTS trials (
	id          TEXT PRIMARY KEY,
	experiment  TEXT NOT NULL,
	case_id     TEXT NOT NULL,
	condition   TEXT NOT NULL,
	run_number  INTEGER NOT NULL,
	prompt      TEXT NOT NULL,
	response    TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scores (
	trial_id TEXT PRIMARY KEY REFERENCES trials(id),
	payload  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stability_results (
	id         TEXT PRIMARY KEY,
	case_id    TEXT NOT NULL,
	condition  TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reframing_results (
	id         TEXT PRIMARY KEY,
	case_id    TEXT NOT NULL,
	condition  TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_trials_experiment ON trials(experiment);
CREATE INDEX IF NOT EXISTS idx_trials_case ON trials(case_id);
CREATE INDEX IF NOT EXISTS idx_stability_case ON stability_results(case_id);
CREATE INDEX IF NOT EXISTS idx_reframing_case ON reframing_results(case_id);
`

func (s *ResultStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, resultMigration)
	return eris.Wrap(err, "experiment: migrate")
}

// Close closes the underlying database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

// SaveTrial records a completed trial and returns its id.
func (s *ResultStore) SaveTrial(ctx context.Context, t Trial) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trials (id, experiment, case_id, condition, run_number, prompt, response, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Experiment, t.CaseID, t.Condition, t.RunNumber,
		t.Prompt, t.Response, t.Duration.Milliseconds(), t.CreatedAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "experiment: insert trial")
	}
	return t.ID, nil
}

// ListTrials returns every trial for an experiment in insertion order.
func (s *ResultStore) ListTrials(ctx context.Context, experiment string) ([]Trial, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, experiment, case_id, condition, run_number, prompt, response, duration_ms, created_at
		 FROM trials WHERE experiment = ? ORDER BY created_at, id`,
		experiment,
	)
	if err != nil {
		return nil, eris.Wrap(err, "experiment: list trials")
	}
	defer rows.Close()

	var out []Trial
	for rows.Next() {
		var t Trial
		var durationMS int64
		if err := rows.Scan(&t.ID, &t.Experiment, &t.CaseID, &t.Condition, &t.RunNumber,
			&t.Prompt, &t.Response, &durationMS, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "experiment: scan trial")
		}
		t.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "experiment: iterate trials")
}

// SaveScore attaches a rubric score to a trial.
func (s *ResultStore) SaveScore(ctx context.Context, trialID string, score ResponseScore) error {
	payload, err := json.Marshal(score)
	if err != nil {
		return eris.Wrap(err, "experiment: marshal score")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (trial_id, payload) VALUES (?, ?)
		 ON CONFLICT(trial_id) DO UPDATE SET payload = excluded.payload`,
		trialID, string(payload),
	)
	return eris.Wrap(err, "experiment: insert score")
}

// ListScores returns all stored rubric scores.
func (s *ResultStore) ListScores(ctx context.Context) ([]ResponseScore, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM scores`)
	if err != nil {
		return nil, eris.Wrap(err, "experiment: list scores")
	}
	defer rows.Close()

	var out []ResponseScore
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "experiment: scan score")
		}
		var score ResponseScore
		if err := json.Unmarshal([]byte(payload), &score); err != nil {
			return nil, eris.Wrap(err, "experiment: unmarshal score")
		}
		out = append(out, score)
	}
	return out, eris.Wrap(rows.Err(), "experiment: iterate scores")
}

// SaveStabilityResult records a stability trial outcome.
func (s *ResultStore) SaveStabilityResult(ctx context.Context, r StabilityResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "experiment: marshal stability result")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stability_results (id, case_id, condition, payload) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), r.CaseID, r.Condition, string(payload),
	)
	return eris.Wrap(err, "experiment: insert stability result")
}

// ListStabilityResults returns all stored stability results.
func (s *ResultStore) ListStabilityResults(ctx context.Context) ([]StabilityResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM stability_results ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "experiment: list stability results")
	}
	defer rows.Close()

	var out []StabilityResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "experiment: scan stability result")
		}
		var r StabilityResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, eris.Wrap(err, "experiment: unmarshal stability result")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "experiment: iterate stability results")
}

// SaveReframingResult records a reframing trial outcome.
func (s *ResultStore) SaveReframingResult(ctx context.Context, r ReframingResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "experiment: marshal reframing result")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reframing_results (id, case_id, condition, payload) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), r.CaseID, r.Condition, string(payload),
	)
	return eris.Wrap(err, "experiment: insert reframing result")
}

// ListReframingResults returns all stored reframing results.
func (s *ResultStore) ListReframingResults(ctx context.Context) ([]ReframingResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM reframing_results ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "experiment: list reframing results")
	}
	defer rows.Close()

	var out []ReframingResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "experiment: scan reframing result")
		}
		var r ReframingResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, eris.Wrap(err, "experiment: unmarshal reframing result")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "experiment: iterate reframing results")
}
