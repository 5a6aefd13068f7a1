package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/lidarclean/internal/lidar/evaluation"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Run is one invocation of a filter configuration over one or more
// sequences.
type Run struct {
	RunID     string          `json:"run_id"`
	Algorithm string          `json:"algorithm"`
	Source    string          `json:"source"`
	Params    json.RawMessage `json:"params,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

// FrameResult is the outcome of filtering one frame. Score is nil when the
// frame had no labels.
type FrameResult struct {
	RunID    string            `json:"run_id"`
	Sequence string            `json:"sequence"`
	Frame    string            `json:"frame"`
	Points   int               `json:"points"`
	Outliers int               `json:"outliers"`
	Dropped  int               `json:"dropped"`
	Duration time.Duration     `json:"duration_ns"`
	Score    *evaluation.Score `json:"score,omitempty"`
}

// RunSummary aggregates the frame results of a run.
type RunSummary struct {
	RunID    string
	Frames   int
	Points   int
	Outliers int
	Dropped  int
	Duration time.Duration

	// Evaluation covers only the frames that were scored.
	Evaluation evaluation.Summary
}

// OutlierRatio is the share of points flagged over the whole run.
func (s RunSummary) OutlierRatio() float64 {
	if s.Points == 0 {
		return 0
	}
	return float64(s.Outliers) / float64(s.Points)
}

// RunStore reads and writes lidar_runs and lidar_frame_results.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore on a migrated database.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// CreateRun inserts run. An empty RunID is replaced by a new UUID and a zero
// CreatedAt by the current time.
func (s *RunStore) CreateRun(run *Run) error {
	if run.Algorithm == "" {
		return fmt.Errorf("create run: algorithm is empty")
	}
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var params interface{}
	if len(run.Params) > 0 {
		if !json.Valid(run.Params) {
			return fmt.Errorf("create run: params are not valid JSON")
		}
		params = string(run.Params)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO lidar_runs (run_id, algorithm, source, params_json, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			run.RunID, run.Algorithm, run.Source, params, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// GetRun returns the run with id, or an error wrapping ErrNotFound.
func (s *RunStore) GetRun(id string) (*Run, error) {
	var run Run
	var params sql.NullString
	err := s.db.QueryRow(`
		SELECT run_id, algorithm, source, params_json, created_at
		FROM lidar_runs
		WHERE run_id = ?`, id,
	).Scan(&run.RunID, &run.Algorithm, &run.Source, &params, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if params.Valid {
		run.Params = json.RawMessage(params.String)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *RunStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, algorithm, source, params_json, created_at
		FROM lidar_runs
		ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var params sql.NullString
		if err := rows.Scan(&run.RunID, &run.Algorithm, &run.Source, &params, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if params.Valid {
			run.Params = json.RawMessage(params.String)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// InsertFrameResult records one frame of a run. Re-inserting the same
// (run, sequence, frame) replaces the earlier row.
func (s *RunStore) InsertFrameResult(r *FrameResult) error {
	if r.RunID == "" {
		return fmt.Errorf("insert frame result: run id is empty")
	}

	var scored int
	var tp, fp, fn, tn int
	var precision, recall, f1, iou interface{}
	if r.Score != nil {
		scored = 1
		tp, fp, fn, tn = r.Score.TruePositives, r.Score.FalsePositives, r.Score.FalseNegatives, r.Score.TrueNegatives
		precision, recall, f1, iou = r.Score.Precision, r.Score.Recall, r.Score.F1, r.Score.IoU
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO lidar_frame_results (
				run_id, sequence, frame, points, outliers, dropped, duration_ns,
				scored, true_positives, false_positives, false_negatives, true_negatives,
				precision_score, recall_score, f1_score, iou_score
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Sequence, r.Frame, r.Points, r.Outliers, r.Dropped, r.Duration.Nanoseconds(),
			scored, tp, fp, fn, tn,
			precision, recall, f1, iou,
		)
		if err != nil {
			return fmt.Errorf("insert frame result: %w", err)
		}
		return nil
	})
}

// ListFrameResults returns the frames of a run ordered by sequence and
// frame name.
func (s *RunStore) ListFrameResults(runID string) ([]*FrameResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, sequence, frame, points, outliers, dropped, duration_ns,
		       scored, true_positives, false_positives, false_negatives, true_negatives,
		       precision_score, recall_score, f1_score, iou_score
		FROM lidar_frame_results
		WHERE run_id = ?
		ORDER BY sequence, frame`, runID)
	if err != nil {
		return nil, fmt.Errorf("query frame results: %w", err)
	}
	defer rows.Close()

	var results []*FrameResult
	for rows.Next() {
		r, err := scanFrameResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanFrameResult(rows *sql.Rows) (*FrameResult, error) {
	var r FrameResult
	var durationNs int64
	var scored bool
	var score evaluation.Score
	var precision, recall, f1, iou sql.NullFloat64
	err := rows.Scan(
		&r.RunID, &r.Sequence, &r.Frame, &r.Points, &r.Outliers, &r.Dropped, &durationNs,
		&scored, &score.TruePositives, &score.FalsePositives, &score.FalseNegatives, &score.TrueNegatives,
		&precision, &recall, &f1, &iou,
	)
	if err != nil {
		return nil, fmt.Errorf("scan frame result: %w", err)
	}
	r.Duration = time.Duration(durationNs)
	if scored {
		score.Precision = precision.Float64
		score.Recall = recall.Float64
		score.F1 = f1.Float64
		score.IoU = iou.Float64
		r.Score = &score
	}
	return &r, nil
}

// RunSummary aggregates all frame results of a run. The run must exist.
func (s *RunStore) RunSummary(runID string) (*RunSummary, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}
	results, err := s.ListFrameResults(runID)
	if err != nil {
		return nil, err
	}

	sum := &RunSummary{RunID: runID, Frames: len(results)}
	var scores []evaluation.Score
	for _, r := range results {
		sum.Points += r.Points
		sum.Outliers += r.Outliers
		sum.Dropped += r.Dropped
		sum.Duration += r.Duration
		if r.Score != nil {
			scores = append(scores, *r.Score)
		}
	}
	sum.Evaluation = evaluation.Summarise(scores)
	return sum, nil
}

// DeleteRun removes a run and, through the foreign key, its frame results.
func (s *RunStore) DeleteRun(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM lidar_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil
	})
}
