package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// stepOutput wraps a step result before it is stored. A bare JSON scalar in a
// JSON column comes back from SQLite as a number, which datatypes.JSON cannot
// scan; an object always round-trips as text.
type stepOutput struct {
	Value json.RawMessage `json:"v"`
}

// Step gives a handler access to memoized steps of the current run.
type Step struct {
	db    *gorm.DB
	runID string
	now   func() time.Time
	done  map[string]json.RawMessage
}

func newStep(ctx context.Context, db *gorm.DB, runID string, now func() time.Time) (*Step, error) {
	var rows []models.WorkflowStep
	if err := db.WithContext(ctx).Where("run_id = ?", runID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load steps of run %s: %w", runID, err)
	}

	done := make(map[string]json.RawMessage, len(rows))
	for _, r := range rows {
		var env stepOutput
		if err := json.Unmarshal(r.Output, &env); err != nil {
			return nil, fmt.Errorf("decode step %s of run %s: %w", r.StepID, runID, err)
		}
		done[r.StepID] = env.Value
	}
	return &Step{db: db, runID: runID, now: now, done: done}, nil
}

// Run executes fn once per run. When the step already completed in an
// earlier attempt its stored output is returned and fn is not called.
func (s *Step) Run(ctx context.Context, id string, fn func(ctx context.Context) (any, error)) (json.RawMessage, error) {
	if out, ok := s.done[id]; ok {
		return out, nil
	}

	v, err := fn(ctx)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", id, err)
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, NonRetriable(fmt.Errorf("step %s: marshal output: %w", id, err))
	}
	if err := s.record(ctx, id, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SleepUntil suspends the run until t. The handler returns early with an
// internal error that the engine turns into a SLEEPING run; once t has passed
// the call is recorded and returns nil.
func (s *Step) SleepUntil(ctx context.Context, id string, t time.Time) error {
	if _, ok := s.done[id]; ok {
		return nil
	}
	if s.now().Before(t) {
		return &errSuspended{step: id, until: t.UTC()}
	}
	return s.record(ctx, id, json.RawMessage("null"))
}

// Now is the engine's clock, the same one SleepUntil compares against.
func (s *Step) Now() time.Time {
	return s.now()
}

// Completed reports whether step id has already run in this run.
func (s *Step) Completed(id string) bool {
	_, ok := s.done[id]
	return ok
}

func (s *Step) record(ctx context.Context, id string, out json.RawMessage) error {
	env, err := json.Marshal(stepOutput{Value: out})
	if err != nil {
		return NonRetriable(fmt.Errorf("step %s: wrap output: %w", id, err))
	}
	row := models.WorkflowStep{
		RunID:       s.runID,
		StepID:      id,
		Output:      datatypes.JSON(env),
		CompletedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("record step %s: %w", id, err)
	}
	s.done[id] = out
	return nil
}

// Run is the typed form of Step.Run.
func Run[T any](ctx context.Context, s *Step, id string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	out, err := s.Run(ctx, id, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return result, NonRetriable(fmt.Errorf("step %s: decode output: %w", id, err))
	}
	return result, nil
}
