// Package workflow is a small durable function runtime on top of gorm. Events
// start runs, runs are executed by polling workers, completed steps are
// memoized so a resumed run replays without repeating side effects, and a
// run can suspend itself until a point in time without holding a goroutine.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event triggers every function subscribed to Name. ID identifies the delivery:
// sending the same ID twice starts each function at most once.
type Event struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals data into an Event.
func NewEvent(name, id string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event %s data: %w", name, err)
	}
	return Event{ID: id, Name: name, Data: raw}, nil
}

// Decode unmarshals the event data into v.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return NonRetriable(fmt.Errorf("event %s has no data", e.Name))
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return NonRetriable(fmt.Errorf("decode event %s: %w", e.Name, err))
	}
	return nil
}

// HandlerFunc is the body of a workflow function. It is re-entered from the
// top every time the run resumes; side effects belong inside step.Run.
type HandlerFunc func(ctx context.Context, ev Event, step *Step) error

// Function binds a handler to the event name that triggers it.
type Function struct {
	ID      string
	Trigger string
	Handler HandlerFunc
}

type nonRetriableError struct {
	err error
}

func (e *nonRetriableError) Error() string { return e.err.Error() }
func (e *nonRetriableError) Unwrap() error { return e.err }

// NonRetriable marks err so that the run fails immediately instead of being
// retried.
func NonRetriable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetriableError{err: err}
}

// IsNonRetriable reports whether err was marked with NonRetriable.
func IsNonRetriable(err error) bool {
	var nr *nonRetriableError
	return errors.As(err, &nr)
}

// errSuspended is returned by a sleeping step to unwind the handler.
type errSuspended struct {
	step  string
	until time.Time
}

func (e *errSuspended) Error() string {
	return fmt.Sprintf("suspended at step %s until %s", e.step, e.until.Format(time.RFC3339))
}
