package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultWorkers      = 1
	defaultPollInterval = 5 * time.Second
	defaultLeaseTimeout = 2 * time.Minute
	defaultMaxAttempts  = 4
	defaultRetryBackoff = 10 * time.Second
	maxRetryBackoff     = time.Hour
	claimBatchSize      = 10
)

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	Workers      int
	PollInterval time.Duration
	LeaseTimeout time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration

	// Clock returns the current time; tests replace it.
	Clock   func() time.Time
	Metrics *metrics.Workflow
}

// Engine stores runs in the database and executes them with polling workers.
type Engine struct {
	db   *gorm.DB
	opts Options

	mu        sync.RWMutex
	functions map[string]Function
	triggers  map[string][]string

	wake     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates an engine. Functions must be registered before Start.
func New(db *gorm.DB, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.LeaseTimeout <= 0 {
		opts.LeaseTimeout = defaultLeaseTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		db:        db,
		opts:      opts,
		functions: make(map[string]Function),
		triggers:  make(map[string][]string),
		wake:      make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Register adds functions to the engine. Function ids must be unique.
func (e *Engine) Register(fns ...Function) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, fn := range fns {
		if fn.ID == "" || fn.Trigger == "" || fn.Handler == nil {
			return fmt.Errorf("workflow function %q is incomplete", fn.ID)
		}
		if _, exists := e.functions[fn.ID]; exists {
			return fmt.Errorf("workflow function %q already registered", fn.ID)
		}
		e.functions[fn.ID] = fn
		e.triggers[fn.Trigger] = append(e.triggers[fn.Trigger], fn.ID)
	}
	return nil
}

// Send persists one run per function subscribed to each event. Runs that
// already exist for the same (function, event id) are left untouched.
func (e *Engine) Send(ctx context.Context, events ...Event) error {
	now := e.opts.Clock()

	var runs []models.WorkflowRun
	e.mu.RLock()
	for _, ev := range events {
		if ev.ID == "" {
			e.mu.RUnlock()
			return fmt.Errorf("event %s has no id", ev.Name)
		}
		for _, fnID := range e.triggers[ev.Name] {
			runs = append(runs, models.WorkflowRun{
				FunctionID: fnID,
				EventID:    ev.ID,
				EventName:  ev.Name,
				Payload:    datatypes.JSON(ev.Data),
				Status:     models.WorkflowRunPending,
				WakeAt:     now,
			})
		}
	}
	e.mu.RUnlock()

	if len(runs) == 0 {
		for _, ev := range events {
			log.Debug().Str("event", ev.Name).Msg("No workflow function subscribed to event")
		}
		return nil
	}

	if err := e.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "function_id"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&runs).Error; err != nil {
		return fmt.Errorf("enqueue workflow runs: %w", err)
	}

	e.Wake()
	return nil
}

// Wake nudges an idle worker to poll immediately.
func (e *Engine) Wake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Start runs the workers and blocks until ctx is cancelled or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	log.Info().
		Int("workers", e.opts.Workers).
		Dur("poll_interval", e.opts.PollInterval).
		Msg("Starting workflow engine")

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			e.work(ctx, worker)
		}(i)
	}
	wg.Wait()

	log.Info().Msg("Workflow engine stopped")
}

// Stop stops the workers started by Start.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

func (e *Engine) work(ctx context.Context, worker int) {
	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := e.RunDue(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Int("worker", worker).Msg("Workflow poll failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
		case <-e.wake:
		}
	}
}

// RunDue executes runs that are due until none are left and returns how many
// runs were executed.
func (e *Engine) RunDue(ctx context.Context) (int, error) {
	executed := 0
	for {
		if ctx.Err() != nil {
			return executed, ctx.Err()
		}

		run, err := e.claimNext(ctx)
		if err != nil {
			return executed, err
		}
		if run == nil {
			return executed, nil
		}

		e.execute(ctx, run)
		executed++
	}
}

func (e *Engine) claimNext(ctx context.Context) (*models.WorkflowRun, error) {
	now := e.opts.Clock()

	var candidates []models.WorkflowRun
	if err := e.db.WithContext(ctx).
		Where("(status IN ? AND wake_at <= ?) OR (status = ? AND locked_until < ?)",
			[]models.WorkflowRunStatus{models.WorkflowRunPending, models.WorkflowRunSleeping}, now,
			models.WorkflowRunRunning, now).
		Order("wake_at ASC").
		Limit(claimBatchSize).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("find due workflow runs: %w", err)
	}

	for i := range candidates {
		run := candidates[i]
		lockedUntil := now.Add(e.opts.LeaseTimeout)

		// attempts changes on every claim, so it fences concurrent claimers.
		result := e.db.WithContext(ctx).Model(&models.WorkflowRun{}).
			Where("id = ? AND status = ? AND attempts = ?", run.ID, run.Status, run.Attempts).
			Updates(map[string]interface{}{
				"status":       models.WorkflowRunRunning,
				"locked_until": lockedUntil,
				"attempts":     run.Attempts + 1,
			})
		if result.Error != nil {
			return nil, fmt.Errorf("claim workflow run %s: %w", run.ID, result.Error)
		}
		if result.RowsAffected == 1 {
			run.Status = models.WorkflowRunRunning
			run.LockedUntil = &lockedUntil
			run.Attempts++
			return &run, nil
		}
	}
	return nil, nil
}

func (e *Engine) execute(ctx context.Context, run *models.WorkflowRun) {
	logger := log.With().
		Str("run_id", run.ID).
		Str("function", run.FunctionID).
		Str("event_id", run.EventID).
		Int("attempt", run.Attempts).
		Logger()

	e.mu.RLock()
	fn, ok := e.functions[run.FunctionID]
	e.mu.RUnlock()
	if !ok {
		e.finish(ctx, run, models.WorkflowRunFailed, e.opts.Clock(), "function not registered")
		logger.Error().Msg("Workflow function not registered")
		return
	}

	err := e.invoke(ctx, fn, run)
	now := e.opts.Clock()

	var suspended *errSuspended
	switch {
	case err == nil:
		e.finish(ctx, run, models.WorkflowRunCompleted, now, "")
		logger.Info().Msg("Workflow run completed")
	case errors.As(err, &suspended):
		e.finish(ctx, run, models.WorkflowRunSleeping, suspended.until, "")
		logger.Info().Str("step", suspended.step).Time("wake_at", suspended.until).Msg("Workflow run sleeping")
	case IsNonRetriable(err) || run.Attempts >= e.opts.MaxAttempts:
		e.finish(ctx, run, models.WorkflowRunFailed, now, err.Error())
		logger.Error().Err(err).Msg("Workflow run failed")
	default:
		e.opts.Metrics.RunRetried(run.FunctionID)
		e.finish(ctx, run, models.WorkflowRunPending, now.Add(e.backoff(run.Attempts)), err.Error())
		logger.Warn().Err(err).Msg("Workflow run will be retried")
	}
}

func (e *Engine) invoke(ctx context.Context, fn Function, run *models.WorkflowRun) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workflow function panicked: %v", r)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, e.opts.LeaseTimeout)
	defer cancel()

	step, err := newStep(runCtx, e.db, run.ID, e.opts.Clock)
	if err != nil {
		return err
	}

	ev := Event{ID: run.EventID, Name: run.EventName, Data: []byte(run.Payload)}
	return fn.Handler(runCtx, ev, step)
}

func (e *Engine) finish(ctx context.Context, run *models.WorkflowRun, status models.WorkflowRunStatus, wakeAt time.Time, lastError string) {
	updates := map[string]interface{}{
		"status":       status,
		"wake_at":      wakeAt,
		"locked_until": nil,
		"last_error":   lastError,
	}
	// a sleeping run made progress, so its retry budget starts over
	if status == models.WorkflowRunSleeping {
		updates["attempts"] = 0
	}

	result := e.db.WithContext(context.WithoutCancel(ctx)).Model(&models.WorkflowRun{}).
		Where("id = ? AND status = ? AND attempts = ?", run.ID, models.WorkflowRunRunning, run.Attempts).
		Updates(updates)
	if result.Error != nil {
		log.Error().Err(result.Error).Str("run_id", run.ID).Msg("Failed to store workflow run state")
		return
	}
	if result.RowsAffected == 0 {
		log.Warn().Str("run_id", run.ID).Msg("Workflow run lease lost before state was stored")
		return
	}

	if status != models.WorkflowRunPending {
		e.opts.Metrics.RunFinished(run.FunctionID, string(status))
	}
}

func (e *Engine) backoff(attempt int) time.Duration {
	d := e.opts.RetryBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return d
}

// FindRun loads the run started by eventID for functionID.
func (e *Engine) FindRun(ctx context.Context, functionID, eventID string) (*models.WorkflowRun, error) {
	var run models.WorkflowRun
	if err := e.db.WithContext(ctx).
		Where("function_id = ? AND event_id = ?", functionID, eventID).
		First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
