package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/events"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/service/followup"
)

// TaskSource provides the read queries each scan pass needs. TaskStore
// implementations satisfy it.
type TaskSource interface {
	// FindRecurrenceCandidates returns terminal recurring tasks that have
	// no successor yet, up to limit.
	FindRecurrenceCandidates(ctx context.Context, limit int) ([]*domain.Task, error)

	// FindOverduePending returns pending tasks whose due date lies before
	// asOf, up to limit.
	FindOverduePending(ctx context.Context, asOf time.Time, limit int) ([]*domain.Task, error)
}

// SuccessorGenerator creates the next occurrence for a terminal recurring
// task. The followup package provides the production implementation.
type SuccessorGenerator interface {
	GenerateSuccessor(ctx context.Context, parentTaskID uuid.UUID) (*domain.Task, error)
}

// Config holds the operational knobs of the scan loop.
type Config struct {
	// Interval is the period between scan passes. It tunes latency only:
	// a candidate missed by one pass is picked up by the next.
	Interval time.Duration

	// BatchSize caps how many tasks each query returns per pass.
	BatchSize int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Interval:  time.Minute,
		BatchSize: 50,
	}
}

// Scheduler periodically advances recurrence chains and surfaces overdue
// tasks through the event emitter.
type Scheduler struct {
	tasks     TaskSource
	generator SuccessorGenerator
	emitter   events.EventEmitter
	config    Config
	logger    *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler creates a Scheduler over the given collaborators. Zero config
// fields fall back to DefaultConfig values. Returns an error if any required
// dependency is nil.
func NewScheduler(
	tasks TaskSource,
	generator SuccessorGenerator,
	emitter events.EventEmitter,
	config Config,
	logger *slog.Logger,
) (*Scheduler, error) {
	// Validate dependencies
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if generator == nil {
		return nil, domain.NewValidationError("generator", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}

	return &Scheduler{
		tasks:     tasks,
		generator: generator,
		emitter:   emitter,
		config:    config,
		logger:    logger.With(slog.String("component", "scheduler")),
	}, nil
}

// Start launches the scan loop in a background goroutine. The first pass
// runs immediately so a restarted process catches up without waiting a full
// interval. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("scheduler started",
		slog.Duration("interval", s.config.Interval),
		slog.Int("batch_size", s.config.BatchSize))
}

// Stop halts the loop and waits for an in-flight pass to finish. The
// scheduler can be started again afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.RunPass(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunPass(ctx)
		}
	}
}

// RunPass executes a single scan pass: advance chains for recurrence
// candidates, then flag overdue pending tasks. Exposed so hosts and tests
// can trigger a pass without the ticker.
func (s *Scheduler) RunPass(ctx context.Context) {
	s.advanceChains(ctx)
	s.flagOverdue(ctx)
}

// advanceChains feeds recurrence candidates to the follow-up generator.
func (s *Scheduler) advanceChains(ctx context.Context) {
	candidates, err := s.tasks.FindRecurrenceCandidates(ctx, s.config.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "recurrence candidate scan failed",
			slog.String("error", err.Error()))
		return
	}
	if len(candidates) == 0 {
		return
	}

	s.logger.InfoContext(ctx, "found recurrence candidates",
		slog.Int("count", len(candidates)))

	var generated, skipped, failed int
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return
		}

		_, err := s.generator.GenerateSuccessor(ctx, candidate.ID)
		switch {
		case err == nil:
			generated++
		case errors.Is(err, followup.ErrAlreadyClaimed),
			errors.Is(err, followup.ErrNotEligible),
			errors.Is(err, followup.ErrParentNotFound):
			// Another instance, the fast path, or a concurrent edit got
			// there first. Nothing left to do for this candidate.
			skipped++
			s.logger.DebugContext(ctx, "skipped recurrence candidate",
				slog.String("task_id", candidate.ID.String()),
				slog.String("reason", err.Error()))
		default:
			// The candidate stays in the scan set and is retried next pass.
			failed++
			s.logger.ErrorContext(ctx, "successor generation failed",
				slog.String("task_id", candidate.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "recurrence pass finished",
		slog.Int("generated", generated),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed))
}

// flagOverdue emits an OverdueFlagged event per overdue pending task. The
// tasks themselves are not modified, so consumers see every overdue task on
// every pass until it leaves pending.
func (s *Scheduler) flagOverdue(ctx context.Context) {
	asOf := time.Now().UTC()
	overdue, err := s.tasks.FindOverduePending(ctx, asOf, s.config.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "overdue scan failed",
			slog.String("error", err.Error()))
		return
	}
	if len(overdue) == 0 {
		return
	}

	var flagged int
	for _, task := range overdue {
		if ctx.Err() != nil {
			return
		}
		if task.DueDate == nil {
			continue
		}

		event, err := events.NewOverdueFlaggedEvent(task.ID, *task.DueDate)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to build overdue event",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			// Logged only: the next pass re-emits for any task still overdue.
			s.logger.WarnContext(ctx, "failed to emit overdue event",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		flagged++
	}

	s.logger.InfoContext(ctx, "flagged overdue tasks",
		slog.Int("count", flagged),
		slog.Int("scanned", len(overdue)))
}
