package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/port/llm"
	"github.com/brandlens/scan-engine/internal/domain/port/persistence"
	"github.com/brandlens/scan-engine/internal/domain/usecase/ledger"
	"github.com/brandlens/scan-engine/internal/domain/usecase/schedule"
)

// Config bounds the dispatcher's worker pool and per-call deadlines
type Config struct {
	// Workers is the size of the parallel worker pool launched per dispatch
	Workers int
	// CallTimeout bounds each external model call, kept short of the
	// platform's own execution ceiling
	CallTimeout time.Duration
	// ClaimBatchSize is how many pending entries a worker scans per claim
	// attempt
	ClaimBatchSize int
	// DefaultPriority is assigned to scheduled queue entries
	DefaultPriority int
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		Workers:         10,
		CallTimeout:     90 * time.Second,
		ClaimBatchSize:  20,
		DefaultPriority: 0,
	}
}

// Dispatcher finds due projects, enqueues scan work and drains the queue
// with a bounded pool of parallel workers. Dispatch is fire-and-forget: the
// trigger returns once entries are queued and workers launched, while the
// workers keep running past the triggering request's lifetime.
type Dispatcher struct {
	projects     persistence.ProjectRepository
	queue        persistence.QueueRepository
	history      persistence.ScheduleHistoryRepository
	scans        persistence.ScanRepository
	results      persistence.ScanResultRepository
	ledger       *ledger.Service
	caller       llm.ModelCaller
	pricer       llm.Pricer
	evaluator    llm.Evaluator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	metrics      coreport.Metrics
	cfg          Config

	workerWG sync.WaitGroup
}

// NewDispatcher creates a dispatcher. evaluator may be nil when scoring is
// disabled.
func NewDispatcher(
	projects persistence.ProjectRepository,
	queue persistence.QueueRepository,
	history persistence.ScheduleHistoryRepository,
	scans persistence.ScanRepository,
	results persistence.ScanResultRepository,
	ledgerService *ledger.Service,
	caller llm.ModelCaller,
	pricer llm.Pricer,
	evaluator llm.Evaluator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	metrics coreport.Metrics,
	cfg Config,
) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultConfig().CallTimeout
	}
	if cfg.ClaimBatchSize <= 0 {
		cfg.ClaimBatchSize = DefaultConfig().ClaimBatchSize
	}
	return &Dispatcher{
		projects:     projects,
		queue:        queue,
		history:      history,
		scans:        scans,
		results:      results,
		ledger:       ledgerService,
		caller:       caller,
		pricer:       pricer,
		evaluator:    evaluator,
		timeProvider: timeProvider,
		logger:       logger,
		metrics:      metrics,
		cfg:          cfg,
	}
}

// Result reports what a dispatch cycle did
type Result struct {
	ProjectsDue    int
	EntriesQueued  int
	WorkersSpawned int
}

// Dispatch queues all due projects and launches the worker pool. Each due
// project is processed independently; one project's queuing error never
// fails the cycle as a whole.
func (d *Dispatcher) Dispatch(ctx context.Context) (*Result, error) {
	now := d.timeProvider.Now()

	due, err := d.projects.ListDue(ctx, now)
	if err != nil {
		d.logger.Error("Failed to query due projects", map[string]any{"error": err.Error()})
		return nil, err
	}

	result := &Result{ProjectsDue: len(due)}
	for _, project := range due {
		if err := d.enqueueProject(ctx, project, now); err != nil {
			d.logger.Error("Failed to enqueue project, continuing with remaining", map[string]any{
				"project_id": project.ID,
				"error":      err.Error(),
			})
			continue
		}
		result.EntriesQueued++
	}
	d.metrics.ScansDispatched(result.EntriesQueued)

	result.WorkersSpawned = d.launchWorkers(ctx)

	d.logger.Info("Dispatch cycle finished", map[string]any{
		"projects_due":    result.ProjectsDue,
		"entries_queued":  result.EntriesQueued,
		"workers_spawned": result.WorkersSpawned,
	})
	return result, nil
}

// enqueueProject writes the audit record and queue entry for one due
// project, then recomputes nextRunAt from now rather than from the missed
// slot, so repeated misses never cause a catch-up storm.
func (d *Dispatcher) enqueueProject(ctx context.Context, project *entity.Project, now time.Time) error {
	scheduledFor := now
	if project.Schedule.NextRunAt != nil {
		scheduledFor = *project.Schedule.NextRunAt
	}

	record := entity.NewScheduleHistory(project.ID, scheduledFor, d.timeProvider)
	if err := d.history.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}

	entry, err := entity.NewQueueEntry(project.UserID, project.ID, d.cfg.DefaultPriority, d.timeProvider)
	if err == nil {
		err = d.queue.Create(ctx, entry)
	}
	if err != nil {
		if closeErr := record.Close(entity.HistoryFailed, err.Error(), d.timeProvider); closeErr == nil {
			if updErr := d.history.Update(ctx, record); updErr != nil {
				d.logger.Warn("Failed to close history record", map[string]any{
					"history_id": record.ID,
					"error":      updErr.Error(),
				})
			}
		}
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	nextRun, err := schedule.NextRun(project.Schedule, now)
	if err != nil {
		// Config went bad after enqueue; the entry still runs, the schedule
		// just stops advancing until the user fixes it.
		d.logger.Warn("Cannot recompute next run, schedule left as-is", map[string]any{
			"project_id": project.ID,
			"error":      err.Error(),
		})
		return nil
	}
	if err := d.projects.UpdateSchedule(ctx, project.ID, &nextRun, &now); err != nil {
		d.logger.Warn("Failed to persist recomputed schedule", map[string]any{
			"project_id": project.ID,
			"error":      err.Error(),
		})
	}

	d.logger.Info("Project queued for scan", map[string]any{
		"project_id":  project.ID,
		"entry_id":    entry.ID,
		"next_run_at": nextRun,
	})
	return nil
}

// launchWorkers starts the bounded pool. Workers are detached from the
// triggering request's cancellation: scans may outlive the dispatch call.
func (d *Dispatcher) launchWorkers(ctx context.Context) int {
	workerCtx := context.WithoutCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.workerWG.Add(1)
		go d.runWorker(workerCtx, i)
	}
	return d.cfg.Workers
}

// runWorker claims and executes pending entries until the queue drains.
// A panic inside scan execution is captured and reflected in the entry
// state rather than lost with the goroutine.
func (d *Dispatcher) runWorker(ctx context.Context, workerID int) {
	defer d.workerWG.Done()

	for {
		entry, ok := d.claimNext(ctx, workerID)
		if !ok {
			return
		}
		d.executeEntry(ctx, entry, workerID)
	}
}

// claimNext scans the pending backlog and races for one entry. Losing a
// claim is normal under concurrency; the worker just moves to the next
// candidate. Returns false when nothing claimable remains.
func (d *Dispatcher) claimNext(ctx context.Context, workerID int) (*entity.QueueEntry, bool) {
	entries, err := d.queue.ListPending(ctx, d.cfg.ClaimBatchSize)
	if err != nil {
		d.logger.Error("Worker failed to list pending entries", map[string]any{
			"worker_id": workerID,
			"error":     err.Error(),
		})
		return nil, false
	}
	d.metrics.QueueDepth(len(entries))
	if len(entries) == 0 {
		return nil, false
	}

	for _, entry := range entries {
		claimErr := d.queue.Claim(ctx, entry.ID, d.timeProvider.Now())
		if claimErr != nil {
			// Another worker won this entry; keep scanning.
			d.logger.Debug("Claim lost", map[string]any{
				"worker_id": workerID,
				"entry_id":  entry.ID,
			})
			continue
		}
		if err := entry.Start(d.timeProvider); err != nil {
			d.logger.Error("Claimed entry in unexpected state", map[string]any{
				"worker_id": workerID,
				"entry_id":  entry.ID,
				"error":     err.Error(),
			})
			continue
		}
		return entry, true
	}
	return nil, false
}

// Wait blocks until all launched workers have finished. Used for graceful
// shutdown and tests.
func (d *Dispatcher) Wait() {
	d.workerWG.Wait()
}
