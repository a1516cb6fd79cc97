package cron

import (
	"context"

	"github.com/robfig/cron/v3"

	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/usecase/dispatch"
	"github.com/brandlens/scan-engine/internal/domain/usecase/sweeper"
	"github.com/brandlens/scan-engine/internal/infrastructure/config"
)

// Runner fires the dispatch and sweep cycles on their configured schedules.
// It backs up the external trigger endpoint so scheduled scans still run
// when nothing calls the HTTP API.
type Runner struct {
	cron       *cron.Cron
	dispatcher *dispatch.Dispatcher
	sweeper    *sweeper.Sweeper
	logger     coreport.Logger
	cfg        config.CronConfig
}

// NewRunner creates a cron runner
func NewRunner(dispatcher *dispatch.Dispatcher, sweep *sweeper.Sweeper, logger coreport.Logger, cfg config.CronConfig) *Runner {
	return &Runner{
		cron:       cron.New(),
		dispatcher: dispatcher,
		sweeper:    sweep,
		logger:     logger,
		cfg:        cfg,
	}
}

// Start registers the jobs and starts the scheduler. Overlapping runs are
// harmless: dispatch claims are single-winner and the sweeper is idempotent.
func (r *Runner) Start() error {
	if !r.cfg.Enabled {
		r.logger.Info("Internal cron disabled, dispatch relies on external trigger", nil)
		return nil
	}

	if _, err := r.cron.AddFunc(r.cfg.DispatchSpec, r.runDispatch); err != nil {
		return err
	}
	if _, err := r.cron.AddFunc(r.cfg.SweepSpec, r.runSweep); err != nil {
		return err
	}

	r.cron.Start()
	r.logger.Info("Internal cron started", map[string]any{
		"dispatch_spec": r.cfg.DispatchSpec,
		"sweep_spec":    r.cfg.SweepSpec,
	})
	return nil
}

// Stop stops the scheduler and waits for in-flight jobs
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Runner) runDispatch() {
	result, err := r.dispatcher.Dispatch(context.Background())
	if err != nil {
		r.logger.Error("Scheduled dispatch cycle failed", map[string]any{"error": err.Error()})
		return
	}
	r.logger.Debug("Scheduled dispatch cycle finished", map[string]any{
		"projects_due":   result.ProjectsDue,
		"entries_queued": result.EntriesQueued,
	})
}

func (r *Runner) runSweep() {
	report, err := r.sweeper.Sweep(context.Background(), "")
	if err != nil {
		r.logger.Error("Scheduled sweep failed", map[string]any{"error": err.Error()})
		return
	}
	if report.Total() > 0 {
		r.logger.Info("Scheduled sweep repaired work", map[string]any{
			"stuck_scans":      report.StuckScans,
			"orphaned_entries": report.OrphanedEntries,
		})
	}
}
