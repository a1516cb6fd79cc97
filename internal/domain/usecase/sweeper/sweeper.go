package sweeper

import (
	"context"
	"time"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/port/persistence"
	"github.com/brandlens/scan-engine/internal/domain/usecase/ledger"
)

// Config holds the sweeper's liveness thresholds
type Config struct {
	// StuckScanThreshold is how old a running scan must be, with no live
	// queue entry backing it, before it counts as abandoned
	StuckScanThreshold time.Duration
	// EntryLivenessThreshold is how stale a running entry's updatedAt must
	// be before its worker counts as dead
	EntryLivenessThreshold time.Duration
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		StuckScanThreshold:     5 * time.Minute,
		EntryLivenessThreshold: 5 * time.Minute,
	}
}

// Sweeper detects and repairs work orphaned by dead workers: running scans
// with no live queue entry, and running queue entries whose progress went
// stale. Every repair is a conditional status transition, so the sweeper is
// idempotent and safe to run concurrently with itself and with live workers.
type Sweeper struct {
	scans        persistence.ScanRepository
	queue        persistence.QueueRepository
	ledger       *ledger.Service
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	metrics      coreport.Metrics
	cfg          Config
}

// NewSweeper creates a sweeper
func NewSweeper(
	scans persistence.ScanRepository,
	queue persistence.QueueRepository,
	ledgerService *ledger.Service,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	metrics coreport.Metrics,
	cfg Config,
) *Sweeper {
	if cfg.StuckScanThreshold <= 0 {
		cfg.StuckScanThreshold = DefaultConfig().StuckScanThreshold
	}
	if cfg.EntryLivenessThreshold <= 0 {
		cfg.EntryLivenessThreshold = DefaultConfig().EntryLivenessThreshold
	}
	return &Sweeper{
		scans:        scans,
		queue:        queue,
		ledger:       ledgerService,
		timeProvider: timeProvider,
		logger:       logger,
		metrics:      metrics,
		cfg:          cfg,
	}
}

// Report counts what a sweep repaired
type Report struct {
	StuckScans      int
	OrphanedEntries int
}

// Total returns the number of repaired items
func (r Report) Total() int {
	return r.StuckScans + r.OrphanedEntries
}

// Sweep runs one repair pass. An empty userID sweeps all users. Errors on
// individual items are logged and skipped; the pass itself only fails when
// the candidate queries do.
func (s *Sweeper) Sweep(ctx context.Context, userID string) (*Report, error) {
	report := &Report{}
	now := s.timeProvider.Now()

	stuck, err := s.scans.ListRunningBefore(ctx, now.Add(-s.cfg.StuckScanThreshold), userID)
	if err != nil {
		return nil, err
	}
	for _, scan := range stuck {
		repaired, err := s.repairStuckScan(ctx, scan)
		if err != nil {
			s.logger.Error("Failed to repair stuck scan", map[string]any{
				"scan_id": scan.ID,
				"error":   err.Error(),
			})
			continue
		}
		if repaired {
			report.StuckScans++
		}
	}

	stale, err := s.queue.ListRunningStale(ctx, now.Add(-s.cfg.EntryLivenessThreshold), userID)
	if err != nil {
		return nil, err
	}
	for _, entry := range stale {
		repaired, err := s.repairOrphanedEntry(ctx, entry)
		if err != nil {
			s.logger.Error("Failed to repair orphaned queue entry", map[string]any{
				"entry_id": entry.ID,
				"error":    err.Error(),
			})
			continue
		}
		if repaired {
			report.OrphanedEntries++
		}
	}

	if report.Total() > 0 {
		s.metrics.SweeperRepairs(report.Total())
		s.logger.Info("Sweeper repaired orphaned work", map[string]any{
			"user_id":          userID,
			"stuck_scans":      report.StuckScans,
			"orphaned_entries": report.OrphanedEntries,
		})
	}
	return report, nil
}

// repairStuckScan fails a running scan that no live queue entry references.
// A scan still backed by a pending or running entry is a long-running but
// alive job, not a stuck one.
func (s *Sweeper) repairStuckScan(ctx context.Context, scan *entity.Scan) (bool, error) {
	alive, err := s.queue.HasLiveEntryForScan(ctx, scan.ID)
	if err != nil {
		return false, err
	}
	if alive {
		return false, nil
	}

	if err := scan.Fail("scan abandoned by worker", s.timeProvider); err != nil {
		return false, nil
	}
	won, err := s.scans.TransitionStatus(ctx, scan, entity.ScanRunning)
	if err != nil {
		return false, err
	}
	if !won {
		// The scan finished or was stopped while we looked at it.
		return false, nil
	}

	if _, err := s.ledger.ReleaseForScan(ctx, scan.ID, "stuck scan recovery"); err != nil {
		return true, err
	}
	return true, nil
}

// repairOrphanedEntry fails a running entry whose worker stopped updating
// it, then fails and releases the entry's scan if one was created.
func (s *Sweeper) repairOrphanedEntry(ctx context.Context, entry *entity.QueueEntry) (bool, error) {
	if err := entry.Fail("worker timeout", s.timeProvider); err != nil {
		return false, nil
	}
	won, err := s.queue.TransitionStatus(ctx, entry, entity.QueueRunning)
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}

	if entry.ScanID != "" {
		scan, err := s.scans.GetByID(ctx, entry.ScanID)
		if err == nil && scan.Status == entity.ScanRunning {
			if failErr := scan.Fail("worker timeout", s.timeProvider); failErr == nil {
				if _, err := s.scans.TransitionStatus(ctx, scan, entity.ScanRunning); err != nil {
					s.logger.Error("Failed to fail scan of orphaned entry", map[string]any{
						"scan_id": scan.ID,
						"error":   err.Error(),
					})
				}
			}
		}
		if _, err := s.ledger.ReleaseForScan(ctx, entry.ScanID, "worker timeout recovery"); err != nil {
			return true, err
		}
	}
	return true, nil
}
