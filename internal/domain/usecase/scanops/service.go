package scanops

import (
	"context"
	"errors"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/port/persistence"
	"github.com/brandlens/scan-engine/internal/domain/usecase/ledger"
	"github.com/brandlens/scan-engine/internal/domain/usecase/sweeper"
)

// Service exposes the scan lifecycle operations users may invoke directly:
// stopping a running scan, reading what is currently active, and forcing a
// recovery pass.
type Service struct {
	scans        persistence.ScanRepository
	queue        persistence.QueueRepository
	ledger       *ledger.Service
	sweeper      *sweeper.Sweeper
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a scan operations service
func NewService(
	scans persistence.ScanRepository,
	queue persistence.QueueRepository,
	ledgerService *ledger.Service,
	sweep *sweeper.Sweeper,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		scans:        scans,
		queue:        queue,
		ledger:       ledgerService,
		sweeper:      sweep,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// StopScan transitions a running scan to stopped and releases its
// reservation. Stopping an already-terminal scan reports success without
// change, keeping client polling logic simple. The in-flight worker
// discovers the stop at its next status check and ceases on its own.
func (s *Service) StopScan(ctx context.Context, scanID string) (*entity.Scan, error) {
	scan, err := s.scans.GetByID(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if scan.IsTerminal() {
		return scan, nil
	}

	if err := scan.Stop(s.timeProvider); err != nil {
		return scan, nil
	}
	won, err := s.scans.TransitionStatus(ctx, scan, entity.ScanRunning)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race against completion or repair; re-read and report
		// whatever terminal state won.
		return s.scans.GetByID(ctx, scanID)
	}

	if _, err := s.ledger.ReleaseForScan(ctx, scanID, "stopped by user"); err != nil {
		s.logger.Error("Failed to release reservation on stop", map[string]any{
			"scan_id": scanID,
			"error":   err.Error(),
		})
		return scan, err
	}

	s.logger.Info("Scan stopped by user", map[string]any{"scan_id": scanID})
	return scan, nil
}

// ActiveWork pairs a queue entry with its scan, when one exists yet
type ActiveWork struct {
	Entry *entity.QueueEntry
	Scan  *entity.Scan
}

// ActiveScans returns the user's pending and running work, running an
// opportunistic sweeper pass first so abandoned state is repaired before it
// is reported.
func (s *Service) ActiveScans(ctx context.Context, userID string) ([]ActiveWork, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}

	if _, err := s.sweeper.Sweep(ctx, userID); err != nil {
		// Read-time repair is best effort; a failed sweep must not hide the
		// user's live status.
		s.logger.Error("Read-time sweep failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	entries, err := s.queue.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	work := make([]ActiveWork, 0, len(entries))
	for _, entry := range entries {
		item := ActiveWork{Entry: entry}
		if entry.ScanID != "" {
			scan, err := s.scans.GetByID(ctx, entry.ScanID)
			if err != nil && !errors.Is(err, errs.ErrScanNotFound) {
				return nil, err
			}
			item.Scan = scan
		}
		work = append(work, item)
	}
	return work, nil
}

// Cleanup forces a sweeper pass for one user and reports what it repaired
func (s *Service) Cleanup(ctx context.Context, userID string) (*sweeper.Report, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	return s.sweeper.Sweep(ctx, userID)
}
