package persistence

import (
	"context"
	"time"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// QueueRepository defines methods to interact with queue entries. Claiming
// requires at-most-one-winner semantics from the store: the pending ->
// running transition is a conditional update that exactly one concurrent
// caller can win.
type QueueRepository interface {
	// Create inserts a pending queue entry
	//
	// Possible errors:
	// - ErrConstraintViolation: If the entry violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, entry *entity.QueueEntry) error

	// GetByID retrieves a queue entry
	//
	// Possible errors:
	// - ErrQueueEntryNotFound: If no entry exists with the ID
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.QueueEntry, error)

	// Claim atomically transitions an entry from pending to running, setting
	// startedAt. Returns ErrEntryAlreadyClaimed when another worker won the
	// entry first (or it is no longer pending).
	//
	// Possible errors:
	// - ErrEntryAlreadyClaimed: If the entry is not pending anymore
	// - ErrDatabaseConnection: If database connection fails
	Claim(ctx context.Context, id string, startedAt time.Time) error

	// Update persists an entry's progress fields while it is still running.
	// Status never moves through Update; it moves only through Claim and
	// TransitionStatus, so a concurrent repair cannot be overwritten.
	//
	// Possible errors:
	// - ErrEntryNotRunning: If the entry already left the running state
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, entry *entity.QueueEntry) error

	// TransitionStatus conditionally moves an entry from one status to
	// another, persisting error/progress fields in the same statement.
	// Returns false without error when the entry was not in the expected
	// status.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	TransitionStatus(ctx context.Context, entry *entity.QueueEntry, from entity.QueueStatus) (bool, error)

	// ListPending returns pending entries ordered by priority then age
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListPending(ctx context.Context, limit int) ([]*entity.QueueEntry, error)

	// ListActiveByUserID returns a user's pending and running entries
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListActiveByUserID(ctx context.Context, userID string) ([]*entity.QueueEntry, error)

	// ListRunningStale returns running entries whose updatedAt is older than
	// the cutoff. Used by the recovery sweeper for orphan detection.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListRunningStale(ctx context.Context, cutoff time.Time, userID string) ([]*entity.QueueEntry, error)

	// HasLiveEntryForScan reports whether any pending or running entry
	// references the scan. Distinguishes a stuck scan from a long-running
	// but alive one.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	HasLiveEntryForScan(ctx context.Context, scanID string) (bool, error)
}
