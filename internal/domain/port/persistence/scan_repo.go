package persistence

import (
	"context"
	"time"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// ScanRepository defines methods to interact with scan rows
type ScanRepository interface {
	// Create inserts a new scan
	//
	// Possible errors:
	// - ErrConstraintViolation: If the scan violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, scan *entity.Scan) error

	// GetByID retrieves a scan
	//
	// Possible errors:
	// - ErrScanNotFound: If no scan exists with the ID
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.Scan, error)

	// Update persists a scan's fields unconditionally
	//
	// Possible errors:
	// - ErrScanNotFound: If the scan disappeared
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, scan *entity.Scan) error

	// TransitionStatus conditionally moves a scan from one status to another,
	// persisting the scan's terminal fields in the same statement. Returns
	// false without error when the scan was not in the expected status, so a
	// repair never clobbers a concurrent state change.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	TransitionStatus(ctx context.Context, scan *entity.Scan, from entity.ScanStatus) (bool, error)

	// ListRunningBefore returns running scans created before the cutoff.
	// Used by the recovery sweeper for stuck-scan detection.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListRunningBefore(ctx context.Context, cutoff time.Time, userID string) ([]*entity.Scan, error)

	// ListByUserID returns a user's scans, newest first
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Scan, error)
}

// ScanResultRepository persists the per query/model result rows of a scan
type ScanResultRepository interface {
	// Create inserts a result row
	//
	// Possible errors:
	// - ErrConstraintViolation: If the row violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, result *entity.ScanResult) error

	// ListByScanID returns a scan's result rows in creation order
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListByScanID(ctx context.Context, scanID string) ([]*entity.ScanResult, error)
}
