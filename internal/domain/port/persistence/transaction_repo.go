package persistence

import (
	"context"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// TransactionRepository defines methods to interact with the append-only
// ledger. Entries are never updated or deleted; the sum of a user's entries
// is the consistency check against the cached account row.
type TransactionRepository interface {
	// Create appends a ledger entry
	//
	// Possible errors:
	// - ErrConstraintViolation: If the entry violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, transaction *entity.Transaction) error

	// ListByUserID returns a user's ledger entries, newest first
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Transaction, error)

	// SumByUserID returns the signed sum of all of a user's entries.
	// Used to verify the cached account row against the ledger.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	SumByUserID(ctx context.Context, userID string) (int64, error)
}
