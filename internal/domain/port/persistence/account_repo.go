package persistence

import (
	"context"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// AccountRepository defines methods to interact with balance account rows.
// The account row is the single point of write contention across a user's
// concurrent scans; every balance mutation must go through a locked read
// inside a unit of work.
type AccountRepository interface {
	// GetByUserID retrieves a user's account
	//
	// Possible errors:
	// - ErrAccountNotFound: If no account row exists for the user
	// - ErrDatabaseConnection: If database connection fails
	GetByUserID(ctx context.Context, userID string) (*entity.Account, error)

	// GetByUserIDForUpdate retrieves a user's account under an exclusive row
	// lock. Must be called inside a unit of work; the lock is held until the
	// surrounding transaction commits or rolls back.
	//
	// Possible errors:
	// - ErrAccountNotFound: If no account row exists for the user
	// - ErrAccountLocked: If lock acquisition times out
	// - ErrDatabaseConnection: If database connection fails
	GetByUserIDForUpdate(ctx context.Context, userID string) (*entity.Account, error)

	// Create inserts a new account row (auto-provisioning on first access)
	//
	// Possible errors:
	// - ErrConstraintViolation: If an account already exists for the user
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, account *entity.Account) error

	// Update persists the account's balance columns
	//
	// Possible errors:
	// - ErrAccountNotFound: If the account row disappeared
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, account *entity.Account) error
}
