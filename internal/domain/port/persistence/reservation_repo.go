package persistence

import (
	"context"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// ReservationRepository defines methods to interact with reservations
type ReservationRepository interface {
	// Create inserts a new reservation
	//
	// Possible errors:
	// - ErrConstraintViolation: If the reservation violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, reservation *entity.Reservation) error

	// GetByID retrieves a reservation
	//
	// Possible errors:
	// - ErrReservationNotFound: If no reservation exists with the ID
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)

	// GetByIDForUpdate retrieves a reservation under an exclusive row lock.
	// Must be called inside a unit of work; guards the active -> terminal
	// transition against concurrent consume/release attempts.
	//
	// Possible errors:
	// - ErrReservationNotFound: If no reservation exists with the ID
	// - ErrDatabaseConnection: If database connection fails
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Reservation, error)

	// GetActiveByScanID retrieves the single active reservation for a scan
	//
	// Possible errors:
	// - ErrReservationNotFound: If the scan has no active reservation
	// - ErrDatabaseConnection: If database connection fails
	GetActiveByScanID(ctx context.Context, scanID string) (*entity.Reservation, error)

	// Update persists a reservation's status transition
	//
	// Possible errors:
	// - ErrReservationNotFound: If the reservation disappeared
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, reservation *entity.Reservation) error
}
