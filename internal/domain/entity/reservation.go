package entity

import (
	"time"

	"github.com/google/uuid"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

// Reservation statuses. A reservation is created active and moves exactly
// once to consumed (scan finished, final cost charged) or released (funds
// returned). Terminal states are immutable.
const (
	ReservationActive   ReservationStatus = "active"
	ReservationConsumed ReservationStatus = "consumed"
	ReservationReleased ReservationStatus = "released"
)

// Reservation is a hold against a user's balance sized for a scan's
// worst-case cost. At most one active reservation exists per scan.
type Reservation struct {
	ID          string
	UserID      string
	ScanID      string
	AmountCents int64
	Status      ReservationStatus
	Reason      string
	CreatedAt   time.Time
	ClosedAt    *time.Time
}

// NewReservation creates an active reservation for a scan
func NewReservation(userID, scanID string, amountCents int64, timeProvider coreport.TimeProvider) (*Reservation, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	if amountCents < 0 {
		return nil, errs.ErrNegativeAmount
	}
	return &Reservation{
		ID:          uuid.NewString(),
		UserID:      userID,
		ScanID:      scanID,
		AmountCents: amountCents,
		Status:      ReservationActive,
		CreatedAt:   timeProvider.Now(),
	}, nil
}

// IsActive reports whether the reservation still holds funds
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationActive
}

// MarkConsumed transitions active -> consumed.
// Returns ErrInvalidState when the reservation is already terminal.
func (r *Reservation) MarkConsumed(timeProvider coreport.TimeProvider) error {
	if r.Status != ReservationActive {
		return errs.NewInvalidStateError("reservation", r.ID, string(r.Status), string(ReservationActive), "consume")
	}
	now := timeProvider.Now()
	r.Status = ReservationConsumed
	r.ClosedAt = &now
	return nil
}

// MarkReleased transitions active -> released with the given reason.
// Returns ErrInvalidState when the reservation is already terminal.
func (r *Reservation) MarkReleased(reason string, timeProvider coreport.TimeProvider) error {
	if r.Status != ReservationActive {
		return errs.NewInvalidStateError("reservation", r.ID, string(r.Status), string(ReservationActive), "release")
	}
	now := timeProvider.Now()
	r.Status = ReservationReleased
	r.Reason = reason
	r.ClosedAt = &now
	return nil
}
