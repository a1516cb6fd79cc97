package ledger

import (
	"context"
	"errors"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
)

// ReleaseReservation returns an active reservation's full amount to the
// available balance. Releasing an already-consumed or already-released
// reservation is a no-op that reports success, tolerating the race between a
// stop request and normal completion.
func (s *Service) ReleaseReservation(ctx context.Context, reservationID, reason string) error {
	err := s.inTx(ctx, func(txCtx context.Context) error {
		accounts := s.uow.GetAccountRepository(txCtx)
		reservations := s.uow.GetReservationRepository(txCtx)

		reservation, err := reservations.GetByIDForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsActive() {
			s.logger.Debug("Release on non-active reservation is a no-op", map[string]any{
				"reservation_id": reservation.ID,
				"status":         string(reservation.Status),
			})
			return nil
		}

		account, err := accounts.GetByUserIDForUpdate(txCtx, reservation.UserID)
		if err != nil {
			return err
		}
		account.ReleaseHold(reservation.AmountCents, s.timeProvider)

		if err := reservation.MarkReleased(reason, s.timeProvider); err != nil {
			return err
		}
		if err := reservations.Update(txCtx, reservation); err != nil {
			return err
		}
		return accounts.Update(txCtx, account)
	})
	if err != nil {
		s.logger.Error("Failed to release reservation", map[string]any{
			"reservation_id": reservationID,
			"reason":         reason,
			"error":          err.Error(),
		})
		return err
	}

	s.logger.Info("Reservation released", map[string]any{
		"reservation_id": reservationID,
		"reason":         reason,
	})
	return nil
}

// ReleaseForScan releases the scan's active reservation if one exists.
// Returns true when funds were actually returned. Used by stop requests and
// the recovery sweeper, which know the scan but not the reservation.
func (s *Service) ReleaseForScan(ctx context.Context, scanID, reason string) (bool, error) {
	released := false
	err := s.inTx(ctx, func(txCtx context.Context) error {
		accounts := s.uow.GetAccountRepository(txCtx)
		reservations := s.uow.GetReservationRepository(txCtx)

		reservation, err := reservations.GetActiveByScanID(txCtx, scanID)
		if errors.Is(err, errs.ErrReservationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		// Re-read under lock; the reservation may have been closed between
		// the lookup and the lock acquisition.
		reservation, err = reservations.GetByIDForUpdate(txCtx, reservation.ID)
		if err != nil {
			return err
		}
		if !reservation.IsActive() {
			return nil
		}

		account, err := accounts.GetByUserIDForUpdate(txCtx, reservation.UserID)
		if err != nil {
			return err
		}
		account.ReleaseHold(reservation.AmountCents, s.timeProvider)

		if err := reservation.MarkReleased(reason, s.timeProvider); err != nil {
			return err
		}
		if err := reservations.Update(txCtx, reservation); err != nil {
			return err
		}
		if err := accounts.Update(txCtx, account); err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to release reservation for scan", map[string]any{
			"scan_id": scanID,
			"reason":  reason,
			"error":   err.Error(),
		})
		return false, err
	}

	if released {
		s.logger.Info("Scan reservation released", map[string]any{
			"scan_id": scanID,
			"reason":  reason,
		})
	}
	return released, nil
}
