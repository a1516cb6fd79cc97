package ledger

import (
	"context"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
)

// ConsumeReservation finalizes an active reservation at the scan's actual
// cost. The reserved amount leaves the hold, a usage ledger entry is
// appended for the actual cost, and any unspent delta returns to the
// available balance. Consumption is capped at the reserved amount: a scan
// can never charge more than was held for it.
//
// Returns ErrInvalidState when the reservation is not active, which guards
// double-consumption.
func (s *Service) ConsumeReservation(ctx context.Context, reservationID string, actualAmountCents int64) error {
	if actualAmountCents < 0 {
		return errs.ErrNegativeAmount
	}

	err := s.inTx(ctx, func(txCtx context.Context) error {
		accounts := s.uow.GetAccountRepository(txCtx)
		reservations := s.uow.GetReservationRepository(txCtx)
		transactions := s.uow.GetTransactionRepository(txCtx)

		reservation, err := reservations.GetByIDForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsActive() {
			return errs.NewInvalidStateError(
				"reservation", reservation.ID, string(reservation.Status),
				string(entity.ReservationActive), "consume")
		}

		actual := actualAmountCents
		if actual > reservation.AmountCents {
			s.logger.Warn("Actual cost exceeds reservation, capping at reserved amount", map[string]any{
				"reservation_id": reservation.ID,
				"reserved_cents": reservation.AmountCents,
				"actual_cents":   actual,
			})
			actual = reservation.AmountCents
		}

		account, err := accounts.GetByUserIDForUpdate(txCtx, reservation.UserID)
		if err != nil {
			return err
		}
		account.SettleHold(reservation.AmountCents, actual, s.timeProvider)

		entry, err := entity.NewUsageTransaction(reservation.UserID, actual, reservation.ScanID, s.timeProvider)
		if err != nil {
			return err
		}
		if err := transactions.Create(txCtx, entry); err != nil {
			return err
		}

		if err := reservation.MarkConsumed(s.timeProvider); err != nil {
			return err
		}
		if err := reservations.Update(txCtx, reservation); err != nil {
			return err
		}
		return accounts.Update(txCtx, account)
	})
	if err != nil {
		s.logger.Error("Failed to consume reservation", map[string]any{
			"reservation_id": reservationID,
			"actual_cents":   actualAmountCents,
			"error":          err.Error(),
		})
		return err
	}

	s.logger.Info("Reservation consumed", map[string]any{
		"reservation_id": reservationID,
		"actual_cents":   actualAmountCents,
	})
	return nil
}
