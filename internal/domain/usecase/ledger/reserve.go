package ledger

import (
	"context"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
)

// Reserve holds amountCents of the user's available balance against a scan.
// The availability check, the balance move and the reservation insert are
// one atomic unit under the account row lock, so two concurrent reservations
// can never both succeed against funds that only cover one.
func (s *Service) Reserve(ctx context.Context, userID string, amountCents int64, scanID string) (*entity.Reservation, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	if amountCents < 0 {
		return nil, errs.ErrNegativeAmount
	}

	var reservation *entity.Reservation
	err := s.inTx(ctx, func(txCtx context.Context) error {
		accounts := s.uow.GetAccountRepository(txCtx)
		reservations := s.uow.GetReservationRepository(txCtx)

		account, err := s.lockOrProvision(txCtx, accounts, userID)
		if err != nil {
			return err
		}

		if err := account.Hold(amountCents, s.timeProvider); err != nil {
			return err
		}

		reservation, err = entity.NewReservation(userID, scanID, amountCents, s.timeProvider)
		if err != nil {
			return err
		}
		if err := reservations.Create(txCtx, reservation); err != nil {
			return err
		}
		return accounts.Update(txCtx, account)
	})
	if err != nil {
		if errs.IsInsufficientFundsError(err) {
			s.logger.Warn("Reservation denied", map[string]any{
				"user_id":      userID,
				"scan_id":      scanID,
				"amount_cents": amountCents,
			})
		} else {
			s.logger.Error("Reservation failed", map[string]any{
				"user_id":      userID,
				"scan_id":      scanID,
				"amount_cents": amountCents,
				"error":        err.Error(),
			})
		}
		return nil, err
	}

	s.logger.Info("Reservation created", map[string]any{
		"reservation_id": reservation.ID,
		"user_id":        userID,
		"scan_id":        scanID,
		"amount_cents":   amountCents,
	})
	return reservation, nil
}
