package persistence

import (
	"context"
)

// UnitOfWork defines an interface for coordinating operations across
// multiple repositories inside one store transaction. Reserve/consume/
// release must each be a single atomic unit so concurrent reservations for
// one user cannot both succeed against funds that only cover one.
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetAccountRepository returns an account repository bound to the current transaction
	GetAccountRepository(ctx context.Context) AccountRepository

	// GetTransactionRepository returns a ledger repository bound to the current transaction
	GetTransactionRepository(ctx context.Context) TransactionRepository

	// GetReservationRepository returns a reservation repository bound to the current transaction
	GetReservationRepository(ctx context.Context) ReservationRepository
}
