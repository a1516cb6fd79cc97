package entity

import (
	"time"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
)

// Account represents a user's prepaid credit balance. AvailableCents is
// spendable immediately; ReservedCents is the sum of all active reservations
// held against in-flight scans. Both are stored in cents to avoid floating
// point precision issues.
type Account struct {
	UserID         string
	AvailableCents int64
	ReservedCents  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates an account with a zero balance. Accounts are
// auto-provisioned on first access, so a fresh account is always empty.
func NewAccount(userID string, timeProvider coreport.TimeProvider) (*Account, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	now := timeProvider.Now()
	return &Account{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TotalCents returns the full balance including held funds
func (a *Account) TotalCents() int64 {
	return a.AvailableCents + a.ReservedCents
}

// CanReserve checks whether the available balance covers the requested hold
func (a *Account) CanReserve(amountCents int64) bool {
	return amountCents >= 0 && a.AvailableCents >= amountCents
}

// Hold moves amountCents from available to reserved.
// Returns ErrInsufficientFunds if the available balance cannot cover it.
func (a *Account) Hold(amountCents int64, timeProvider coreport.TimeProvider) error {
	if amountCents < 0 {
		return errs.ErrNegativeAmount
	}
	if a.AvailableCents < amountCents {
		return errs.NewInsufficientFundsError(a.UserID, amountCents, a.AvailableCents)
	}
	a.AvailableCents -= amountCents
	a.ReservedCents += amountCents
	a.UpdatedAt = timeProvider.Now()
	return nil
}

// ReleaseHold returns the full held amount to the available balance
func (a *Account) ReleaseHold(amountCents int64, timeProvider coreport.TimeProvider) {
	a.ReservedCents -= amountCents
	a.AvailableCents += amountCents
	a.UpdatedAt = timeProvider.Now()
}

// SettleHold finalizes a hold of reservedCents at an actual cost of
// actualCents. The reserved amount leaves the reserved bucket; the unspent
// delta returns to the available balance. actualCents must already be capped
// at reservedCents by the caller.
func (a *Account) SettleHold(reservedCents, actualCents int64, timeProvider coreport.TimeProvider) {
	a.ReservedCents -= reservedCents
	a.AvailableCents += reservedCents - actualCents
	a.UpdatedAt = timeProvider.Now()
}

// Credit adds amountCents to the available balance (top-ups, refunds)
func (a *Account) Credit(amountCents int64, timeProvider coreport.TimeProvider) error {
	if amountCents < 0 {
		return errs.ErrNegativeAmount
	}
	a.AvailableCents += amountCents
	a.UpdatedAt = timeProvider.Now()
	return nil
}
