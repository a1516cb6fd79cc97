package error

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"insufficient funds", ErrInsufficientFunds, CodeInsufficientFunds},
		{"negative amount", ErrNegativeAmount, CodeInvalidAmount},
		{"invalid user id", ErrInvalidUserID, CodeInvalidUserID},
		{"invalid state", ErrInvalidState, CodeInvalidState},
		{"invalid config", ErrInvalidConfig, CodeInvalidConfig},
		{"account not found", ErrAccountNotFound, CodeAccountNotFound},
		{"scan not found", ErrScanNotFound, CodeScanNotFound},
		{"account locked", ErrAccountLocked, CodeAccountLocked},
		{"provider timeout", ErrProviderTimeout, CodeProviderTimeout},
		{"provider failure", ErrProviderFailure, CodeProviderFailure},
		{"unknown error", errors.New("something else"), CodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
		})
	}

	t.Run("wrapped errors keep their code", func(t *testing.T) {
		wrapped := fmt.Errorf("reserve failed: %w", ErrInsufficientFunds)
		assert.Equal(t, CodeInsufficientFunds, ErrorCode(wrapped))
	})
}

func TestInsufficientFundsError(t *testing.T) {
	err := NewInsufficientFundsError("user-1", 400, 300)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, IsInsufficientFundsError(err))
	assert.Contains(t, err.Error(), "user-1")
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "300")
}

func TestInvalidStateError(t *testing.T) {
	err := NewInvalidStateError("reservation", "res-1", "consumed", "active", "release")

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.True(t, IsInvalidStateError(err))
	assert.Contains(t, err.Error(), "res-1")
	assert.Contains(t, err.Error(), "consumed")
}

func TestProviderError(t *testing.T) {
	t.Run("timeout variant matches timeout sentinel", func(t *testing.T) {
		err := NewProviderError("openai", "gpt-4o", true, errors.New("deadline exceeded"))

		assert.ErrorIs(t, err, ErrProviderTimeout)
		assert.True(t, IsProviderTimeoutError(err))
	})

	t.Run("failure variant matches failure sentinel", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewProviderError("openai", "gpt-4o", false, cause)

		assert.ErrorIs(t, err, ErrProviderFailure)
		assert.False(t, IsProviderTimeoutError(err))
		assert.ErrorIs(t, err, cause)
	})
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("hour", 24, "must be between 0 and 23")

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.True(t, IsInvalidConfigError(err))
	assert.Contains(t, err.Error(), "hour")
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(ErrAccountNotFound))
	assert.True(t, IsNotFoundError(ErrScanNotFound))
	assert.True(t, IsNotFoundError(ErrReservationNotFound))
	assert.True(t, IsNotFoundError(ErrQueueEntryNotFound))
	assert.True(t, IsNotFoundError(ErrProjectNotFound))
	assert.False(t, IsNotFoundError(ErrInsufficientFunds))
}
