package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInsufficientFunds = 4001
	CodeInvalidAmount     = 4002
	CodeInvalidUserID     = 4003
	CodeInvalidState      = 4004
	CodeInvalidConfig     = 4005
	CodeAmountOverflow    = 4006
	CodeAccountNotFound   = 4040
	CodeScanNotFound      = 4041
	CodeAccountLocked     = 4230

	// 5xxx - Server errors
	CodeInternalServer  = 5000
	CodeProviderFailure = 5020
	CodeProviderTimeout = 5040
)

// Base error types
var (
	// ErrInsufficientFunds is returned when a reservation exceeds the user's available balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when an amount format is invalid
	ErrInvalidAmount = errors.New("invalid amount format")

	// ErrNegativeAmount is returned when an amount is negative where it must not be
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrAmountOverflow is returned when an amount is too large and would cause overflow
	ErrAmountOverflow = errors.New("amount is too large and would cause overflow")

	// ErrInvalidUserID is returned when the user ID is empty or malformed
	ErrInvalidUserID = errors.New("user ID must not be empty")

	// ErrInvalidState is returned when an operation targets a reservation, scan or
	// queue entry that is not in the required lifecycle state
	ErrInvalidState = errors.New("invalid lifecycle state for operation")

	// ErrInvalidConfig is returned when schedule configuration parameters are out of range
	ErrInvalidConfig = errors.New("invalid schedule configuration")

	// ErrProviderFailure is returned when an LLM provider call fails
	ErrProviderFailure = errors.New("model provider call failed")

	// ErrProviderTimeout is returned when an LLM provider call exceeds its deadline
	ErrProviderTimeout = errors.New("model provider call timed out")

	// ErrAccountNotFound is returned when no balance account exists for the user
	ErrAccountNotFound = errors.New("account not found")

	// ErrScanNotFound is returned when the requested scan doesn't exist
	ErrScanNotFound = errors.New("scan not found")

	// ErrReservationNotFound is returned when the requested reservation doesn't exist
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrQueueEntryNotFound is returned when the requested queue entry doesn't exist
	ErrQueueEntryNotFound = errors.New("queue entry not found")

	// ErrProjectNotFound is returned when the requested project doesn't exist
	ErrProjectNotFound = errors.New("project not found")

	// ErrEntryAlreadyClaimed is returned when a worker loses the race for a pending queue entry
	ErrEntryAlreadyClaimed = errors.New("queue entry already claimed")

	// ErrEntryNotRunning is returned when a progress write targets a queue entry
	// that has already left the running state
	ErrEntryNotRunning = errors.New("queue entry is not running")

	// ErrAccountLocked is returned when the account row is locked by another operation
	ErrAccountLocked = errors.New("account is locked by another operation")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrNegativeAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidUserID):
		return CodeInvalidUserID
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, ErrInvalidConfig):
		return CodeInvalidConfig
	case errors.Is(err, ErrAmountOverflow):
		return CodeAmountOverflow
	case errors.Is(err, ErrAccountNotFound):
		return CodeAccountNotFound
	case errors.Is(err, ErrScanNotFound):
		return CodeScanNotFound
	case errors.Is(err, ErrAccountLocked):
		return CodeAccountLocked
	case errors.Is(err, ErrProviderTimeout):
		return CodeProviderTimeout
	case errors.Is(err, ErrProviderFailure):
		return CodeProviderFailure
	default:
		return CodeInternalServer
	}
}

// InsufficientFundsError provides detailed error information for denied reservations
type InsufficientFundsError struct {
	UserID         string
	RequestedCents int64
	AvailableCents int64
}

// Error implements the error interface
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for user %s: required %d cents, available %d cents",
		e.UserID, e.RequestedCents, e.AvailableCents)
}

// Is checks if the target error is an ErrInsufficientFunds
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientFundsError) LogFields() map[string]any {
	return map[string]any{
		"error_type":      "insufficient_funds",
		"user_id":         e.UserID,
		"requested_cents": e.RequestedCents,
		"available_cents": e.AvailableCents,
		"error_code":      CodeInsufficientFunds,
	}
}

// NewInsufficientFundsError creates a new detailed insufficient funds error
func NewInsufficientFundsError(userID string, requestedCents, availableCents int64) error {
	return &InsufficientFundsError{
		UserID:         userID,
		RequestedCents: requestedCents,
		AvailableCents: availableCents,
	}
}

// InvalidStateError describes an operation attempted against an entity
// whose current lifecycle state does not permit it
type InvalidStateError struct {
	Entity    string
	EntityID  string
	Current   string
	Required  string
	Operation string
}

// Error implements the error interface
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s on %s %s: state is %q, requires %q",
		e.Operation, e.Entity, e.EntityID, e.Current, e.Required)
}

// Is checks if the target error is an ErrInvalidState
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// LogFields returns a map of fields for structured logging
func (e *InvalidStateError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "invalid_state",
		"entity":         e.Entity,
		"entity_id":      e.EntityID,
		"current_state":  e.Current,
		"required_state": e.Required,
		"operation":      e.Operation,
		"error_code":     CodeInvalidState,
	}
}

// NewInvalidStateError creates a detailed invalid state error
func NewInvalidStateError(entity, entityID, current, required, operation string) error {
	return &InvalidStateError{
		Entity:    entity,
		EntityID:  entityID,
		Current:   current,
		Required:  required,
		Operation: operation,
	}
}

// ProviderError describes a failed call against an external model provider
type ProviderError struct {
	Provider string
	Model    string
	Timeout  bool
	Err      error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("provider %s model %s timed out: %v", e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("provider %s model %s failed: %v", e.Provider, e.Model, e.Err)
}

// Is checks if the target matches the provider failure taxonomy.
// A timeout matches both ErrProviderTimeout and ErrProviderFailure.
func (e *ProviderError) Is(target error) bool {
	if target == ErrProviderFailure {
		return true
	}
	return e.Timeout && target == ErrProviderTimeout
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *ProviderError) LogFields() map[string]any {
	code := CodeProviderFailure
	if e.Timeout {
		code = CodeProviderTimeout
	}
	return map[string]any{
		"error_type": "provider_failure",
		"provider":   e.Provider,
		"model":      e.Model,
		"timeout":    e.Timeout,
		"error":      e.Err.Error(),
		"error_code": code,
	}
}

// NewProviderError creates a provider failure error
func NewProviderError(provider, model string, timeout bool, err error) error {
	return &ProviderError{Provider: provider, Model: model, Timeout: timeout, Err: err}
}

// ConfigError describes a rejected schedule configuration field
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid schedule configuration: %s=%v (%s)", e.Field, e.Value, e.Reason)
}

// Is checks if the target error is an ErrInvalidConfig
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// LogFields returns a map of fields for structured logging
func (e *ConfigError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "invalid_config",
		"field":      e.Field,
		"value":      e.Value,
		"reason":     e.Reason,
		"error_code": CodeInvalidConfig,
	}
}

// NewConfigError creates a schedule configuration error
func NewConfigError(field string, value any, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// IsInsufficientFundsError checks if the error is related to insufficient funds
func IsInsufficientFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsInvalidStateError checks if the error indicates a lifecycle state conflict
func IsInvalidStateError(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsInvalidConfigError checks if the error is a schedule configuration error
func IsInvalidConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsProviderTimeoutError checks if the error is a provider timeout
func IsProviderTimeoutError(err error) bool {
	return errors.Is(err, ErrProviderTimeout)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrScanNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrQueueEntryNotFound) ||
		errors.Is(err, ErrProjectNotFound)
}

// IsAccountLockedError checks if the error is related to a locked account
func IsAccountLockedError(err error) bool {
	return errors.Is(err, ErrAccountLocked)
}
