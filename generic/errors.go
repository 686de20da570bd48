/*
errors.go - Centralized error types for the renewal engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input errors - malformed dates, vehicles, payment selections
  2. Business-rule rejections - renewal while not expired, payment declined
  3. Store errors - receipt persistence failures

  Rejections are not failures: the renewal workflow reports them as tagged
  outcomes and only exposes them as errors for callers that prefer errors.Is.

USAGE:
  if errors.Is(err, generic.ErrInvalidMethod) {
      // ask the user to pick 1-6 again
  }

SEE ALSO:
  - renewal/workflow.go: Outcome.Err maps outcomes to these sentinels
  - api/handlers.go: maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date fails the loose range checks.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidVehicle is returned when vehicle attributes are unusable
	// (negative value, missing manufacture year).
	ErrInvalidVehicle = errors.New("invalid vehicle")

	// ErrInvalidMethod is returned for a payment selector outside 1-6.
	ErrInvalidMethod = errors.New("invalid payment method selection")

	// ErrNotExpired is returned when renewal is attempted on a policy that is
	// active or still inside the grace period.
	ErrNotExpired = errors.New("policy is not expired; renewal is disabled")

	// ErrPaymentDeclined is returned when payment confirmation was refused.
	ErrPaymentDeclined = errors.New("payment not confirmed")

	// ErrDuplicateIdempotencyKey is returned when a receipt with the same
	// idempotency key already exists. Expected for client retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrReceiptNotFound is returned when a receipt ID is unknown.
	ErrReceiptNotFound = errors.New("receipt not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidDateError names the offending input and the rule it broke.
type InvalidDateError struct {
	Input  string
	Reason string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Input, e.Reason)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// InvalidMethodError carries the rejected selector.
type InvalidMethodError struct {
	Choice int
}

func (e *InvalidMethodError) Error() string {
	return fmt.Sprintf("invalid payment method selection %d: choose 1-6", e.Choice)
}

func (e *InvalidMethodError) Unwrap() error { return ErrInvalidMethod }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidVehicle) ||
		errors.Is(err, ErrInvalidMethod)
}

// IsRejection returns true for business-rule outcomes that leave state untouched.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNotExpired) ||
		errors.Is(err, ErrPaymentDeclined)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrReceiptNotFound)
}
