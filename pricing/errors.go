/*
errors.go - Centralized error types for the pricing engine

PURPOSE:
  All error kinds in one place. The engine never catches-and-swallows:
  every failure is returned to the immediate caller with enough detail
  (which field, what was expected) to render a specific message.

ERROR CATEGORIES:
  1. Validation errors - Missing/invalid input, rejected before any
     partial output is produced
  2. Reference errors  - A tenure code that does not resolve in the
     catalog; the whole operation fails, never a silent zero-fill

  Reconciliation divergence is deliberately NOT an error: it is a
  diagnostic on Summary (see summary.go) and the caller decides whether
  to block on it.

USAGE:
    if pricing.IsValidation(err) {
        // 400-class: bad input
    }
    if pricing.IsReference(err) {
        // 404-class: unknown tenure code
    }
*/
package pricing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrTenureNotFound is returned when a member references a tenure code
	// absent from the catalog. Recomputation fails loudly rather than
	// defaulting the member's weight.
	ErrTenureNotFound = errors.New("tenure code not found")

	// ErrPlanNotFound is returned by stores when a plan id does not exist.
	ErrPlanNotFound = errors.New("pricing plan not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ReferenceError reports an unresolvable tenure code.
type ReferenceError struct {
	Code TenureCode
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("tenure code %q not found in catalog", e.Code)
}

func (e *ReferenceError) Unwrap() error {
	return ErrTenureNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsReference returns true if the error is an unresolvable catalog reference.
func IsReference(err error) bool {
	return errors.Is(err, ErrTenureNotFound)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) || errors.Is(err, ErrTenureNotFound)
}
