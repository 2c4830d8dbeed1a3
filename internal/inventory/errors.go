package inventory

import (
	"context"
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy for shared inventory calls.
type Category string

const (
	CategoryTimeout          Category = "timeout"
	CategoryBadData          Category = "bad_data"
	CategoryAuthentication   Category = "authentication"
	CategoryProviderOutage   Category = "provider_outage"
	CategoryContractMismatch Category = "contract_mismatch"
	CategoryNotFound         Category = "not_found"
	CategoryRateLimited      Category = "rate_limited"
	CategoryInternal         Category = "internal"
)

// ErrCircuitOpen is wrapped when the breaker short-circuits a call.
var ErrCircuitOpen = errors.New("circuit open")

// Error is a categorized shared inventory failure.
type Error struct {
	Category Category
	Op       string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inventory %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("inventory %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(category Category, op, msg string, err error) *Error {
	return &Error{Category: category, Op: op, Message: msg, Err: err}
}

// CategoryOf extracts the category, defaulting to internal.
func CategoryOf(err error) Category {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	return CategoryInternal
}

// IsNotFound reports whether err means the inventory has no record.
func IsNotFound(err error) bool {
	return CategoryOf(err) == CategoryNotFound
}

// countsAsFailure reports whether a category should trip the breaker.
// Data and lookup misses mean the inventory answered.
func countsAsFailure(c Category) bool {
	switch c {
	case CategoryTimeout, CategoryProviderOutage, CategoryRateLimited:
		return true
	default:
		return false
	}
}
