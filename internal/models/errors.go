package models

import (
	"errors"
	"fmt"
)

// Kind groups errors by how a caller is expected to react to them.
type Kind int

const (
	// KindValidation is bad caller input; show the message, never retry.
	KindValidation Kind = iota + 1
	// KindBusinessRule is a rule violation with a precise reason code.
	KindBusinessRule
	// KindNotFound means the referenced record does not exist (or is hidden).
	KindNotFound
	// KindConflict is a uniqueness violation.
	KindConflict
	// KindStorage is a transient store failure; the caller may retry.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrEmptyCart             = newError(KindValidation, "empty_cart", "cart is empty")
	ErrUnknownShippingMethod = newError(KindValidation, "unknown_shipping_method", "unknown shipping method")
	ErrMalformedCoupon       = newError(KindValidation, "malformed_coupon", "coupon code is malformed")
	ErrInvalidInput          = newError(KindValidation, "invalid_input", "invalid input")

	ErrCouponNotFound      = newError(KindBusinessRule, "coupon_not_found", "coupon not found")
	ErrCouponExpired       = newError(KindBusinessRule, "coupon_expired", "coupon has expired")
	ErrCouponExhausted     = newError(KindBusinessRule, "coupon_exhausted", "coupon usage limit reached")
	ErrCouponMinimumNotMet = newError(KindBusinessRule, "coupon_min_order_not_met", "order does not meet the coupon minimum")
	ErrCouponInactive      = newError(KindBusinessRule, "coupon_inactive", "coupon is not active")
	ErrInsufficientStock   = newError(KindBusinessRule, "insufficient_stock", "insufficient stock")
	ErrInvalidTransition   = newError(KindBusinessRule, "invalid_transition", "invalid status transition")
	ErrAlreadyVerified     = newError(KindBusinessRule, "already_verified", "payment already reviewed")
	ErrProductUnavailable  = newError(KindBusinessRule, "product_unavailable", "product is not available")

	ErrNotFound = newError(KindNotFound, "not_found", "not found")
	ErrConflict = newError(KindConflict, "conflict", "already exists")

	ErrStorageUnavailable = newError(KindStorage, "storage_unavailable", "storage temporarily unavailable")
)

// Invalid returns a validation error carrying a specific message. It still
// matches ErrInvalidInput with errors.Is.
func Invalid(format string, args ...any) error {
	return &invalidError{msg: fmt.Sprintf(format, args...)}
}

type invalidError struct{ msg string }

func (e *invalidError) Error() string        { return e.msg }
func (e *invalidError) Is(target error) bool { return target == ErrInvalidInput }

// InsufficientStockError identifies the variant that could not cover the
// requested quantity.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidTransitionError reports a status change outside the transition table.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// StorageUnavailableError wraps a transient store failure.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("%s: storage unavailable: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error        { return e.Err }
func (e *StorageUnavailableError) Is(target error) bool { return target == ErrStorageUnavailable }

// Retryable reports whether the failed operation may be retried as-is.
func (e *StorageUnavailableError) Retryable() bool { return true }

// KindOf returns the Kind of the first domain error in err's chain, or 0.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var de *Error
	switch {
	case errors.As(err, &de):
		return de.Kind
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidTransition):
		return KindBusinessRule
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorage
	}
	return 0
}

// CodeOf returns the stable code for err, or "internal_error".
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	for _, sentinel := range []*Error{ErrInvalidInput, ErrInsufficientStock, ErrInvalidTransition, ErrStorageUnavailable} {
		if errors.Is(err, sentinel) {
			return sentinel.Code
		}
	}
	return "internal_error"
}
