package vars

import (
	"errors"
	"fmt"

	"github.com/roach88/txvar/internal/value"
)

// StoreError represents a failed store operation.
//
// All store errors are synchronous and non-retryable: the operation aborts
// immediately and no variable state changes. Recovery of variable state is
// driven entirely by transaction lifecycle events, never by error handling
// inside Set/Get.
type StoreError struct {
	// Code identifies the error category.
	Code StoreErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the variable name involved, when known.
	Name string

	// Want and Got carry both type ids for mismatch diagnostics.
	Want value.TypeID
	Got  value.TypeID
}

// StoreErrorCode categorizes store errors.
type StoreErrorCode string

const (
	// ErrCodeNullName indicates the variable name argument is absent.
	ErrCodeNullName StoreErrorCode = "NULL_NAME"

	// ErrCodeUnknownType indicates the type of a value or default could not
	// be determined.
	ErrCodeUnknownType StoreErrorCode = "UNKNOWN_TYPE"

	// ErrCodeTypeMismatch indicates a read under a type different from the
	// one the value was stored with.
	ErrCodeTypeMismatch StoreErrorCode = "TYPE_MISMATCH"

	// ErrCodeNoTransaction indicates a transactional write outside any
	// transaction. The host contract guarantees an active transaction for
	// every transactional call, so hitting this is a wiring bug.
	ErrCodeNoTransaction StoreErrorCode = "NO_TRANSACTION"
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Code == ErrCodeTypeMismatch {
		return fmt.Sprintf("%s: %s (name=%s, expected %s, got %s)", e.Code, e.Message, e.Name, e.Want, e.Got)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNullName reports whether err is a null-name error.
// Uses errors.As to handle wrapped errors.
func IsNullName(err error) bool {
	return hasCode(err, ErrCodeNullName)
}

// IsUnknownType reports whether err is an unknown-type error.
func IsUnknownType(err error) bool {
	return hasCode(err, ErrCodeUnknownType)
}

// IsTypeMismatch reports whether err is a type-mismatch error.
func IsTypeMismatch(err error) bool {
	return hasCode(err, ErrCodeTypeMismatch)
}

// IsNoTransaction reports whether err is a no-transaction error.
func IsNoTransaction(err error) bool {
	return hasCode(err, ErrCodeNoTransaction)
}

func hasCode(err error, code StoreErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func newNullNameError() *StoreError {
	return &StoreError{
		Code:    ErrCodeNullName,
		Message: "variable name must not be empty",
	}
}

func newUnknownTypeError(name, role string) *StoreError {
	return &StoreError{
		Code:    ErrCodeUnknownType,
		Message: fmt.Sprintf("%s type can't be inferred", role),
		Name:    name,
	}
}

func newTypeMismatchError(name string, want, got value.TypeID) *StoreError {
	return &StoreError{
		Code:    ErrCodeTypeMismatch,
		Message: "type mismatch",
		Name:    name,
		Want:    want,
		Got:     got,
	}
}

func newNoTransactionError(name string) *StoreError {
	return &StoreError{
		Code:    ErrCodeNoTransaction,
		Message: "no active transaction",
		Name:    name,
	}
}
