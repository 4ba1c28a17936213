package workflow

import (
	"errors"
	"fmt"
)

// GuardCode classifies why an action was denied
type GuardCode string

const (
	GuardAlreadySigned     GuardCode = "ALREADY_SIGNED"
	GuardWrongRole         GuardCode = "WRONG_ROLE"
	GuardWrongStage        GuardCode = "WRONG_STAGE"
	GuardOrderLocked       GuardCode = "ORDER_LOCKED"
	GuardMissingReason     GuardCode = "MISSING_REASON"
	GuardMissingSignature  GuardCode = "MISSING_SIGNATURE"
	GuardMissingInvoiceRef GuardCode = "MISSING_INVOICE_REF"
	GuardAmendmentRequired GuardCode = "AMENDMENT_REQUIRED"
	GuardDuplicateRequest  GuardCode = "DUPLICATE_PENDING_REQUEST"
	GuardNotRejected       GuardCode = "NOT_REJECTED"
	GuardAlreadyResolved   GuardCode = "ALREADY_RESOLVED"
)

// GuardViolation is a typed denial: the action is illegal for the order's
// current state or the actor's role. It is never retried.
type GuardViolation struct {
	Code   GuardCode
	Reason string
}

func (e *GuardViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func guard(code GuardCode, format string, args ...interface{}) *GuardViolation {
	return &GuardViolation{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// AsGuard unwraps a GuardViolation if err carries one
func AsGuard(err error) (*GuardViolation, bool) {
	var g *GuardViolation
	if errors.As(err, &g) {
		return g, true
	}
	return nil, false
}

// ValidationError reports a malformed or incomplete order or request
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

var (
	// ErrNotFound signals an unknown order or edit request id
	ErrNotFound = errors.New("record not found")

	// ErrConflict signals a lost compare-and-swap: another actor changed the
	// order's state between read and write. Retried once by the orchestrator.
	ErrConflict = errors.New("order state changed concurrently")
)
