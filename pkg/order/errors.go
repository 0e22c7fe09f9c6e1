package order

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AmountCheck is the outcome of validating an amount against a quote
type AmountCheck int

const (
	AmountSkipped AmountCheck = iota // no quote or unparseable amount
	AmountOK
	AmountTooLow
	AmountTooHigh
)

func (a AmountCheck) String() string {
	switch a {
	case AmountOK:
		return "ok"
	case AmountTooLow:
		return "too low"
	case AmountTooHigh:
		return "too high"
	default:
		return "skipped"
	}
}

// ErrQuoteExpired signals a submission attempted against a lapsed
// quote. The creator refreshes the quote and aborts the attempt.
var ErrQuoteExpired = errors.New("quote has expired, a new rate is being fetched")

// ValidationError is a precondition failure on user-supplied input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// QuoteError is a transient upstream rate-fetch failure.
type QuoteError struct {
	Err error
}

func (e *QuoteError) Error() string { return fmt.Sprintf("failed to fetch quote: %v", e.Err) }
func (e *QuoteError) Unwrap() error { return e.Err }

// OrderError is a business-level decline from the engine. Code,
// message and debug payload are preserved exactly as received.
type OrderError struct {
	Code      int
	Msg       string
	DebugInfo json.RawMessage
}

func (e *OrderError) Error() string { return e.Msg }

// TransportError is a network or API failure during polling. It is
// never surfaced directly; the next scheduled tick retries.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("status check failed: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StorageError is a failed durable write of a completed transaction.
// The saved flag stays clear so a later terminal observation retries.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("failed to persist transaction: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
