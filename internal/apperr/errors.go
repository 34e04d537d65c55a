// Package apperr defines the error kinds every component returns. The HTTP
// layer translates a kind into a status code in exactly one place
// (api.WriteError); components never pick status codes themselves.
package apperr

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Internal Kind = iota
	Unauthenticated
	InvalidOrExpiredToken
	AccountInactive
	AccountLocked
	Forbidden
	RateLimited
	StoreUnavailable
	NotFound
	InvalidInput
	Conflict
	Unavailable
	PayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case InvalidOrExpiredToken:
		return "invalid_or_expired_token"
	case AccountInactive:
		return "account_inactive"
	case AccountLocked:
		return "account_locked"
	case Forbidden:
		return "forbidden"
	case RateLimited:
		return "rate_limited"
	case StoreUnavailable:
		return "store_unavailable"
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case Conflict:
		return "conflict"
	case Unavailable:
		return "unavailable"
	case PayloadTooLarge:
		return "payload_too_large"
	}
	return "internal"
}

// Error carries a kind and the message that is safe to show a client.
// Fields are merged into the response envelope.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithFields returns a copy of e carrying extra envelope fields.
func (e *Error) WithFields(fields map[string]any) *Error {
	merged := make(map[string]any, len(e.Fields)+len(fields))
	for k, v := range e.Fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Error{Kind: e.Kind, Message: e.Message, Fields: merged}
}

var (
	// ErrStoreUnavailable marks a persistence failure. Wrap it with Store.
	ErrStoreUnavailable = New(StoreUnavailable, "An unexpected error occurred.")

	ErrInternal = New(Internal, "An unexpected error occurred.")
)

// Store wraps a persistence failure so it is classified as StoreUnavailable
// while keeping the driver error for operational logs.
func Store(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Invalid builds an InvalidInput error listing every validation problem.
func Invalid(message string, problems ...string) *Error {
	e := New(InvalidInput, message)
	if len(problems) > 0 {
		e.Fields = map[string]any{"errors": problems}
	}
	return e
}

// As returns the *Error in err's chain, or ErrInternal when there is none.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal
}

func KindOf(err error) Kind {
	return As(err).Kind
}
