// Package apperr defines the small, flat set of error kinds the API
// distinguishes. Handlers translate a kind into an HTTP status; anything
// without a kind is treated as an internal error.
package apperr

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInsufficientFunds
	KindValidation
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindValidation:
		return "validation error"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal error"
	}
}

// Error carries a kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets the message-less sentinels below match any error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
)

func NotFound(msg string) error          { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error          { return &Error{Kind: KindConflict, Message: msg} }
func InsufficientFunds(msg string) error { return &Error{Kind: KindInsufficientFunds, Message: msg} }
func Validation(msg string) error        { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) error      { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) error         { return &Error{Kind: KindForbidden, Message: msg} }

// KindOf reports the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
