package facade

import (
	"errors"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
)

// Kind classifies a failed request for the transports.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidCredentials
	KindConflict
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is returned by every Service method that fails. Message is safe to
// show to clients; Err keeps the cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// InvalidCredentialsMessage is the single message for every failed
// authentication, whether the account exists or not.
const InvalidCredentialsMessage = "invalid user or password"

func classify(err error) *Error {
	var fe *Error
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.Is(err, common.ErrorNotFound):
		return &Error{Kind: KindNotFound, Message: "account not found", Err: err}
	case errors.Is(err, common.ErrVersionConflict):
		return &Error{Kind: KindConflict, Message: "account was modified concurrently, reload and retry", Err: err}
	case errors.Is(err, common.ErrorConflict):
		return &Error{Kind: KindConflict, Message: "account name already exists", Err: err}
	case errors.Is(err, common.ErrorValidation):
		return &Error{Kind: KindInvalid, Message: err.Error(), Err: err}
	case errors.Is(err, common.ErrorUnauthorized):
		return &Error{Kind: KindInvalidCredentials, Message: InvalidCredentialsMessage, Err: err}
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrRefreshTokenExpired), errors.Is(err, common.ErrTokenExpired):
		return &Error{Kind: KindInvalidCredentials, Message: "invalid or expired token", Err: err}
	default:
		return &Error{Kind: KindInternal, Message: "internal error", Err: err}
	}
}

// hideExistence folds "no such account" into the authentication failure so
// callers cannot tell which ids exist.
func hideExistence(err error) *Error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorUnauthorized) {
		return &Error{Kind: KindInvalidCredentials, Message: InvalidCredentialsMessage, Err: err}
	}
	return classify(err)
}
