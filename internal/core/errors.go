// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrNotOwned          = errors.New("not owned by requester")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrResourceExhausted = errors.New("resource exhausted")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// Kind is the closed set of failure categories surfaced by the data layer.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindNotOwned
	KindDuplicateKey
	KindUnauthorized
	KindForbidden
	KindResourceExhausted
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindNotOwned:
		return "not_owned"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindResourceExhausted:
		return "resource_exhausted"
	default:
		return "internal"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrInvalidInput
	case KindNotFound:
		return ErrNotFound
	case KindNotOwned:
		return ErrNotOwned
	case KindDuplicateKey:
		return ErrDuplicateKey
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindResourceExhausted:
		return ErrResourceExhausted
	default:
		return nil
	}
}

// Error carries a Kind plus the operation and field that produced it.
// errors.Is matches both the Kind's sentinel and the wrapped cause.
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func Invalid(op, field, message string) error {
	return &Error{
		Kind:  KindValidation,
		Op:    op,
		Field: field,
		Err:   errors.New(message),
	}
}

func Duplicate(op, field string, cause error) error {
	return &Error{
		Kind:  KindDuplicateKey,
		Op:    op,
		Field: field,
		Err:   cause,
	}
}

func Exhausted(op string, attempts int) error {
	return &Error{
		Kind: KindResourceExhausted,
		Op:   op,
		Err:  fmt.Errorf("gave up after %d attempts", attempts),
	}
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotOwned):
		return KindNotOwned
	case errors.Is(err, ErrDuplicateKey):
		return KindDuplicateKey
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenRevoked):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrResourceExhausted):
		return KindResourceExhausted
	}

	return KindInternal
}

// FieldOf returns the field recorded on the outermost *Error, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// IsRetryable reports whether repeating the whole use case may succeed.
func IsRetryable(err error) bool {
	return KindOf(err) == KindDuplicateKey
}

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
	Retryable  bool
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrNotFound, resource+" not found", http.StatusNotFound, "NOT_FOUND")
}

func NotOwnedError(resource string) *AppError {
	return NewAppError(
		ErrNotOwned,
		resource+" belongs to another user",
		http.StatusForbidden,
		"NOT_OWNED",
	)
}

func DuplicateError(field string) *AppError {
	appErr := NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		"DUPLICATE_KEY",
	)
	appErr.Retryable = true
	return appErr
}

func ValidationError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "session expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "session revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "invalid session", http.StatusUnauthorized, "TOKEN_INVALID")
}

// ToAppError maps a domain error onto its HTTP representation.
func ToAppError(err error, resource string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch KindOf(err) {
	case KindValidation:
		return ValidationError(err.Error())
	case KindNotFound:
		return NotFoundError(resource)
	case KindNotOwned:
		return NotOwnedError(resource)
	case KindDuplicateKey:
		field := FieldOf(err)
		if field == "" {
			field = resource
		}
		return DuplicateError(field)
	case KindUnauthorized:
		switch {
		case errors.Is(err, ErrTokenExpired):
			return TokenExpiredError()
		case errors.Is(err, ErrTokenRevoked):
			return TokenRevokedError()
		case errors.Is(err, ErrTokenInvalid):
			return TokenInvalidError()
		}
		return UnauthorizedError("")
	case KindForbidden:
		return ForbiddenError("")
	case KindResourceExhausted:
		return NewAppError(
			err,
			"temporarily unable to complete request, retry later",
			http.StatusServiceUnavailable,
			"RESOURCE_EXHAUSTED",
		)
	default:
		return NewAppError(err, "internal server error", http.StatusInternalServerError, "INTERNAL_ERROR")
	}
}
