package identity

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to rich errors so callers can branch on failure kind
// without string matching the message.
const (
	TextCodeMissingField = "validation_missing_field"
	TextCodeTooShort     = "validation_too_short"
	TextCodeTooLong      = "validation_too_long"
	TextCodeOutOfRange   = "validation_out_of_range"

	TextCodeUnknownAuthentication = "auth_unknown_kind"
	TextCodeMalformedClaim        = "auth_malformed_claim"
	TextCodeMalformedRoleClaim    = "auth_malformed_role_claim"

	TextCodeIdPUnavailable = "idp_unavailable"
	TextCodeUserNotFound   = "user_not_found"
)

// ErrUnknownAuthentication is returned when no supported authentication
// representation can produce a principal. Fatal to the request, not retried.
var ErrUnknownAuthentication = goerrors.New("unknown authentication representation", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnknownAuthentication)

func NewMissingField(field string) *goerrors.Error {
	return goerrors.New("required field is missing or blank", goerrors.CategoryValidation).
		WithTextCode(TextCodeMissingField).
		WithMetadata(map[string]any{"field": field})
}

func NewTooShort(field string, min int) *goerrors.Error {
	return goerrors.New("field is below the minimum length", goerrors.CategoryValidation).
		WithTextCode(TextCodeTooShort).
		WithMetadata(map[string]any{"field": field, "min_length": min})
}

func NewTooLong(field string, max int) *goerrors.Error {
	return goerrors.New("field exceeds the maximum length", goerrors.CategoryValidation).
		WithTextCode(TextCodeTooLong).
		WithMetadata(map[string]any{"field": field, "max_length": max})
}

func NewOutOfRange(field string, min float64) *goerrors.Error {
	return goerrors.New("field is outside the allowed range", goerrors.CategoryValidation).
		WithTextCode(TextCodeOutOfRange).
		WithMetadata(map[string]any{"field": field, "min": min})
}

func newMalformedClaim(key, detail string) *goerrors.Error {
	return goerrors.New("claim is present but not the expected shape", goerrors.CategoryValidation).
		WithTextCode(TextCodeMalformedClaim).
		WithMetadata(map[string]any{"claim": key, "detail": detail})
}

func newMalformedRoleClaim(detail string) *goerrors.Error {
	return goerrors.New("role claim is present but not the expected shape", goerrors.CategoryAuth).
		WithTextCode(TextCodeMalformedRoleClaim).
		WithMetadata(map[string]any{"detail": detail})
}

// NewUserNotFound reports that no user record matched the given key. The
// synchronizer branches on this via goerrors.IsNotFound, so the store must
// return it (or another CategoryNotFound error) for every missed lookup.
func NewUserNotFound(key string, value any) *goerrors.Error {
	return goerrors.New("user not found", goerrors.CategoryNotFound).
		WithTextCode(TextCodeUserNotFound).
		WithMetadata(map[string]any{key: fmt.Sprint(value)})
}

// WrapIdPUnavailable marks a transient failure talking to the Identity
// Provider. Safe to retry; no local state was touched.
func WrapIdPUnavailable(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, message).
		WithTextCode(TextCodeIdPUnavailable)
}

// HasTextCode reports whether err carries the given text code.
func HasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsValidationError reports whether err originated from value-object or
// payload validation.
func IsValidationError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryValidation
}

// IsMissingField reports whether err is the missing/blank field failure.
func IsMissingField(err error) bool {
	return HasTextCode(err, TextCodeMissingField)
}

// IsMalformedRoleClaim reports whether err is the malformed role claim failure.
func IsMalformedRoleClaim(err error) bool {
	return HasTextCode(err, TextCodeMalformedRoleClaim)
}

// IsIdPUnavailable reports whether err is a transient IdP failure.
func IsIdPUnavailable(err error) bool {
	return HasTextCode(err, TextCodeIdPUnavailable)
}

// IsConflict reports whether err is a uniqueness violation surfaced by the
// store. The store normalizes driver errors into CategoryConflict, but raw
// driver text is matched too since Save may be handed an unwrapped error.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryConflict {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
