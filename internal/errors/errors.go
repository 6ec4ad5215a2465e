// Package errors provides the typed failures returned by the places server.
//
// Services return *Error values built from the constructors below. Callers
// match on the failure kind with errors.Is against the sentinels:
//
//	place, err := places.GetPlace(ctx, id)
//	if errors.Is(err, errors.ErrPlaceNotFound) {
//	    // 404
//	}
//
// The offending identifier travels in Details so the HTTP layer can render it.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable failure kind.
type Code string

// Failure kinds. All of them are terminal for the current request.
const (
	CodeGeocodingFailed         Code = "GEOCODING_FAILED"
	CodeCreatorNotFound         Code = "CREATOR_NOT_FOUND"
	CodePlaceNotFound           Code = "PLACE_NOT_FOUND"
	CodeUserNotFound            Code = "USER_NOT_FOUND"
	CodeNotAuthorized           Code = "NOT_AUTHORIZED"
	CodeRelationshipWriteFailed Code = "RELATIONSHIP_WRITE_FAILED"
	CodeWriteFailed             Code = "WRITE_FAILED"
	CodeValidation              Code = "VALIDATION"
	CodeUnauthenticated         Code = "UNAUTHENTICATED"
	CodeAlreadyExists           Code = "ALREADY_EXISTS"
	CodeInternal                Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for a failure kind.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeCreatorNotFound, CodePlaceNotFound, CodeUserNotFound:
		return http.StatusNotFound
	case CodeNotAuthorized:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeGeocodingFailed, CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed failure with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus implements huma.StatusError so handlers can return domain
// errors directly.
func (e *Error) GetStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinels for use with errors.Is().
var (
	ErrGeocodingFailed         = &Error{Code: CodeGeocodingFailed, Message: "geocoding failed"}
	ErrCreatorNotFound         = &Error{Code: CodeCreatorNotFound, Message: "creator not found"}
	ErrPlaceNotFound           = &Error{Code: CodePlaceNotFound, Message: "place not found"}
	ErrUserNotFound            = &Error{Code: CodeUserNotFound, Message: "user not found"}
	ErrNotAuthorized           = &Error{Code: CodeNotAuthorized, Message: "not authorized"}
	ErrRelationshipWriteFailed = &Error{Code: CodeRelationshipWriteFailed, Message: "relationship write failed"}
	ErrWriteFailed             = &Error{Code: CodeWriteFailed, Message: "write failed"}
	ErrValidation              = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnauthenticated         = &Error{Code: CodeUnauthenticated, Message: "authentication required"}
	ErrAlreadyExists           = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrInternal                = &Error{Code: CodeInternal, Message: "internal error"}
)

// IDDetails is the Details payload naming the offending identifier.
type IDDetails struct {
	ID string `json:"id"`
}

// GeocodingFailed reports that address could not be resolved.
func GeocodingFailed(address string, cause error) *Error {
	return &Error{
		Code:    CodeGeocodingFailed,
		Message: "could not find a location for the specified address",
		Details: map[string]string{"address": address},
		cause:   cause,
	}
}

// CreatorNotFound reports that the claimed creator does not exist.
func CreatorNotFound(userID string) *Error {
	return &Error{
		Code:    CodeCreatorNotFound,
		Message: "could not find user for the provided id",
		Details: IDDetails{ID: userID},
	}
}

// PlaceNotFound reports that no place exists with placeID.
func PlaceNotFound(placeID string) *Error {
	return &Error{
		Code:    CodePlaceNotFound,
		Message: "could not find a place for the provided id",
		Details: IDDetails{ID: placeID},
	}
}

// UserNotFound reports that no user exists with userID.
func UserNotFound(userID string) *Error {
	return &Error{
		Code:    CodeUserNotFound,
		Message: "could not find a user for the provided id",
		Details: IDDetails{ID: userID},
	}
}

// NotAuthorized reports that actorID may not mutate placeID.
func NotAuthorized(placeID, actorID string) *Error {
	return &Error{
		Code:    CodeNotAuthorized,
		Message: "you are not allowed to modify this place",
		Details: map[string]string{"place_id": placeID, "actor_id": actorID},
	}
}

// RelationshipWriteFailed reports that the place/user atomic unit did not commit.
func RelationshipWriteFailed(placeID string, cause error) *Error {
	return &Error{
		Code:    CodeRelationshipWriteFailed,
		Message: "could not save the place and its owner, please try again",
		Details: IDDetails{ID: placeID},
		cause:   cause,
	}
}

// WriteFailed reports a failed single-collection write.
func WriteFailed(id string, cause error) *Error {
	return &Error{
		Code:    CodeWriteFailed,
		Message: "could not save changes, please try again",
		Details: IDDetails{ID: id},
		cause:   cause,
	}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Unauthenticated creates an authentication error.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
