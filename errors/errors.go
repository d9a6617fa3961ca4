package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Root kinds. Every error surfaced to a client wraps exactly one of them.
var (
	ErrAuthentication = fmt.Errorf("authentication failed")
	ErrAuthorization  = fmt.Errorf("not authorized")
	ErrValidation     = fmt.Errorf("validation failed")
	ErrUpstream       = fmt.Errorf("upstream failure")
)

var (
	ErrMissingToken = fmt.Errorf("%w: bearer token is missing", ErrAuthentication)
	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", ErrAuthentication)

	ErrNotParticipant = fmt.Errorf("%w: user is not a participant of this conversation", ErrAuthorization)
	ErrForbiddenRole  = fmt.Errorf("%w: role is not allowed to perform this action", ErrAuthorization)

	ErrMissingConversationID = fmt.Errorf("%w: conversation_id is required", ErrValidation)
	ErrEmptyMessage          = fmt.Errorf("%w: content or image is required", ErrValidation)
	ErrContentTooLong        = fmt.Errorf("%w: content is too long", ErrValidation)
	ErrInvalidImage          = fmt.Errorf("%w: image payload is not a valid image", ErrValidation)
	ErrImageTooLarge         = fmt.Errorf("%w: image payload is too large", ErrValidation)
	ErrInvalidPayload        = fmt.Errorf("%w: invalid payload", ErrValidation)
	ErrUnknownEvent          = fmt.Errorf("%w: unknown event", ErrValidation)
	ErrAlreadyParticipant    = fmt.Errorf("%w: user is already a participant", ErrValidation)
	ErrConversationExists    = fmt.Errorf("%w: conversation already exists", ErrValidation)
	ErrInvalidID             = fmt.Errorf("%w: identifier is empty or contains ':'", ErrValidation)

	ErrStore  = fmt.Errorf("%w: store operation failed", ErrUpstream)
	ErrUpload = fmt.Errorf("%w: image upload failed", ErrUpstream)

	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrUserNotFound         = fmt.Errorf("user not found")

	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrDeliveryTimeout  = fmt.Errorf("delivery timed out")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)

type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindValidation     ErrorKind = "validation"
	KindUpstream       ErrorKind = "upstream"
	KindNotFound       ErrorKind = "not_found"
	KindInternal       ErrorKind = "internal"
)

// Kind classifies err against the root sentinels.
func Kind(err error) ErrorKind {
	switch {
	case stderrors.Is(err, ErrAuthentication):
		return KindAuthentication
	case stderrors.Is(err, ErrAuthorization):
		return KindAuthorization
	case stderrors.Is(err, ErrValidation):
		return KindValidation
	case stderrors.Is(err, ErrUpstream):
		return KindUpstream
	case stderrors.Is(err, ErrConversationNotFound), stderrors.Is(err, ErrUserNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// HTTPStatus maps an error to the status code returned by the HTTP surface.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
