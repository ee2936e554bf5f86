package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"fbvideodl/pkg/models"
)

// Kind is the caller-facing error class
type Kind string

const (
	KindInvalidURL          Kind = "invalid_url"
	KindInvalidRequest      Kind = "invalid_request"
	KindRateLimitExceeded   Kind = "rate_limit_exceeded"
	KindRedirectUnresolved  Kind = "redirect_unresolved"
	KindContentUnavailable  Kind = "content_unavailable"
	KindExtractionFailed    Kind = "extraction_failed"
	KindUpstreamFetchFailed Kind = "upstream_fetch_failed"
	KindInternal            Kind = "internal"
)

// Error codes returned in the error_code field
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeRedirectUnresolved  = "REDIRECT_UNRESOLVED"
	CodeContentUnavailable  = "CONTENT_UNAVAILABLE"
	CodeRestrictedContent   = "RESTRICTED_CONTENT"
	CodeExtractionFailed    = "EXTRACTION_FAILED"
	CodeNoVideoFound        = "NO_VIDEO_FOUND"
	CodeProcessingError     = "PROCESSING_ERROR"
	CodeUpstreamFetchFailed = "UPSTREAM_FETCH_FAILED"
	CodeVideoTooLarge       = "VIDEO_TOO_LARGE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Error is a classified application error
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause sets the underlying cause of the error
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// New creates a new Error
func New(kind Kind, code, message string, status int) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func InvalidURL(message string) *Error {
	return New(KindInvalidURL, CodeInvalidRequest, message, http.StatusBadRequest)
}

// InvalidRequest reports a malformed body or an unsupported parameter
func InvalidRequest(message string) *Error {
	return New(KindInvalidRequest, CodeInvalidRequest, message, http.StatusBadRequest)
}

func RateLimitExceeded(max, windowSeconds int) *Error {
	msg := fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %d seconds.", max, windowSeconds)
	return New(KindRateLimitExceeded, CodeRateLimitExceeded, msg, http.StatusTooManyRequests)
}

func NoVideoFound() *Error {
	return New(KindExtractionFailed, CodeNoVideoFound, "No video information found", http.StatusBadRequest)
}

func UpstreamFetchFailed(message string) *Error {
	return New(KindUpstreamFetchFailed, CodeUpstreamFetchFailed, message, http.StatusBadGateway)
}

func VideoTooLarge(limitMB int) *Error {
	msg := fmt.Sprintf("Video exceeds the maximum size of %d MB", limitMB)
	return New(KindUpstreamFetchFailed, CodeVideoTooLarge, msg, http.StatusRequestEntityTooLarge)
}

func Internal(message string) *Error {
	return New(KindInternal, CodeInternalError, message, http.StatusInternalServerError)
}

// As extracts an *Error from err, converting anything else into an
// internal error that keeps err as its cause.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error occurred").WithCause(err)
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Write renders err as the error envelope. Server-side failures are logged
// with their cause; the caller only sees the message.
func Write(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := As(err)

	if appErr.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("code", appErr.Code),
			zap.String("kind", string(appErr.Kind)),
			zap.Error(appErr.Cause),
		)
	}

	WriteJSON(w, appErr.Status, models.ErrorResponse{
		Status:    models.StatusError,
		Message:   appErr.Message,
		ErrorCode: appErr.Code,
	})
}

// WriteJSON writes payload as JSON with the given status
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
