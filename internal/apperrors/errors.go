package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure for callers and for HTTP mapping.
type Kind string

const (
	KindUnauthorized            Kind = "unauthorized"
	KindNotFound                Kind = "not_found"
	KindValidation              Kind = "validation_error"
	KindConflict                Kind = "conflict"
	KindNoFounders              Kind = "no_founders"
	KindInsufficientData        Kind = "insufficient_data"
	KindTokenExpired            Kind = "token_expired"
	KindTokenUsed               Kind = "token_used"
	KindUpstreamConfig          Kind = "upstream_config_error"
	KindUpstreamTimeout         Kind = "upstream_timeout"
	KindUpstreamRateOrAuth      Kind = "upstream_rate_or_auth"
	KindUpstreamEmptyOutput     Kind = "upstream_empty_output"
	KindUpstreamTruncated       Kind = "upstream_truncated"
	KindUpstreamContentFiltered Kind = "upstream_content_filtered"
	KindUpstream                Kind = "upstream_error"
	KindMalformedOutput         Kind = "malformed_output"
	KindCanceled                Kind = "canceled"
	KindInternal                Kind = "internal"
)

// MaxPreviewLength bounds the offending payload carried on MalformedOutput errors.
const MaxPreviewLength = 500

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	// Preview holds a bounded excerpt of an upstream payload, for diagnosis.
	Preview string
	// Fields holds per-field validation messages.
	Fields     map[string]string
	StatusCode int // upstream HTTP status if known
	Cause      error
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Kind))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Malformed builds a MalformedOutput error carrying a bounded preview of raw.
func Malformed(message, raw string, cause error) *Error {
	return &Error{Kind: KindMalformedOutput, Message: message, Preview: truncate(raw, MaxPreviewLength), Cause: cause}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUpstreamTimeout
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusClientClosedRequest is returned when the caller went away mid-request.
const StatusClientClosedRequest = 499

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNoFounders, KindInsufficientData:
		return http.StatusUnprocessableEntity
	case KindTokenExpired, KindTokenUsed:
		return http.StatusGone
	case KindUpstreamConfig:
		return http.StatusServiceUnavailable
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamRateOrAuth, KindUpstreamEmptyOutput, KindUpstreamTruncated,
		KindUpstreamContentFiltered, KindUpstream, KindMalformedOutput:
		return http.StatusBadGateway
	case KindCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
