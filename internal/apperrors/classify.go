package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ClassifyUpstream maps a transport or SDK error from a hosted model or CRM to a Kind.
// Errors that are already classified pass through unchanged.
func ClassifyUpstream(err error, statusCode int) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Message: "request canceled", Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstreamTimeout, Message: "upstream did not respond in time", Cause: err}
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	if statusCode == 0 {
		for _, code := range []int{401, 403, 404, 429, 500, 502, 503, 504} {
			if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
				statusCode = code
				break
			}
		}
	}

	newErr := func(kind Kind, message string) *Error {
		return &Error{Kind: kind, Message: message, StatusCode: statusCode, Cause: err}
	}

	switch {
	case statusCode == 401 || statusCode == 403 ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		return newErr(KindUpstreamRateOrAuth, "authentication with upstream failed; check the configured API key")
	case statusCode == 429 || strings.Contains(lower, "rate limit"):
		return newErr(KindUpstreamRateOrAuth, "upstream rate limit reached; try again later")
	case statusCode == 404 ||
		(strings.Contains(lower, "deployment") && strings.Contains(lower, "not found")):
		return newErr(KindUpstreamConfig, "upstream endpoint or deployment not found; check endpoint and deployment name")
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return newErr(KindUpstreamTimeout, "upstream did not respond in time")
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return newErr(KindUpstream, "unable to reach upstream; verify the endpoint and network connectivity")
	}

	return newErr(KindUpstream, "upstream request failed")
}
