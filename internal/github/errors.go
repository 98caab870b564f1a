package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotMerged is returned by MergePullRequest when GitHub answers 200 but
// reports merged=false.
var ErrNotMerged = errors.New("pull request was not merged")

// APIError represents a non-2xx response from the GitHub REST API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string

	// Errors contains field-level validation failures. Present only
	// on 422 Unprocessable Entity responses.
	Errors []ValidationError
}

// ValidationError describes a specific validation failure on a resource field.
type ValidationError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "github: HTTP %d: %s", err.StatusCode, err.Message)
	for _, v := range err.Errors {
		detail := v.Message
		if detail == "" {
			detail = v.Code
		}
		fmt.Fprintf(&builder, "; %s.%s: %s", v.Resource, v.Field, detail)
	}
	return builder.String()
}

// TransportError is returned when a request fails before any response
// arrives: DNS, connection, TLS or timeout failures.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("github: %s %s: %v", err.Method, err.URL, err.Err)
}

func (err *TransportError) Unwrap() error { return err.Err }

// IsNotFound reports whether err is a GitHub API 404 Not Found response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}

// IsRateLimited reports whether err is a GitHub API rate limit response.
// GitHub returns 403 when the primary rate limit is exceeded and 429
// for secondary rate limits.
func IsRateLimited(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == 429 || (apiError.StatusCode == 403 && isRateLimitMessage(apiError.Message))
}

// IsValidationFailed reports whether err is a GitHub API 422 response.
func IsValidationFailed(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 422
}

// IsConflict reports whether err is a GitHub API 409 Conflict response.
// Merging returns 409 when the head branch moved.
func IsConflict(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 409
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var transportError *TransportError
	return errors.As(err, &transportError)
}

// IsRetryable reports whether a request that failed with err may succeed
// if sent again: server errors, rate limits, 405 "not mergeable yet" and
// transport failures. Cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if IsTransport(err) {
		return true
	}
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	switch {
	case apiError.StatusCode >= 500:
		return true
	case apiError.StatusCode == 405:
		// Mergeability is computed asynchronously after the PR opens
		return true
	default:
		return IsRateLimited(err)
	}
}

func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "abuse detection")
}
