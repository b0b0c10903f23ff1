// Package classify maps backend scrape failures onto a closed taxonomy of
// error categories with retry guidance.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/webfetch/pkg/firecrawl"
)

// Category identifies the failure class of a backend error.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryAuth       Category = "auth"
	CategoryPayment    Category = "payment"
	CategoryRateLimit  Category = "rate_limit"
	CategoryValidation Category = "validation"
	CategoryServer     Category = "server"
)

// ClassifiedError is the categorized form of a backend failure. It is derived
// per failure and never stored.
type ClassifiedError struct {
	Code        int
	Category    Category
	Message     string
	UserMessage string
	Retryable   bool
	RetryAfter  time.Duration
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Category, e.Code, e.Message)
}

// networkMarkers are substrings in error bodies that indicate a transport
// failure rather than an HTTP-level one.
var networkMarkers = []string{
	"econnrefused",
	"econnreset",
	"etimedout",
	"enotfound",
	"eai_again",
	"connection refused",
	"connection reset",
	"socket hang up",
	"timeout",
	"timed out",
	"no such host",
}

// Classify maps an HTTP status code and response body to a ClassifiedError.
// A status code of zero means the request never produced a response.
func Classify(statusCode int, responseBody string) *ClassifiedError {
	msg := extractMessage(responseBody)

	if statusCode == 0 || containsNetworkMarker(msg) {
		return &ClassifiedError{
			Code:        statusCode,
			Category:    CategoryNetwork,
			Message:     msg,
			UserMessage: "Could not reach the scraping backend. Check network connectivity and retry shortly.",
			Retryable:   true,
			RetryAfter:  5 * time.Second,
		}
	}

	switch {
	case statusCode == 401 || statusCode == 403:
		return &ClassifiedError{
			Code:        statusCode,
			Category:    CategoryAuth,
			Message:     msg,
			UserMessage: "Authentication failed. Verify the API key is set and has not been revoked.",
			Retryable:   false,
		}
	case statusCode == 402:
		return &ClassifiedError{
			Code:        statusCode,
			Category:    CategoryPayment,
			Message:     msg,
			UserMessage: "The backend rejected the request for billing reasons. Check the account's plan and credit balance.",
			Retryable:   false,
		}
	case statusCode == 429:
		return &ClassifiedError{
			Code:        statusCode,
			Category:    CategoryRateLimit,
			Message:     msg,
			UserMessage: "Rate limit exceeded. Wait a minute before retrying, or reduce request concurrency.",
			Retryable:   true,
			RetryAfter:  60 * time.Second,
		}
	case statusCode == 400 || statusCode == 404:
		return &ClassifiedError{
			Code:        statusCode,
			Category:    CategoryValidation,
			Message:     msg,
			UserMessage: "The request was rejected as invalid. Check the URL and options; retrying without changes will not help.",
			Retryable:   false,
		}
	case statusCode >= 500 && statusCode < 600:
		return &ClassifiedError{
			Code:        statusCode,
			Category:    CategoryServer,
			Message:     msg,
			UserMessage: "The scraping backend had an internal error. This is usually transient; retry shortly.",
			Retryable:   true,
			RetryAfter:  5 * time.Second,
		}
	}

	return &ClassifiedError{
		Code:        statusCode,
		Category:    CategoryNetwork,
		Message:     msg,
		UserMessage: fmt.Sprintf("Unexpected response (HTTP %d) from the scraping backend.", statusCode),
		Retryable:   statusCode >= 500,
	}
}

// FromError classifies an error returned by the Firecrawl client. API errors
// carry their status code and body; anything else is treated as a transport
// failure.
func FromError(err error) *ClassifiedError {
	var apiErr *firecrawl.APIError
	if errors.As(err, &apiErr) {
		return Classify(apiErr.StatusCode, apiErr.Body)
	}
	return Classify(0, err.Error())
}

// extractMessage pulls an error message from a JSON body's "error" or
// "message" field, falling back to the raw body.
func extractMessage(body string) string {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "unknown error"
	}

	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return trimmed
}

func containsNetworkMarker(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range networkMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
