package provider

import (
	"errors"
	"net/http"
	"strings"
)

// Error represents a normalized error from an upstream provider.
type Error struct {
	Code    string `json:"code,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// IsRateLimitOrAuth reports whether an error is due to rate limiting or
// authentication, which callers should not retry without backoff.
func IsRateLimitOrAuth(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == "rate_limit_exceeded" ||
			pe.Code == "authentication_error" ||
			pe.Type == "rate_limit_error" ||
			pe.Type == "authentication_error"
	}
	return false
}

// typeForStatus maps an HTTP status to a wire-level error type for
// providers whose SDK exposes only the status code.
func typeForStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "rate_limit_error"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "authentication_error"
	}
	return ""
}

// ClassifyErrorReason buckets an error into "billing", "rate_limit",
// "auth", "timeout", or "other" for logging and cooldown decisions.
func ClassifyErrorReason(err error) string {
	if err == nil {
		return "other"
	}

	var pe *Error
	if errors.As(err, &pe) {
		switch pe.Code {
		case "rate_limit_exceeded":
			return "rate_limit"
		case "authentication_error", "invalid_api_key", "unauthorized":
			return "auth"
		case "insufficient_quota", "billing_error", "payment_required":
			return "billing"
		}
		switch pe.Type {
		case "rate_limit_error":
			return "rate_limit"
		case "authentication_error":
			return "auth"
		}
	}

	msg := strings.ToLower(err.Error())

	for _, p := range []string{"billing", "quota", "payment", "credit", "insufficient", "spending limit"} {
		if strings.Contains(msg, p) {
			return "billing"
		}
	}
	for _, p := range []string{"rate limit", "rate_limit", "too many requests", "429", "throttl"} {
		if strings.Contains(msg, p) {
			return "rate_limit"
		}
	}
	for _, p := range []string{"authentication", "unauthorized", "api key", "401", "forbidden", "403"} {
		if strings.Contains(msg, p) {
			return "auth"
		}
	}
	for _, p := range []string{"timeout", "timed out", "deadline exceeded", "context canceled"} {
		if strings.Contains(msg, p) {
			return "timeout"
		}
	}

	return "other"
}
