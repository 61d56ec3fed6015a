package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrQuotaExceeded marks rate-limit or billing-quota rejections
	ErrQuotaExceeded = errors.New("llm quota exceeded")
	// ErrMalformedOutput means no structured payload could be recovered
	ErrMalformedOutput = errors.New("llm output malformed")
)

// HTTPStatusError is a non-2xx reply from an HTTP provider
type HTTPStatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, ErrQuotaExceeded) see quota rejections
func (e *HTTPStatusError) Unwrap() error {
	if IsQuotaMessage(e.StatusCode, e.Message) {
		return ErrQuotaExceeded
	}
	return nil
}

var quotaMarkers = []string{"insufficient_quota", "resource_exhausted", "quota exceeded", "rate limit"}

// IsQuotaMessage classifies a provider rejection as quota related
func IsQuotaMessage(status int, message string) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(message)
	for _, m := range quotaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// IsQuota reports whether err is a quota rejection
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
