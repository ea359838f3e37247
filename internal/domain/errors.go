package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a missing or malformed query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRerankUnavailable signals that the reranking service cannot be used.
	ErrRerankUnavailable = errors.New("rerank unavailable")
	// ErrPlatformFailed signals a content platform fetch failure.
	ErrPlatformFailed = errors.New("platform fetch failed")
	// ErrIndexUnavailable signals that the search index could not serve a request.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrIndexNotReady signals that the index has not been created yet.
	ErrIndexNotReady = errors.New("index not ready")
)

// PlatformError carries the HTTP status a content platform answered with.
type PlatformError struct {
	Platform   string
	StatusCode int
	Body       string
}

func (e *PlatformError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s: status %d", ErrPlatformFailed.Error(), e.Platform, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", ErrPlatformFailed.Error(), e.Platform, e.StatusCode, e.Body)
}

// Unwrap keeps errors.Is working for both the platform and the rate limit sentinel.
func (e *PlatformError) Unwrap() []error {
	if e.StatusCode == 429 {
		return []error{ErrPlatformFailed, ErrRateLimited}
	}
	return []error{ErrPlatformFailed}
}

// NewPlatformError creates a platform error from a non-2xx response.
func NewPlatformError(platform string, status int, body string) error {
	if len(body) > 200 {
		body = body[:200]
	}
	return &PlatformError{Platform: platform, StatusCode: status, Body: body}
}
