// ABOUTME: Error classification for oracle and embedding backends
// ABOUTME: Separates server-side failures (bisect/retry) from client-side ones
package llm

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrServer marks a failure on the provider's side (5xx, overload)
	ErrServer = errors.New("server-side failure")

	// ErrNoCredential is returned when a provider is selected without its key
	ErrNoCredential = errors.New("missing API credential")

	// ErrMalformedResponse is returned when a provider answer cannot be used
	ErrMalformedResponse = errors.New("malformed provider response")
)

// IsServerError reports whether err came from the provider's side
func IsServerError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServer) {
		return true
	}
	if status := statusCode(err); status >= http.StatusInternalServerError {
		return true
	}
	return false
}

// isRetryable reports whether another attempt might succeed
func isRetryable(err error) bool {
	status := statusCode(err)
	switch {
	case status == 0:
		return true
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return true
	case status >= http.StatusInternalServerError:
		return true
	}
	return false
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
