// Package apierror describes failures talking to the Malti API.
package apierror

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrNoAPIKey is returned for authenticated calls made before a login.
var ErrNoAPIKey = errors.New("no API key available")

// maxErrorBody caps how much of an error response is read for a detail.
const maxErrorBody = 64 << 10

// Error is a non-2xx response from the API.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FromResponse builds an Error from resp, preferring a JSON "detail" message.
// fallback is formatted with the status code when no detail is present.
func FromResponse(resp *http.Response, fallback string) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := ""
	if gjson.ValidBytes(body) {
		if d := gjson.GetBytes(body, "detail"); d.Type == gjson.String {
			detail = d.String()
		}
	}
	if detail == "" {
		detail = fmt.Sprintf(fallback, resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Detail: detail}
}

// IsUnauthorized reports whether err means the API key was rejected or absent.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrNoAPIKey) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}
