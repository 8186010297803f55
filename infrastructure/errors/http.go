// Package errors holds error types shared by the origin-facing clients.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MinErrorStatusCode is the smallest status treated as an error.
const MinErrorStatusCode = 400

const maxErrorBody = 4 << 10

// HTTPError describes a non-success response from the CMS origin.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("HTTP error from %s: %s", e.URL, e.Status)
	}
	return "HTTP error: " + e.Status
}

// CheckResponse returns an *HTTPError when resp has an error status. The
// first few KiB of the body are kept for diagnostics.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		httpErr.URL = resp.Request.URL.String()
	}
	return httpErr
}

// StatusCode extracts the HTTP status from err when it wraps an *HTTPError.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
