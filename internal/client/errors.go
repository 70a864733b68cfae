package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/autodev/internal/shared"
)

const networkErrorMessage = "network error"

// RequestError is the failure surfaced once a request has exhausted its attempts.
//
// Message comes from the response body's "error" or "detail" field when present.
// It matches [shared.ErrAPIRequest] with [errors.Is], and [shared.ErrServiceUnavailable] when the last status was 503.
type RequestError struct {
	Message    string
	StatusCode int // Zero when no response was received
	Attempts   int
	Err        error

	permanent bool
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	if e.StatusCode == http.StatusServiceUnavailable {
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// statusError builds a [RequestError] from a non-2xx response.
func statusError(resp *http.Response) *RequestError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return &RequestError{
		Message:    errorMessage(body),
		StatusCode: resp.StatusCode,
	}
}

// errorMessage extracts "error", then "detail", falling back to a generic message.
func errorMessage(body []byte) string {
	var payload struct {
		Error  any `json:"error"`
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return networkErrorMessage
	}

	for _, v := range []any{payload.Error, payload.Detail} {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return networkErrorMessage
}
