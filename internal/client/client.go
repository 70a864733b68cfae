package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/autodev/internal/shared"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	userAgent      = "autodev-client/0.3"
)

// Doer sends a single HTTP request. [*http.Client] satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryPolicy bounds how a logical request is retried.
type RetryPolicy struct {
	MaxAttempts      int           // Attempts including the first
	UnavailableDelay time.Duration // Wait after a 503
	FailureDelay     time.Duration // Wait after any other failure
}

// DefaultRetryPolicy returns three attempts, 5s after a 503 and 1s otherwise.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      3,
		UnavailableDelay: 5 * time.Second,
		FailureDelay:     time.Second,
	}
}

func (p RetryPolicy) delay(status int) time.Duration {
	if status == http.StatusServiceUnavailable {
		return p.UnavailableDelay
	}
	return p.FailureDelay
}

// Options configures a [Client]. Zero values select defaults.
type Options struct {
	BaseURL string
	Doer    Doer
	Retry   RetryPolicy
	Header  http.Header // Sent with every request, below per-request overrides
	Token   string      // Bearer token attached through an [oauth2.Transport]
	Logger  *log.Logger
}

// Client issues requests against the generation backend.
//
// A Client holds only configuration and is safe for concurrent use.
type Client struct {
	baseURL string
	doer    Doer
	retry   RetryPolicy
	header  http.Header
	logger  *log.Logger
}

// New creates a Client from opts.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Doer == nil {
		opts.Doer = http.DefaultClient
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Token != "" {
		opts.Doer = WithToken(opts.Doer, opts.Token)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		doer:    opts.Doer,
		retry:   opts.Retry,
		header:  opts.Header.Clone(),
		logger:  opts.Logger,
	}
}

// WithToken wraps d so every request carries "Authorization: Bearer token".
func WithToken(d Doer, token string) Doer {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: doerTransport{d}},
	}
}

// doerTransport adapts a [Doer] to [http.RoundTripper] so it can sit under an [oauth2.Transport].
type doerTransport struct {
	d Doer
}

func (t doerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.d.Do(req)
}

// BaseURL returns the API root every path is joined onto.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Request performs req and returns the decoded JSON payload.
func (c *Client) Request(ctx context.Context, req Request) (any, error) {
	var out any
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Do performs req and decodes the JSON payload into out, which may be nil to discard it.
//
// Failures are retried per the client's [RetryPolicy]; the last failure is returned as a [*RequestError].
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	return c.execute(ctx, req, func(resp *http.Response) error {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return decodeInto(data, out)
	})
}

// decodeInto unmarshals data into a fresh value and only then copies it to out,
// so a failed attempt leaves out untouched for the next one.
func decodeInto(data []byte, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return json.Unmarshal(data, out)
	}

	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(data, fresh.Interface()); err != nil {
		return err
	}
	target.Elem().Set(fresh.Elem())
	return nil
}

// Raw performs req with the same retry policy and returns the undecoded response body.
func (c *Client) Raw(ctx context.Context, req Request) ([]byte, error) {
	var body []byte
	err := c.execute(ctx, req, func(resp *http.Response) error {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	return body, err
}

func (c *Client) execute(ctx context.Context, req Request, handle func(*http.Response) error) error {
	payload, contentType, err := req.encode()
	if err != nil {
		return &RequestError{Message: "invalid request body", Err: fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)}
	}

	requestID := shared.GenerateID()
	logger := c.logger.With("method", req.method(), "path", req.Path, "request_id", requestID)

	var last *RequestError
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		last = c.attempt(ctx, req, payload, contentType, requestID, handle)
		if last == nil {
			if attempt > 1 {
				logger.Debug("request succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		last.Attempts = attempt

		if ctxErr := ctx.Err(); ctxErr != nil {
			if !errors.Is(last.Err, ctxErr) {
				last.Err = errors.Join(last.Err, ctxErr)
			}
			return last
		}
		if last.permanent || attempt == c.retry.MaxAttempts {
			break
		}

		delay := c.retry.delay(last.StatusCode)
		logger.Warn("request failed, retrying", "attempt", attempt, "status", last.StatusCode, "delay", delay, "error", last.Message)
		if err := sleep(ctx, delay); err != nil {
			last.Err = errors.Join(last.Err, err)
			return last
		}
	}

	logger.Error("request failed", "attempts", last.Attempts, "status", last.StatusCode, "error", last)
	return last
}

func (c *Client) attempt(ctx context.Context, req Request, payload []byte, contentType, requestID string, handle func(*http.Response) error) *RequestError {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), c.URL(req.Path), body)
	if err != nil {
		return &RequestError{Message: "failed to create request", Err: err, permanent: true}
	}
	c.applyHeaders(httpReq, req.Header, contentType, requestID)

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		return &RequestError{Message: networkErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if err := handle(resp); err != nil {
		return &RequestError{
			Message:    networkErrorMessage,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err),
		}
	}
	return nil
}

// applyHeaders layers the JSON defaults, client headers, then per-request overrides.
//
// A multipart body always carries its own boundary-bearing content type.
func (c *Client) applyHeaders(httpReq *http.Request, overrides http.Header, contentType, requestID string) {
	h := httpReq.Header
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", userAgent)
	h.Set("X-Request-ID", requestID)

	for k, vs := range c.header {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	for k, vs := range overrides {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
