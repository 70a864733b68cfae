package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	ErrAlreadyConnected   = errors.New("subscription already connected")
	ErrSubscriptionClosed = errors.New("subscription closed")
	ErrStreamEnded        = errors.New("stream ended by server")
)

// Doer sends a single HTTP request. [*http.Client] satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// State is the lifecycle position of a [Subscriber].
type State int

const (
	Idle State = iota
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// StatusError reports a stream endpoint that answered with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stream endpoint returned status %d", e.StatusCode)
}

// Options configures a [Subscriber].
type Options struct {
	Doer   Doer
	Header http.Header
	Logger *log.Logger
}

// Subscriber owns at most one Server-Sent-Events connection to a fixed URL.
//
// It moves Idle → Connected → Closed and never reconnects; a new Subscriber is needed after Closed.
type Subscriber struct {
	url    string
	doer   Doer
	header http.Header
	logger *log.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	body   io.ReadCloser
	done   chan struct{}
	exited chan struct{} // closed when the reader goroutine returns
}

// New creates an idle Subscriber for url.
func New(url string, opts Options) *Subscriber {
	if opts.Doer == nil {
		opts.Doer = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Subscriber{
		url:    url,
		doer:   opts.Doer,
		header: opts.Header.Clone(),
		logger: opts.Logger.With("stream", url),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// URL returns the stream endpoint.
func (s *Subscriber) URL() string {
	return s.url
}

// State returns the current lifecycle state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether a connection handle is currently held.
func (s *Subscriber) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Connected
}

// Done is closed once the subscription settles in Closed.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Connect opens the connection in the background and returns immediately.
//
// onMessage receives each event's raw data. On a transport failure, including the server ending the stream
// ([ErrStreamEnded]), onError runs once, the connection is closed, then onComplete runs once.
// Callbacks run sequentially on one goroutine and any of them may be nil.
// A [Subscriber.Close] before a failure suppresses onError and onComplete.
func (s *Subscriber) Connect(ctx context.Context, onMessage func(string), onError func(error), onComplete func()) error {
	s.mu.Lock()
	switch s.state {
	case Connected:
		s.mu.Unlock()
		return ErrAlreadyConnected
	case Closed:
		s.mu.Unlock()
		return ErrSubscriptionClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	s.state = Connected
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Debug("connecting")
	go s.run(ctx, onMessage, onError, onComplete)
	return nil
}

func (s *Subscriber) run(ctx context.Context, onMessage func(string), onError func(error), onComplete func()) {
	defer close(s.exited)

	err := s.read(ctx, onMessage)

	// A user Close already tore everything down; nothing is reported.
	if !s.isConnected() {
		return
	}

	s.logger.Warn("stream failed", "error", err)
	if onError != nil {
		onError(err)
	}
	s.Close()
	if onComplete != nil {
		onComplete()
	}
}

func (s *Subscriber) read(ctx context.Context, onMessage func(string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range s.header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.doer.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	if !s.attach(resp.Body) {
		resp.Body.Close()
		return ErrSubscriptionClosed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	s.logger.Debug("connected", "status", resp.StatusCode)

	scanner := NewScanner(resp.Body)
	for scanner.Next() {
		if !s.isConnected() {
			return ErrSubscriptionClosed
		}
		if onMessage != nil {
			onMessage(scanner.Event().Data)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return ErrStreamEnded
}

// attach records the open body, refusing it if the subscription was closed meanwhile.
func (s *Subscriber) attach(body io.ReadCloser) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected {
		return false
	}
	s.body = body
	return true
}

func (s *Subscriber) isConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Connected
}

// Close tears down the connection. It is a no-op when Idle or already Closed.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.state != Connected {
		s.mu.Unlock()
		return
	}

	s.state = Closed
	cancel, body := s.cancel, s.body
	s.cancel, s.body = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if body != nil {
		body.Close()
	}
	close(s.done)
	s.logger.Debug("closed")
}

// Messages connects and yields each message's data. A terminal failure is yielded once as ("", err).
//
// Leaving the loop early closes the subscription.
func (s *Subscriber) Messages(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		msgs := make(chan string)
		errs := make(chan error, 1)
		stop := make(chan struct{})
		defer close(stop)
		defer s.Close()

		onMessage := func(m string) {
			select {
			case msgs <- m:
			case <-stop:
			}
		}
		onError := func(err error) {
			errs <- err
		}

		if err := s.Connect(ctx, onMessage, onError, nil); err != nil {
			yield("", err)
			return
		}

		for {
			select {
			case m := <-msgs:
				if !yield(m, nil) {
					return
				}
			case err := <-errs:
				yield("", err)
				return
			case <-s.Done():
				select {
				case err := <-errs:
					yield("", err)
				default:
				}
				return
			}
		}
	}
}
