package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
)

// DefaultRetry matches the reconnect delay browsers use for EventSource
const DefaultRetry = 3 * time.Second

// Handler receives messages from the listened channels. It is called from
// the subscriber's read goroutine.
type Handler func(model.StreamMessage)

// State is the connection state of a Subscriber
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Subscriber holds at most one live stream connection. Opening a new URL
// always tears down the previous connection first.
type Subscriber struct {
	httpClient *http.Client
	channels   map[string]struct{}
	handler    Handler
	retry      time.Duration

	lifecycle sync.Mutex // serializes Open and Close

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	url     string
	state   State
	lastErr error
}

// SubscriberOption customizes a Subscriber
type SubscriberOption func(*Subscriber)

// WithRetry sets the reconnect delay after a dropped connection; zero
// disables reconnecting.
func WithRetry(d time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		s.retry = d
	}
}

// WithHTTPClient sets the client used for stream requests. Its Timeout
// should be zero since streams are long-lived.
func WithHTTPClient(hc *http.Client) SubscriberOption {
	return func(s *Subscriber) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// NewSubscriber creates a closed subscriber listening on channels
func NewSubscriber(channels []string, handler Handler, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		httpClient: &http.Client{},
		channels:   make(map[string]struct{}, len(channels)),
		handler:    handler,
		retry:      DefaultRetry,
	}
	for _, ch := range channels {
		s.channels[ch] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open closes any existing connection, waits for it to finish, then starts
// a new one to url in the background. The connection lives until Close, a
// later Open, or ctx is done.
func (s *Subscriber) Open(ctx context.Context, url string) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.teardown()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.url = url
	s.state = StateConnecting
	s.lastErr = nil
	s.mu.Unlock()

	go s.run(runCtx, url, done)
}

// Close tears down the connection and waits for the read goroutine to
// exit. It must not be called from a Handler.
func (s *Subscriber) Close() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.teardown()
}

func (s *Subscriber) teardown() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done

	s.mu.Lock()
	s.cancel = nil
	s.done = nil
	s.state = StateClosed
	s.mu.Unlock()
}

// State reports the current connection state
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// URL returns the URL of the current or most recent connection
func (s *Subscriber) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Err returns the error that ended the most recent connection attempt
func (s *Subscriber) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Done is closed when the current connection goroutine exits
func (s *Subscriber) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}

func (s *Subscriber) setState(done chan struct{}, state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != done {
		return
	}
	s.state = state
	if err != nil {
		s.lastErr = err
	}
}

func (s *Subscriber) run(ctx context.Context, url string, done chan struct{}) {
	defer close(done)
	logger := util.LogCtx(ctx)
	retry := s.retry

	for {
		serverRetry, err := s.connect(ctx, url, done)
		if ctx.Err() != nil {
			return
		}
		if serverRetry > 0 {
			retry = serverRetry
		}

		var herr *api.HTTPError
		if errors.As(err, &herr) || s.retry <= 0 {
			logger.Warn("stream closed", util.String("url", redact(url)), util.Err(err))
			s.setState(done, StateClosed, err)
			return
		}

		logger.Debug("stream dropped, reconnecting",
			util.String("url", redact(url)), util.Err(err), util.String("retry", retry.String()))
		s.setState(done, StateConnecting, err)

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// connect runs one connection to completion and returns the last retry
// hint the server sent.
func (s *Subscriber) connect(ctx context.Context, url string, done chan struct{}) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &api.HTTPError{StatusCode: resp.StatusCode}
	}

	s.setState(done, StateOpen, nil)
	util.LogCtx(ctx).Debug("stream connected", util.String("url", redact(url)))

	var retry time.Duration
	decoder := NewDecoder(resp.Body)
	for {
		ev, err := decoder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return retry, err
		}
		if ev.Retry > 0 {
			retry = ev.Retry
		}
		if ctx.Err() != nil {
			return retry, ctx.Err()
		}
		if _, ok := s.channels[ev.Name]; ok && s.handler != nil {
			s.handler(model.StreamMessage{Channel: ev.Name, Data: ev.Data})
		}
	}
}

// redact hides the api_key query value in logs
func redact(url string) string {
	if i := strings.Index(url, "api_key="); i >= 0 {
		return url[:i] + "api_key=***"
	}
	return url
}
