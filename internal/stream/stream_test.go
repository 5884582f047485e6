package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var leakOpts = []goleak.Option{
	goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
}

func TestDecoder(t *testing.T) {
	body := strings.Join([]string{
		": keepalive",
		"",
		"event: status",
		`data: {"status":"idle"}`,
		"",
		"data: first",
		"data: second",
		"",
		"event: activity",
		"id: 7",
		"retry: 1500",
		"data:no-space",
		"",
		"event: empty",
		"",
		"event: status\r",
		"data: crlf\r",
		"\r",
		"event: trailing",
		"data: dropped",
	}, "\n")

	decoder := NewDecoder(strings.NewReader(body))

	var events []Event
	for {
		ev, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		events = append(events, ev)
	}

	require.Len(t, events, 4)
	assert.Equal(t, Event{Name: "status", Data: `{"status":"idle"}`}, events[0])
	assert.Equal(t, Event{Name: "message", Data: "first\nsecond"}, events[1])
	assert.Equal(t, Event{Name: "activity", Data: "no-space", ID: "7", Retry: 1500 * time.Millisecond}, events[2])
	assert.Equal(t, Event{Name: "status", Data: "crlf"}, events[3])
}

type sseServer struct {
	*httptest.Server
	requests atomic.Int32
	mu       sync.Mutex
	urls     []string
}

// newSSEServer serves frames to every connection, then holds it open until
// the client goes away, or closes it when hangUp is set.
func newSSEServer(t *testing.T, status int, hangUp bool, frames ...string) *sseServer {
	t.Helper()
	s := &sseServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mu.Lock()
		s.urls = append(s.urls, r.URL.String())
		s.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			_, _ = io.WriteString(w, f)
		}
		w.(http.Flusher).Flush()
		if hangUp {
			return
		}
		<-r.Context().Done()
	}))
	return s
}

func (s *sseServer) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func collect() (Handler, func() []model.StreamMessage) {
	var mu sync.Mutex
	var got []model.StreamMessage
	return func(m model.StreamMessage) {
			mu.Lock()
			got = append(got, m)
			mu.Unlock()
		}, func() []model.StreamMessage {
			mu.Lock()
			defer mu.Unlock()
			return append([]model.StreamMessage(nil), got...)
		}
}

func TestSubscriber_DispatchesListenedChannels(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	server := newSSEServer(t, http.StatusOK, false,
		"event: status\ndata: {\"status\":\"idle\"}\n\n",
		"event: other\ndata: ignored\n\n",
		"event: activity\ndata: {\"event\":{\"type\":\"lead\"}}\n\n",
	)
	defer server.Close()

	handler, got := collect()
	sub := NewSubscriber([]string{model.ChannelStatus, model.ChannelActivity}, handler)
	sub.Open(context.Background(), server.URL+"/teams/demo/stream?api_key=secret")

	require.Eventually(t, func() bool { return len(got()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateOpen, sub.State())

	sub.Close()
	assert.Equal(t, StateClosed, sub.State())

	msgs := got()
	assert.Equal(t, model.StreamMessage{Channel: "status", Data: `{"status":"idle"}`}, msgs[0])
	assert.Equal(t, model.StreamMessage{Channel: "activity", Data: `{"event":{"type":"lead"}}`}, msgs[1])
	assert.Equal(t, []string{"/teams/demo/stream?api_key=secret"}, server.URLs())
}

func TestSubscriber_ActivityOnly(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	server := newSSEServer(t, http.StatusOK, false,
		"event: status\ndata: busy\n\n",
		"event: activity\ndata: {}\n\n",
	)
	defer server.Close()

	handler, got := collect()
	sub := NewSubscriber([]string{model.ChannelActivity}, handler)
	sub.Open(context.Background(), server.URL)

	require.Eventually(t, func() bool { return len(got()) == 1 }, 2*time.Second, 10*time.Millisecond)
	sub.Close()
	assert.Equal(t, "activity", got()[0].Channel)
}

func TestSubscriber_ReopenClosesPrevious(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	first := newSSEServer(t, http.StatusOK, false, "event: status\ndata: one\n\n")
	defer first.Close()
	second := newSSEServer(t, http.StatusOK, false, "event: status\ndata: two\n\n")
	defer second.Close()

	handler, got := collect()
	sub := NewSubscriber([]string{model.ChannelStatus}, handler)

	sub.Open(context.Background(), first.URL)
	require.Eventually(t, func() bool { return len(got()) == 1 }, 2*time.Second, 10*time.Millisecond)
	firstDone := sub.Done()

	sub.Open(context.Background(), second.URL)
	select {
	case <-firstDone:
	default:
		t.Fatal("previous connection still running after reopen")
	}

	require.Eventually(t, func() bool { return len(got()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, second.URL, sub.URL())
	sub.Close()

	assert.Equal(t, []string{"one", "two"}, []string{got()[0].Data, got()[1].Data})
}

func TestSubscriber_HTTPErrorDoesNotRetry(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	server := newSSEServer(t, http.StatusUnauthorized, false)
	defer server.Close()

	sub := NewSubscriber([]string{model.ChannelStatus}, nil, WithRetry(5*time.Millisecond))
	sub.Open(context.Background(), server.URL)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not give up")
	}

	assert.Equal(t, StateClosed, sub.State())
	assert.ErrorIs(t, sub.Err(), api.ErrUnauthorized)
	assert.Equal(t, int32(1), server.requests.Load())
	sub.Close()
}

func TestSubscriber_ReconnectsAfterDrop(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	server := newSSEServer(t, http.StatusOK, true, "event: status\ndata: tick\n\n")
	defer server.Close()

	handler, got := collect()
	sub := NewSubscriber([]string{model.ChannelStatus}, handler, WithRetry(10*time.Millisecond))
	sub.Open(context.Background(), server.URL)

	require.Eventually(t, func() bool { return len(got()) >= 2 }, 2*time.Second, 10*time.Millisecond)
	sub.Close()

	assert.GreaterOrEqual(t, server.requests.Load(), int32(2))
}

func TestSubscriber_ContextCancelStops(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	server := newSSEServer(t, http.StatusOK, false, "event: status\ndata: x\n\n")
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := NewSubscriber([]string{model.ChannelStatus}, nil)
	sub.Open(ctx, server.URL)
	require.Eventually(t, func() bool { return sub.State() == StateOpen }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber ignored context cancel")
	}
	sub.Close()
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "http://h/teams/a/stream?api_key=***", redact("http://h/teams/a/stream?api_key=secret"))
	assert.Equal(t, "http://h/x", redact("http://h/x"))
}
