package streamview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/penwyp/go-team-monitor/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func sseServer(t *testing.T, frames ...string) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var urls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		urls = append(urls, r.URL.String())
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			_, _ = io.WriteString(w, f)
		}
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	return server, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), urls...)
	}
}

func TestViewer_FormatsChannelLines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))

	server, urls := sseServer(t,
		"event: status\ndata: {\"status\": \"idle\"}\n\n",
		"event: activity\ndata: {\"type\": \"activity\"}\n\n",
	)
	defer server.Close()

	viewer := NewViewer(server.URL, 0)
	viewer.Open(context.Background(), "demo", "secret")

	require.Eventually(t, func() bool { return len(viewer.Lines()) == 2 }, 2*time.Second, 10*time.Millisecond)
	viewer.Close()

	assert.Equal(t, "status: {\"status\": \"idle\"}\nactivity: {\"type\": \"activity\"}", viewer.Text())
	assert.Equal(t, []string{"/teams/demo/stream?api_key=secret"}, urls())
}

func TestViewer_BufferEvictsOldest(t *testing.T) {
	var frames []string
	for i := 0; i < 5; i++ {
		frames = append(frames, fmt.Sprintf("event: status\ndata: s%d\n\n", i))
	}
	server, _ := sseServer(t, frames...)
	defer server.Close()

	viewer := NewViewer(server.URL, 3, stream.WithRetry(0))
	var updates sync.WaitGroup
	updates.Add(5)
	viewer.OnUpdate(func(string) { updates.Done() })
	viewer.Open(context.Background(), "demo", "")

	updates.Wait()
	viewer.Close()

	assert.Equal(t, []string{"status: s2", "status: s3", "status: s4"}, viewer.Lines())
}

func TestViewer_SwitchTeamReconnects(t *testing.T) {
	server, urls := sseServer(t, "event: status\ndata: x\n\n")
	defer server.Close()

	viewer := NewViewer(server.URL, 10)
	viewer.Open(context.Background(), "a", "k1")
	require.Eventually(t, func() bool { return len(urls()) == 1 }, 2*time.Second, 10*time.Millisecond)

	viewer.Open(context.Background(), "b", "k2")
	require.Eventually(t, func() bool { return len(urls()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, strings.HasSuffix(viewer.URL(), "/teams/b/stream?api_key=k2"))

	viewer.Open(context.Background(), "", "")
	assert.Equal(t, stream.StateClosed, viewer.State())

	assert.Equal(t, []string{"/teams/a/stream?api_key=k1", "/teams/b/stream?api_key=k2"}, urls())
}
