package eventform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method, path, apiKey, body string
}

func eventServer(t *testing.T, status int, response string) (*httptest.Server, func() []call) {
	t.Helper()
	var mu sync.Mutex
	var calls []call
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, r.Header.Get(api.HeaderAPIKey), string(body)})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)
	return server, func() []call {
		mu.Lock()
		defer mu.Unlock()
		return append([]call(nil), calls...)
	}
}

func TestForm_SubmitPostsOnceAndReportsResult(t *testing.T) {
	server, calls := eventServer(t, http.StatusOK, `{"status":"handled","team":"sales"}`)

	var results []*api.EventResult
	form := NewForm(api.NewClient(server.URL, "k"), func(r *api.EventResult) {
		results = append(results, r)
	})

	_, err := form.Submit(context.Background(), Input{Team: "sales", Type: "lead", Payload: "{}"})
	require.NoError(t, err)

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, "/teams/sales/event", got[0].path)
	assert.Equal(t, "k", got[0].apiKey)
	assert.JSONEq(t, `{"type":"lead","payload":{}}`, got[0].body)

	require.Len(t, results, 1)
	assert.JSONEq(t, `{"status":"handled","team":"sales"}`, string(results[0].Body))
	assert.Empty(t, form.Err())
}

func TestForm_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		payload  string
		baseURL  string
		posted   int
	}{
		{name: "invalid payload", status: http.StatusOK, response: `{}`, payload: "{oops", posted: 0},
		{name: "empty payload", status: http.StatusOK, response: `{}`, payload: "", posted: 0},
		{name: "blank payload", status: http.StatusOK, response: `{}`, payload: "   ", posted: 0},
		{name: "undecodable response", status: http.StatusOK, response: "Internal Server Error", payload: "{}", posted: 1},
		{name: "transport failure", payload: "{}", baseURL: "http://127.0.0.1:1", posted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := eventServer(t, tt.status, tt.response)
			baseURL := server.URL
			if tt.baseURL != "" {
				baseURL = tt.baseURL
			}

			invoked := false
			form := NewForm(api.NewClient(baseURL, "k"), func(*api.EventResult) { invoked = true })

			_, err := form.Submit(context.Background(), Input{Team: "sales", Type: "lead", Payload: tt.payload})
			require.Error(t, err)

			assert.NotEmpty(t, form.Err())
			assert.False(t, invoked)
			assert.Len(t, calls(), tt.posted)
		})
	}
}

func TestForm_SuccessClearsError(t *testing.T) {
	server, _ := eventServer(t, http.StatusNotFound, `{"detail":"unknown team"}`)
	form := NewForm(api.NewClient(server.URL, ""), nil)

	_, err := form.Submit(context.Background(), Input{Team: "sales", Type: "lead", Payload: "not json"})
	require.Error(t, err)
	require.NotEmpty(t, form.Err())

	result, err := form.Submit(context.Background(), Input{Team: "sales", Type: "lead", Payload: DefaultPayload})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Empty(t, form.Err())
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name   string
		result *api.EventResult
		want   string
	}{
		{"json body", &api.EventResult{StatusCode: 200, Body: []byte(`{"ok":true}`)}, "HTTP 200\n{\n  \"ok\": true\n}"},
		{"non json body", &api.EventResult{StatusCode: 502, Body: []byte("bad gateway")}, "HTTP 502\nbad gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatResult(tt.result))
		})
	}
}
