package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	apiKey string
	reqID  string
	body   string
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			apiKey: r.Header.Get(HeaderAPIKey),
			reqID:  r.Header.Get(HeaderRequestID),
			body:   string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestClient_GetStatus(t *testing.T) {
	server, calls := newTestServer(t, http.StatusOK, `{"team":"sales","status":"done"}`)
	client := NewClient(server.URL+"/", "k1", WithRequestIDFunc(func() string { return "rid-1" }))

	status, err := client.GetStatus(context.Background(), "sales")
	require.NoError(t, err)

	assert.Equal(t, "done", status.Status)
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/teams/sales/status", call.path)
	assert.Equal(t, "k1", call.apiKey)
	assert.Equal(t, "rid-1", call.reqID)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"unknown team", http.StatusNotFound, ErrNotFound},
		{"server error", http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.status, `{"detail":"nope"}`)
			client := NewClient(server.URL, "")

			_, err := client.GetStatus(context.Background(), "sales")

			var herr *HTTPError
			require.True(t, errors.As(err, &herr))
			assert.Equal(t, tt.status, herr.StatusCode)
			assert.Equal(t, "nope", herr.Detail)
			assert.Regexp(t, `^HTTP \d{3}$`, err.Error())
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestClient_NoCredentialOmitsHeader(t *testing.T) {
	server, calls := newTestServer(t, http.StatusOK, `{"history":[]}`)
	client := NewClient(server.URL, "")

	_, err := client.GetHistory(context.Background(), 20, 0)
	require.NoError(t, err)

	assert.Empty(t, (*calls)[0].apiKey)
	assert.NotEmpty(t, (*calls)[0].reqID)
}

func TestClient_GetHistory(t *testing.T) {
	server, calls := newTestServer(t, http.StatusOK,
		`{"history":[{"id":2,"team":"sales","event_type":"lead","result":{"ok":true},"timestamp":"2024-01-01T00:00:00"}]}`)
	client := NewClient(server.URL, "k")

	records, err := client.GetHistory(context.Background(), 20, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "lead", records[0].EventType)
	assert.JSONEq(t, `{"ok":true}`, string(records[0].Result))
	assert.Equal(t, "limit=20", (*calls)[0].query)

	_, err = client.GetHistory(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.Equal(t, "limit=5&offset=10", (*calls)[1].query)
}

func TestClient_SubmitEvent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server, calls := newTestServer(t, http.StatusOK, `{"status":"ok"}`)
		client := NewClient(server.URL, "k")

		result, err := client.SubmitEvent(context.Background(), "sales",
			model.Event{Type: "lead", Payload: json.RawMessage(`{}`)})
		require.NoError(t, err)

		require.Len(t, *calls, 1)
		assert.Equal(t, http.MethodPost, (*calls)[0].method)
		assert.Equal(t, "/teams/sales/event", (*calls)[0].path)
		assert.JSONEq(t, `{"type":"lead","payload":{}}`, (*calls)[0].body)
		assert.JSONEq(t, `{"status":"ok"}`, string(result.Body))
	})

	t.Run("non-2xx is forwarded", func(t *testing.T) {
		server, _ := newTestServer(t, http.StatusNotFound, `{"detail":"unknown team"}`)
		client := NewClient(server.URL, "k")

		result, err := client.SubmitEvent(context.Background(), "ghost", model.Event{Type: "lead"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, result.StatusCode)
		assert.JSONEq(t, `{"detail":"unknown team"}`, string(result.Body))
	})

	t.Run("undecodable body", func(t *testing.T) {
		server, _ := newTestServer(t, http.StatusOK, `<html>`)
		client := NewClient(server.URL, "k")

		_, err := client.SubmitEvent(context.Background(), "sales", model.Event{Type: "lead"})
		assert.Error(t, err)
	})
}

func TestClient_Workflows(t *testing.T) {
	server, calls := newTestServer(t, http.StatusCreated, `{"status":"saved","path":"saved/flow.json"}`)
	client := NewClient(server.URL, "k")

	saved, err := client.SaveWorkflow(context.Background(), model.Workflow{
		Name:  "flow",
		Nodes: []model.WorkflowNode{{ID: "a", Type: "agent", Label: "a"}},
		Edges: []model.WorkflowEdge{},
	})
	require.NoError(t, err)
	assert.Equal(t, "saved", saved.Status)
	assert.Equal(t, "/workflows", (*calls)[0].path)
	assert.JSONEq(t, `{"name":"flow","nodes":[{"id":"a","type":"agent","label":"a"}],"edges":[]}`, (*calls)[0].body)

	loadServer, loadCalls := newTestServer(t, http.StatusOK, `{"name":"flow","nodes":[],"edges":[]}`)
	wf, err := NewClient(loadServer.URL, "k").LoadWorkflow(context.Background(), "flow")
	require.NoError(t, err)
	assert.Equal(t, "flow", wf.Name)
	assert.Equal(t, "/workflows/flow", (*loadCalls)[0].path)
}

func TestClient_SaveWorkflowRejected(t *testing.T) {
	server, calls := newTestServer(t, http.StatusUnprocessableEntity, `{"detail":"bad nodes"}`)

	saved, err := NewClient(server.URL, "k").SaveWorkflow(context.Background(), model.Workflow{Name: "flow"})
	assert.Nil(t, saved)
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusUnprocessableEntity, herr.StatusCode)
	assert.Len(t, *calls, 1)
}

func TestClient_SaveSettingsIgnoresStatus(t *testing.T) {
	server, calls := newTestServer(t, http.StatusMethodNotAllowed, `{"detail":"Method Not Allowed"}`)
	client := NewClient(server.URL, "k")

	err := client.SaveSettings(context.Background(), model.Settings{Organization: "acme", DisabledTeams: []string{"a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"organization":"acme","disabled_teams":["a"]}`, (*calls)[0].body)
}

func TestClient_RecentActivity(t *testing.T) {
	server, calls := newTestServer(t, http.StatusOK, `{"activity":[{"team":"sales"}]}`)
	client := NewClient(server.URL, "k")

	activity, err := client.RecentActivity(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, "limit=5", (*calls)[0].query)
}

func TestClient_TransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "k", WithTimeout(200*time.Millisecond))

	_, err := client.GetStatus(context.Background(), "sales")
	require.Error(t, err)

	var herr *HTTPError
	assert.False(t, errors.As(err, &herr))
}

func TestClient_StreamURL(t *testing.T) {
	tests := []struct {
		team, key, expected string
	}{
		{"demo", "secret", "http://api.local/teams/demo/stream?api_key=secret"},
		{"demo", "a b&c", "http://api.local/teams/demo/stream?api_key=a+b%26c"},
		{"demo", "", "http://api.local/teams/demo/stream?api_key="},
	}

	for _, tt := range tests {
		client := NewClient("http://api.local/", tt.key)
		assert.Equal(t, tt.expected, client.StreamURL(tt.team))
	}
}
