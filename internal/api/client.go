// Package api is a typed client for the team operations HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
)

const (
	// HeaderAPIKey carries the credential on regular requests
	HeaderAPIKey = "X-API-Key"
	// HeaderRequestID tags each request for log correlation
	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 30 * time.Second
)

// Client talks to the API at a fixed base URL with a fixed credential
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
	requestID  func() string
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRequestIDFunc overrides X-Request-ID generation
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// NewClient creates a client. An empty credential sends no X-API-Key header.
func NewClient(baseURL, credential string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
		httpClient: &http.Client{Timeout: defaultTimeout},
		requestID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Credential returns the credential the client was built with
func (c *Client) Credential() string {
	return c.credential
}

// HTTPClient exposes the underlying client for streaming callers
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// EventResult is the decoded response of an event submission. The
// response shape is not validated.
type EventResult struct {
	StatusCode int
	Body       json.RawMessage
}

// SubmitEvent posts {type, payload} to /teams/{team}/event. Non-2xx
// responses are returned as results, not errors; only transport and
// decode failures are errors.
func (c *Client) SubmitEvent(ctx context.Context, team string, event model.Event) (*EventResult, error) {
	if len(event.Payload) == 0 {
		event.Payload = json.RawMessage("{}")
	}
	resp, err := c.do(ctx, http.MethodPost, teamPath(team, "event"), nil, event)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	if err := sonic.Unmarshal(resp.body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode event response: %w", err)
	}
	return &EventResult{StatusCode: resp.status, Body: resp.body}, nil
}

// GetStatus fetches the last reported status of team
func (c *Client) GetStatus(ctx context.Context, team string) (*model.StatusResponse, error) {
	var out model.StatusResponse
	if err := c.getJSON(ctx, teamPath(team, "status"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHistory fetches persisted event history, newest first. A zero offset
// is left off the query.
func (c *Client) GetHistory(ctx context.Context, limit, offset int) ([]model.ActivityRecord, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var out model.HistoryResponse
	if err := c.getJSON(ctx, "/history", query, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// RecentActivity fetches the orchestrator's in-memory activity feed
func (c *Client) RecentActivity(ctx context.Context, limit int) ([]json.RawMessage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var out model.ActivityResponse
	if err := c.getJSON(ctx, "/activity", query, &out); err != nil {
		return nil, err
	}
	return out.Activity, nil
}

// SaveWorkflow posts a workflow document to /workflows. Unlike settings, a
// non-2xx response is returned as *HTTPError since callers report the
// saved path.
func (c *Client) SaveWorkflow(ctx context.Context, wf model.Workflow) (*model.WorkflowSaved, error) {
	resp, err := c.do(ctx, http.MethodPost, "/workflows", nil, wf)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.status) {
		return nil, resp.httpError()
	}

	var out model.WorkflowSaved
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := sonic.Unmarshal(resp.body, &out); err != nil {
			return nil, fmt.Errorf("failed to decode workflow response: %w", err)
		}
	}
	return &out, nil
}

// LoadWorkflow fetches a saved workflow by name
func (c *Client) LoadWorkflow(ctx context.Context, name string) (*model.Workflow, error) {
	var out model.Workflow
	if err := c.getJSON(ctx, "/workflows/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveSettings posts the settings document. The response is discarded;
// only transport failures are returned.
func (c *Client) SaveSettings(ctx context.Context, settings model.Settings) error {
	resp, err := c.do(ctx, http.MethodPost, "/settings", nil, settings)
	if err != nil {
		return err
	}
	util.LogCtx(ctx).Debug("settings saved", util.Int("status", resp.status))
	return nil
}

// StreamURL returns the SSE endpoint for team. EventSource cannot send
// headers, so the credential rides in the query string.
func (c *Client) StreamURL(team string) string {
	return StreamURL(c.baseURL, team, c.credential)
}

// StreamURL builds the SSE endpoint URL for team under baseURL
func StreamURL(baseURL, team, credential string) string {
	return strings.TrimRight(baseURL, "/") + teamPath(team, "stream") + "?api_key=" + url.QueryEscape(credential)
}

func teamPath(team, leaf string) string {
	return "/teams/" + url.PathEscape(team) + "/" + leaf
}

type response struct {
	status int
	body   []byte
}

func (r *response) httpError() *HTTPError {
	herr := &HTTPError{StatusCode: r.status}
	var detail struct {
		Detail string `json:"detail"`
	}
	if sonic.Unmarshal(r.body, &detail) == nil {
		herr.Detail = detail.Detail
	}
	return herr
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.status) {
		return resp.httpError()
	}
	if err := sonic.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// NewRequest builds an authenticated request against the API
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.credential != "" {
		req.Header.Set(HeaderAPIKey, c.credential)
	}
	req.Header.Set(HeaderRequestID, c.requestID())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (*response, error) {
	var body io.Reader
	if payload != nil {
		data, err := sonic.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.NewRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	logger := util.LogCtx(context.WithValue(ctx, util.RequestIDKey, req.Header.Get(HeaderRequestID)))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("request failed", util.String("method", method), util.String("path", path), util.Err(err))
		return nil, fmt.Errorf("failed to %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug("request completed",
		util.String("method", method),
		util.String("path", path),
		util.Int("status", resp.StatusCode),
		util.String("elapsed", time.Since(start).String()))

	return &response{status: resp.StatusCode, body: data}, nil
}
