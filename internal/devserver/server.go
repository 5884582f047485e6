// Package devserver is a local stand-in for the team operations API. It
// implements every endpoint the client uses, including the SSE stream.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHistoryLimit  = 10
	defaultActivityLimit = 10
	keepAliveInterval    = 15 * time.Second
)

// Config configures a Server
type Config struct {
	// APIKey, when set, is required on every request via X-API-Key or the
	// api_key query parameter.
	APIKey string
	// Teams lists known teams; empty accepts any team
	Teams []string
	// KeepAlive is the SSE comment interval; zero uses the default
	KeepAlive time.Duration
}

// Server serves the API from a Store and a Broker
type Server struct {
	cfg    Config
	store  Store
	broker *Broker
	router chi.Router
}

// NewServer wires routes over store
func NewServer(cfg Config, store Store) *Server {
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = keepAliveInterval
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		broker: NewBroker(cfg.Teams),
	}
	s.router = s.routes()
	return s
}

// Broker exposes the team broker
func (s *Server) Broker() *Broker {
	return s.broker
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireKey)
		r.Post("/teams/{team}/event", s.handleEvent)
		r.Get("/teams/{team}/status", s.handleStatus)
		r.Get("/teams/{team}/stream", s.handleStream)
		r.Get("/activity", s.handleActivity)
		r.Get("/history", s.handleHistory)
		r.Post("/workflows", s.handleSaveWorkflow)
		r.Get("/workflows/{name}", s.handleLoadWorkflow)
		r.Post("/settings", s.handleSaveSettings)
		r.Get("/settings", s.handleGetSettings)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. ready, if non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if ready != nil {
			ready(ln.Addr())
		}
		util.LogInfo("mock API listening", util.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if id := r.Header.Get(api.HeaderRequestID); id != "" {
			ctx = context.WithValue(ctx, util.RequestIDKey, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
		util.LogCtx(ctx).Debug("handled request",
			util.String("method", r.Method),
			util.String("path", r.URL.Path),
			util.String("elapsed", time.Since(start).String()))
	})
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" {
			supplied := r.Header.Get(api.HeaderAPIKey)
			if supplied == "" {
				supplied = r.URL.Query().Get("api_key")
			}
			if supplied != s.cfg.APIKey {
				writeDetail(w, http.StatusUnauthorized, "invalid api key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "team")

	var event model.Event
	if err := decodeBody(r, &event); err != nil || event.Type == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid event body")
		return
	}
	if len(event.Payload) == 0 || string(event.Payload) == "null" {
		event.Payload = json.RawMessage("{}")
	}
	if !s.broker.Known(team) {
		writeDetail(w, http.StatusNotFound, "unknown team")
		return
	}

	result := map[string]interface{}{"status": "handled", "team": team, "event_type": event.Type}
	resultJSON, err := sonic.Marshal(result)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	eventJSON, err := sonic.Marshal(event)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := s.store.RecordEvent(r.Context(), model.ActivityRecord{
		Team:      team,
		EventType: event.Type,
		Payload:   event.Payload,
		Result:    resultJSON,
	}); err != nil {
		util.LogCtx(r.Context()).Error("failed to record event", util.Err(err))
	}

	s.broker.ReportActivity(team, eventJSON, resultJSON)
	s.broker.ReportStatus(team, "handled")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "team")
	if !s.broker.Known(team) {
		writeDetail(w, http.StatusNotFound, "unknown team")
		return
	}
	status, _ := s.broker.Status(team)
	writeJSON(w, http.StatusOK, model.StatusResponse{Team: team, Status: status})
}

// handleStream sends the current status first, then every message
// published for the team, until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "team")
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// in open mode this registers the team so a snapshot is sent
	_ = s.broker.Known(team)
	queue, unsubscribe := s.broker.Subscribe(team)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if status, ok := s.broker.Status(team); ok {
		if data, err := marshalMessage(map[string]interface{}{"status": status}); err == nil {
			writeSSE(w, model.ChannelStatus, data)
		}
	}
	flusher.Flush()

	keepAlive := time.NewTicker(s.cfg.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			_, _ = io.WriteString(w, ": keepalive\n\n")
			flusher.Flush()
		case data := <-queue:
			var envelope struct {
				Type string `json:"type"`
			}
			if err := sonic.Unmarshal(data, &envelope); err != nil || envelope.Type == "" {
				continue
			}
			writeSSE(w, envelope.Type, data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultActivityLimit)
	writeJSON(w, http.StatusOK, model.ActivityResponse{Activity: s.broker.RecentActivity(limit)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultHistoryLimit)
	offset := queryInt(r, "offset", 0)

	records, err := s.store.History(r.Context(), limit, offset)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.HistoryResponse{History: records})
}

func (s *Server) handleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf model.Workflow
	if err := decodeBody(r, &wf); err != nil || wf.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid workflow body")
		return
	}
	for _, n := range wf.Nodes {
		if n.Type != model.NodeTypeAgent && n.Type != model.NodeTypeTool {
			writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("node %q has invalid type %q", n.ID, n.Type))
			return
		}
	}

	path, err := s.store.SaveWorkflow(r.Context(), wf)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, model.WorkflowSaved{Status: "saved", Path: path})
}

func (s *Server) handleLoadWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.store.LoadWorkflow(r.Context(), chi.URLParam(r, "name"))
	if errors.Is(err, ErrWorkflowNotFound) {
		writeDetail(w, http.StatusNotFound, "unknown workflow")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := decodeBody(r, &settings); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid settings body")
		return
	}
	if settings.DisabledTeams == nil {
		settings.DisabledTeams = []string{}
	}
	if err := s.store.SaveSettings(r.Context(), settings); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func decodeBody(r *http.Request, out interface{}) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, out)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func marshalMessage(msg interface{}) ([]byte, error) {
	return sonic.Marshal(msg)
}

func writeSSE(w io.Writer, event string, data []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
