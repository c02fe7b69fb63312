// Package servicetest provides a recording fake backend for service tests.
package servicetest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"crew-portal/internal/common/config"
	backend "crew-portal/internal/common/http"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/services"
)

// Call is one request the fake backend received.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
	Auth   string
}

// Server records calls and answers every request with Status and Body.
type Server struct {
	mu     sync.Mutex
	calls  []Call
	Status int
	Body   string
	// Routes overrides Body for "METHOD /path" keys.
	Routes map[string]string
}

// New starts a fake backend and returns a real backend client pointed at it.
func New(t *testing.T, body string) (*backend.Client, *Server) {
	t.Helper()
	s := &Server{Status: http.StatusOK, Body: body, Routes: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(srv.Close)
	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 2000}, logger.NewNoOpLogger())
	return client, s
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   body,
		Auth:   r.Header.Get("Authorization"),
	})
	resp, ok := s.Routes[r.Method+" "+r.URL.Path]
	if !ok {
		resp = s.Body
	}
	status := s.Status
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp))
}

// Calls returns a copy of the recorded calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Last returns the most recent call.
func (s *Server) Last() Call {
	calls := s.Calls()
	if len(calls) == 0 {
		return Call{}
	}
	return calls[len(calls)-1]
}

// Recorder is an Observer that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	Events []services.Event
}

func (r *Recorder) Observe(_ context.Context, e services.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

// Last returns the most recent event, or a zero Event.
func (r *Recorder) Last() services.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Events) == 0 {
		return services.Event{}
	}
	return r.Events[len(r.Events)-1]
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Events)
}
