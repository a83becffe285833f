// Package memorytest provides an in-process fake of the conversation-memory
// service for tests that exercise the real client.
package memorytest

import (
	"encoding/json"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/GuyfromMontana/MFC-single-agent/internal/memory"
)

// Server records users, threads, and appended messages in memory.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	users    map[string]*memory.User
	threads  map[string]string
	messages map[string][]memory.Message
	batches  map[string][]int
	failures map[string]int
	failNth  map[string]map[int]int
	seen     map[string]int
	calls    []string
}

// NewServer starts a fake closed on test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    make(map[string]*memory.User),
		threads:  make(map[string]string),
		messages: make(map[string][]memory.Message),
		batches:  make(map[string][]int),
		failures: make(map[string]int),
		failNth:  make(map[string]map[int]int),
		seen:     make(map[string]int),
	}
	r := chi.NewRouter()
	r.Get("/users/{id}", s.op("get_user", s.getUser))
	r.Post("/users", s.op("create_user", s.createUser))
	r.Patch("/users/{id}", s.op("update_user", s.updateUser))
	r.Post("/threads", s.op("create_thread", s.createThread))
	r.Post("/threads/{id}/messages", s.op("add_messages", s.addMessages))
	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the fake's base URL.
func (s *Server) URL() string { return s.srv.URL }

// Client returns a real client pointed at the fake.
func (s *Server) Client(opts ...memory.Option) *memory.Client {
	opts = append([]memory.Option{memory.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return memory.New(s.srv.URL, "test-key", opts...)
}

// Fail makes every subsequent call of op answer with status.
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = status
}

// Recover clears a failure set by Fail.
func (s *Server) Recover(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

// FailNth makes only the nth call (1-based) of op answer with status.
func (s *Server) FailNth(op string, n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNth[op] == nil {
		s.failNth[op] = make(map[int]int)
	}
	s.failNth[op][n] = status
}

// SeedUser stores u as if it had been created earlier.
func (s *Server) SeedUser(u memory.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	cp.Metadata = maps.Clone(u.Metadata)
	s.users[u.UserID] = &cp
}

// User returns a copy of a stored user.
func (s *Server) User(id string) (memory.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return memory.User{}, false
	}
	cp := *u
	cp.Metadata = maps.Clone(u.Metadata)
	return cp, true
}

// ThreadOwner reports which user a thread belongs to.
func (s *Server) ThreadOwner(threadID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.threads[threadID]
	return owner, ok
}

// Messages returns every message appended to a thread, in order.
func (s *Server) Messages(threadID string) []memory.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]memory.Message(nil), s.messages[threadID]...)
}

// Batches returns the size of each append request made to a thread.
func (s *Server) Batches(threadID string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.batches[threadID]...)
}

// Calls lists operations in the order they were received.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) op(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, name)
		s.seen[name]++
		status, failing := s.failures[name]
		if nth, ok := s.failNth[name][s.seen[name]]; ok && !failing {
			status, failing = nth, true
		}
		s.mu.Unlock()
		if failing {
			writeMessage(w, status, "injected failure")
			return
		}
		next(w, r)
	}
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.User(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var u memory.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil || u.UserID == "" {
		writeMessage(w, http.StatusBadRequest, "invalid user")
		return
	}
	s.mu.Lock()
	if _, exists := s.users[u.UserID]; exists {
		s.mu.Unlock()
		writeMessage(w, http.StatusBadRequest, "user already exists")
		return
	}
	s.users[u.UserID] = &u
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, u)
}

// updateUser replaces metadata wholesale when supplied, like the real service.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch memory.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid patch")
		return
	}
	s.mu.Lock()
	u, ok := s.users[chi.URLParam(r, "id")]
	if !ok {
		s.mu.Unlock()
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.Metadata != nil {
		u.Metadata = patch.Metadata
	}
	out := *u
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ThreadID string `json:"thread_id"`
		UserID   string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ThreadID == "" {
		writeMessage(w, http.StatusBadRequest, "invalid thread")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[body.UserID]; !ok {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	if _, exists := s.threads[body.ThreadID]; exists {
		writeMessage(w, http.StatusBadRequest, "thread already exists")
		return
	}
	s.threads[body.ThreadID] = body.UserID
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) addMessages(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []memory.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid messages")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		writeMessage(w, http.StatusNotFound, "thread not found")
		return
	}
	if len(body.Messages) > memory.MaxMessagesPerRequest {
		writeMessage(w, http.StatusBadRequest, "too many messages")
		return
	}
	s.messages[id] = append(s.messages[id], body.Messages...)
	s.batches[id] = append(s.batches[id], len(body.Messages))
	writeJSON(w, http.StatusOK, map[string]any{"added": len(body.Messages)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
