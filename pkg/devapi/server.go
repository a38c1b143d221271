// Package devapi is an in-memory stand-in for the remote task API, used for
// local development and tests.
package devapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Server holds tasks in insertion order and serves them over the task API
// routes.
type Server struct {
	mu     sync.RWMutex
	order  []string
	tasks  map[string]model.Task
	now    func() time.Time
	logger *slog.Logger
	router *mux.Router
}

type Option func(*Server)

// WithClock overrides time.Now for createdAt/updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		tasks:  make(map[string]model.Task),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc("/tasks", s.listActive).Methods(http.MethodGet)
	r.HandleFunc("/tasks/deleted", s.listDeleted).Methods(http.MethodGet)
	r.HandleFunc("/tasks", s.create).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{taskID}", s.get).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{taskID}", s.patch).Methods(http.MethodPatch)
	r.HandleFunc("/tasks/{taskID}/restore", s.restore).Methods(http.MethodPatch)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Seed stores tasks as given. Records without an ID get one; zero
// timestamps are stamped with the clock.
func (s *Server) Seed(tasks ...model.Task) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		now := s.now()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		t.Status = t.Status.OrDefault()
		t.Priority = t.Priority.OrDefault()
		s.put(t)
		seeded = append(seeded, t)
	}
	return seeded
}

// Task returns the stored record.
func (s *Server) Task(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

func (s *Server) put(t model.Task) {
	if _, exists := s.tasks[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t
}

func (s *Server) list(deleted bool) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		if t := s.tasks[id]; t.Deleted == deleted {
			out = append(out, wire(t))
		}
	}
	return out
}

// wire shapes a record the way the production API does: the identifier
// travels as "_id" only.
func wire(t model.Task) model.Task {
	t.StorageID = t.ID
	t.ID = ""
	return t
}

func (s *Server) listActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.list(false))
}

func (s *Server) listDeleted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.list(true))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	t, ok := s.Task(mux.Vars(r)["taskID"])
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, wire(t))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var draft model.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := draft.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	draft = draft.WithDefaults()

	now := s.now()
	t := model.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Assignee:    draft.Assignee,
		Status:      draft.Status,
		Priority:    draft.Priority,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.put(t)
	s.mu.Unlock()

	s.logger.Debug("devapi created task", "id", t.ID)
	writeJSON(w, http.StatusCreated, wire(t))
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	var p model.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, err := s.update(mux.Vars(r)["taskID"], p.Apply)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, wire(t))
}

func (s *Server) restore(w http.ResponseWriter, r *http.Request) {
	t, err := s.update(mux.Vars(r)["taskID"], func(t model.Task) model.Task {
		t.Deleted = false
		return t
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, wire(t))
}

var errNotFound = errors.New("task not found")

func (s *Server) update(id string, fn func(model.Task) model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, errNotFound
	}
	t = fn(t)
	t.UpdatedAt = s.now()
	s.tasks[id] = t
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
