// Package board holds the task collection view-model: a month-grouped cache
// of one remote task collection that is patched locally after writes.
//
// A Store is owned by the screen composition that creates it and is passed
// to the screens that read or mutate it. Writes fall into two classes.
// Locally-patched writes (SetRating, SoftDelete, Restore) update the cached
// view once the API confirms them. Refetch-relies writes (Create, Update)
// leave the view alone; the next Fetch, triggered by navigation, picks up
// their effect.
package board

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// API is the part of the remote task API the store drives.
type API interface {
	ListActive(ctx context.Context) ([]model.Task, error)
	ListDeleted(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id string) (model.Task, error)
	Create(ctx context.Context, draft model.Draft) (model.Task, error)
	Patch(ctx context.Context, id string, patch model.Patch) (model.Task, error)
	Restore(ctx context.Context, id string) (model.Task, error)
}

// Kind selects which collection a store mirrors.
type Kind int

const (
	Active Kind = iota
	Deleted
)

func (k Kind) String() string {
	if k == Deleted {
		return "deleted"
	}
	return "active"
}

type State int

const (
	Idle State = iota
	Loaded
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "idle"
	}
}

// Op names a write operation.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpRate    Op = "rate"
	OpDelete  Op = "delete"
	OpRestore Op = "restore"
)

// Class is how a write keeps the view consistent.
type Class string

const (
	ClassLocallyPatched Class = "locally-patched"
	ClassRefetchRelies  Class = "refetch-relies"
)

// Class returns the synchronization class of op.
func (op Op) Class() Class {
	switch op {
	case OpRate, OpDelete, OpRestore:
		return ClassLocallyPatched
	default:
		return ClassRefetchRelies
	}
}

// Store caches one grouped collection. It is safe for concurrent use;
// remote calls run outside the lock and overlapping writes to the same task
// resolve in the order they settle.
type Store struct {
	api    API
	kind   Kind
	loc    *time.Location
	logger *slog.Logger

	mu    sync.RWMutex
	view  View
	state State
	// gen numbers fetches as they start; applied is the newest one whose
	// result reached the view.
	gen     uint64
	applied uint64
}

type Option func(*Store)

// WithLocation sets the zone month keys are computed in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store for the given collection.
func New(api API, kind Kind, opts ...Option) *Store {
	s := &Store{
		api:    api,
		kind:   kind,
		loc:    time.UTC,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Kind() Kind {
	return s.kind
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns a deep copy of the current view.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Clone()
}

// Close unmounts the store. Responses that settle afterwards are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Closed
	s.view = View{}
}

// Fetch loads the collection and replaces the view with its grouping. On
// failure the view is emptied and locally-patched writes are refused until
// a later Fetch succeeds. A result that settles after a newer Fetch has
// already been applied is dropped in its favour.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	var tasks []model.Task
	var err error
	if s.kind == Deleted {
		tasks, err = s.api.ListDeleted(ctx)
	} else {
		tasks, err = s.api.ListActive(ctx)
	}
	var view View
	if err == nil {
		view, err = GroupTasks(tasks, s.loc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		s.logger.Debug("Discarding fetch for closed view", "kind", s.kind)
		return ErrClosed
	}
	if gen < s.applied {
		s.logger.Debug("Discarding superseded fetch", "kind", s.kind)
		return nil
	}
	s.applied = gen
	if err != nil {
		s.view = View{}
		s.state = Failed
		s.logger.Error("Failed to fetch tasks", "kind", s.kind, "error", err)
		return &FetchError{Kind: s.kind, Err: err}
	}
	s.view = view
	s.state = Loaded
	s.logger.Debug("Fetched tasks", "kind", s.kind, "groups", len(view.Groups), "tasks", view.Len())
	return nil
}

// Get loads a single record, e.g. to fill the edit form. The view is not
// consulted or changed.
func (s *Store) Get(ctx context.Context, id string) (model.Task, error) {
	if s.State() == Closed {
		return model.Task{}, ErrClosed
	}
	t, err := s.api.Get(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load task", "id", id, "error", err)
		return model.Task{}, err
	}
	t.Normalize()
	return t, nil
}

// Create sends a new task. The view is not changed; the caller navigates
// back to the list, whose fetch picks the task up.
func (s *Store) Create(ctx context.Context, draft model.Draft) (model.Task, error) {
	if s.State() == Closed {
		return model.Task{}, ErrClosed
	}
	t, err := s.api.Create(ctx, draft)
	if err != nil {
		return model.Task{}, s.mutationFailed(OpCreate, "", err)
	}
	t.Normalize()
	s.logger.Info("Created task", "id", t.ID, "class", OpCreate.Class())
	return t, nil
}

// Update sends a partial edit. Like Create it relies on the next fetch.
func (s *Store) Update(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	if s.State() == Closed {
		return model.Task{}, ErrClosed
	}
	if err := patch.Validate(); err != nil {
		return model.Task{}, err
	}
	t, err := s.api.Patch(ctx, id, patch)
	if err != nil {
		return model.Task{}, s.mutationFailed(OpUpdate, id, err)
	}
	t.Normalize()
	s.logger.Info("Updated task", "id", id, "class", OpUpdate.Class())
	return t, nil
}

// SetRating stores a 0-5 rating, 0 clearing it, and replaces the rating of
// the cached task in place once the API confirms. Group membership does not
// change.
func (s *Store) SetRating(ctx context.Context, id string, rating int) error {
	if !model.ValidRating(rating) {
		return ErrInvalidRating
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.api.Patch(ctx, id, model.RatingPatch(rating)); err != nil {
		return s.mutationFailed(OpRate, id, err)
	}
	s.apply(OpRate, id, func(v *View) bool { return v.setRating(id, rating) })
	return nil
}

// SoftDelete flags the task deleted and drops it from the active view,
// along with its group if it was the last member. Asking the user for
// confirmation is the caller's job.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	if s.kind != Active {
		return ErrWrongView
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.api.Patch(ctx, id, model.DeletePatch()); err != nil {
		return s.mutationFailed(OpDelete, id, err)
	}
	s.apply(OpDelete, id, func(v *View) bool { return v.remove(id) })
	return nil
}

// Restore clears the deleted flag and drops the task from the deleted
// view. The task reaches an active view only through that view's fetch.
func (s *Store) Restore(ctx context.Context, id string) error {
	if s.kind != Deleted {
		return ErrWrongView
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.api.Restore(ctx, id); err != nil {
		return s.mutationFailed(OpRestore, id, err)
	}
	s.apply(OpRestore, id, func(v *View) bool { return v.remove(id) })
	return nil
}

func (s *Store) ready() error {
	switch s.State() {
	case Closed:
		return ErrClosed
	case Loaded:
		return nil
	default:
		return ErrNotLoaded
	}
}

// apply patches the view after a confirmed write. A store closed or failed
// while the call was in flight is left alone.
func (s *Store) apply(op Op, id string, patch func(*View) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loaded {
		s.logger.Debug("Dropping patch for unloaded view", "op", op, "id", id, "state", s.state)
		return
	}
	if !patch(&s.view) {
		s.logger.Debug("Task not in view", "op", op, "id", id)
		return
	}
	s.logger.Info("Patched task view", "op", op, "id", id, "class", op.Class())
}

func (s *Store) mutationFailed(op Op, id string, err error) error {
	s.logger.Error("Task mutation failed", "op", op, "id", id, "error", err)
	return &MutationError{Op: op, ID: id, Err: err}
}
