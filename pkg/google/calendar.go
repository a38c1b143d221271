// Package google mirrors tasks into a Google Calendar.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/taskboard/pkg/index"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Scopes are the OAuth scopes the mirror needs.
var Scopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// NewService creates a Calendar service over an authorized client. Extra
// options, such as an endpoint override, are applied after it.
func NewService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*calendar.Service, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	return srv, nil
}

// FindCalendar resolves a calendar name to its ID.
func FindCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range list.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", name)
}

// Mirror keeps one event per dated task in a calendar.
type Mirror struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Mirror)

func WithClock(now func() time.Time) Option {
	return func(m *Mirror) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Mirror) { m.logger = l }
}

// NewMirror creates a mirror. idx may be nil, in which case every lookup
// searches the calendar.
func NewMirror(srv *calendar.Service, calendarID string, idx *index.EventIndex, opts ...Option) *Mirror {
	m := &Mirror{
		srv:        srv,
		calendarID: calendarID,
		index:      idx,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Report counts the outcome of a Sync.
type Report struct {
	Synced  int
	Removed int
	Skipped int
	Failed  int
}

// Sync mirrors every dated active task and removes the events of deleted
// tasks and of active tasks that lost their dates. Failures are collected and
// the remaining tasks are still processed.
func (m *Mirror) Sync(ctx context.Context, active, deleted []model.Task) (Report, error) {
	var report Report
	var errs []error

	for _, task := range active {
		if task.StartDate.IsZero() && task.EndDate.IsZero() {
			removed, err := m.RemoveTask(ctx, task.ID)
			if err != nil {
				report.Failed++
				errs = append(errs, err)
			} else if removed {
				report.Removed++
			} else {
				report.Skipped++
			}
			continue
		}
		if _, err := m.SyncTask(ctx, task); err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("sync task %s: %w", task.ID, err))
			continue
		}
		report.Synced++
	}

	for _, task := range deleted {
		removed, err := m.RemoveTask(ctx, task.ID)
		if err != nil {
			report.Failed++
			errs = append(errs, err)
		} else if removed {
			report.Removed++
		}
	}

	if m.index != nil {
		if err := m.index.Save(); err != nil {
			errs = append(errs, fmt.Errorf("save event index: %w", err))
		}
	}
	m.logger.Info("Calendar sync finished", "synced", report.Synced, "removed", report.Removed, "skipped", report.Skipped, "failed", report.Failed)
	return report, errors.Join(errs...)
}

// SyncTask creates the task's event or patches the fields that changed.
func (m *Mirror) SyncTask(ctx context.Context, task model.Task) (*calendar.Event, error) {
	event, err := EventForTask(task, m.now())
	if err != nil {
		return nil, err
	}

	existing, err := m.lookup(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}

	if existing != nil {
		patch := EventNeedsUpdate(existing, event)
		if patch == nil {
			m.remember(task.ID, existing.Id)
			return existing, nil
		}
		updated, err := m.srv.Events.Patch(m.calendarID, existing.Id, patch).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		m.remember(task.ID, updated.Id)
		return updated, nil
	}

	created, err := m.srv.Events.Insert(m.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	m.remember(task.ID, created.Id)
	return created, nil
}

// RemoveTask deletes the task's event if there is one.
func (m *Mirror) RemoveTask(ctx context.Context, taskID string) (bool, error) {
	existing, err := m.lookup(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("error searching for event: %w", err)
	}
	if existing == nil {
		return false, nil
	}
	if err := m.srv.Events.Delete(m.calendarID, existing.Id).Context(ctx).Do(); err != nil && !isGone(err) {
		return false, fmt.Errorf("delete event %s: %w", existing.Id, err)
	}
	if m.index != nil {
		m.index.Remove(taskID)
	}
	return true, nil
}

// lookup tries the local index first and falls back to searching the
// calendar by extended property. The index entry is dropped only when its
// event is gone or cancelled.
func (m *Mirror) lookup(ctx context.Context, taskID string) (*calendar.Event, error) {
	if m.index != nil {
		if eventID := m.index.Get(taskID); eventID != "" {
			event, err := m.srv.Events.Get(m.calendarID, eventID).Context(ctx).Do()
			switch {
			case err == nil && event.Status != "cancelled":
				return event, nil
			case err != nil && !isGone(err):
				return nil, err
			}
			m.logger.Debug("Indexed event gone, searching calendar", "task", taskID, "event", eventID)
			m.index.Remove(taskID)
		}
	}
	return m.EventByTaskID(ctx, taskID)
}

// EventByTaskID searches for the event carrying the task's ID.
func (m *Mirror) EventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := m.srv.Events.List(m.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", taskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

func (m *Mirror) remember(taskID, eventID string) {
	if m.index != nil {
		m.index.Set(taskID, eventID)
	}
}

func isGone(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && (gerr.Code == http.StatusGone || gerr.Code == http.StatusNotFound)
}
