package google

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

// taskIDProperty is the private extended property tying an event to a task.
const taskIDProperty = "taskboard_id"

// EventForTask renders a task as an all-day event spanning its start and end
// dates. A task with only one of the two dates gets a single-day event.
func EventForTask(task model.Task, now time.Time) (*calendar.Event, error) {
	start, end := task.StartDate, task.EndDate
	switch {
	case start.IsZero() && end.IsZero():
		return nil, fmt.Errorf("task %s has no start or end date", task.ID)
	case start.IsZero():
		start = end
	case end.IsZero():
		end = start
	}
	if end.Before(start.Time) {
		start, end = end, start
	}

	prefix := ""
	switch {
	case task.Status == model.StatusCompleted:
		prefix = "✓"
	case task.Overdue(now):
		prefix = "!"
	case task.Status == model.StatusInProgress:
		prefix = "‣"
	}
	summary := task.Title
	if prefix != "" {
		summary = prefix + " " + task.Title
	}

	var desc strings.Builder
	if task.Description != "" {
		desc.WriteString(task.Description)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Status: %s\n", task.Status.OrDefault())
	fmt.Fprintf(&desc, "Priority: %s\n", task.Priority.OrDefault())
	if task.Assignee != "" {
		fmt.Fprintf(&desc, "Assignee: %s\n", task.Assignee)
	}
	if task.Rating > 0 {
		fmt.Fprintf(&desc, "Rating: %s\n", strings.Repeat("★", task.Rating))
	}
	fmt.Fprintf(&desc, "ID: %s\n", task.ID)

	return &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		ColorId:     colors.ForTask(task.ID).CalendarID,
		Start:       &calendar.EventDateTime{Date: start.String()},
		// All-day end dates are exclusive.
		End: &calendar.EventDateTime{Date: model.Date{Time: end.AddDate(0, 0, 1)}.String()},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{taskIDProperty: task.ID},
		},
	}, nil
}

// EventNeedsUpdate returns a patch carrying the fields of target that differ
// from existing, or nil when they already agree.
func EventNeedsUpdate(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}
	if day(existing.Start) != day(target.Start) || day(existing.End) != day(target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

func day(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.Date != "" {
		return dt.Date
	}
	return dt.DateTime
}
