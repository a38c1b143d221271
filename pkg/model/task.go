package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the valid statuses in form order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// OrDefault returns s, or StatusPending when s is empty.
func (s Status) OrDefault() Status {
	if s == "" {
		return StatusPending
	}
	return s
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid priorities in form order.
var Priorities = []Priority{PriorityNormal, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// OrDefault returns p, or PriorityNormal when p is empty.
func (p Priority) OrDefault() Priority {
	if p == "" {
		return PriorityNormal
	}
	return p
}

const (
	MinRating = 0
	MaxRating = 5
)

// ErrValidation is wrapped by every field validation failure.
var ErrValidation = errors.New("invalid task")

// Task is a task record as served by the remote task API.
//
// The API stores records under "_id"; StorageID carries that value as
// received and Normalize copies it into ID, which is what the rest of the
// application keys on.
type Task struct {
	ID          string    `json:"id,omitempty"`
	StorageID   string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Assignee    string    `json:"assignee,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	StartDate   Date      `json:"startDate"`
	EndDate     Date      `json:"endDate"`
	Rating      int       `json:"rating,omitempty"`
	Deleted     bool      `json:"isDeleted,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Normalize fills ID from StorageID when the API sent one.
func (t *Task) Normalize() {
	if t.StorageID != "" {
		t.ID = t.StorageID
	}
}

// Overdue reports whether the end date lies before the day of now and the
// task is not completed.
func (t Task) Overdue(now time.Time) bool {
	if t.EndDate.IsZero() || t.Status == StatusCompleted {
		return false
	}
	today := NewDate(now.Year(), now.Month(), now.Day())
	return t.EndDate.Before(today.Time)
}

// MonthKey derives the grouping key "M/YYYY" from a creation timestamp,
// with the month 1-based and unpadded, evaluated in loc.
func MonthKey(createdAt time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t := createdAt.In(loc)
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Year())
}

// Draft holds the fields sent when creating a task.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Assignee    string   `json:"assignee"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	StartDate   Date     `json:"startDate"`
	EndDate     Date     `json:"endDate"`
}

// WithDefaults returns a copy with empty status and priority defaulted.
func (d Draft) WithDefaults() Draft {
	d.Status = d.Status.OrDefault()
	d.Priority = d.Priority.OrDefault()
	return d
}

// Validate checks the fields the create form requires.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if d.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrValidation)
	}
	if d.EndDate.IsZero() {
		return fmt.Errorf("%w: end date is required", ErrValidation)
	}
	if d.Status != "" && !d.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, d.Status)
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, d.Priority)
	}
	return nil
}

// ValidRating reports whether r is an accepted star rating. Zero clears it.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
