package model

import (
	"fmt"
	"strings"
)

// Patch is a partial update. Only non-nil fields are sent.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Assignee    *string   `json:"assignee,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	StartDate   *Date     `json:"startDate,omitempty"`
	EndDate     *Date     `json:"endDate,omitempty"`
	Rating      *int      `json:"rating,omitempty"`
	Deleted     *bool     `json:"isDeleted,omitempty"`
}

// RatingPatch sets only the rating.
func RatingPatch(rating int) Patch {
	return Patch{Rating: &rating}
}

// DeletePatch flags the task as deleted.
func DeletePatch() Patch {
	deleted := true
	return Patch{Deleted: &deleted}
}

// EditPatch carries every field of the edit form.
func EditPatch(t Task) Patch {
	status := t.Status.OrDefault()
	priority := t.Priority.OrDefault()
	rating := t.Rating
	start, end := t.StartDate, t.EndDate
	return Patch{
		Title:       &t.Title,
		Description: &t.Description,
		Assignee:    &t.Assignee,
		Status:      &status,
		Priority:    &priority,
		StartDate:   &start,
		EndDate:     &end,
		Rating:      &rating,
	}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, *p.Priority)
	}
	if p.Rating != nil && !ValidRating(*p.Rating) {
		return fmt.Errorf("%w: rating %d outside [%d,%d]", ErrValidation, *p.Rating, MinRating, MaxRating)
	}
	return nil
}

// Apply returns t with the patch's fields written over it.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Rating != nil {
		t.Rating = *p.Rating
	}
	if p.Deleted != nil {
		t.Deleted = *p.Deleted
	}
	return t
}
