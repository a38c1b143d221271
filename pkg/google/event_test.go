package google

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

func TestEventForTask(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	task := model.Task{
		ID:          "65f1",
		Title:       "Write report",
		Description: "Quarterly numbers",
		Assignee:    "sam",
		Status:      model.StatusPending,
		Priority:    model.PriorityHigh,
		StartDate:   model.NewDate(2024, 3, 5),
		EndDate:     model.NewDate(2024, 3, 9),
		Rating:      3,
	}

	event, err := EventForTask(task, now)
	require.NoError(t, err)

	assert.Equal(t, "! Write report", event.Summary, "overdue tasks are flagged")
	assert.Equal(t, "2024-03-05", event.Start.Date)
	assert.Equal(t, "2024-03-10", event.End.Date, "end date is exclusive")
	assert.Equal(t, colors.ForTask("65f1").CalendarID, event.ColorId)
	require.NotNil(t, event.ExtendedProperties)
	assert.Equal(t, "65f1", event.ExtendedProperties.Private["taskboard_id"])

	for _, want := range []string{"Quarterly numbers", "Status: pending", "Priority: high", "Assignee: sam", "Rating: ★★★", "ID: 65f1"} {
		assert.True(t, strings.Contains(event.Description, want), "description missing %q:\n%s", want, event.Description)
	}
}

func TestEventForTaskPrefixes(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	task := model.Task{ID: "1", Title: "T", EndDate: model.NewDate(2024, 3, 9)}

	event, err := EventForTask(task, now)
	require.NoError(t, err)
	assert.Equal(t, "T", event.Summary)
	assert.Equal(t, "2024-03-09", event.Start.Date, "a lone end date makes a single-day event")

	task.Status = model.StatusInProgress
	event, err = EventForTask(task, now)
	require.NoError(t, err)
	assert.Equal(t, "‣ T", event.Summary)

	task.Status = model.StatusCompleted
	event, err = EventForTask(task, now)
	require.NoError(t, err)
	assert.Equal(t, "✓ T", event.Summary)
}

func TestEventForTaskWithoutDates(t *testing.T) {
	_, err := EventForTask(model.Task{ID: "1"}, time.Now())
	assert.Error(t, err)
}

func TestEventNeedsUpdate(t *testing.T) {
	base := &calendar.Event{
		Summary:     "A",
		Description: "d",
		ColorId:     "1",
		Start:       &calendar.EventDateTime{Date: "2024-03-01"},
		End:         &calendar.EventDateTime{Date: "2024-03-02"},
	}
	same := *base
	assert.Nil(t, EventNeedsUpdate(base, &same))

	moved := *base
	moved.End = &calendar.EventDateTime{Date: "2024-03-04"}
	patch := EventNeedsUpdate(base, &moved)
	require.NotNil(t, patch)
	assert.Equal(t, "2024-03-04", patch.End.Date)
	assert.Empty(t, patch.Summary)

	renamed := *base
	renamed.Summary = "B"
	patch = EventNeedsUpdate(base, &renamed)
	require.NotNil(t, patch)
	assert.Equal(t, "B", patch.Summary)
	assert.Nil(t, patch.Start)
}
