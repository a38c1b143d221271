package board

import (
	"fmt"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Group is one month bucket of the view.
type Group struct {
	Key   string
	Tasks []model.Task
}

// View is an ordered mapping from month key to tasks. Groups keep the order
// in which their key first appeared in the fetched collection and tasks keep
// the order the API returned them in. A View never holds an empty group.
type View struct {
	Groups []Group
}

// GroupTasks normalizes each record's identifier and buckets the records by
// creation month. It either transforms every record or returns an error;
// records without an identifier or creation time are rejected.
func GroupTasks(tasks []model.Task, loc *time.Location) (View, error) {
	var v View
	index := make(map[string]int)
	for i, t := range tasks {
		t.Normalize()
		if t.ID == "" {
			return View{}, fmt.Errorf("record %d has no identifier", i)
		}
		if t.CreatedAt.IsZero() {
			return View{}, fmt.Errorf("record %s has no creation time", t.ID)
		}
		key := model.MonthKey(t.CreatedAt, loc)
		gi, ok := index[key]
		if !ok {
			gi = len(v.Groups)
			index[key] = gi
			v.Groups = append(v.Groups, Group{Key: key})
		}
		v.Groups[gi].Tasks = append(v.Groups[gi].Tasks, t)
	}
	return v, nil
}

// Keys returns the month keys in display order.
func (v View) Keys() []string {
	keys := make([]string, len(v.Groups))
	for i, g := range v.Groups {
		keys[i] = g.Key
	}
	return keys
}

// Group returns the tasks under key.
func (v View) Group(key string) ([]model.Task, bool) {
	for _, g := range v.Groups {
		if g.Key == key {
			return g.Tasks, true
		}
	}
	return nil, false
}

// Len counts the tasks across all groups.
func (v View) Len() int {
	n := 0
	for _, g := range v.Groups {
		n += len(g.Tasks)
	}
	return n
}

// Find locates the task with id.
func (v View) Find(id string) (model.Task, bool) {
	gi, ti, ok := v.locate(id)
	if !ok {
		return model.Task{}, false
	}
	return v.Groups[gi].Tasks[ti], true
}

func (v View) locate(id string) (int, int, bool) {
	for gi, g := range v.Groups {
		for ti, t := range g.Tasks {
			if t.ID == id {
				return gi, ti, true
			}
		}
	}
	return 0, 0, false
}

// Clone returns a deep copy that shares no slices with v.
func (v View) Clone() View {
	if len(v.Groups) == 0 {
		return View{}
	}
	out := View{Groups: make([]Group, len(v.Groups))}
	for i, g := range v.Groups {
		out.Groups[i] = Group{Key: g.Key, Tasks: append([]model.Task(nil), g.Tasks...)}
	}
	return out
}

// setRating replaces the rating of the task with id in place.
func (v *View) setRating(id string, rating int) bool {
	gi, ti, ok := v.locate(id)
	if !ok {
		return false
	}
	v.Groups[gi].Tasks[ti].Rating = rating
	return true
}

// remove drops the task with id and its group once the group is empty.
func (v *View) remove(id string) bool {
	gi, ti, ok := v.locate(id)
	if !ok {
		return false
	}
	tasks := v.Groups[gi].Tasks
	v.Groups[gi].Tasks = append(tasks[:ti:ti], tasks[ti+1:]...)
	if len(v.Groups[gi].Tasks) == 0 {
		v.Groups = append(v.Groups[:gi:gi], v.Groups[gi+1:]...)
	}
	return true
}

// Tasks flattens the view in display order.
func (v View) Tasks() []model.Task {
	out := make([]model.Task, 0, v.Len())
	for _, g := range v.Groups {
		out = append(out, g.Tasks...)
	}
	return out
}
