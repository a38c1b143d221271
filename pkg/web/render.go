package web

import (
	"html/template"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/board"
	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

type card struct {
	Task    model.Task
	Color   colors.Color
	Overdue bool
}

type cardGroup struct {
	Key   string
	Cards []card
}

type listPage struct {
	Title   string
	Deleted bool
	Groups  []cardGroup
	// Failed hides the cards and offers a retry after a failed fetch.
	Failed bool
	Notice string
	Error  string
}

type formPage struct {
	Title      string
	Action     string
	Submit     string
	Confirm    string
	Editing    bool
	Task       model.Task
	Error      string
	Statuses   []model.Status
	Priorities []model.Priority
}

type detailPage struct {
	Title string
	Task  model.Task
	Error string
}

func cards(v board.View, now time.Time) []cardGroup {
	groups := make([]cardGroup, 0, len(v.Groups))
	for _, g := range v.Groups {
		cg := cardGroup{Key: g.Key, Cards: make([]card, 0, len(g.Tasks))}
		for _, t := range g.Tasks {
			cg.Cards = append(cg.Cards, card{
				Task:    t,
				Color:   colors.ForTask(t.ID),
				Overdue: !t.Deleted && t.Overdue(now),
			})
		}
		groups = append(groups, cg)
	}
	return groups
}

var funcs = template.FuncMap{
	"orNA": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return s
	},
	"dateOrNA": func(d model.Date) string {
		if d.IsZero() {
			return "N/A"
		}
		return d.String()
	},
	// stars yields the star values 1..5 with whether each is lit.
	"stars": func(rating int) []star {
		out := make([]star, model.MaxRating)
		for i := range out {
			out[i] = star{Value: i + 1, Lit: i < rating}
		}
		return out
	},
	"statusClass": func(s model.Status) string {
		switch s {
		case model.StatusCompleted:
			return "status-completed"
		case model.StatusInProgress:
			return "status-in-progress"
		default:
			return "status-pending"
		}
	},
	"priorityClass": func(p model.Priority) string {
		switch p {
		case model.PriorityHigh:
			return "priority-high"
		case model.PriorityMedium:
			return "priority-medium"
		default:
			return "priority-normal"
		}
	},
}

type star struct {
	Value int
	Lit   bool
}
