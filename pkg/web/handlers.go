package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harrisonrobin/taskboard/pkg/api"
	"github.com/harrisonrobin/taskboard/pkg/board"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

// keepParam on a list URL renders the cached view instead of refetching.
// Locally-patched writes redirect with it; navigation links omit it.
const keepParam = "keep"

func (s *Server) handleList(c *gin.Context) {
	s.renderList(c, s.active, "Team Task Overview")
}

func (s *Server) handleDeletedList(c *gin.Context) {
	s.renderList(c, s.deleted, "Deleted Tasks")
}

func (s *Server) renderList(c *gin.Context, store *board.Store, title string) {
	page := listPage{
		Title:   title,
		Deleted: store.Kind() == board.Deleted,
		Notice:  c.Query("notice"),
		Error:   c.Query("error"),
	}

	if c.Query(keepParam) == "" || store.State() != board.Loaded {
		if err := store.Fetch(c.Request.Context()); err != nil {
			page.Failed = true
			page.Error = "Could not load tasks. Please try again."
			c.HTML(http.StatusBadGateway, "list.html", page)
			return
		}
	}
	page.Groups = cards(store.Snapshot(), s.now())
	c.HTML(http.StatusOK, "list.html", page)
}

func (s *Server) handleNewForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", newForm(model.Task{
		Status:   model.StatusPending,
		Priority: model.PriorityNormal,
	}, ""))
}

func (s *Server) handleCreate(c *gin.Context) {
	task, err := taskFromForm(c)
	if err == nil {
		err = draftFrom(task).Validate()
	}
	if err != nil {
		c.HTML(http.StatusBadRequest, "form.html", newForm(task, err.Error()))
		return
	}

	if _, err := s.active.Create(c.Request.Context(), draftFrom(task).WithDefaults()); err != nil {
		c.HTML(statusFor(err), "form.html", newForm(task, "There was an error creating the task. Please try again."))
		return
	}
	redirect(c, "/tasks", url.Values{"notice": {"The task has been successfully created."}})
}

func (s *Server) handleDetail(c *gin.Context) {
	task, err := s.active.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.HTML(statusFor(err), "detail.html", detailPage{Title: "Task not found", Error: "Task not found"})
		return
	}
	c.HTML(http.StatusOK, "detail.html", detailPage{Title: task.Title, Task: task})
}

func (s *Server) handleEditForm(c *gin.Context) {
	task, err := s.active.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.HTML(statusFor(err), "form.html", editForm(model.Task{ID: c.Param("id")}, "Failed to load the task"))
		return
	}
	task.Status = task.Status.OrDefault()
	task.Priority = task.Priority.OrDefault()
	c.HTML(http.StatusOK, "form.html", editForm(task, ""))
}

func (s *Server) handleUpdate(c *gin.Context) {
	task, err := taskFromForm(c)
	task.ID = c.Param("id")
	if err != nil {
		c.HTML(http.StatusBadRequest, "form.html", editForm(task, err.Error()))
		return
	}

	if _, err := s.active.Update(c.Request.Context(), task.ID, model.EditPatch(task)); err != nil {
		msg := "Failed to update the task. Please try again."
		if errors.Is(err, model.ErrValidation) {
			msg = err.Error()
		}
		c.HTML(statusFor(err), "form.html", editForm(task, msg))
		return
	}
	redirect(c, "/tasks", url.Values{"notice": {"The task has been updated."}})
}

func (s *Server) handleRating(c *gin.Context) {
	rating, err := strconv.Atoi(c.PostForm("rating"))
	if err != nil {
		rating = -1
	}
	if err := s.active.SetRating(c.Request.Context(), c.Param("id"), rating); err != nil {
		s.afterLocalPatch(c, "/tasks", "", "Failed to update the rating. Please try again.")
		return
	}
	s.afterLocalPatch(c, "/tasks", "", "")
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.active.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		s.afterLocalPatch(c, "/tasks", "", "Failed to delete the task. Please try again.")
		return
	}
	s.afterLocalPatch(c, "/tasks", "The task has been deleted.", "")
}

func (s *Server) handleRestore(c *gin.Context) {
	if err := s.deleted.Restore(c.Request.Context(), c.Param("id")); err != nil {
		s.afterLocalPatch(c, "/tasks/deleted", "", "Failed to restore the task. Please try again.")
		return
	}
	s.afterLocalPatch(c, "/tasks/deleted", "The task has been restored.", "")
}

// afterLocalPatch sends the browser back to the list it came from, which
// renders the patched cache rather than refetching.
func (s *Server) afterLocalPatch(c *gin.Context, path, notice, errMsg string) {
	q := url.Values{keepParam: {"1"}}
	if notice != "" {
		q.Set("notice", notice)
	}
	if errMsg != "" {
		q.Set("error", errMsg)
	}
	redirect(c, path, q)
}

func redirect(c *gin.Context, path string, q url.Values) {
	c.Redirect(http.StatusSeeOther, path+"?"+q.Encode())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func taskFromForm(c *gin.Context) (model.Task, error) {
	task := model.Task{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Assignee:    strings.TrimSpace(c.PostForm("assignee")),
		Status:      model.Status(c.PostForm("status")),
		Priority:    model.Priority(c.PostForm("priority")),
	}
	var err error
	if task.StartDate, err = model.ParseDate(c.PostForm("startDate")); err != nil {
		return task, err
	}
	if task.EndDate, err = model.ParseDate(c.PostForm("endDate")); err != nil {
		return task, err
	}
	if r := c.PostForm("rating"); r != "" {
		if task.Rating, err = strconv.Atoi(r); err != nil {
			return task, board.ErrInvalidRating
		}
	}
	return task, nil
}

func draftFrom(t model.Task) model.Draft {
	return model.Draft{
		Title:       t.Title,
		Description: t.Description,
		Assignee:    t.Assignee,
		Status:      t.Status,
		Priority:    t.Priority,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
	}
}

func newForm(task model.Task, errMsg string) formPage {
	return formPage{
		Title:      "Create New Task",
		Action:     "/tasks",
		Submit:     "Create Task",
		Confirm:    "Are you sure you want to create this task?",
		Task:       task,
		Error:      errMsg,
		Statuses:   model.Statuses,
		Priorities: model.Priorities,
	}
}

func editForm(task model.Task, errMsg string) formPage {
	return formPage{
		Title:      "Edit Task",
		Action:     "/tasks/" + url.PathEscape(task.ID),
		Submit:     "Save Changes",
		Confirm:    "Are you sure you want to save these changes?",
		Editing:    true,
		Task:       task,
		Error:      errMsg,
		Statuses:   model.Statuses,
		Priorities: model.Priorities,
	}
}
