package devapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	s := NewServer(WithClock(fixedClock))
	rec := do(t, s, http.MethodPost, "/tasks",
		`{"title":"Plan","description":"Plan sprint","startDate":"2024-03-05","endDate":"2024-03-08"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.StorageID)
	assert.Empty(t, created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, model.PriorityNormal, created.Priority)
	assert.True(t, created.CreatedAt.Equal(fixedClock()))
}

func TestCreateRejectsMissingFields(t *testing.T) {
	s := NewServer()
	rec := do(t, s, http.MethodPost, "/tasks", `{"title":"Plan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSoftDeleteAndRestoreMoveBetweenLists(t *testing.T) {
	s := NewServer(WithClock(fixedClock))
	seeded := s.Seed(model.Task{Title: "A"}, model.Task{Title: "B"})
	id := seeded[0].ID

	rec := do(t, s, http.MethodPatch, "/tasks/"+id, `{"isDeleted":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var active, deleted []model.Task
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodGet, "/tasks", "").Body.Bytes(), &active))
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodGet, "/tasks/deleted", "").Body.Bytes(), &deleted))
	require.Len(t, active, 1)
	require.Len(t, deleted, 1)
	assert.Equal(t, id, deleted[0].StorageID)

	rec = do(t, s, http.MethodPatch, "/tasks/"+id+"/restore", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got, ok := s.Task(id)
	require.True(t, ok)
	assert.False(t, got.Deleted)
}

func TestPatchValidationAndNotFound(t *testing.T) {
	s := NewServer()
	seeded := s.Seed(model.Task{Title: "A"})

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPatch, "/tasks/"+seeded[0].ID, `{"rating":9}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPatch, "/tasks/missing", `{"rating":1}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/tasks/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPatch, "/tasks/missing/restore", "").Code)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := NewServer()
	s.Seed(model.Task{ID: "c"}, model.Task{ID: "a"}, model.Task{ID: "b"})

	var tasks []model.Task
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodGet, "/tasks", "").Body.Bytes(), &tasks))
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{tasks[0].StorageID, tasks[1].StorageID, tasks[2].StorageID})
}
