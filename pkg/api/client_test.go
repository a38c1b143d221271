package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/devapi"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

func newDevClient(t *testing.T, opts ...Option) (*Client, *devapi.Server) {
	t.Helper()
	dev := devapi.NewServer()
	srv := httptest.NewServer(dev)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c, dev
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("localhost:4000")
	assert.Error(t, err)
	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
}

func TestRoundTripAgainstDevAPI(t *testing.T) {
	ctx := context.Background()
	c, dev := newDevClient(t)

	created, err := c.Create(ctx, model.Draft{
		Title:       "Review",
		Description: "Review PRs",
		StartDate:   model.NewDate(2024, 3, 5),
		EndDate:     model.NewDate(2024, 3, 6),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.StorageID)
	id := created.StorageID

	active, err := c.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	rated, err := c.Patch(ctx, id, model.RatingPatch(4))
	require.NoError(t, err)
	assert.Equal(t, 4, rated.Rating)

	_, err = c.Patch(ctx, id, model.DeletePatch())
	require.NoError(t, err)
	deleted, err := c.ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	restored, err := c.Restore(ctx, id)
	require.NoError(t, err)
	assert.False(t, restored.Deleted)

	stored, ok := dev.Task(id)
	require.True(t, ok)
	assert.Equal(t, 4, stored.Rating)

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Review", got.Title)
}

func TestStatusErrors(t *testing.T) {
	c, _ := newDevClient(t)

	_, err := c.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "/tasks/nope", se.Path)
}

func TestTokenAndBodyHandling(t *testing.T) {
	var gotAuth, gotType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", WithToken("s3cret"), WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.BaseURL())

	_, err = c.Patch(context.Background(), "a/b", model.RatingPatch(0))
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, map[string]any{"rating": float64(0)}, gotBody)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)
	_, err = c.ListActive(context.Background())
	assert.Error(t, err)
}

func TestMetricsCountRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c, _ := newDevClient(t, WithMetrics(m))

	_, err := c.ListActive(context.Background())
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("200", "get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("404", "get")))
}
