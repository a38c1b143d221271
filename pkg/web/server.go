// Package web serves the browser UI. The active and deleted task stores are
// created by the caller and injected; each list page fetches its store on
// mount and renders the cached view after locally-patched writes.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harrisonrobin/taskboard/pkg/board"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the taskboard web server.
type Server struct {
	active   *board.Store
	deleted  *board.Store
	router   *gin.Engine
	logger   *slog.Logger
	now      func() time.Time
	gatherer prometheus.Gatherer
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides time.Now, used for overdue markers.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithMetrics exposes g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer wires the routes. active must be an Active store and deleted a
// Deleted one.
func NewServer(active, deleted *board.Store, opts ...Option) *Server {
	s := &Server{
		active:  active,
		deleted: deleted,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.SetHTMLTemplate(template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")))

	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/tasks") })
	router.GET("/tasks", s.handleList)
	router.GET("/tasks/deleted", s.handleDeletedList)
	router.GET("/tasks/new", s.handleNewForm)
	router.POST("/tasks", s.handleCreate)
	router.GET("/tasks/:id", s.handleDetail)
	router.GET("/tasks/:id/edit", s.handleEditForm)
	router.POST("/tasks/:id", s.handleUpdate)
	router.POST("/tasks/:id/rating", s.handleRating)
	router.POST("/tasks/:id/delete", s.handleDelete)
	router.POST("/tasks/:id/restore", s.handleRestore)
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.router = router
	return s
}

// Handler exposes the router, e.g. for an http.Server or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the web server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
