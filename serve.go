package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskboard/pkg/devapi"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/web"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser UI",
		Long: `Start the browser UI.

The task list, deleted list, create and edit screens are served on the
configured listen address, with Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Listen
			}
			if !a.verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			active, deleted, err := a.stores(reg)
			if err != nil {
				return err
			}
			defer active.Close()
			defer deleted.Close()

			srv := web.NewServer(active, deleted, web.WithLogger(a.logger), web.WithMetrics(reg))
			fmt.Fprintf(cmd.OutOrStdout(), "Serving taskboard at http://localhost%s (API %s)\n", listen, a.cfg.APIURL)
			return listenAndServe(cmd.Context(), listen, srv.Handler())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}

func (a *app) devapiCmd() *cobra.Command {
	var listen string
	var demo bool
	cmd := &cobra.Command{
		Use:   "devapi",
		Short: "Run an in-memory task API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev := devapi.NewServer(devapi.WithLogger(a.logger))
			if demo {
				dev.Seed(demoTasks(time.Now())...)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving development task API at http://localhost%s\n", listen)
			return listenAndServe(cmd.Context(), listen, dev)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":4000", "listen address")
	cmd.Flags().BoolVar(&demo, "demo", false, "seed a few example tasks")
	return cmd
}

// listenAndServe runs h until ctx is cancelled, then shuts down gracefully.
func listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func demoTasks(now time.Time) []model.Task {
	lastMonth := now.AddDate(0, -1, 0)
	today := model.NewDate(now.Year(), now.Month(), now.Day())
	return []model.Task{
		{
			ID:          uuid.NewString(),
			Title:       "Draft the quarterly report",
			Description: "Collect numbers from every team",
			Assignee:    "Alex",
			Status:      model.StatusInProgress,
			Priority:    model.PriorityHigh,
			StartDate:   model.Date{Time: today.AddDate(0, 0, -7)},
			EndDate:     model.Date{Time: today.AddDate(0, 0, -1)},
			Rating:      3,
			CreatedAt:   lastMonth,
		},
		{
			ID:          uuid.NewString(),
			Title:       "Plan the offsite",
			Description: "Venue, agenda and travel",
			Status:      model.StatusPending,
			Priority:    model.PriorityMedium,
			StartDate:   today,
			EndDate:     model.Date{Time: today.AddDate(0, 0, 14)},
			CreatedAt:   now,
		},
		{
			ID:          uuid.NewString(),
			Title:       "Retire the old wiki",
			Description: "Superseded by the handbook",
			Status:      model.StatusCompleted,
			Priority:    model.PriorityNormal,
			Deleted:     true,
			CreatedAt:   lastMonth,
		},
	}
}
