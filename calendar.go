package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskboard/pkg/auth"
	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/google"
	"github.com/harrisonrobin/taskboard/pkg/index"
)

func (a *app) calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Mirror dated tasks into a Google Calendar",
	}
	cmd.AddCommand(a.calendarAuthCmd(), a.calendarSyncCmd())
	return cmd
}

func (a *app) calendarAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long: fmt.Sprintf(`Authorize access to Google Calendar.

Download an OAuth client for a desktop app from the Google Cloud console and
save it as %s in the config directory first.`, auth.ClientSecretsFile),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			if err := auth.Authorize(cmd.Context(), dir, cmd.OutOrStdout(), google.Scopes...); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authentication successful!")
			return nil
		},
	}
}

func (a *app) calendarSyncCmd() *cobra.Command {
	var calendarName string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Create, update and remove calendar events to match the tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if calendarName == "" {
				calendarName = a.cfg.Calendar
			}

			dir, err := config.Dir()
			if err != nil {
				return err
			}
			httpClient, err := auth.Client(ctx, dir, google.Scopes...)
			if err != nil {
				return err
			}
			srv, err := google.NewService(ctx, httpClient)
			if err != nil {
				return err
			}
			calendarID, err := google.FindCalendar(ctx, srv, calendarName)
			if err != nil {
				return err
			}
			idx, err := index.Open(index.DefaultPath(dir))
			if err != nil {
				a.logger.Warn("Event index unavailable, searching the calendar instead", "error", err)
				idx = nil
			}

			active, deleted, err := a.stores(nil)
			if err != nil {
				return err
			}
			if err := active.Fetch(ctx); err != nil {
				return fmt.Errorf("could not load tasks: %w", err)
			}
			if err := deleted.Fetch(ctx); err != nil {
				return fmt.Errorf("could not load deleted tasks: %w", err)
			}

			mirror := google.NewMirror(srv, calendarID, idx, google.WithLogger(a.logger))
			report, err := mirror.Sync(ctx, active.Snapshot().Tasks(), deleted.Snapshot().Tasks())
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d, removed %d, skipped %d, failed %d\n",
				report.Synced, report.Removed, report.Skipped, report.Failed)
			return err
		},
	}
	cmd.Flags().StringVar(&calendarName, "calendar", "", "calendar name (overrides config)")
	return cmd
}
