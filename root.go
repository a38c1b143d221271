package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskboard/pkg/api"
	"github.com/harrisonrobin/taskboard/pkg/board"
	"github.com/harrisonrobin/taskboard/pkg/config"
)

// app carries the state shared by every subcommand: the persistent flags
// and the configuration they override.
type app struct {
	apiURL  string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "taskboard",
		Short: "Team task board",
		Long: `Taskboard browses and edits the tasks of a team task API.

Tasks are grouped by the month they were created. Use "taskboard serve" for
the browser UI or the list/create/edit/rate/delete/restore commands from the
terminal.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "task API base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.listCmd(),
		a.deletedCmd(),
		a.showCmd(),
		a.createCmd(),
		a.editCmd(),
		a.rateCmd(),
		a.deleteCmd(),
		a.restoreCmd(),
		a.serveCmd(),
		a.devapiCmd(),
		a.calendarCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if a.apiURL != "" {
		if err := cfg.Set("api_url", a.apiURL); err != nil {
			return err
		}
	}
	a.cfg = cfg
	return nil
}

// client builds the API client from config. reg may be nil.
func (a *app) client(reg prometheus.Registerer) (*api.Client, error) {
	timeout, err := a.cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	opts := []api.Option{api.WithTimeout(timeout), api.WithLogger(a.logger)}
	if a.cfg.APIToken != "" {
		opts = append(opts, api.WithToken(a.cfg.APIToken))
	}
	if reg != nil {
		opts = append(opts, api.WithMetrics(api.NewMetrics(reg)))
	}
	return api.NewClient(a.cfg.APIURL, opts...)
}

// stores builds the active and deleted views over one client.
func (a *app) stores(reg prometheus.Registerer) (active, deleted *board.Store, err error) {
	client, err := a.client(reg)
	if err != nil {
		return nil, nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	opts := []board.Option{board.WithLocation(loc), board.WithLogger(a.logger)}
	return board.New(client, board.Active, opts...), board.New(client, board.Deleted, opts...), nil
}

// store builds a single view of the given kind.
func (a *app) store(kind board.Kind) (*board.Store, error) {
	active, deleted, err := a.stores(nil)
	if err != nil {
		return nil, err
	}
	if kind == board.Deleted {
		return deleted, nil
	}
	return active, nil
}

// loaded builds a view of the given kind and fetches it.
func (a *app) loaded(cmd *cobra.Command, kind board.Kind) (*board.Store, error) {
	s, err := a.store(kind)
	if err != nil {
		return nil, err
	}
	if err := s.Fetch(cmd.Context()); err != nil {
		return nil, fmt.Errorf("could not load tasks: %w", err)
	}
	return s, nil
}
