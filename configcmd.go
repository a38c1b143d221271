package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskboard/pkg/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.GetConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
				for _, key := range config.Keys() {
					value, _ := a.cfg.Get(key)
					if key == "api_token" && value != "" {
						value = strings.Repeat("*", 8)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, value)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:       "set KEY VALUE",
			Short:     "Change one setting in the config file",
			Args:      cobra.ExactArgs(2),
			ValidArgs: config.Keys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				// Start from the file alone; flag and environment
				// overrides must not be written back.
				cfg, err := config.LoadStored()
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := config.Save(cfg); err != nil {
					return fmt.Errorf("error saving config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s set to: %s\n", args[0], args[1])
				return nil
			},
		},
	)
	return cmd
}
