package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/amora-planner/internal/events"
	"github.com/spf13/cobra"
)

type modeOutput struct {
	Mode            string `json:"mode"`
	OfflineOverride bool   `json:"offline_override"`
	Reachable       bool   `json:"reachable"`
}

func (c *cli) modeOutput() modeOutput {
	return modeOutput{
		Mode:            c.app.state.Mode().String(),
		OfflineOverride: c.app.state.OfflineOverride(),
		Reachable:       c.app.state.Reachable(),
	}
}

func (c *cli) modeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Inspect or switch between online and offline mode",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Probe the server and show the current mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.monitor.Probe(cmd.Context())
			return printJSON(cmd.OutOrStdout(), c.modeOutput())
		},
	}

	online := &cobra.Command{
		Use:   "online",
		Short: "Clear the offline override and probe the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.app.service.GoOnline(cmd.Context()); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c.modeOutput())
		},
	}

	offline := &cobra.Command{
		Use:   "offline",
		Short: "Work from local storage until \"mode online\"",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.service.GoOffline(cmd.Context()); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c.modeOutput())
		},
	}

	test := &cobra.Command{
		Use:   "test",
		Short: "Check the server health endpoint without changing the mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), c.app.service.TestConnection(cmd.Context()))
		},
	}

	cmd.AddCommand(status, online, offline, test, c.modeWatchCmd())
	return cmd
}

// modeWatchCmd probes on a schedule and prints every mode change until
// interrupted.
func (c *cli) modeWatchCmd() *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Probe periodically and print mode changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schedule == "" {
				schedule = c.app.config.Connectivity.ProbeSchedule
			}
			if schedule == "" {
				return fmt.Errorf("%w: no probe schedule; pass --every or set connectivity.probe_schedule", errUsage)
			}

			out := cmd.OutOrStdout()
			c.app.emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.Event) error {
				var change events.ModeChanged
				if err := e.UnmarshalPayload(&change); err != nil {
					return err
				}
				return printJSON(out, change)
			}), events.TypeModeChanged)

			ctx := cmd.Context()
			c.app.monitor.Probe(ctx)
			if err := c.app.monitor.Start(ctx, schedule); err != nil {
				return fmt.Errorf("%w: %w", errUsage, err)
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "every", "", "cron schedule, e.g. \"@every 30s\"")
	return cmd
}
