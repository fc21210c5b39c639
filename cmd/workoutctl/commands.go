package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"FitTrack-Bridge/internal/hostclient"
)

var errMissingSubcommand = errors.New("missing subcommand")

type options struct {
	host    string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "workoutctl",
		Short:         "Drive a running workout-host",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return errMissingSubcommand
		},
	}
	root.PersistentFlags().StringVar(&opts.host, "host", "http://127.0.0.1:8095", "workout-host base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")

	root.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Ask the companion to start a workout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := opts.client().Start(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Ask the companion to stop the workout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := opts.client().Stop(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show connection status, router stats and recent commands",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return status(cmd.Context(), cmd.OutOrStdout(), opts.client())
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Make the host republish its connection status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := opts.client().Refresh(cmd.Context()); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]bool{"ok": true})
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Print data and connection events until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				out := cmd.OutOrStdout()
				return opts.client().Watch(ctx, func(ev hostclient.Event) error {
					_, err := fmt.Fprintf(out, "%s %s\n", ev.Name, ev.Data)
					return err
				})
			},
		},
	)
	return root
}

func (o *options) client() *hostclient.Client {
	return hostclient.New(hostclient.Config{BaseURL: o.host, Timeout: o.timeout})
}

func status(ctx context.Context, out io.Writer, c *hostclient.Client) error {
	connected, err := c.Connected(ctx)
	if err != nil {
		return err
	}
	stats, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	attempts, err := c.Attempts(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]any{
		"connected":   connected,
		"stats":       stats.Stats,
		"subscribers": stats.Subscribers,
		"attempts":    attempts,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
