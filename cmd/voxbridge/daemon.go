package main

import (
	"context"
	"fmt"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/bus"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/daemon"
	"github.com/leonardotrapani/voxbridge/internal/notify"
	"github.com/leonardotrapani/voxbridge/internal/recording"
	"github.com/leonardotrapani/voxbridge/internal/transcriber"
	"github.com/spf13/cobra"
)

func serveCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recording daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.dir()
			if err != nil {
				return err
			}
			store := config.OpenFileStore(dir)
			rec, err := store.Recording.Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load recording config: %w", err)
			}
			if err := rec.Validate(); err != nil {
				return err
			}

			b, err := bus.Default()
			if err != nil {
				return err
			}

			var n notify.Notifier = notify.Multi{notify.Desktop{}, notify.NewLog()}
			if quiet {
				n = notify.NewLog()
			}

			factory := a.factory()
			tr := transcriber.New(recording.NewDevice(rec), store, factory)
			d := daemon.New(b, tr, factory, n, daemon.WithConfigWatch(config.SyncPath(dir)))
			return d.Run()
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "log events instead of sending desktop notifications")
	return cmd
}

func busCmd(use, short string, command byte, timeout time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bus.Default()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := b.Send(ctx, command)
			if err != nil {
				return fmt.Errorf("failed to reach daemon: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	// Stopping waits for the transcription.
	return busCmd("toggle", "Start recording, or stop and transcribe", bus.CmdToggle, daemon.DefaultStopTimeout+5*time.Second)
}

func cancelCmd() *cobra.Command {
	return busCmd("cancel", "Discard the current recording", bus.CmdCancel, 5*time.Second)
}

func statusCmd() *cobra.Command {
	return busCmd("status", "Get current recording status", bus.CmdStatus, 5*time.Second)
}

func lastCmd() *cobra.Command {
	return busCmd("last", "Print the last transcription", bus.CmdLast, 5*time.Second)
}

func versionCmd() *cobra.Command {
	return busCmd("version", "Get protocol version", bus.CmdVersion, 5*time.Second)
}

func stopCmd() *cobra.Command {
	return busCmd("stop", "Stop the daemon", bus.CmdQuit, 5*time.Second)
}
