package main

import (
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/migration"
	"github.com/leonardotrapani/voxbridge/internal/tui"
	"github.com/spf13/cobra"
)

func migrateCmd(a *app) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move the legacy OpenAI token and prompt into the provider configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			svc := migration.New(store)

			if check {
				needed, err := svc.CheckMigrationNeeded(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "migration needed: %t\n", needed)
				return nil
			}

			svc.OnProgress().Subscribe(func(line string) {
				fmt.Fprintln(out, tui.StyleMuted.Render(line))
			})
			res := svc.Migrate(cmd.Context())
			printMigrationResult(out, res)
			if !res.Success {
				return errors.New(res.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "only report whether a migration is needed")
	return cmd
}

func printMigrationResult(w io.Writer, r migration.Result) {
	fmt.Fprintf(w, "%s %s\n", tui.Check(r.Success), r.Message)
	if r.Details == nil {
		return
	}
	for _, item := range r.Details.MigratedData {
		fmt.Fprintf(w, "  %s %s\n", tui.StyleLabel.Render("migrated:"), item)
	}
	for _, warning := range r.Details.Warnings {
		fmt.Fprintf(w, "  %s\n", tui.StyleWarning.Render(warning))
	}
	if r.Details.BackupID != "" {
		fmt.Fprintf(w, "  %s %s\n", tui.StyleLabel.Render("backup:"), r.Details.BackupID)
	}
}

func rollbackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Restore the configuration saved by the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			if err := migration.New(store).Rollback(cmd.Context()); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration restored from backup\n", tui.Check(true))
			return nil
		},
	}
}

func cleanupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the migration backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			if err := migration.New(store).Cleanup(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Migration backup removed\n", tui.Check(true))
			return nil
		},
	}
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the selected provider is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			cfg, err := store.ProviderConfig.Get(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			problems := migration.New(store).ValidateConfiguration(cfg)
			if len(problems) == 0 {
				fmt.Fprintf(out, "%s Configuration is valid (%s)\n", tui.Check(true), cfg.SelectedProvider)
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(out, "%s %s\n", tui.Check(false), p)
			}
			return fmt.Errorf("configuration has %d problem(s)", len(problems))
		},
	}
}

func configureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration for voxbridge.
This will guide you through setting up:
- Provider and API token (OpenAI, Groq)
- Transcription and text completion models
- Transcription prompt and translation
- Recording device`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}

			result, err := tui.Run(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			out := cmd.OutOrStdout()
			if result.Cancelled {
				fmt.Fprintln(out, "Configuration cancelled.")
				return nil
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, tui.StyleSuccess.Render("Configuration saved successfully!"))
			fmt.Fprintln(out)
			showNextSteps(out, a)
			return nil
		},
	}
}

func showNextSteps(w io.Writer, a *app) {
	serviceRunning := exec.Command("systemctl", "--user", "is-active", "--quiet", "voxbridge.service").Run() == nil

	fmt.Fprintln(w, "Next Steps:")
	if serviceRunning {
		fmt.Fprintln(w, "1. Running daemons pick up provider changes automatically")
	} else {
		fmt.Fprintln(w, "1. Start the daemon: systemctl --user start voxbridge.service (or voxbridge serve)")
	}
	fmt.Fprintln(w, "2. Check the provider: voxbridge test")
	fmt.Fprintln(w, "3. Test voice input: voxbridge toggle")
	fmt.Fprintln(w)

	if dir, err := a.dir(); err == nil {
		fmt.Fprintf(w, "Config file location: %s\n", config.SyncPath(dir))
	}
}
