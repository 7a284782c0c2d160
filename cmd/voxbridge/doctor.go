package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/deps"
	"github.com/leonardotrapani/voxbridge/internal/provider"
	"github.com/leonardotrapani/voxbridge/internal/tui"
	"github.com/spf13/cobra"
)

func doctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and the provider token",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			statuses := deps.CheckAll(cmd.Context())
			for _, s := range statuses {
				detail := tui.StyleMuted.Render("not found")
				if s.Installed {
					detail = s.Path
					if s.Version != "" {
						detail += " " + tui.StyleMuted.Render("("+s.Version+")")
					}
				}
				fmt.Fprintf(out, "%s %-12s %s - %s\n", tui.Check(s.Installed), s.Name, s.Purpose, detail)
			}

			store, err := a.store()
			if err != nil {
				return err
			}
			cfg, err := store.ProviderConfig.Get(cmd.Context())
			if err != nil {
				return err
			}
			selected, _ := config.WithEnvTokens(cfg, os.Getenv).Selected()
			fmt.Fprintf(out, "%s %-12s token for %s\n", tui.Check(selected.Token != ""), "token", cfg.SelectedProvider)

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
			}
			if selected.Token == "" {
				return fmt.Errorf("no token for %s: run voxbridge configure or set $%s",
					cfg.SelectedProvider, provider.EnvVarForProvider(cfg.SelectedProvider))
			}
			return nil
		},
	}
}
