package main

import (
	"fmt"
	"os"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the global flags into every command.
type app struct {
	configDir string
	baseURL   string
	timeout   time.Duration
	logLevel  string
	logFormat string
	envFiles  []string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	logCfg := logging.ConfigFromEnv()

	root := &cobra.Command{
		Use:           "voxbridge",
		Short:         "Voice transcription and text enhancement through OpenAI-compatible providers",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(a.envFiles...); err != nil {
				return fmt.Errorf("load env: %w", err)
			}
			logCfg.Level = a.logLevel
			logCfg.Format = a.logFormat
			logCfg.Output = cmd.ErrOrStderr()
			logging.Init(logCfg)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configDir, "config-dir", "", "configuration directory (default ~/.config/voxbridge)")
	flags.StringVar(&a.logLevel, "log-level", logCfg.Level, "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", logCfg.Format, "log format: console, json")
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	flags.DurationVar(&a.timeout, "timeout", adapter.DefaultTimeout, "provider request timeout")
	flags.StringVar(&a.baseURL, "base-url", "", "override the provider API base URL")
	_ = flags.MarkHidden("base-url")

	root.AddCommand(
		serveCmd(a),
		toggleCmd(),
		cancelCmd(),
		statusCmd(),
		lastCmd(),
		versionCmd(),
		stopCmd(),
		transcribeCmd(a),
		enhanceCmd(a),
		testCmd(a),
		providersCmd(),
		migrateCmd(a),
		rollbackCmd(a),
		cleanupCmd(a),
		validateCmd(a),
		configureCmd(a),
		doctorCmd(a),
	)
	return root
}

func (a *app) dir() (string, error) {
	if a.configDir != "" {
		return a.configDir, nil
	}
	return config.GetConfigDir()
}

func (a *app) store() (*config.Store, error) {
	dir, err := a.dir()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	return config.OpenFileStore(dir), nil
}

func (a *app) factory() *adapter.Factory {
	opts := []adapter.Option{adapter.WithTimeout(a.timeout)}
	if a.baseURL != "" {
		opts = append(opts, adapter.WithBaseURL(a.baseURL))
	}
	return adapter.NewFactory(opts...)
}

// provider resolves the selected adapter, falling back to environment tokens.
func (a *app) provider(cmd *cobra.Command, store *config.Store) (adapter.Adapter, error) {
	cfg, err := store.ProviderConfig.Get(cmd.Context())
	if err != nil {
		return nil, err
	}
	return a.factory().GetProvider(config.WithEnvTokens(cfg, os.Getenv))
}
