// Package migration upgrades the legacy single-token configuration to the
// multi-provider schema, with a backup that can be rolled back.
package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/events"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/leonardotrapani/voxbridge/internal/provider"
	"github.com/rs/zerolog"
)

const ManualConfigWarning = "Automatic migration failed, manual configuration may be required"

// Progress messages, published in this order by a migration that runs.
const (
	ProgressStarting  = "Starting migration..."
	ProgressRetrieved = "Retrieved legacy configuration"
	ProgressBackedUp  = "Created configuration backup"
	ProgressUpdated   = "Updated provider configuration"
	ProgressCleared   = "Cleared legacy configuration"
)

// Problems reported by ValidateConfiguration
const (
	ProblemNoProvider       = "No provider selected"
	ProblemProviderNotFound = "Selected provider configuration not found"
	ProblemNoToken          = "API token not configured"
)

var ErrNoBackup = errors.New("No backup found")

type Result struct {
	Success bool
	Message string
	Details *Details
}

type Details struct {
	MigratedData []string
	Warnings     []string
	BackupID     string
}

type Service struct {
	store  *config.Store
	now    func() time.Time
	logger zerolog.Logger

	progress events.Broadcaster[string]
	results  events.Broadcaster[Result]
}

type Option func(*Service)

// WithClock sets the backup timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store *config.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		logger: logging.Component("migration"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) OnProgress() *events.Broadcaster[string] { return &s.progress }

func (s *Service) OnResult() *events.Broadcaster[Result] { return &s.results }

// CheckMigrationNeeded is true when a legacy token exists and the new schema
// has no OpenAI token yet.
func (s *Service) CheckMigrationNeeded(ctx context.Context) (bool, error) {
	token, err := s.store.Token.Get(ctx)
	if err != nil {
		return false, err
	}
	cfg, err := s.store.ProviderConfig.Get(ctx)
	if err != nil {
		return false, err
	}
	return token != "" && cfg.Providers[provider.ProviderOpenAI].Token == "", nil
}

// Migrate moves the legacy token and prompt into the OpenAI provider entry.
// The backup is written before anything in the synced area changes, so a
// failure part way leaves at most an unused backup behind.
func (s *Service) Migrate(ctx context.Context) Result {
	s.progress.Publish(ProgressStarting)

	token, err := s.store.Token.Get(ctx)
	if err != nil {
		return s.fail(err)
	}
	if token == "" {
		return s.finish(Result{Success: true, Message: "No legacy configuration found, migration not needed"})
	}
	prompt, err := s.store.Prompt.Get(ctx)
	if err != nil {
		return s.fail(err)
	}
	translate, err := s.store.EnableTranslation.Get(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.progress.Publish(ProgressRetrieved)

	current, err := s.store.ProviderConfig.Get(ctx)
	if err != nil {
		return s.fail(err)
	}

	backup := config.MigrationBackup{
		ID:                uuid.NewString(),
		Timestamp:         s.now().UTC(),
		LegacyToken:       token,
		LegacyPrompt:      prompt,
		LegacyTranslation: translate,
		CurrentConfig:     current.Clone(),
	}
	if err := s.store.MigrationBackup.Set(ctx, backup); err != nil {
		return s.fail(fmt.Errorf("create backup: %w", err))
	}
	s.progress.Publish(ProgressBackedUp)

	updated := current.Clone()
	updated.SelectedProvider = provider.ProviderOpenAI
	openai := config.ProviderSettings{Token: token}
	if prompt != "" {
		openai.Settings = map[string]string{config.SettingPrompt: prompt}
	}
	updated.Providers[provider.ProviderOpenAI] = openai

	if err := s.store.ProviderConfig.Set(ctx, updated); err != nil {
		return s.fail(fmt.Errorf("update provider configuration: %w", err))
	}
	s.progress.Publish(ProgressUpdated)

	// the translation flag stays: it is still a global setting
	if err := s.store.Token.Delete(ctx); err != nil {
		return s.fail(err)
	}
	if err := s.store.Prompt.Delete(ctx); err != nil {
		return s.fail(err)
	}
	s.progress.Publish(ProgressCleared)

	s.logger.Info().
		Str("backup", backup.ID).
		Str("token", logging.Redact(token)).
		Msg("legacy configuration migrated")

	return s.finish(Result{
		Success: true,
		Message: "Migration completed successfully",
		Details: &Details{
			MigratedData: []string{"OpenAI API token", "Prompt template", "Translation setting"},
			BackupID:     backup.ID,
		},
	})
}

func (s *Service) fail(err error) Result {
	s.logger.Error().Err(err).Msg("migration failed")
	return s.finish(Result{
		Message: "Migration failed: " + err.Error(),
		Details: &Details{Warnings: []string{ManualConfigWarning}},
	})
}

func (s *Service) finish(r Result) Result {
	s.results.Publish(r)
	return r
}

// Rollback restores every value captured by the most recent backup.
func (s *Service) Rollback(ctx context.Context) error {
	backup, ok, err := s.store.MigrationBackup.Lookup(ctx)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if !ok {
		return ErrNoBackup
	}

	if err := s.store.Token.Set(ctx, backup.LegacyToken); err != nil {
		return err
	}
	if err := s.store.Prompt.Set(ctx, backup.LegacyPrompt); err != nil {
		return err
	}
	if err := s.store.EnableTranslation.Set(ctx, backup.LegacyTranslation); err != nil {
		return err
	}
	if err := s.store.ProviderConfig.Set(ctx, backup.CurrentConfig); err != nil {
		return err
	}

	s.logger.Info().Str("backup", backup.ID).Time("taken", backup.Timestamp).Msg("configuration rolled back")
	return nil
}

// ValidateConfiguration lists the problems of cfg; empty means valid.
func (s *Service) ValidateConfiguration(cfg config.ProviderConfig) []string {
	var problems []string
	if cfg.SelectedProvider == "" {
		problems = append(problems, ProblemNoProvider)
	}
	settings, ok := cfg.Providers[cfg.SelectedProvider]
	switch {
	case !ok:
		problems = append(problems, ProblemProviderNotFound)
	case settings.Token == "":
		problems = append(problems, ProblemNoToken)
	}
	return problems
}

// Cleanup removes the backup.
func (s *Service) Cleanup(ctx context.Context) error {
	return s.store.MigrationBackup.Delete(ctx)
}
