package config

import (
	"fmt"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/provider"
)

// Keys of the persisted key-value configuration
const (
	KeyLegacyToken       = "openai_token"
	KeyLegacyPrompt      = "openai_prompt"
	KeyEnableTranslation = "config_enable_translation"
	KeyProviderConfig    = "provider_config"
	KeyRecording         = "recording"
	KeyMigrationBackup   = "migration_backup"
)

// Well-known entries of ProviderSettings.Settings
const (
	SettingPrompt          = "prompt"
	SettingResponseFormat  = "response_format"
	SettingCompletionModel = "completion_model"
)

// ProviderSettings are the per-user settings of one provider
type ProviderSettings struct {
	Token    string            `toml:"token" json:"token"`
	Model    string            `toml:"model,omitempty" json:"model,omitempty"`
	Settings map[string]string `toml:"settings,omitempty" json:"settings,omitempty"`
}

// Setting returns a free-form setting or "".
func (s ProviderSettings) Setting(name string) string {
	if s.Settings == nil {
		return ""
	}
	return s.Settings[name]
}

// ProviderConfig is the persisted root of the multi-provider schema
type ProviderConfig struct {
	SelectedProvider string                      `toml:"selected_provider" json:"selectedProvider"`
	Providers        map[string]ProviderSettings `toml:"providers" json:"providers"`
}

// DefaultProviderConfig is used until something has been persisted
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		SelectedProvider: provider.ProviderOpenAI,
		Providers:        make(map[string]ProviderSettings),
	}
}

// Selected returns the settings of the selected provider.
func (c ProviderConfig) Selected() (ProviderSettings, bool) {
	s, ok := c.Providers[c.SelectedProvider]
	return s, ok
}

// Clone copies the config including the nested maps.
func (c ProviderConfig) Clone() ProviderConfig {
	out := ProviderConfig{
		SelectedProvider: c.SelectedProvider,
		Providers:        make(map[string]ProviderSettings, len(c.Providers)),
	}
	for id, s := range c.Providers {
		if s.Settings != nil {
			settings := make(map[string]string, len(s.Settings))
			for k, v := range s.Settings {
				settings[k] = v
			}
			s.Settings = settings
		}
		out.Providers[id] = s
	}
	return out
}

func normalizeProviderConfig(c ProviderConfig) ProviderConfig {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderSettings)
	}
	return c
}

// MigrationBackup snapshots everything the migration touches
type MigrationBackup struct {
	ID                string         `toml:"id" json:"id"`
	Timestamp         time.Time      `toml:"timestamp" json:"timestamp"`
	LegacyToken       string         `toml:"legacy_token" json:"legacyToken"`
	LegacyPrompt      string         `toml:"legacy_prompt" json:"legacyPrompt"`
	LegacyTranslation bool           `toml:"legacy_translation" json:"legacyTranslation"`
	CurrentConfig     ProviderConfig `toml:"current_config" json:"currentConfig"`
}

// RecordingConfig configures the PipeWire capture device
type RecordingConfig struct {
	SampleRate        int           `toml:"sample_rate" json:"sampleRate"`
	Channels          int           `toml:"channels" json:"channels"`
	BufferSize        int           `toml:"buffer_size" json:"bufferSize"`
	Device            string        `toml:"device" json:"device"`
	ChannelBufferSize int           `toml:"channel_buffer_size" json:"channelBufferSize"`
	Timeout           time.Duration `toml:"timeout" json:"timeout"`
}

// DefaultRecordingConfig returns the speech-friendly defaults
func DefaultRecordingConfig() RecordingConfig {
	return RecordingConfig{
		SampleRate:        16000,
		Channels:          1,
		BufferSize:        8192,
		Device:            "",
		ChannelBufferSize: 30,
		Timeout:           5 * time.Minute,
	}
}

func (r RecordingConfig) Validate() error {
	if r.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", r.SampleRate)
	}
	if r.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", r.Channels)
	}
	if r.BufferSize <= 0 {
		return fmt.Errorf("invalid recording.buffer_size: %d", r.BufferSize)
	}
	if r.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", r.ChannelBufferSize)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("invalid recording.timeout: %v", r.Timeout)
	}
	return nil
}
