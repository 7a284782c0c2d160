package tui

import (
	"context"

	"github.com/leonardotrapani/voxbridge/internal/config"
)

// Draft is the configuration being edited. Nothing is persisted until Save.
type Draft struct {
	Providers config.ProviderConfig
	Prompt    string
	Translate bool
	Recording config.RecordingConfig
}

func LoadDraft(ctx context.Context, store *config.Store) (*Draft, error) {
	providers, err := store.ProviderConfig.Get(ctx)
	if err != nil {
		return nil, err
	}
	prompt, err := store.Prompt.Get(ctx)
	if err != nil {
		return nil, err
	}
	translate, err := store.EnableTranslation.Get(ctx)
	if err != nil {
		return nil, err
	}
	recording, err := store.Recording.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &Draft{
		Providers: providers.Clone(),
		Prompt:    prompt,
		Translate: translate,
		Recording: recording,
	}, nil
}

func (d *Draft) Save(ctx context.Context, store *config.Store) error {
	if err := d.Recording.Validate(); err != nil {
		return err
	}
	if err := store.ProviderConfig.Set(ctx, d.Providers); err != nil {
		return err
	}
	if err := store.Prompt.Set(ctx, d.Prompt); err != nil {
		return err
	}
	if err := store.EnableTranslation.Set(ctx, d.Translate); err != nil {
		return err
	}
	return store.Recording.Set(ctx, d.Recording)
}

// Selected returns the settings of the selected provider, empty if unset.
func (d *Draft) Selected() config.ProviderSettings {
	s, _ := d.Providers.Selected()
	return s
}

// Update applies fn to the selected provider's settings.
func (d *Draft) Update(fn func(*config.ProviderSettings)) {
	s := d.Selected()
	fn(&s)
	d.Providers.Providers[d.Providers.SelectedProvider] = s
}

// SetSetting stores a free-form setting; an empty value removes it.
func (d *Draft) SetSetting(name, value string) {
	d.Update(func(s *config.ProviderSettings) {
		if value == "" {
			delete(s.Settings, name)
			return
		}
		if s.Settings == nil {
			s.Settings = make(map[string]string)
		}
		s.Settings[name] = value
	})
}
