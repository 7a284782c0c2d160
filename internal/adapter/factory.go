package adapter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alphadose/haxmap"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/leonardotrapani/voxbridge/internal/provider"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrNoToken             = errors.New("no token configured")
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// ConfigError is a setup problem resolving the selected provider.
type ConfigError struct {
	Err        error
	ProviderID string
}

func (e *ConfigError) Error() string {
	switch e.Err {
	case ErrUnknownProvider:
		return "Unknown provider: " + e.ProviderID
	case ErrNoToken:
		return "No token configured for provider: " + e.ProviderID
	case ErrUnsupportedProvider:
		return "Unsupported provider: " + e.ProviderID
	}
	return fmt.Sprintf("%v: %s", e.Err, e.ProviderID)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Factory resolves a ProviderConfig to a live adapter and caches it.
//
// Entries are keyed by provider id plus a hash of the provider's settings,
// so a token, model or prompt change always yields a fresh adapter even if
// nobody cleared the cache. At most one entry per provider id is kept.
type Factory struct {
	adapters *haxmap.Map[string, Adapter]
	opts     []Option
	logger   zerolog.Logger
}

// NewFactory creates an empty cache. opts are passed to every adapter.
func NewFactory(opts ...Option) *Factory {
	return &Factory{
		adapters: haxmap.New[string, Adapter](),
		opts:     opts,
		logger:   logging.Component("factory"),
	}
}

// GetProvider returns the adapter for cfg.SelectedProvider.
func (f *Factory) GetProvider(cfg config.ProviderConfig) (Adapter, error) {
	id := cfg.SelectedProvider

	p, ok := provider.Get(id)
	if !ok {
		return nil, &ConfigError{Err: ErrUnknownProvider, ProviderID: id}
	}
	settings, ok := cfg.Providers[id]
	if !ok || settings.Token == "" {
		return nil, &ConfigError{Err: ErrNoToken, ProviderID: id}
	}

	key, err := cacheKey(id, settings)
	if err != nil {
		return nil, fmt.Errorf("hash settings for %s: %w", id, err)
	}
	if a, ok := f.adapters.Get(key); ok {
		return a, nil
	}

	a, err := f.create(p, settings)
	if err != nil {
		return nil, err
	}

	f.Invalidate(id)
	f.adapters.Set(key, a)
	f.logger.Info().
		Str(logging.FieldProvider, id).
		Str("model", a.Model()).
		Str("token", logging.Redact(settings.Token)).
		Msg("created adapter")
	return a, nil
}

func (f *Factory) create(p provider.ApiProvider, settings config.ProviderSettings) (Adapter, error) {
	switch p.ID {
	case provider.ProviderOpenAI:
		return NewOpenAI(p, settings, f.opts...), nil
	case provider.ProviderGroq:
		return NewGroq(p, settings, f.opts...), nil
	default:
		return nil, &ConfigError{Err: ErrUnsupportedProvider, ProviderID: p.ID}
	}
}

// Invalidate drops every cached adapter of one provider.
func (f *Factory) Invalidate(id string) {
	var stale []string
	f.adapters.ForEach(func(key string, _ Adapter) bool {
		if strings.HasPrefix(key, id+":") {
			stale = append(stale, key)
		}
		return true
	})
	if len(stale) > 0 {
		f.adapters.Del(stale...)
	}
}

// ClearProviders drops the whole cache. Call it after any configuration write.
func (f *Factory) ClearProviders() {
	var keys []string
	f.adapters.ForEach(func(key string, _ Adapter) bool {
		keys = append(keys, key)
		return true
	})
	if len(keys) > 0 {
		f.adapters.Del(keys...)
	}
	f.logger.Debug().Int("dropped", len(keys)).Msg("cleared adapter cache")
}

// Len returns the number of cached adapters.
func (f *Factory) Len() int {
	return int(f.adapters.Len())
}

func cacheKey(id string, settings config.ProviderSettings) (string, error) {
	h, err := hashstructure.Hash(settings, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return id + ":" + strconv.FormatUint(h, 16), nil
}
