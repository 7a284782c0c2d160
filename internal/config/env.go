package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/leonardotrapani/voxbridge/internal/provider"
)

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// WithEnvTokens fills the selected provider's empty token from its
// environment variable (OPENAI_API_KEY, GROQ_API_KEY). The input is not modified.
func WithEnvTokens(c ProviderConfig, getenv func(string) string) ProviderConfig {
	if getenv == nil {
		getenv = os.Getenv
	}
	out := c.Clone()

	envVar := provider.EnvVarForProvider(out.SelectedProvider)
	if envVar == "" {
		return out
	}
	settings := out.Providers[out.SelectedProvider]
	if settings.Token != "" {
		return out
	}
	if token := getenv(envVar); token != "" {
		settings.Token = token
		out.Providers[out.SelectedProvider] = settings
	}
	return out
}
